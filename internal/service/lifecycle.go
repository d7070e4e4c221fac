package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/dispatch-contracts/internal/config"
	"github.com/nurpe/dispatch-contracts/internal/model"
	"github.com/nurpe/dispatch-contracts/internal/repository"
)

// Create retries number generation this many times before giving up
// with NUMBER_GENERATION_CONFLICT.
const numberRetries = 3

// ContractService owns the contract lifecycle: creation, activation,
// deletion, expiry sweep, signing, renewal and the read surface. Every
// mutating operation runs inside a single transaction so a partial
// failure is never observable.
type ContractService struct {
	db          *gorm.DB
	contracts   *repository.ContractRepository
	assignments *repository.AssignmentRepository
	directory   *repository.DirectoryRepository
	numbers     *NumberGenerator
	conflict    *ConflictValidator
	resolver    *AssignmentResolver
	rates       *RateResolver
	cfg         config.ContractsConfig
	log         zerolog.Logger
	now         func() time.Time
}

func NewContractService(
	db *gorm.DB,
	contracts *repository.ContractRepository,
	assignments *repository.AssignmentRepository,
	directory *repository.DirectoryRepository,
	numbers *NumberGenerator,
	conflict *ConflictValidator,
	resolver *AssignmentResolver,
	rates *RateResolver,
	cfg config.ContractsConfig,
	log zerolog.Logger,
) *ContractService {
	return &ContractService{
		db:          db,
		contracts:   contracts,
		assignments: assignments,
		directory:   directory,
		numbers:     numbers,
		conflict:    conflict,
		resolver:    resolver,
		rates:       rates,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
	}
}

type CreateContractInput struct {
	SiteID            uuid.UUID
	DispatchStartDate time.Time
	DispatchEndDate   time.Time
	HourlyRate        *float64
	OvertimeRate      *float64
	NightRate         *float64
	HolidayRate       *float64
	ComplaintHandler  model.ContactPerson
	DispatchManager   model.ContactPerson
	Notes             string
	WorkerIDs         []uuid.UUID
}

// Create validates dates and the site conflict date, then creates a
// draft contract with a fresh number and the initial workers attached.
// Conflict-date advisories come back as warnings on success.
func (s *ContractService) Create(ctx context.Context, input CreateContractInput) (*model.Contract, []string, error) {
	start := dateOnly(input.DispatchStartDate)
	end := dateOnly(input.DispatchEndDate)
	if start.IsZero() || end.IsZero() {
		return nil, nil, fmt.Errorf("%w: dispatch dates are required", ErrInvalidInput)
	}
	if end.Before(start) {
		return nil, nil, fmt.Errorf("%w: dispatch end date before start date", ErrInvalidInput)
	}

	site, err := s.directory.GetSite(ctx, input.SiteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrSiteNotFound, input.SiteID)
		}
		return nil, nil, err
	}

	warnings, err := s.conflict.Validate(site, end)
	if err != nil {
		return nil, nil, err
	}

	workerIDs := dedupe(input.WorkerIDs)

	var contract *model.Contract
	for attempt := 0; attempt < numberRetries; attempt++ {
		contract, err = s.createTx(ctx, input, start, end, workerIDs)
		if err == nil {
			return contract, warnings, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, err
		}
		s.log.Warn().Int("attempt", attempt+1).Msg("contract number collision, regenerating")
	}
	return nil, nil, fmt.Errorf("%w: after %d attempts", ErrNumberGenerationConflict, numberRetries)
}

func (s *ContractService) createTx(ctx context.Context, input CreateContractInput, start, end time.Time, workerIDs []uuid.UUID) (*model.Contract, error) {
	var contract *model.Contract

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contracts := s.contracts.WithTx(tx)

		number, err := s.numbers.Next(ctx, contracts, s.now())
		if err != nil {
			return err
		}

		contract = &model.Contract{
			ContractNumber:    number,
			SiteID:            input.SiteID,
			Status:            model.ContractStatusDraft,
			DispatchStartDate: start,
			DispatchEndDate:   end,
			HourlyRate:        input.HourlyRate,
			OvertimeRate:      input.OvertimeRate,
			NightRate:         input.NightRate,
			HolidayRate:       input.HolidayRate,
			ComplaintHandler:  input.ComplaintHandler,
			DispatchManager:   input.DispatchManager,
			Notes:             input.Notes,
		}
		if err := contracts.Create(ctx, contract); err != nil {
			return err
		}

		for _, workerID := range workerIDs {
			if _, err := s.resolver.addWorkerTx(ctx, tx, contract.ID, workerID, AddWorkerInput{}); err != nil {
				return err
			}
		}

		loaded, err := contracts.GetByID(ctx, contract.ID)
		if err != nil {
			return err
		}
		contract = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// Activate moves a draft contract to active. Activation requires at
// least one attached worker.
func (s *ContractService) Activate(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	return s.transition(ctx, id, model.ContractStatusActive, func(contract *model.Contract) error {
		if contract.WorkerCount == 0 {
			return fmt.Errorf("%w: cannot activate a contract without workers", ErrInvalidTransition)
		}
		return nil
	})
}

// SoftDelete cancels a contract from any non-terminal status.
func (s *ContractService) SoftDelete(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	return s.transition(ctx, id, model.ContractStatusCancelled, nil)
}

func (s *ContractService) transition(ctx context.Context, id uuid.UUID, next model.ContractStatus, check func(*model.Contract) error) (*model.Contract, error) {
	var contract *model.Contract

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contracts := s.contracts.WithTx(tx)

		loaded, err := contracts.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrContractNotFound, id)
			}
			return err
		}
		if !loaded.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, loaded.Status, next)
		}
		if check != nil {
			if err := check(loaded); err != nil {
				return err
			}
		}

		loaded.Status = next
		loaded.UpdatedAt = s.now()
		if err := contracts.Save(ctx, loaded); err != nil {
			return err
		}
		contract = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// HardDelete removes a draft contract and all its worker assignments.
// Any other status is refused; retired contracts are kept for audit.
func (s *ContractService) HardDelete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contracts := s.contracts.WithTx(tx)
		assignments := s.assignments.WithTx(tx)

		contract, err := contracts.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrContractNotFound, id)
			}
			return err
		}
		if contract.Status != model.ContractStatusDraft {
			return fmt.Errorf("%w: hard delete only allowed in DRAFT, contract is %s", ErrInvalidTransition, contract.Status)
		}

		if err := assignments.DeleteByContract(ctx, contract.ID); err != nil {
			return err
		}
		return contracts.Delete(ctx, contract.ID)
	})
}

// SweepExpired expires every active contract whose end date lies before
// today. Idempotent; meant to be run daily by the scheduler.
func (s *ContractService) SweepExpired(ctx context.Context, today time.Time) (int64, error) {
	var swept int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := s.contracts.WithTx(tx).MarkExpired(ctx, dateOnly(today), s.now())
		if err != nil {
			return err
		}
		swept = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		s.log.Info().Int64("count", swept).Msg("expired contracts swept")
	}
	return swept, nil
}

// Sign records the external document reference and signing time. The
// status is left untouched.
func (s *ContractService) Sign(ctx context.Context, id uuid.UUID, documentRef string) (*model.Contract, error) {
	if documentRef == "" {
		return nil, fmt.Errorf("%w: document reference is required", ErrInvalidInput)
	}

	var contract *model.Contract
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contracts := s.contracts.WithTx(tx)

		loaded, err := contracts.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrContractNotFound, id)
			}
			return err
		}

		signedAt := s.now()
		loaded.SignedDocumentRef = &documentRef
		loaded.SignedAt = &signedAt
		if err := contracts.Save(ctx, loaded); err != nil {
			return err
		}
		contract = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

type UpdateContractInput struct {
	DispatchStartDate *time.Time
	DispatchEndDate   *time.Time
	HourlyRate        *float64
	OvertimeRate      *float64
	NightRate         *float64
	HolidayRate       *float64
	ComplaintHandler  *model.ContactPerson
	DispatchManager   *model.ContactPerson
	Notes             *string
}

// Update applies a partial update. Terminal contracts are immutable;
// dispatch dates can only change while the contract is still a draft,
// and a changed end date is re-validated against the site conflict date.
func (s *ContractService) Update(ctx context.Context, id uuid.UUID, input UpdateContractInput) (*model.Contract, []string, error) {
	var contract *model.Contract
	var warnings []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contracts := s.contracts.WithTx(tx)
		directory := s.directory.WithTx(tx)

		loaded, err := contracts.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrContractNotFound, id)
			}
			return err
		}
		if loaded.Status.IsTerminal() {
			return fmt.Errorf("%w: contract is %s", ErrInvalidTransition, loaded.Status)
		}

		datesChanged := input.DispatchStartDate != nil || input.DispatchEndDate != nil
		if datesChanged && loaded.Status != model.ContractStatusDraft {
			return fmt.Errorf("%w: dispatch dates can only change in DRAFT", ErrInvalidTransition)
		}

		if input.DispatchStartDate != nil {
			loaded.DispatchStartDate = dateOnly(*input.DispatchStartDate)
		}
		if input.DispatchEndDate != nil {
			loaded.DispatchEndDate = dateOnly(*input.DispatchEndDate)
		}
		if loaded.DispatchEndDate.Before(loaded.DispatchStartDate) {
			return fmt.Errorf("%w: dispatch end date before start date", ErrInvalidInput)
		}
		if input.DispatchEndDate != nil {
			site, err := directory.GetSite(ctx, loaded.SiteID)
			if err != nil {
				return err
			}
			advisories, err := s.conflict.Validate(site, loaded.DispatchEndDate)
			if err != nil {
				return err
			}
			warnings = advisories
		}

		if input.HourlyRate != nil {
			loaded.HourlyRate = input.HourlyRate
		}
		if input.OvertimeRate != nil {
			loaded.OvertimeRate = input.OvertimeRate
		}
		if input.NightRate != nil {
			loaded.NightRate = input.NightRate
		}
		if input.HolidayRate != nil {
			loaded.HolidayRate = input.HolidayRate
		}
		if input.ComplaintHandler != nil {
			loaded.ComplaintHandler = *input.ComplaintHandler
		}
		if input.DispatchManager != nil {
			loaded.DispatchManager = *input.DispatchManager
		}
		if input.Notes != nil {
			loaded.Notes = *input.Notes
		}

		if err := contracts.Save(ctx, loaded); err != nil {
			return err
		}
		contract = loaded
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return contract, warnings, nil
}

func (s *ContractService) GetByID(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrContractNotFound, id)
		}
		return nil, err
	}
	return contract, nil
}

func (s *ContractService) GetByNumber(ctx context.Context, number string) (*model.Contract, error) {
	contract, err := s.contracts.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrContractNotFound, number)
		}
		return nil, err
	}
	return contract, nil
}

func (s *ContractService) List(ctx context.Context, filters repository.ContractFilters) ([]model.Contract, int64, error) {
	return s.contracts.List(ctx, filters)
}

// Stats aggregates dashboard counts, optionally for one site.
func (s *ContractService) Stats(ctx context.Context, siteID *uuid.UUID) (*repository.ContractStats, error) {
	today := dateOnly(s.now())
	limit := today.AddDate(0, 0, s.cfg.ExpiringWindowDays)
	return s.contracts.Stats(ctx, siteID, today, limit)
}

// ExpiringContracts lists active contracts ending within the window.
// A non-positive withinDays falls back to the configured default.
func (s *ContractService) ExpiringContracts(ctx context.Context, withinDays int) ([]model.Contract, error) {
	if withinDays <= 0 {
		withinDays = s.cfg.ExpiringWindowDays
	}
	today := dateOnly(s.now())
	return s.contracts.ListExpiring(ctx, today, today.AddDate(0, 0, withinDays))
}

// ConflictStatusForSite reports a site's standing against its conflict
// date, recomputed against the current date.
func (s *ContractService) ConflictStatusForSite(ctx context.Context, siteID uuid.UUID) (*ConflictStatus, error) {
	site, err := s.directory.GetSite(ctx, siteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSiteNotFound, siteID)
		}
		return nil, err
	}
	status := s.conflict.Status(site, dateOnly(s.now()))
	return &status, nil
}

// SiteConflict pairs a site with its conflict standing.
type SiteConflict struct {
	Site   model.Site     `json:"site"`
	Status ConflictStatus `json:"status"`
}

// SitesNearConflict lists active sites whose conflict date falls within
// the window (already-passed dates included), soonest first.
func (s *ContractService) SitesNearConflict(ctx context.Context, withinDays int) ([]SiteConflict, error) {
	if withinDays <= 0 {
		withinDays = s.cfg.WarningWindowDays
	}
	today := dateOnly(s.now())

	sites, err := s.directory.ListSitesNearConflict(ctx, today.AddDate(0, 0, withinDays))
	if err != nil {
		return nil, err
	}

	result := make([]SiteConflict, 0, len(sites))
	for _, site := range sites {
		result = append(result, SiteConflict{
			Site:   site,
			Status: s.conflict.Status(&site, today),
		})
	}
	return result, nil
}

// GetWorkers returns the contract roster with resolved rates per worker.
func (s *ContractService) GetWorkers(ctx context.Context, contractID uuid.UUID) ([]model.WorkerOnContract, error) {
	contract, err := s.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignments.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	roster := make([]model.WorkerOnContract, 0, len(assignments))
	for _, assignment := range assignments {
		worker, err := s.directory.GetWorker(ctx, assignment.WorkerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrEmployeeNotFound, assignment.WorkerID)
			}
			return nil, err
		}
		roster = append(roster, model.WorkerOnContract{
			Worker:     *worker,
			Assignment: assignment,
			Rates:      s.rates.Resolve(contract, &assignment, worker),
		})
	}
	return roster, nil
}

// Document assembles everything the paperwork generators need for one
// contract sheet.
func (s *ContractService) Document(ctx context.Context, contractID uuid.UUID) (*model.ContractDocument, error) {
	contract, err := s.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	site, err := s.directory.GetSite(ctx, contract.SiteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSiteNotFound, contract.SiteID)
		}
		return nil, err
	}
	workers, err := s.GetWorkers(ctx, contractID)
	if err != nil {
		return nil, err
	}
	return &model.ContractDocument{
		Contract: *contract,
		Site:     *site,
		Workers:  workers,
	}, nil
}

// Register assembles the contract register for the Excel export.
func (s *ContractService) Register(ctx context.Context, filters repository.ContractFilters) (*model.ContractRegister, error) {
	filters.Limit = 0
	filters.Offset = 0

	contracts, _, err := s.contracts.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	siteNames := make(map[uuid.UUID]string)
	entries := make([]model.RegisterEntry, 0, len(contracts))
	for _, contract := range contracts {
		name, ok := siteNames[contract.SiteID]
		if !ok {
			site, err := s.directory.GetSite(ctx, contract.SiteID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			if site != nil {
				name = site.Name
			}
			siteNames[contract.SiteID] = name
		}
		entries = append(entries, model.RegisterEntry{Contract: contract, SiteName: name})
	}

	return &model.ContractRegister{
		GeneratedAt: s.now(),
		Entries:     entries,
	}, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

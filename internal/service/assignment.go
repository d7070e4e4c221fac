package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/dispatch-contracts/internal/model"
	"github.com/nurpe/dispatch-contracts/internal/repository"
)

// Rate gap beyond which a joining worker gets their own contract, and
// the delay after contract start that marks a late joiner.
const (
	rateGapThreshold = 0.10
	lateJoinerDays   = 14
)

// AssignmentResolver decides how a worker attaches to dispatch work at a
// site and maintains the worker-contract links, keeping each contract's
// worker count consistent with the live links.
type AssignmentResolver struct {
	db          *gorm.DB
	contracts   *repository.ContractRepository
	assignments *repository.AssignmentRepository
	directory   *repository.DirectoryRepository
}

func NewAssignmentResolver(db *gorm.DB, contracts *repository.ContractRepository, assignments *repository.AssignmentRepository, directory *repository.DirectoryRepository) *AssignmentResolver {
	return &AssignmentResolver{
		db:          db,
		contracts:   contracts,
		assignments: assignments,
		directory:   directory,
	}
}

// FindExistingContract returns the active contract at the site whose
// dispatch period contains targetDate. When several overlap, the one
// with the earliest start date wins (then creation order); returns nil
// when there is no candidate.
func (r *AssignmentResolver) FindExistingContract(ctx context.Context, siteID uuid.UUID, targetDate time.Time) (*model.Contract, error) {
	candidates, err := r.contracts.ListActiveAtSite(ctx, siteID, dateOnly(targetDate))
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

// JoinDecision is the outcome of ShouldCreateNew.
type JoinDecision struct {
	CreateNew bool            `json:"create_new"`
	Reason    string          `json:"reason"`
	Notes     []string        `json:"notes,omitempty"`
	Existing  *model.Contract `json:"existing,omitempty"`
}

// ShouldCreateNew decides whether a worker starting at a site on
// startDate should join an existing active contract or needs a new one.
// A new contract is required when none exists, or when the worker's base
// rate is more than 10% away from the contract's hourly rate. Joining
// more than 14 days after the contract started is flagged as a note, not
// grounds for a new contract.
func (r *AssignmentResolver) ShouldCreateNew(ctx context.Context, workerID, siteID uuid.UUID, startDate time.Time) (*JoinDecision, error) {
	worker, err := r.directory.GetWorker(ctx, workerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrEmployeeNotFound, workerID)
		}
		return nil, err
	}

	existing, err := r.FindExistingContract(ctx, siteID, startDate)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return &JoinDecision{
			CreateNew: true,
			Reason:    "no active contract covers the start date at this site",
		}, nil
	}

	if existing.HourlyRate != nil && *existing.HourlyRate > 0 {
		gap := math.Abs(worker.HourlyRate-*existing.HourlyRate) / *existing.HourlyRate
		if gap > rateGapThreshold {
			return &JoinDecision{
				CreateNew: true,
				Reason: fmt.Sprintf("worker base rate %.0f differs from contract rate %.0f by %.0f%%",
					worker.HourlyRate, *existing.HourlyRate, gap*100),
				Existing: existing,
			}, nil
		}
	}

	decision := &JoinDecision{
		Reason:   fmt.Sprintf("contract %s covers the start date", existing.ContractNumber),
		Existing: existing,
	}
	if daysBetween(existing.DispatchStartDate, dateOnly(startDate)) > lateJoinerDays {
		decision.Notes = append(decision.Notes,
			fmt.Sprintf("worker joins %d days after contract start", daysBetween(existing.DispatchStartDate, dateOnly(startDate))))
	}
	return decision, nil
}

// AddWorkerInput carries the optional per-worker overrides for a new
// assignment. Nil fields fall back to the defaulting rules.
type AddWorkerInput struct {
	StartDate    *time.Time
	EndDate      *time.Time
	HourlyRate   *float64
	OvertimeRate *float64
	NightRate    *float64
	HolidayRate  *float64
}

// AddWorker attaches a worker to a contract inside one transaction:
// reference checks, duplicate check, individual-date range checks, rate
// defaulting (hourly from the worker's base rate, overtime at 1.25x
// hourly), then link creation and worker-count refresh. Nothing is
// written when any check fails.
func (r *AssignmentResolver) AddWorker(ctx context.Context, contractID, workerID uuid.UUID, input AddWorkerInput) (*model.WorkerAssignment, error) {
	var created *model.WorkerAssignment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assignment, err := r.addWorkerTx(ctx, tx, contractID, workerID, input)
		if err != nil {
			return err
		}
		created = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *AssignmentResolver) addWorkerTx(ctx context.Context, tx *gorm.DB, contractID, workerID uuid.UUID, input AddWorkerInput) (*model.WorkerAssignment, error) {
	contracts := r.contracts.WithTx(tx)
	assignments := r.assignments.WithTx(tx)
	directory := r.directory.WithTx(tx)

	contract, err := contracts.GetByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrContractNotFound, contractID)
		}
		return nil, err
	}

	worker, err := directory.GetWorker(ctx, workerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrEmployeeNotFound, workerID)
		}
		return nil, err
	}

	if _, err := assignments.GetByContractAndWorker(ctx, contractID, workerID); err == nil {
		return nil, fmt.Errorf("%w: worker %s on contract %s", ErrAlreadyAssigned, workerID, contract.ContractNumber)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if input.StartDate != nil && !contract.ContainsDate(dateOnly(*input.StartDate)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStartDate, input.StartDate.Format("2006-01-02"))
	}
	if input.EndDate != nil && !contract.ContainsDate(dateOnly(*input.EndDate)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEndDate, input.EndDate.Format("2006-01-02"))
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, fmt.Errorf("%w: before individual start date", ErrInvalidEndDate)
	}

	assignment := &model.WorkerAssignment{
		ContractID:             contractID,
		WorkerID:               workerID,
		StartDate:              normalizeDatePtr(input.StartDate),
		EndDate:                normalizeDatePtr(input.EndDate),
		HourlyRate:             input.HourlyRate,
		OvertimeRate:           input.OvertimeRate,
		NightRate:              input.NightRate,
		HolidayRate:            input.HolidayRate,
		IsIndefiniteEmployment: worker.IsIndefiniteEmployment,
	}
	if assignment.HourlyRate == nil {
		hourly := worker.HourlyRate
		assignment.HourlyRate = &hourly
	}
	if assignment.OvertimeRate == nil {
		overtime := *assignment.HourlyRate * OvertimeMultiplier
		assignment.OvertimeRate = &overtime
	}

	if err := assignments.Create(ctx, assignment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: worker %s on contract %s", ErrAlreadyAssigned, workerID, contract.ContractNumber)
		}
		return nil, err
	}

	if err := refreshWorkerCount(ctx, contracts, assignments, contract); err != nil {
		return nil, err
	}
	return assignment, nil
}

// RemoveWorker detaches a worker from a contract. With endDate set, the
// link is kept and the individual end date recorded (soft termination);
// otherwise the link is deleted and the worker count refreshed. Returns
// false when no link exists.
func (r *AssignmentResolver) RemoveWorker(ctx context.Context, contractID, workerID uuid.UUID, endDate *time.Time) (bool, error) {
	removed := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contracts := r.contracts.WithTx(tx)
		assignments := r.assignments.WithTx(tx)

		contract, err := contracts.GetByID(ctx, contractID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrContractNotFound, contractID)
			}
			return err
		}

		assignment, err := assignments.GetByContractAndWorker(ctx, contractID, workerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if endDate != nil {
			normalized := dateOnly(*endDate)
			if !contract.ContainsDate(normalized) {
				return fmt.Errorf("%w: %s", ErrInvalidEndDate, normalized.Format("2006-01-02"))
			}
			assignment.EndDate = &normalized
			if err := assignments.Save(ctx, assignment); err != nil {
				return err
			}
			removed = true
			return nil
		}

		if err := assignments.Delete(ctx, assignment.ID); err != nil {
			return err
		}
		if err := refreshWorkerCount(ctx, contracts, assignments, contract); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// refreshWorkerCount recomputes the contract's worker count from the
// live links so the derived field never drifts.
func refreshWorkerCount(ctx context.Context, contracts *repository.ContractRepository, assignments *repository.AssignmentRepository, contract *model.Contract) error {
	count, err := assignments.CountByContract(ctx, contract.ID)
	if err != nil {
		return err
	}
	contract.WorkerCount = int(count)
	return contracts.Save(ctx, contract)
}

func normalizeDatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	normalized := dateOnly(*t)
	return &normalized
}

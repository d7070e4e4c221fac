package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/dispatch-contracts/internal/model"
)

// Renew marks the original contract renewed and creates a successor
// draft starting the day after the original ends, carrying the site,
// rate, contact and note fields forward and re-attaching the same
// workers with fresh links (individual overrides are not copied).
//
// newEnd is not clamped: a date past the site conflict date is rejected
// with CONFLICT_DATE_EXCEEDED. Callers wanting a safe date use
// SuggestContractDates first.
func (s *ContractService) Renew(ctx context.Context, id uuid.UUID, newEnd time.Time) (*model.Contract, []string, error) {
	var successor *model.Contract
	var warnings []string

	run := func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			contracts := s.contracts.WithTx(tx)
			directory := s.directory.WithTx(tx)

			original, err := contracts.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", ErrContractNotFound, id)
				}
				return err
			}
			if !original.Status.CanTransitionTo(model.ContractStatusRenewed) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, original.Status, model.ContractStatusRenewed)
			}

			site, err := directory.GetSite(ctx, original.SiteID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", ErrSiteNotFound, original.SiteID)
				}
				return err
			}

			end := dateOnly(newEnd)
			advisories, err := s.conflict.Validate(site, end)
			if err != nil {
				return err
			}
			warnings = advisories

			start := original.DispatchEndDate.AddDate(0, 0, 1)
			if end.Before(start) {
				return fmt.Errorf("%w: renewal end %s before successor start %s",
					ErrInvalidEndDate, end.Format("2006-01-02"), start.Format("2006-01-02"))
			}

			original.Status = model.ContractStatusRenewed
			original.UpdatedAt = s.now()
			if err := contracts.Save(ctx, original); err != nil {
				return err
			}

			copied, err := s.copyContractTx(ctx, tx, original, start, end)
			if err != nil {
				return err
			}
			successor = copied
			return nil
		})
	}

	if err := s.retryOnNumberCollision(run); err != nil {
		return nil, nil, err
	}
	return successor, warnings, nil
}

// Duplicate creates an unrelated draft copy of a contract, keeping its
// dates and leaving the original untouched.
func (s *ContractService) Duplicate(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var copied *model.Contract

	run := func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			contracts := s.contracts.WithTx(tx)

			original, err := contracts.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", ErrContractNotFound, id)
				}
				return err
			}

			created, err := s.copyContractTx(ctx, tx, original, original.DispatchStartDate, original.DispatchEndDate)
			if err != nil {
				return err
			}
			copied = created
			return nil
		})
	}

	if err := s.retryOnNumberCollision(run); err != nil {
		return nil, err
	}
	return copied, nil
}

// copyContractTx creates a draft clone of original with the given dates
// and fresh assignment rows for the same workers, without individual
// overrides.
func (s *ContractService) copyContractTx(ctx context.Context, tx *gorm.DB, original *model.Contract, start, end time.Time) (*model.Contract, error) {
	contracts := s.contracts.WithTx(tx)
	assignments := s.assignments.WithTx(tx)

	number, err := s.numbers.Next(ctx, contracts, s.now())
	if err != nil {
		return nil, err
	}

	existing, err := assignments.ListByContract(ctx, original.ID)
	if err != nil {
		return nil, err
	}

	clone := &model.Contract{
		ContractNumber:    number,
		SiteID:            original.SiteID,
		Status:            model.ContractStatusDraft,
		DispatchStartDate: start,
		DispatchEndDate:   end,
		WorkerCount:       len(existing),
		HourlyRate:        original.HourlyRate,
		OvertimeRate:      original.OvertimeRate,
		NightRate:         original.NightRate,
		HolidayRate:       original.HolidayRate,
		ComplaintHandler:  original.ComplaintHandler,
		DispatchManager:   original.DispatchManager,
		Notes:             original.Notes,
	}
	if err := contracts.Create(ctx, clone); err != nil {
		return nil, err
	}

	for _, assignment := range existing {
		fresh := &model.WorkerAssignment{
			ContractID:             clone.ID,
			WorkerID:               assignment.WorkerID,
			IsIndefiniteEmployment: assignment.IsIndefiniteEmployment,
		}
		if err := assignments.Create(ctx, fresh); err != nil {
			return nil, err
		}
	}
	return clone, nil
}

func (s *ContractService) retryOnNumberCollision(run func() error) error {
	var err error
	for attempt := 0; attempt < numberRetries; attempt++ {
		err = run()
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		s.log.Warn().Int("attempt", attempt+1).Msg("contract number collision, regenerating")
	}
	return fmt.Errorf("%w: after %d attempts", ErrNumberGenerationConflict, numberRetries)
}

// DateSuggestion is the proposal returned by SuggestContractDates.
type DateSuggestion struct {
	SuggestedStart time.Time  `json:"suggested_start"`
	SuggestedEnd   time.Time  `json:"suggested_end"`
	MaxEnd         time.Time  `json:"max_end"`
	ConflictDate   *time.Time `json:"conflict_date"`
	Warnings       []string   `json:"warnings,omitempty"`
}

// SuggestContractDates proposes a dispatch period starting at
// workerStart and ending preferredMonths later, snapped to the end of
// that calendar month and clamped down to the site's conflict date and
// the statutory term ceiling.
func (s *ContractService) SuggestContractDates(ctx context.Context, siteID uuid.UUID, workerStart time.Time, preferredMonths int) (*DateSuggestion, error) {
	if preferredMonths <= 0 {
		return nil, fmt.Errorf("%w: preferred_months must be positive", ErrInvalidInput)
	}

	site, err := s.directory.GetSite(ctx, siteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSiteNotFound, siteID)
		}
		return nil, err
	}

	start := dateOnly(workerStart)
	// Month arithmetic on the year/month pair directly, so a day-31
	// start cannot overflow into the following month.
	startYear, startMonth, _ := start.Date()
	suggestedEnd := endOfMonth(time.Date(startYear, startMonth+time.Month(preferredMonths), 1, 0, 0, 0, 0, time.UTC))

	suggestion := &DateSuggestion{
		SuggestedStart: start,
		SuggestedEnd:   suggestedEnd,
		MaxEnd:         s.conflict.MaxAllowedEndDate(site, start),
	}
	if site.ConflictDate != nil {
		conflict := dateOnly(*site.ConflictDate)
		suggestion.ConflictDate = &conflict

		if suggestion.SuggestedEnd.After(conflict) {
			suggestion.SuggestedEnd = conflict
			suggestion.Warnings = append(suggestion.Warnings,
				fmt.Sprintf("end date clamped to site conflict date %s", conflict.Format("2006-01-02")))
		}
		if daysBetween(start, conflict) < s.conflict.dangerWindowDays {
			suggestion.Warnings = append(suggestion.Warnings,
				fmt.Sprintf("site conflict date %s is less than %d days from the start date",
					conflict.Format("2006-01-02"), s.conflict.dangerWindowDays))
		}
	}
	if suggestion.SuggestedEnd.After(suggestion.MaxEnd) {
		suggestion.SuggestedEnd = suggestion.MaxEnd
		suggestion.Warnings = append(suggestion.Warnings, "end date clamped to the statutory maximum dispatch term")
	}
	return suggestion, nil
}

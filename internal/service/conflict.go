package service

import (
	"fmt"
	"time"

	"github.com/nurpe/dispatch-contracts/internal/config"
	"github.com/nurpe/dispatch-contracts/internal/model"
)

type WarningLevel string

const (
	WarningLevelExpired WarningLevel = "expired"
	WarningLevelDanger  WarningLevel = "danger"
	WarningLevelWarning WarningLevel = "warning"
	WarningLevelOK      WarningLevel = "ok"
	WarningLevelUnknown WarningLevel = "unknown"
)

// ConflictStatus describes where a site stands relative to its statutory
// conflict date. DaysRemaining is nil when no conflict date is set.
type ConflictStatus struct {
	ConflictDate  *time.Time   `json:"conflict_date"`
	DaysRemaining *int         `json:"days_remaining"`
	WarningLevel  WarningLevel `json:"warning_level"`
	Message       string       `json:"message"`
}

// ConflictValidator enforces the statutory rule that dispatch to a site
// may not continue past the site's conflict date, and computes the
// warning levels shown on dashboards.
type ConflictValidator struct {
	dangerWindowDays  int
	warningWindowDays int
	maxTermYears      int
}

func NewConflictValidator(cfg config.ContractsConfig) *ConflictValidator {
	return &ConflictValidator{
		dangerWindowDays:  cfg.DangerWindowDays,
		warningWindowDays: cfg.WarningWindowDays,
		maxTermYears:      cfg.MaxTermYears,
	}
}

// Validate checks a candidate dispatch end date against the site's
// conflict date. A missing conflict date is a data-quality advisory, not
// a rejection; an end date within the danger window yields a near-expiry
// advisory on the otherwise valid result.
func (v *ConflictValidator) Validate(site *model.Site, candidateEnd time.Time) ([]string, error) {
	if site.ConflictDate == nil {
		return []string{fmt.Sprintf("site %s has no conflict date registered; verify the statutory limit before dispatch", site.Name)}, nil
	}

	conflict := dateOnly(*site.ConflictDate)
	end := dateOnly(candidateEnd)

	if end.After(conflict) {
		daysOver := daysBetween(conflict, end)
		return nil, fmt.Errorf("%w: end date %s exceeds conflict date %s by %d days",
			ErrConflictDateExceeded, end.Format("2006-01-02"), conflict.Format("2006-01-02"), daysOver)
	}

	var warnings []string
	if remaining := daysBetween(end, conflict); remaining <= v.dangerWindowDays {
		warnings = append(warnings, fmt.Sprintf("end date is within %d days of the site conflict date (%s)",
			v.dangerWindowDays, conflict.Format("2006-01-02")))
	}
	return warnings, nil
}

// Status recomputes the site's conflict standing against today on every
// call; nothing is cached.
func (v *ConflictValidator) Status(site *model.Site, today time.Time) ConflictStatus {
	if site.ConflictDate == nil {
		return ConflictStatus{
			WarningLevel: WarningLevelUnknown,
			Message:      "no conflict date registered for this site",
		}
	}

	conflict := dateOnly(*site.ConflictDate)
	remaining := daysBetween(today, conflict)
	status := ConflictStatus{
		ConflictDate:  &conflict,
		DaysRemaining: &remaining,
	}

	switch {
	case remaining < 0:
		status.WarningLevel = WarningLevelExpired
		status.Message = fmt.Sprintf("conflict date passed %d days ago; dispatch to this site must not continue", -remaining)
	case remaining <= v.dangerWindowDays:
		status.WarningLevel = WarningLevelDanger
		status.Message = fmt.Sprintf("conflict date in %d days; arrange direct employment or end dispatch", remaining)
	case remaining <= v.warningWindowDays:
		status.WarningLevel = WarningLevelWarning
		status.Message = fmt.Sprintf("conflict date in %d days", remaining)
	default:
		status.WarningLevel = WarningLevelOK
		status.Message = fmt.Sprintf("conflict date in %d days", remaining)
	}
	return status
}

// MaxAllowedEndDate is the statutory ceiling for any new contract end
// date: the lesser of today plus the maximum dispatch term and the
// site's conflict date.
func (v *ConflictValidator) MaxAllowedEndDate(site *model.Site, today time.Time) time.Time {
	ceiling := dateOnly(today).AddDate(v.maxTermYears, 0, 0)
	if site.ConflictDate == nil {
		return ceiling
	}
	return minDate(ceiling, dateOnly(*site.ConflictDate))
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkerAssignment links a worker to a contract. Individual dates and
// rates are overrides; when nil the contract (or worker base rate)
// applies. Individual dates must fall inside the contract period.
type WorkerAssignment struct {
	ID                      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID              uuid.UUID  `gorm:"type:uuid;index;uniqueIndex:uq_contract_worker" json:"contract_id"`
	WorkerID                uuid.UUID  `gorm:"type:uuid;index;uniqueIndex:uq_contract_worker" json:"worker_id"`
	StartDate               *time.Time `json:"start_date"`
	EndDate                 *time.Time `json:"end_date"`
	HourlyRate              *float64   `json:"hourly_rate"`
	OvertimeRate            *float64   `json:"overtime_rate"`
	NightRate               *float64   `json:"night_rate"`
	HolidayRate             *float64   `json:"holiday_rate"`
	IsIndefiniteEmployment  bool       `json:"is_indefinite_employment"`
	CreatedAt               time.Time  `json:"created_at"`
}

func (a *WorkerAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// RateSource tags which tier supplied the resolved hourly rate.
type RateSource string

const (
	RateSourceIndividual RateSource = "individual"
	RateSourceContract   RateSource = "contract"
)

// ResolvedRates is the effective rate set for one worker in one contract.
type ResolvedRates struct {
	Hourly   float64    `json:"hourly"`
	Overtime float64    `json:"overtime"`
	Night    float64    `json:"night"`
	Holiday  float64    `json:"holiday"`
	Source   RateSource `json:"source"`
}

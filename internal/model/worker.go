package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkerStatus string

const (
	WorkerStatusActive   WorkerStatus = "ACTIVE"
	WorkerStatusInactive WorkerStatus = "INACTIVE"
)

// Worker is a dispatched employee of the agency. HourlyRate is the base
// rate used as the lowest-priority fallback during rate resolution.
type Worker struct {
	ID                     uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name                   string       `gorm:"size:255" json:"name"`
	HourlyRate             float64      `json:"hourly_rate"`
	IsIndefiniteEmployment bool         `json:"is_indefinite_employment"`
	Status                 WorkerStatus `gorm:"size:16" json:"status"`
	CreatedAt              time.Time    `json:"created_at"`
	UpdatedAt              time.Time    `json:"updated_at"`
}

func (w *Worker) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

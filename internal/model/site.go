package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Site is one client factory location workers are dispatched to. The
// conflict date is the statutory ceiling on how long dispatch to the
// site may continue; nil means it has not been registered yet.
type Site struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string     `gorm:"size:255" json:"name"`
	Address      string     `gorm:"size:255" json:"address"`
	ConflictDate *time.Time `json:"conflict_date"`
	HourlyRate   *float64   `json:"hourly_rate"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (s *Site) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

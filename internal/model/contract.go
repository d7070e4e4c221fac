package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContractStatus string

const (
	ContractStatusDraft     ContractStatus = "DRAFT"
	ContractStatusActive    ContractStatus = "ACTIVE"
	ContractStatusExpired   ContractStatus = "EXPIRED"
	ContractStatusCancelled ContractStatus = "CANCELLED"
	ContractStatusRenewed   ContractStatus = "RENEWED"
)

// IsTerminal reports whether no further transitions are defined out of s.
func (s ContractStatus) IsTerminal() bool {
	switch s {
	case ContractStatusExpired, ContractStatusCancelled, ContractStatusRenewed:
		return true
	}
	return false
}

var allowedTransitions = map[ContractStatus][]ContractStatus{
	ContractStatusDraft:  {ContractStatusActive, ContractStatusCancelled},
	ContractStatusActive: {ContractStatusExpired, ContractStatusCancelled, ContractStatusRenewed},
}

// CanTransitionTo reports whether the status change s -> next is allowed.
// Transitions are one-directional; terminal statuses allow none.
func (s ContractStatus) CanTransitionTo(next ContractStatus) bool {
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ContactPerson is the structured contact block required on every
// individual contract (complaint handler, dispatch manager).
type ContactPerson struct {
	Department string `json:"department"`
	Position   string `json:"position"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

// Contract is one individual labor-dispatch agreement between the agency
// and a client site. Rates are nullable defaults; per-worker overrides
// live on WorkerAssignment.
type Contract struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ContractNumber    string         `gorm:"size:32;uniqueIndex:uq_contract_number" json:"contract_number"`
	SiteID            uuid.UUID      `gorm:"type:uuid;index" json:"site_id"`
	Status            ContractStatus `gorm:"size:16;index" json:"status"`
	DispatchStartDate time.Time      `json:"dispatch_start_date"`
	DispatchEndDate   time.Time      `json:"dispatch_end_date"`
	WorkerCount       int            `json:"worker_count"`
	HourlyRate        *float64       `json:"hourly_rate"`
	OvertimeRate      *float64       `json:"overtime_rate"`
	NightRate         *float64       `json:"night_rate"`
	HolidayRate       *float64       `json:"holiday_rate"`
	ComplaintHandler  ContactPerson  `gorm:"embedded;embeddedPrefix:complaint_handler_" json:"complaint_handler"`
	DispatchManager   ContactPerson  `gorm:"embedded;embeddedPrefix:dispatch_manager_" json:"dispatch_manager"`
	Notes             string         `json:"notes"`
	SignedDocumentRef *string        `gorm:"size:255" json:"signed_document_ref"`
	SignedAt          *time.Time     `json:"signed_at"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ContainsDate reports whether d falls inside the dispatch period,
// boundaries included.
func (c *Contract) ContainsDate(d time.Time) bool {
	return !d.Before(c.DispatchStartDate) && !d.After(c.DispatchEndDate)
}

// ContractDocument bundles everything the paperwork generators need for
// one contract sheet.
type ContractDocument struct {
	Contract Contract
	Site     Site
	Workers  []WorkerOnContract
}

// WorkerOnContract is one roster line: the worker, their assignment and
// the rates resolved for them.
type WorkerOnContract struct {
	Worker     Worker           `json:"worker"`
	Assignment WorkerAssignment `json:"assignment"`
	Rates      ResolvedRates    `json:"rates"`
}

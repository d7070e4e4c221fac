package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS sites (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		address VARCHAR(255) NOT NULL DEFAULT '',
		conflict_date DATE,
		hourly_rate NUMERIC(10,2),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS workers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		hourly_rate NUMERIC(10,2) NOT NULL DEFAULT 0,
		is_indefinite_employment BOOLEAN NOT NULL DEFAULT FALSE,
		status VARCHAR(16) NOT NULL DEFAULT 'ACTIVE',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_number VARCHAR(32) NOT NULL,
		site_id UUID NOT NULL REFERENCES sites(id),
		status VARCHAR(16) NOT NULL DEFAULT 'DRAFT',
		dispatch_start_date DATE NOT NULL,
		dispatch_end_date DATE NOT NULL,
		worker_count INTEGER NOT NULL DEFAULT 0,
		hourly_rate NUMERIC(10,2),
		overtime_rate NUMERIC(10,2),
		night_rate NUMERIC(10,2),
		holiday_rate NUMERIC(10,2),
		complaint_handler_department VARCHAR(255) NOT NULL DEFAULT '',
		complaint_handler_position VARCHAR(255) NOT NULL DEFAULT '',
		complaint_handler_name VARCHAR(255) NOT NULL DEFAULT '',
		complaint_handler_phone VARCHAR(64) NOT NULL DEFAULT '',
		dispatch_manager_department VARCHAR(255) NOT NULL DEFAULT '',
		dispatch_manager_position VARCHAR(255) NOT NULL DEFAULT '',
		dispatch_manager_name VARCHAR(255) NOT NULL DEFAULT '',
		dispatch_manager_phone VARCHAR(64) NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		signed_document_ref VARCHAR(255),
		signed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT chk_contract_dates CHECK (dispatch_start_date <= dispatch_end_date)
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contract_number ON contracts (contract_number);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_site_id ON contracts (site_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_status ON contracts (status);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_end_date ON contracts (dispatch_end_date);`,
	`CREATE TABLE IF NOT EXISTS worker_assignments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		worker_id UUID NOT NULL REFERENCES workers(id),
		start_date DATE,
		end_date DATE,
		hourly_rate NUMERIC(10,2),
		overtime_rate NUMERIC(10,2),
		night_rate NUMERIC(10,2),
		holiday_rate NUMERIC(10,2),
		is_indefinite_employment BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contract_worker ON worker_assignments (contract_id, worker_id);`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_worker_id ON worker_assignments (worker_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

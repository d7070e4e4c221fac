package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nurpe/dispatch-contracts/internal/config"
	"github.com/nurpe/dispatch-contracts/internal/model"
	"github.com/nurpe/dispatch-contracts/internal/repository"
)

type fixture struct {
	db          *gorm.DB
	contracts   *ContractService
	resolver    *AssignmentResolver
	repo        *repository.ContractRepository
	assignments *repository.AssignmentRepository
	directory   *repository.DirectoryRepository
}

func testConfig() config.ContractsConfig {
	return config.ContractsConfig{
		NumberPrefix:       "KOB",
		MaxTermYears:       3,
		DangerWindowDays:   30,
		WarningWindowDays:  90,
		ExpiringWindowDays: 30,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Site{},
		&model.Worker{},
		&model.Contract{},
		&model.WorkerAssignment{},
	))

	cfg := testConfig()
	contractRepo := repository.NewContractRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)

	resolver := NewAssignmentResolver(db, contractRepo, assignmentRepo, directoryRepo)
	contracts := NewContractService(db, contractRepo, assignmentRepo, directoryRepo,
		NewNumberGenerator(cfg.NumberPrefix),
		NewConflictValidator(cfg),
		resolver,
		NewRateResolver(),
		cfg,
		zerolog.Nop(),
	)

	return &fixture{
		db:          db,
		contracts:   contracts,
		resolver:    resolver,
		repo:        contractRepo,
		assignments: assignmentRepo,
		directory:   directoryRepo,
	}
}

func (f *fixture) setNow(t time.Time) {
	f.contracts.now = func() time.Time { return t }
}

func (f *fixture) createSite(t *testing.T, conflictDate *time.Time) *model.Site {
	t.Helper()
	site := &model.Site{
		Name:         "Aksai Plant",
		Address:      "Industrial zone 4",
		ConflictDate: conflictDate,
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(site).Error)
	return site
}

func (f *fixture) createWorker(t *testing.T, name string, hourlyRate float64) *model.Worker {
	t.Helper()
	worker := &model.Worker{
		Name:       name,
		HourlyRate: hourlyRate,
		Status:     model.WorkerStatusActive,
	}
	require.NoError(t, f.db.Create(worker).Error)
	return worker
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := date(year, month, day)
	return &d
}

func floatPtr(v float64) *float64 {
	return &v
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/dispatch-contracts/internal/model"
	"github.com/nurpe/dispatch-contracts/internal/repository"
)

func TestCreateContract(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a numbered draft with the initial workers", func(t *testing.T) {
		f := newFixture(t)
		f.setNow(date(2025, time.January, 15))
		site := f.createSite(t, datePtr(2026, time.December, 31))
		first := f.createWorker(t, "Aidar S.", 1500)
		second := f.createWorker(t, "Bekzat K.", 1600)

		contract, warnings, err := f.contracts.Create(ctx, CreateContractInput{
			SiteID:            site.ID,
			DispatchStartDate: date(2025, time.February, 1),
			DispatchEndDate:   date(2025, time.July, 31),
			WorkerIDs:         []uuid.UUID{first.ID, second.ID, first.ID},
		})
		require.NoError(t, err)
		assert.Empty(t, warnings)

		assert.Equal(t, "KOB-202501-0001", contract.ContractNumber)
		assert.Equal(t, model.ContractStatusDraft, contract.Status)
		assert.Equal(t, 2, contract.WorkerCount)

		count, err := f.assignments.CountByContract(ctx, contract.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})

	t.Run("numbers are sequential within the month", func(t *testing.T) {
		f := newFixture(t)
		f.setNow(date(2025, time.January, 15))
		site := f.createSite(t, nil)

		input := CreateContractInput{
			SiteID:            site.ID,
			DispatchStartDate: date(2025, time.February, 1),
			DispatchEndDate:   date(2025, time.July, 31),
		}
		first, _, err := f.contracts.Create(ctx, input)
		require.NoError(t, err)
		second, _, err := f.contracts.Create(ctx, input)
		require.NoError(t, err)

		assert.Equal(t, "KOB-202501-0001", first.ContractNumber)
		assert.Equal(t, "KOB-202501-0002", second.ContractNumber)
	})

	t.Run("rejects an end date past the site conflict date", func(t *testing.T) {
		f := newFixture(t)
		f.setNow(date(2025, time.January, 15))
		site := f.createSite(t, datePtr(2025, time.June, 30))

		_, _, err := f.contracts.Create(ctx, CreateContractInput{
			SiteID:            site.ID,
			DispatchStartDate: date(2025, time.February, 1),
			DispatchEndDate:   date(2025, time.July, 31),
		})
		require.ErrorIs(t, err, ErrConflictDateExceeded)
		assert.Equal(t, "CONFLICT_DATE_EXCEEDED", Code(err))
	})

	t.Run("rejects inverted dates", func(t *testing.T) {
		f := newFixture(t)
		site := f.createSite(t, nil)

		_, _, err := f.contracts.Create(ctx, CreateContractInput{
			SiteID:            site.ID,
			DispatchStartDate: date(2025, time.July, 31),
			DispatchEndDate:   date(2025, time.February, 1),
		})
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects an unknown site", func(t *testing.T) {
		f := newFixture(t)

		_, _, err := f.contracts.Create(ctx, CreateContractInput{
			SiteID:            uuid.New(),
			DispatchStartDate: date(2025, time.February, 1),
			DispatchEndDate:   date(2025, time.July, 31),
		})
		require.ErrorIs(t, err, ErrSiteNotFound)
	})

	t.Run("unknown worker rolls the whole creation back", func(t *testing.T) {
		f := newFixture(t)
		f.setNow(date(2025, time.January, 15))
		site := f.createSite(t, nil)
		worker := f.createWorker(t, "Aidar S.", 1500)

		_, _, err := f.contracts.Create(ctx, CreateContractInput{
			SiteID:            site.ID,
			DispatchStartDate: date(2025, time.February, 1),
			DispatchEndDate:   date(2025, time.July, 31),
			WorkerIDs:         []uuid.UUID{worker.ID, uuid.New()},
		})
		require.ErrorIs(t, err, ErrEmployeeNotFound)

		_, total, err := f.contracts.List(ctx, repository.ContractFilters{})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestActivate(t *testing.T) {
	ctx := context.Background()

	t.Run("moves a staffed draft to active", func(t *testing.T) {
		f := newFixture(t)
		site := f.createSite(t, nil)
		worker := f.createWorker(t, "Aidar S.", 1500)
		contract, _, err := f.contracts.Create(ctx, CreateContractInput{
			SiteID:            site.ID,
			DispatchStartDate: date(2025, time.February, 1),
			DispatchEndDate:   date(2025, time.July, 31),
			WorkerIDs:         []uuid.UUID{worker.ID},
		})
		require.NoError(t, err)

		activated, err := f.contracts.Activate(ctx, contract.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ContractStatusActive, activated.Status)
	})

	t.Run("refuses an empty draft", func(t *testing.T) {
		f := newFixture(t)
		site := f.createSite(t, nil)
		contract, _, err := f.contracts.Create(ctx, CreateContractInput{
			SiteID:            site.ID,
			DispatchStartDate: date(2025, time.February, 1),
			DispatchEndDate:   date(2025, time.July, 31),
		})
		require.NoError(t, err)

		_, err = f.contracts.Activate(ctx, contract.ID)
		require.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("refuses a second activation", func(t *testing.T) {
		f := newFixture(t)
		site := f.createSite(t, nil)
		contract := f.seedContract(t, site.ID, model.ContractStatusActive, "KOB-202501-0001",
			date(2025, time.February, 1), date(2025, time.July, 31), nil)

		_, err := f.contracts.Activate(ctx, contract.ID)
		require.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestSoftDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	site := f.createSite(t, nil)
	contract := f.seedContract(t, site.ID, model.ContractStatusActive, "KOB-202501-0001",
		date(2025, time.February, 1), date(2025, time.July, 31), nil)

	cancelled, err := f.contracts.SoftDelete(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusCancelled, cancelled.Status)

	_, err = f.contracts.SoftDelete(ctx, contract.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestHardDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes a draft and its assignments", func(t *testing.T) {
		f := newFixture(t)
		site := f.createSite(t, nil)
		worker := f.createWorker(t, "Aidar S.", 1500)
		contract, _, err := f.contracts.Create(ctx, CreateContractInput{
			SiteID:            site.ID,
			DispatchStartDate: date(2025, time.February, 1),
			DispatchEndDate:   date(2025, time.July, 31),
			WorkerIDs:         []uuid.UUID{worker.ID},
		})
		require.NoError(t, err)

		require.NoError(t, f.contracts.HardDelete(ctx, contract.ID))

		_, err = f.contracts.GetByID(ctx, contract.ID)
		require.ErrorIs(t, err, ErrContractNotFound)
		count, err := f.assignments.CountByContract(ctx, contract.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("refuses anything past draft", func(t *testing.T) {
		f := newFixture(t)
		site := f.createSite(t, nil)
		contract := f.seedContract(t, site.ID, model.ContractStatusActive, "KOB-202501-0001",
			date(2025, time.February, 1), date(2025, time.July, 31), nil)

		err := f.contracts.HardDelete(ctx, contract.ID)
		require.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestSweepExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	site := f.createSite(t, nil)

	ended := f.seedContract(t, site.ID, model.ContractStatusActive, "KOB-202501-0001",
		date(2025, time.January, 1), date(2025, time.March, 31), nil)
	running := f.seedContract(t, site.ID, model.ContractStatusActive, "KOB-202501-0002",
		date(2025, time.January, 1), date(2025, time.December, 31), nil)
	draft := f.seedContract(t, site.ID, model.ContractStatusDraft, "KOB-202501-0003",
		date(2025, time.January, 1), date(2025, time.March, 31), nil)

	swept, err := f.contracts.SweepExpired(ctx, date(2025, time.April, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, swept)

	reloaded, err := f.contracts.GetByID(ctx, ended.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusExpired, reloaded.Status)

	stillRunning, err := f.contracts.GetByID(ctx, running.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusActive, stillRunning.Status)

	stillDraft, err := f.contracts.GetByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusDraft, stillDraft.Status)

	swept, err = f.contracts.SweepExpired(ctx, date(2025, time.April, 10))
	require.NoError(t, err)
	assert.Zero(t, swept)
}

func TestSign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setNow(date(2025, time.March, 1))
	site := f.createSite(t, nil)
	contract := f.seedContract(t, site.ID, model.ContractStatusActive, "KOB-202501-0001",
		date(2025, time.February, 1), date(2025, time.July, 31), nil)

	signed, err := f.contracts.Sign(ctx, contract.ID, "docs/KOB-202501-0001.pdf")
	require.NoError(t, err)
	require.NotNil(t, signed.SignedDocumentRef)
	assert.Equal(t, "docs/KOB-202501-0001.pdf", *signed.SignedDocumentRef)
	require.NotNil(t, signed.SignedAt)
	assert.Equal(t, date(2025, time.March, 1), *signed.SignedAt)

	_, err = f.contracts.Sign(ctx, contract.ID, "")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateContract(t *testing.T) {
	ctx := context.Background()

	t.Run("dates can only change in draft", func(t *testing.T) {
		f := newFixture(t)
		site := f.createSite(t, nil)
		contract := f.seedContract(t, site.ID, model.ContractStatusActive, "KOB-202501-0001",
			date(2025, time.February, 1), date(2025, time.July, 31), nil)

		_, _, err := f.contracts.Update(ctx, contract.ID, UpdateContractInput{
			DispatchEndDate: datePtr(2025, time.August, 31),
		})
		require.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("rates and notes can change while active", func(t *testing.T) {
		f := newFixture(t)
		site := f.createSite(t, nil)
		contract := f.seedContract(t, site.ID, model.ContractStatusActive, "KOB-202501-0001",
			date(2025, time.February, 1), date(2025, time.July, 31), nil)

		notes := "rate revised from April"
		updated, warnings, err := f.contracts.Update(ctx, contract.ID, UpdateContractInput{
			HourlyRate: floatPtr(1800),
			Notes:      &notes,
		})
		require.NoError(t, err)
		assert.Empty(t, warnings)
		require.NotNil(t, updated.HourlyRate)
		assert.Equal(t, 1800.0, *updated.HourlyRate)
		assert.Equal(t, notes, updated.Notes)
	})

	t.Run("a changed end date is re-validated against the conflict date", func(t *testing.T) {
		f := newFixture(t)
		site := f.createSite(t, datePtr(2025, time.June, 30))
		contract := f.seedContract(t, site.ID, model.ContractStatusDraft, "KOB-202501-0001",
			date(2025, time.February, 1), date(2025, time.May, 31), nil)

		_, _, err := f.contracts.Update(ctx, contract.ID, UpdateContractInput{
			DispatchEndDate: datePtr(2025, time.July, 31),
		})
		require.ErrorIs(t, err, ErrConflictDateExceeded)
	})

	t.Run("terminal contracts are immutable", func(t *testing.T) {
		f := newFixture(t)
		site := f.createSite(t, nil)
		contract := f.seedContract(t, site.ID, model.ContractStatusCancelled, "KOB-202501-0001",
			date(2025, time.February, 1), date(2025, time.July, 31), nil)

		notes := "late edit"
		_, _, err := f.contracts.Update(ctx, contract.ID, UpdateContractInput{Notes: &notes})
		require.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setNow(date(2025, time.April, 1))
	site := f.createSite(t, nil)
	other := f.createSite(t, nil)

	active := f.seedContract(t, site.ID, model.ContractStatusActive, "KOB-202501-0001",
		date(2025, time.January, 1), date(2025, time.April, 20), nil)
	active.WorkerCount = 3
	require.NoError(t, f.repo.Save(ctx, active))

	f.seedContract(t, site.ID, model.ContractStatusActive, "KOB-202501-0002",
		date(2025, time.January, 1), date(2025, time.December, 31), nil)
	f.seedContract(t, site.ID, model.ContractStatusDraft, "KOB-202501-0003",
		date(2025, time.May, 1), date(2025, time.October, 31), nil)
	f.seedContract(t, site.ID, model.ContractStatusExpired, "KOB-202501-0004",
		date(2024, time.June, 1), date(2024, time.December, 31), nil)
	f.seedContract(t, other.ID, model.ContractStatusActive, "KOB-202501-0005",
		date(2025, time.January, 1), date(2025, time.December, 31), nil)

	t.Run("all sites", func(t *testing.T) {
		stats, err := f.contracts.Stats(ctx, nil)
		require.NoError(t, err)
		assert.EqualValues(t, 5, stats.Total)
		assert.EqualValues(t, 3, stats.Active)
		assert.EqualValues(t, 1, stats.ExpiringSoon)
		assert.EqualValues(t, 1, stats.Expired)
		assert.EqualValues(t, 1, stats.Draft)
		assert.EqualValues(t, 3, stats.TotalWorkers)
	})

	t.Run("scoped to one site", func(t *testing.T) {
		stats, err := f.contracts.Stats(ctx, &site.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 4, stats.Total)
		assert.EqualValues(t, 2, stats.Active)
	})
}

func TestExpiringContracts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setNow(date(2025, time.April, 1))
	site := f.createSite(t, nil)

	soon := f.seedContract(t, site.ID, model.ContractStatusActive, "KOB-202501-0001",
		date(2025, time.January, 1), date(2025, time.April, 20), nil)
	f.seedContract(t, site.ID, model.ContractStatusActive, "KOB-202501-0002",
		date(2025, time.January, 1), date(2025, time.December, 31), nil)

	expiring, err := f.contracts.ExpiringContracts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, soon.ID, expiring[0].ID)
}

func TestSitesNearConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setNow(date(2025, time.April, 1))

	near := f.createSite(t, datePtr(2025, time.May, 1))
	passed := f.createSite(t, datePtr(2025, time.March, 1))
	f.createSite(t, datePtr(2026, time.December, 31))
	f.createSite(t, nil)

	result, err := f.contracts.SitesNearConflict(ctx, 0)
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, passed.ID, result[0].Site.ID)
	assert.Equal(t, WarningLevelExpired, result[0].Status.WarningLevel)
	assert.Equal(t, near.ID, result[1].Site.ID)
	assert.Equal(t, WarningLevelDanger, result[1].Status.WarningLevel)
}

func TestGetWorkers_ResolvesRates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	site := f.createSite(t, nil)
	worker := f.createWorker(t, "Aidar S.", 1500)
	contract := f.seedContract(t, site.ID, model.ContractStatusActive, "KOB-202501-0001",
		date(2025, time.January, 1), date(2025, time.June, 30), nil)
	_, err := f.resolver.AddWorker(ctx, contract.ID, worker.ID, AddWorkerInput{
		NightRate: floatPtr(2400),
	})
	require.NoError(t, err)

	roster, err := f.contracts.GetWorkers(ctx, contract.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)

	assert.Equal(t, worker.ID, roster[0].Worker.ID)
	assert.Equal(t, 1500.0, roster[0].Rates.Hourly)
	assert.Equal(t, 1875.0, roster[0].Rates.Overtime)
	assert.Equal(t, 2400.0, roster[0].Rates.Night)
	assert.Equal(t, model.RateSourceIndividual, roster[0].Rates.Source)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setNow(date(2025, time.April, 1))
	site := f.createSite(t, nil)

	f.seedContract(t, site.ID, model.ContractStatusActive, "KOB-202501-0001",
		date(2025, time.January, 1), date(2025, time.June, 30), nil)
	f.seedContract(t, site.ID, model.ContractStatusDraft, "KOB-202501-0002",
		date(2025, time.May, 1), date(2025, time.October, 31), nil)

	register, err := f.contracts.Register(ctx, repository.ContractFilters{})
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.April, 1), register.GeneratedAt)
	require.Len(t, register.Entries, 2)
	for _, entry := range register.Entries {
		assert.Equal(t, site.Name, entry.SiteName)
	}
}

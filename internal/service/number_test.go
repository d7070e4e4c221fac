package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/dispatch-contracts/internal/model"
)

func TestNumberGenerator_Next(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := NewNumberGenerator("KOB")

	site := f.createSite(t, nil)

	seed := func(number string) {
		require.NoError(t, f.repo.Create(ctx, &model.Contract{
			ContractNumber:    number,
			SiteID:            site.ID,
			Status:            model.ContractStatusDraft,
			DispatchStartDate: date(2025, time.January, 1),
			DispatchEndDate:   date(2025, time.June, 30),
		}))
	}

	t.Run("first number of the month", func(t *testing.T) {
		number, err := g.Next(ctx, f.repo, date(2025, time.January, 15))
		require.NoError(t, err)
		assert.Equal(t, "KOB-202501-0001", number)
	})

	t.Run("continues past the highest issued sequence", func(t *testing.T) {
		seed("KOB-202501-0001")
		seed("KOB-202501-0007")

		number, err := g.Next(ctx, f.repo, date(2025, time.January, 20))
		require.NoError(t, err)
		assert.Equal(t, "KOB-202501-0008", number)
	})

	t.Run("sequence resets on month rollover", func(t *testing.T) {
		number, err := g.Next(ctx, f.repo, date(2025, time.February, 1))
		require.NoError(t, err)
		assert.Equal(t, "KOB-202502-0001", number)
	})
}

func TestNumberGenerator_PrefixIsConfigurable(t *testing.T) {
	f := newFixture(t)

	number, err := NewNumberGenerator("HKN").Next(context.Background(), f.repo, date(2025, time.March, 3))
	require.NoError(t, err)
	assert.Equal(t, "HKN-202503-0001", number)
}

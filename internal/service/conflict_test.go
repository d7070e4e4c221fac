package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/dispatch-contracts/internal/model"
)

func TestConflictValidator_Validate(t *testing.T) {
	v := NewConflictValidator(testConfig())

	t.Run("rejects end date past the conflict date", func(t *testing.T) {
		site := &model.Site{Name: "Aksai Plant", ConflictDate: datePtr(2025, time.June, 30)}

		_, err := v.Validate(site, date(2025, time.July, 10))
		require.ErrorIs(t, err, ErrConflictDateExceeded)
		assert.Contains(t, err.Error(), "by 10 days")
	})

	t.Run("accepts end date on the conflict date with near-expiry warning", func(t *testing.T) {
		site := &model.Site{Name: "Aksai Plant", ConflictDate: datePtr(2025, time.June, 30)}

		warnings, err := v.Validate(site, date(2025, time.June, 30))
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "within 30 days")
	})

	t.Run("accepts end date well before the conflict date", func(t *testing.T) {
		site := &model.Site{Name: "Aksai Plant", ConflictDate: datePtr(2026, time.June, 30)}

		warnings, err := v.Validate(site, date(2025, time.June, 30))
		require.NoError(t, err)
		assert.Empty(t, warnings)
	})

	t.Run("missing conflict date is an advisory, not a rejection", func(t *testing.T) {
		site := &model.Site{Name: "Aksai Plant"}

		warnings, err := v.Validate(site, date(2025, time.June, 30))
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "no conflict date")
	})
}

func TestConflictValidator_Status(t *testing.T) {
	v := NewConflictValidator(testConfig())
	today := date(2025, time.January, 15)

	tests := []struct {
		name     string
		conflict *time.Time
		level    WarningLevel
		days     *int
	}{
		{"no conflict date", nil, WarningLevelUnknown, nil},
		{"already passed", datePtr(2025, time.January, 10), WarningLevelExpired, intPtr(-5)},
		{"inside danger window", datePtr(2025, time.February, 10), WarningLevelDanger, intPtr(26)},
		{"inside warning window", datePtr(2025, time.March, 31), WarningLevelWarning, intPtr(75)},
		{"far out", datePtr(2025, time.December, 31), WarningLevelOK, intPtr(350)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := v.Status(&model.Site{Name: "Aksai Plant", ConflictDate: tt.conflict}, today)
			assert.Equal(t, tt.level, status.WarningLevel)
			if tt.days == nil {
				assert.Nil(t, status.DaysRemaining)
			} else {
				require.NotNil(t, status.DaysRemaining)
				assert.Equal(t, *tt.days, *status.DaysRemaining)
			}
		})
	}
}

func TestConflictValidator_MaxAllowedEndDate(t *testing.T) {
	v := NewConflictValidator(testConfig())
	today := date(2025, time.January, 15)

	t.Run("statutory ceiling when no conflict date", func(t *testing.T) {
		got := v.MaxAllowedEndDate(&model.Site{}, today)
		assert.Equal(t, date(2028, time.January, 15), got)
	})

	t.Run("conflict date wins when earlier", func(t *testing.T) {
		site := &model.Site{ConflictDate: datePtr(2026, time.June, 30)}
		got := v.MaxAllowedEndDate(site, today)
		assert.Equal(t, date(2026, time.June, 30), got)
	})

	t.Run("ceiling wins when conflict date is later", func(t *testing.T) {
		site := &model.Site{ConflictDate: datePtr(2030, time.June, 30)}
		got := v.MaxAllowedEndDate(site, today)
		assert.Equal(t, date(2028, time.January, 15), got)
	})
}

func intPtr(v int) *int {
	return &v
}

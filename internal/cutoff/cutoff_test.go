package cutoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/domain"
)

func TestDeadlineMode(t *testing.T) {
	e := NewDeadline()
	deadline := time.Date(2026, 3, 15, 17, 0, 0, 0, time.UTC)

	t.Run("strictly before is within", func(t *testing.T) {
		assert.Equal(t, domain.CutoffWithin, e.Evaluate(deadline.Add(-time.Second), deadline))
	})

	t.Run("exactly at deadline is missed", func(t *testing.T) {
		assert.Equal(t, domain.CutoffMissed, e.Evaluate(deadline, deadline))
	})

	t.Run("after deadline is missed", func(t *testing.T) {
		assert.Equal(t, domain.CutoffMissed, e.Evaluate(deadline.Add(time.Minute), deadline))
	})
}

func TestDailyHourMode(t *testing.T) {
	e, err := NewDailyHour(17)
	require.NoError(t, err)

	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("before the hour is within", func(t *testing.T) {
		assert.Equal(t, domain.CutoffWithin, e.Evaluate(day.Add(16*time.Hour+59*time.Minute), time.Time{}))
	})

	t.Run("exactly at the hour is missed", func(t *testing.T) {
		assert.Equal(t, domain.CutoffMissed, e.Evaluate(day.Add(17*time.Hour), time.Time{}))
	})

	t.Run("after the hour is missed", func(t *testing.T) {
		assert.Equal(t, domain.CutoffMissed, e.Evaluate(day.Add(23*time.Hour), time.Time{}))
	})
}

func TestNewDailyHour_Range(t *testing.T) {
	_, err := NewDailyHour(24)
	assert.Error(t, err)
	_, err = NewDailyHour(-1)
	assert.Error(t, err)
}

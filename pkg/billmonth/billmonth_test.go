package billmonth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	m, err := Parse("2026-03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), m)
	assert.Equal(t, "2026-03", Format(m))

	for _, bad := range []string{"", "2026", "2026-13", "03-2026", "2026-03-01"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidMonth, "input %q", bad)
	}
}

func TestMonthArithmetic(t *testing.T) {
	mid := time.Date(2026, 3, 17, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Truncate(mid))
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), Next(mid))
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Prev(mid))

	t.Run("year boundary", func(t *testing.T) {
		dec := time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Next(dec))
		assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), Prev(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)))
	})
}

func TestLastDay(t *testing.T) {
	assert.Equal(t, 31, LastDay(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)).Day())
	assert.Equal(t, 28, LastDay(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)).Day())
	// 2028 is a leap year.
	assert.Equal(t, 29, LastDay(time.Date(2028, 2, 1, 0, 0, 0, 0, time.UTC)).Day())
}

func TestIsFirstOfMonth(t *testing.T) {
	assert.True(t, IsFirstOfMonth(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsFirstOfMonth(time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)))
}

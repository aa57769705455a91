package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloorDays(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, 0, FloorDays(now, Date(2026, 5, 10)))
	assert.Equal(t, 1, FloorDays(now, Date(2026, 5, 9)))
	assert.Equal(t, 2, FloorDays(now, Date(2026, 5, 8)))
	assert.Equal(t, -1, FloorDays(Date(2026, 5, 9), now), "earlier than the reference floors downwards")
}

func TestStartOfDayAndToday(t *testing.T) {
	almaty := time.FixedZone("ALMT", 5*3600)
	local := time.Date(2026, 5, 11, 2, 0, 0, 0, almaty)

	assert.Equal(t, Date(2026, 5, 10), StartOfDay(local), "the calendar day is taken in UTC")

	clock := NewFixedClock(time.Date(2026, 5, 10, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, Date(2026, 5, 10), Today(clock))
	clock.Advance(time.Minute)
	assert.Equal(t, Date(2026, 5, 11), Today(clock))
}

func TestParseAndFormatDate(t *testing.T) {
	d, err := ParseDate("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, Date(2026, 2, 28), d)
	assert.Equal(t, "2026-02-28", FormatDate(d))

	for _, bad := range []string{"", "2026-2-28", "28/02/2026", "2026-02-30"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipledger/internal/db"
)

func TestTodayFiltersByLocalDate(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 3, 5, 18, 30, 0, 0, loc)

	tips := []db.Tip{
		tip("12.00", time.Date(2024, 3, 5, 0, 0, 0, 0, loc)),   // midnight today
		tip("8.00", time.Date(2024, 3, 5, 23, 59, 59, 0, loc)), // last second of today
		tip("4.00", time.Date(2024, 3, 6, 0, 0, 0, 0, loc)),    // first second of tomorrow
		tip("6.00", time.Date(2024, 3, 4, 22, 0, 0, 0, loc)),   // yesterday
	}

	m := Today(tips, now, loc)
	assert.Equal(t, 2, m.Count)
	assert.Equal(t, "20.00", m.Total.StringFixed(2))
	assert.Equal(t, "10.00", m.Average.StringFixed(2))
	require.Len(t, m.Tips, 2)
}

func TestTodayEmptyWhenAllYesterday(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, loc)
	yesterday := now.AddDate(0, 0, -1)

	tips := []db.Tip{
		tip("5.00", yesterday),
		tip("6.00", yesterday.Add(time.Hour)),
		tip("7.00", yesterday.Add(2*time.Hour)),
	}

	m := Today(tips, now, loc)
	assert.Equal(t, 0, m.Count)
	assert.True(t, m.Total.IsZero())
	assert.True(t, m.Average.IsZero())
	assert.Empty(t, m.Tips)
}

func TestTodayHonorsLocation(t *testing.T) {
	// 03:00 UTC on the 6th is still the evening of the 5th in EST.
	est := time.FixedZone("EST", -5*3600)
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, est)
	ts := time.Date(2024, 3, 6, 3, 0, 0, 0, time.UTC)

	m := Today([]db.Tip{tip("9.00", ts)}, now, est)
	assert.Equal(t, 1, m.Count)

	m = Today([]db.Tip{tip("9.00", ts)}, now.In(time.UTC), time.UTC)
	assert.Equal(t, 0, m.Count)
}

func TestOverAllEmpty(t *testing.T) {
	m := OverAll(nil)
	assert.True(t, m.Total.IsZero())
	assert.True(t, m.Average.IsZero())
	assert.True(t, m.Best.IsZero())
}

func TestOverAllBestAndAverage(t *testing.T) {
	tips := []db.Tip{
		tip("10.00", monday),
		tip("5.50", monday.Add(time.Hour)),
		tip("20.00", monday.Add(2*time.Hour)),
	}
	m := OverAll(tips)
	assert.Equal(t, "35.50", m.Total.StringFixed(2))
	assert.Equal(t, "20.00", m.Best.StringFixed(2))
	assert.Equal(t, "11.83", m.Average.StringFixed(2))
}

func TestMetricsIdempotent(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, loc)
	tips := []db.Tip{
		tip("3.33", now.Add(-time.Hour)),
		tip("4.44", now.Add(-26*time.Hour)),
		tip("5.55", now.Add(-200*time.Hour)),
	}

	first := Today(tips, now, loc)
	second := Today(tips, now, loc)
	assert.Equal(t, first, second)

	assert.Equal(t, OverAll(tips), OverAll(tips))
	assert.Equal(t, ByWeek(tips, loc), ByWeek(tips, loc))
}

package insight

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipledger/internal/aggregate"
	"tipledger/internal/db"
)

func TestPepTalkPromptRequiresTipsToday(t *testing.T) {
	_, ok := PepTalkPrompt(aggregate.TodayMetrics{})
	assert.False(t, ok)
}

func TestPepTalkPromptIncludesTotals(t *testing.T) {
	m := aggregate.TodayMetrics{
		Total:   decimal.RequireFromString("42.50"),
		Count:   3,
		Average: decimal.RequireFromString("14.17"),
	}
	prompt, ok := PepTalkPrompt(m)
	require.True(t, ok)
	assert.Contains(t, prompt, "3 tip(s)")
	assert.Contains(t, prompt, "42.50")
	assert.Contains(t, prompt, "14.17")
}

func TestWeeklyPromptRequiresAWeek(t *testing.T) {
	var days [7]aggregate.Bucket
	var hours [24]aggregate.Bucket
	_, ok := WeeklyPrompt(nil, days, hours)
	assert.False(t, ok)
}

func TestWeeklyPromptUsesLatestWeek(t *testing.T) {
	weeks := []aggregate.WeekBucket{
		{Start: time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC), Bucket: aggregate.Bucket{Total: decimal.RequireFromString("10.00"), Count: 2}},
		{Start: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Bucket: aggregate.Bucket{Total: decimal.RequireFromString("55.25"), Count: 7}},
	}

	tips := []db.Tip{
		{Amount: decimal.RequireFromString("8.00"), CreatedAt: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)},
		{Amount: decimal.RequireFromString("2.00"), CreatedAt: time.Date(2024, 3, 5, 17, 0, 0, 0, time.UTC)},
	}
	days := aggregate.ByDayOfWeek(tips, time.UTC)
	hours := aggregate.ByHourOfDay(tips, time.UTC)

	prompt, ok := WeeklyPrompt(weeks, days, hours)
	require.True(t, ok)

	assert.Contains(t, prompt, "2024-03-04")
	assert.Contains(t, prompt, "55.25")
	assert.NotContains(t, prompt, "2024-02-26")

	// Only non-zero hour buckets appear.
	assert.Contains(t, prompt, "09:00=8.00")
	assert.Contains(t, prompt, "17:00=2.00")
	assert.NotContains(t, prompt, "10:00=")

	// All seven day buckets appear, zero or not.
	assert.Contains(t, prompt, "Mon=8.00")
	assert.Contains(t, prompt, "Sun=0.00")
}

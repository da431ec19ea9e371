// Package insight formats aggregate data into prompts for the external
// text-generation service and wraps the call to it. Prompt building is
// pure; the only side effect lives in Generator.
package insight

import (
	"fmt"
	"strings"
	"time"

	"tipledger/internal/aggregate"
)

// InsufficientData is the message returned when an insight is
// requested before enough tips exist to say anything useful. It is a
// soft condition, not an error.
const InsufficientData = "Not enough data yet — log a few tips and check back."

// PepTalkPrompt builds the daily pep-talk prompt from today's metrics.
// Returns ok=false when no tips have been logged today.
func PepTalkPrompt(m aggregate.TodayMetrics) (string, bool) {
	if m.Count == 0 {
		return "", false
	}

	var b strings.Builder
	b.WriteString("You are an upbeat coach for a gig-economy driver tracking cash tips.\n")
	fmt.Fprintf(&b, "So far today the driver has logged %d tip(s) totaling %s, averaging %s per tip.\n",
		m.Count, m.Total.StringFixed(2), m.Average.StringFixed(2))
	b.WriteString("Write two or three encouraging sentences about how today is going. Be specific about the numbers, keep it warm, no emoji.")
	return b.String(), true
}

// WeeklyPrompt builds the weekly-insight prompt. The subject is the
// chronologically latest week; the day-of-week buckets and the
// non-zero hour buckets go in as supporting context. Returns ok=false
// when no week has any tips.
func WeeklyPrompt(weeks []aggregate.WeekBucket, days [7]aggregate.Bucket, hours [24]aggregate.Bucket) (string, bool) {
	if len(weeks) == 0 {
		return "", false
	}
	latest := weeks[len(weeks)-1]

	var b strings.Builder
	b.WriteString("You are an analyst coaching a gig-economy driver on their cash-tip earnings.\n")
	fmt.Fprintf(&b, "Week starting %s: %d tip(s) totaling %s.\n",
		latest.Start.Format("2006-01-02"), latest.Count, latest.Total.StringFixed(2))

	b.WriteString("All-time totals by day of week:")
	for d := time.Sunday; d <= time.Saturday; d++ {
		fmt.Fprintf(&b, " %s=%s", d.String()[:3], days[d].Total.StringFixed(2))
	}
	b.WriteString("\n")

	b.WriteString("Totals by hour of day (non-zero only):")
	for h, bucket := range hours {
		if bucket.Count == 0 {
			continue
		}
		fmt.Fprintf(&b, " %02d:00=%s", h, bucket.Total.StringFixed(2))
	}
	b.WriteString("\n")

	b.WriteString("In three or four sentences, point out the strongest days and hours and suggest one concrete thing to try next week.")
	return b.String(), true
}

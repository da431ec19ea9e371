// Package aggregate derives calendar-bucketed statistics from a tip
// snapshot. Every function here is pure: the current instant and the
// bucketing time zone come in as parameters, nothing reads a clock or
// touches storage, and identical inputs produce identical outputs
// regardless of input order.
package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tipledger/internal/db"
)

// Bucket is one aggregation cell: the exact sum and count of the tips
// classified into it. Totals are decimal and unrounded; rounding to
// two places happens only at the presentation boundary.
type Bucket struct {
	Total decimal.Decimal
	Count int
}

func (b *Bucket) add(amount decimal.Decimal) {
	b.Total = b.Total.Add(amount)
	b.Count++
}

// ByDayOfWeek classifies tips into seven buckets indexed
// 0 (Sunday) through 6 (Saturday) by the local calendar day of each
// tip's timestamp. All seven buckets are always present.
func ByDayOfWeek(tips []db.Tip, loc *time.Location) [7]Bucket {
	var buckets [7]Bucket
	for _, t := range tips {
		buckets[int(t.CreatedAt.In(loc).Weekday())].add(t.Amount)
	}
	return buckets
}

// ByHourOfDay classifies tips into twenty-four buckets indexed 0-23 by
// the local hour of each tip's timestamp, across all dates. All
// twenty-four buckets are always present.
func ByHourOfDay(tips []db.Tip, loc *time.Location) [24]Bucket {
	var buckets [24]Bucket
	for _, t := range tips {
		buckets[t.CreatedAt.In(loc).Hour()].add(t.Amount)
	}
	return buckets
}

// WeekBucket aggregates the tips of one calendar week, keyed by the
// week's Monday as a local date-only value.
type WeekBucket struct {
	Start time.Time
	Bucket
}

// ByWeek groups tips by the Monday of the local calendar week
// containing each tip, ascending by week start. Only weeks with at
// least one tip are emitted; an empty input yields an empty slice.
func ByWeek(tips []db.Tip, loc *time.Location) []WeekBucket {
	byStart := make(map[string]*WeekBucket)
	for _, t := range tips {
		start := WeekStart(t.CreatedAt, loc)
		key := start.Format("2006-01-02")
		wb, ok := byStart[key]
		if !ok {
			wb = &WeekBucket{Start: start}
			byStart[key] = wb
		}
		wb.add(t.Amount)
	}

	weeks := make([]WeekBucket, 0, len(byStart))
	for _, wb := range byStart {
		weeks = append(weeks, *wb)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Start.Before(weeks[j].Start) })
	return weeks
}

// WeekStart returns the Monday of the local calendar week containing t,
// at midnight in loc. Weeks start Monday: a Sunday timestamp belongs to
// the week that began six days earlier.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	year, month, day := local.Date()

	back := int(local.Weekday()) - 1
	if back < 0 { // Sunday
		back = 6
	}
	return time.Date(year, month, day-back, 0, 0, 0, 0, loc)
}

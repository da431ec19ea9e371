package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"tipledger/internal/db"
)

// TodayMetrics summarizes the tips logged on the current local
// calendar day. Recomputed from the full snapshot on every call; there
// are no incremental counters to drift out of sync.
type TodayMetrics struct {
	Total   decimal.Decimal
	Count   int
	Average decimal.Decimal
	Tips    []db.Tip
}

// AllTimeMetrics summarizes the full tip history. All fields are zero
// when the snapshot is empty; an empty history is not an error.
type AllTimeMetrics struct {
	Total   decimal.Decimal
	Average decimal.Decimal
	Best    decimal.Decimal
}

// Today filters the snapshot down to tips whose local calendar date
// equals now's local calendar date and summarizes them. A tip at
// 23:59:59 today and one at 00:00:00 tomorrow land on opposite sides.
func Today(tips []db.Tip, now time.Time, loc *time.Location) TodayMetrics {
	m := TodayMetrics{Tips: []db.Tip{}}
	for _, t := range tips {
		if !SameDay(t.CreatedAt, now, loc) {
			continue
		}
		m.Tips = append(m.Tips, t)
		m.Total = m.Total.Add(t.Amount)
		m.Count++
	}
	m.Average = average(m.Total, m.Count)
	return m
}

// OverAll summarizes the entire snapshot.
func OverAll(tips []db.Tip) AllTimeMetrics {
	var m AllTimeMetrics
	for _, t := range tips {
		m.Total = m.Total.Add(t.Amount)
		if t.Amount.GreaterThan(m.Best) {
			m.Best = t.Amount
		}
	}
	m.Average = average(m.Total, len(tips))
	return m
}

// SameDay reports whether a and b fall on the same calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

func average(total decimal.Decimal, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.DivRound(decimal.NewFromInt(int64(count)), 2)
}

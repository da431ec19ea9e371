package handlers

import (
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"tipledger/internal/aggregate"
	"tipledger/internal/config"
	"tipledger/internal/session"
)

// The aggregate endpoints below all follow the same pattern: read the
// user's full snapshot from the session buffer, run the pure bucketing
// functions over it with the configured time zone, and round only for
// presentation. A sync failure surfaces as a "sync_error" field next
// to the last known-good numbers, never instead of them.

// TodayMetrics returns the total, count, average and the tip list for
// the current local calendar day.
func TodayMetrics(sessions *session.Manager, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		tips, syncErr := sessions.Buffer(user.ID).Snapshot()
		m := aggregate.Today(tips, time.Now(), cfg.Timezone)

		events := make([]map[string]any, 0, len(m.Tips))
		for _, t := range m.Tips {
			events = append(events, map[string]any{
				"id":         t.ID,
				"created_at": t.CreatedAt.UTC().Format(time.RFC3339),
				"amount":     t.Amount.StringFixed(2),
			})
		}

		resp := map[string]any{
			"total":   m.Total.StringFixed(2),
			"count":   m.Count,
			"average": m.Average.StringFixed(2),
			"events":  events,
		}
		if syncErr != nil {
			resp["sync_error"] = syncErr.Error()
		}
		jsonResponse(ctx, resp)
	}
}

// AllTimeMetrics returns the full-history total, per-tip average and
// best single tip.
func AllTimeMetrics(sessions *session.Manager) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		tips, syncErr := sessions.Buffer(user.ID).Snapshot()
		m := aggregate.OverAll(tips)

		resp := map[string]any{
			"total":    m.Total.StringFixed(2),
			"average":  m.Average.StringFixed(2),
			"best_tip": m.Best.StringFixed(2),
		}
		if syncErr != nil {
			resp["sync_error"] = syncErr.Error()
		}
		jsonResponse(ctx, resp)
	}
}

type seriesPoint struct {
	Label string `json:"label"`
	Total string `json:"total"`
	Count int    `json:"count"`
}

// DayOfWeekSeries returns seven points, Sunday through Saturday, each
// present even when empty.
func DayOfWeekSeries(sessions *session.Manager, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		tips, syncErr := sessions.Buffer(user.ID).Snapshot()
		buckets := aggregate.ByDayOfWeek(tips, cfg.Timezone)

		series := make([]seriesPoint, 0, len(buckets))
		for d, b := range buckets {
			series = append(series, seriesPoint{
				Label: time.Weekday(d).String(),
				Total: b.Total.StringFixed(2),
				Count: b.Count,
			})
		}
		respondSeries(ctx, series, syncErr)
	}
}

// HourOfDaySeries returns twenty-four points, 00:00 through 23:00,
// each present even when empty.
func HourOfDaySeries(sessions *session.Manager, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		tips, syncErr := sessions.Buffer(user.ID).Snapshot()
		buckets := aggregate.ByHourOfDay(tips, cfg.Timezone)

		series := make([]seriesPoint, 0, len(buckets))
		for h, b := range buckets {
			series = append(series, seriesPoint{
				Label: fmt.Sprintf("%02d:00", h),
				Total: b.Total.StringFixed(2),
				Count: b.Count,
			})
		}
		respondSeries(ctx, series, syncErr)
	}
}

// WeeklySeries returns one point per non-empty week, ascending by the
// week's Monday.
func WeeklySeries(sessions *session.Manager, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		tips, syncErr := sessions.Buffer(user.ID).Snapshot()
		weeks := aggregate.ByWeek(tips, cfg.Timezone)

		series := make([]seriesPoint, 0, len(weeks))
		for _, w := range weeks {
			series = append(series, seriesPoint{
				Label: w.Start.Format("2006-01-02"),
				Total: w.Total.StringFixed(2),
				Count: w.Count,
			})
		}
		respondSeries(ctx, series, syncErr)
	}
}

func respondSeries(ctx *fasthttp.RequestCtx, series []seriesPoint, syncErr error) {
	resp := map[string]any{"series": series}
	if syncErr != nil {
		resp["sync_error"] = syncErr.Error()
	}
	jsonResponse(ctx, resp)
}

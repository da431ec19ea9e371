package handlers

import (
	"time"

	"github.com/valyala/fasthttp"

	"tipledger/internal/aggregate"
	"tipledger/internal/config"
	"tipledger/internal/insight"
	"tipledger/internal/session"
)

// PepTalk generates a short encouragement from today's numbers. With
// zero tips logged today it returns the insufficient-data message with
// a 200; that is a soft condition, not an error. Generation failures
// come back as the fixed apology string, also with a 200.
func PepTalk(sessions *session.Manager, cfg *config.Config, gen *insight.Generator) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		tips, syncErr := sessions.Buffer(user.ID).Snapshot()
		if syncErr != nil {
			errResponse(ctx, fasthttp.StatusServiceUnavailable, "tip data is out of sync, try again shortly")
			return
		}

		prompt, ok := insight.PepTalkPrompt(aggregate.Today(tips, time.Now(), cfg.Timezone))
		if !ok {
			jsonResponse(ctx, map[string]any{
				"message":           insight.InsufficientData,
				"insufficient_data": true,
			})
			return
		}

		jsonResponse(ctx, map[string]any{"message": gen.Generate(prompt)})
	}
}

// WeeklyInsight generates an analysis of the latest week, with the
// day-of-week and hour-of-day breakdowns as context.
func WeeklyInsight(sessions *session.Manager, cfg *config.Config, gen *insight.Generator) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		tips, syncErr := sessions.Buffer(user.ID).Snapshot()
		if syncErr != nil {
			errResponse(ctx, fasthttp.StatusServiceUnavailable, "tip data is out of sync, try again shortly")
			return
		}

		weeks := aggregate.ByWeek(tips, cfg.Timezone)
		days := aggregate.ByDayOfWeek(tips, cfg.Timezone)
		hours := aggregate.ByHourOfDay(tips, cfg.Timezone)

		prompt, ok := insight.WeeklyPrompt(weeks, days, hours)
		if !ok {
			jsonResponse(ctx, map[string]any{
				"message":           insight.InsufficientData,
				"insufficient_data": true,
			})
			return
		}

		jsonResponse(ctx, map[string]any{"message": gen.Generate(prompt)})
	}
}

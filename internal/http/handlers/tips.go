package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "tipledger/internal/db"
	httpctx "tipledger/internal/http/ctx"
	"tipledger/internal/session"
	"tipledger/internal/store"
)

type logTipRequest struct {
	Amount     json.Number    `json:"amount"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// LogTip persists one tip for the authenticated user. The store assigns
// the ID and the timestamp; the response echoes both so the client can
// render the stored event without refetching. Duplicate-submission
// protection (disabling the submit control while a request is in
// flight) is the client's responsibility; each request here is handled
// independently.
func LogTip(adapter *store.Adapter) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}

		var payload logTipRequest
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}

		amount, err := decimal.NewFromString(payload.Amount.String())
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid amount")
			return
		}

		tip, err := adapter.Create(user.ID, amount, payload.Attributes)
		if err != nil {
			if errors.Is(err, dbpkg.ErrInvalidAmount) {
				errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to save tip")
			return
		}

		project := ""
		if ak, ok := httpctx.APIKeyFromCtx(ctx); ok && ak != nil {
			project = ak.Name
		}
		observeTipLogged(project, amount)

		ctx.SetStatusCode(fasthttp.StatusCreated)
		jsonResponse(ctx, map[string]any{
			"id":         tip.ID,
			"created_at": tip.CreatedAt.UTC().Format(time.RFC3339),
			"amount":     tip.Amount.StringFixed(2),
			"attributes": tip.Attributes,
		})
	}
}

type recentTip struct {
	ID         uint           `json:"id"`
	Time       string         `json:"time"`       // pre-formatted per user display prefs
	CreatedAt  string         `json:"created_at"` // ISO 8601 UTC for client-side local formatting
	Amount     string         `json:"amount"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RecentTips returns the newest tips from the user's buffer with
// limit/offset paging. Reads the session snapshot, not the database,
// so the list and the aggregate endpoints always agree.
func RecentTips(sessions *session.Manager) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}

		limit := 10
		if s := string(ctx.QueryArgs().Peek("limit")); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				if n > 200 {
					n = 200
				}
				limit = n
			}
		}
		offset := 0
		if s := string(ctx.QueryArgs().Peek("offset")); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n >= 0 {
				offset = n
			}
		}

		tips, syncErr := sessions.Buffer(user.ID).Snapshot()

		total := len(tips)
		if offset > total {
			offset = total
		}
		end := offset + limit
		if end > total {
			end = total
		}

		timeFormat := "12"
		if user.TimeFormat != "" {
			timeFormat = user.TimeFormat
		}
		rows := make([]recentTip, 0, end-offset)
		for _, t := range tips[offset:end] {
			rows = append(rows, recentTip{
				ID:         t.ID,
				Time:       FormatTipTime(t.CreatedAt, timeFormat),
				CreatedAt:  t.CreatedAt.UTC().Format(time.RFC3339),
				Amount:     t.Amount.StringFixed(2),
				Attributes: t.Attributes,
			})
		}

		resp := map[string]any{"tips": rows, "total": total, "has_more": end < total}
		if syncErr != nil {
			resp["sync_error"] = syncErr.Error()
		}
		jsonResponse(ctx, resp)
	}
}

// TipDetail returns one tip by ID, with an ownership check.
func TipDetail(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		idVal := ctx.UserValue("id")
		idStr, ok := idVal.(string)
		if !ok {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid id")
			return
		}
		id, err := strconv.Atoi(idStr)
		if err != nil || id <= 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid id")
			return
		}

		tip, err := dbpkg.TipByID(db, uint(id))
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				errResponse(ctx, fasthttp.StatusNotFound, "tip not found")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load tip")
			return
		}

		if tip.UserID != user.ID {
			errResponse(ctx, fasthttp.StatusForbidden, "forbidden")
			return
		}

		timeFormat := "12"
		dateFormat := "dd-mm-yyyy"
		if user.TimeFormat != "" {
			timeFormat = user.TimeFormat
		}
		if user.DateFormat != "" {
			dateFormat = user.DateFormat
		}

		jsonResponse(ctx, map[string]any{
			"id":                 tip.ID,
			"created_at":         tip.CreatedAt.UTC().Format(time.RFC3339Nano),
			"created_at_display": FormatTipDateTime(tip.CreatedAt, timeFormat, dateFormat),
			"amount":             tip.Amount.StringFixed(2),
			"attributes":         tip.Attributes,
		})
	}
}

package middleware

import (
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"tipledger/internal/config"
	dbpkg "tipledger/internal/db"
	httpctx "tipledger/internal/http/ctx"
)

// SessionAuth loads the cookie-session user and sets it on the request
// context. Account and API-key management endpoints sit behind this.
func SessionAuth(db *gorm.DB, cfg *config.Config) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			cookie := ctx.Request.Header.Cookie("session_user")
			if len(cookie) == 0 {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				ctx.SetBodyString("not signed in")
				return
			}
			username := string(cookie)

			var user dbpkg.User
			if err := db.Where("username = ?", username).First(&user).Error; err != nil {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				ctx.SetBodyString("not signed in")
				return
			}

			if user.Username == cfg.AdminUser {
				user.IsAdmin = true
			}

			httpctx.SetUser(ctx, &user)
			next(ctx)
		}
	}
}

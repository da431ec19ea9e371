package handlers

import (
	"encoding/json"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tipledger/internal/config"
	dbpkg "tipledger/internal/db"
	"tipledger/internal/session"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginSubmit verifies credentials and sets the session cookie.
func LoginSubmit(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var payload loginRequest
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}

		var user dbpkg.User
		if err := db.Where("username = ?", payload.Username).First(&user).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				errResponse(ctx, fasthttp.StatusUnauthorized, "invalid username or password")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "database error")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
			errResponse(ctx, fasthttp.StatusUnauthorized, "invalid username or password")
			return
		}

		var c fasthttp.Cookie
		c.SetKey("session_user")
		c.SetValue(user.Username)
		c.SetPath("/")
		c.SetHTTPOnly(true)
		ctx.Response.Header.SetCookie(&c)

		jsonResponse(ctx, map[string]any{"username": user.Username, "is_admin": user.IsAdmin})
	}
}

// Logout clears the session cookie and releases the user's tip buffer,
// cancelling its store subscription so nothing keeps syncing for a
// signed-out session.
func Logout(sessions *session.Manager) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if user, ok := MustUser(ctx); ok {
			sessions.Release(user.ID)
		} else {
			return
		}

		var c fasthttp.Cookie
		c.SetKey("session_user")
		c.SetValue("")
		c.SetPath("/")
		c.SetMaxAge(-1)
		ctx.Response.Header.SetCookie(&c)

		jsonResponse(ctx, map[string]any{"signed_out": true})
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func ChangePasswordSelf(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		if user.Username == cfg.AdminUser {
			errResponse(ctx, fasthttp.StatusForbidden, "cannot change password for bootstrap admin user")
			return
		}

		var payload changePasswordRequest
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}

		if payload.CurrentPassword == "" || payload.NewPassword == "" || payload.ConfirmPassword == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "all password fields are required")
			return
		}
		if payload.NewPassword != payload.ConfirmPassword {
			errResponse(ctx, fasthttp.StatusBadRequest, "new passwords do not match")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.CurrentPassword)); err != nil {
			errResponse(ctx, fasthttp.StatusUnauthorized, "current password is incorrect")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}

		if err := db.Model(&dbpkg.User{}).Where("id = ?", user.ID).Update("password_hash", string(hash)).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to update password")
			return
		}

		jsonResponse(ctx, map[string]any{"updated": true})
	}
}

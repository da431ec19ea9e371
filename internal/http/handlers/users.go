package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tipledger/internal/config"
	dbpkg "tipledger/internal/db"
)

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

func CreateUser(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		admin, ok := MustUser(ctx)
		if !ok {
			return
		}
		if !admin.IsAdmin {
			errResponse(ctx, fasthttp.StatusForbidden, "admin only")
			return
		}

		var payload createUserRequest
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}

		if payload.Username == "" || payload.Password == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "username and password required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}

		user := &dbpkg.User{
			Username:     payload.Username,
			PasswordHash: string(hash),
			IsAdmin:      payload.IsAdmin,
		}

		if err := db.Create(user).Error; err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "failed to create user (username may already exist)")
			return
		}

		ctx.SetStatusCode(fasthttp.StatusCreated)
		jsonResponse(ctx, map[string]any{"id": user.ID, "username": user.Username})
	}
}

func userFromPathID(ctx *fasthttp.RequestCtx, db *gorm.DB) (*dbpkg.User, bool) {
	idVal := ctx.UserValue("id")
	idStr, ok := idVal.(string)
	if !ok {
		errResponse(ctx, fasthttp.StatusBadRequest, "invalid user ID")
		return nil, false
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		errResponse(ctx, fasthttp.StatusBadRequest, "invalid user ID")
		return nil, false
	}

	var user dbpkg.User
	if err := db.First(&user, id).Error; err != nil {
		errResponse(ctx, fasthttp.StatusNotFound, "user not found")
		return nil, false
	}
	return &user, true
}

func ResetPassword(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		admin, ok := MustUser(ctx)
		if !ok {
			return
		}
		if !admin.IsAdmin {
			errResponse(ctx, fasthttp.StatusForbidden, "admin only")
			return
		}

		user, ok := userFromPathID(ctx, db)
		if !ok {
			return
		}
		if user.Username == cfg.AdminUser {
			errResponse(ctx, fasthttp.StatusForbidden, "cannot modify bootstrap admin user")
			return
		}

		var payload struct {
			Password string `json:"password"`
		}
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil || payload.Password == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "password required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}

		if err := db.Model(user).Update("password_hash", string(hash)).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to update password")
			return
		}

		jsonResponse(ctx, map[string]any{"updated": true})
	}
}

func DeleteUser(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		admin, ok := MustUser(ctx)
		if !ok {
			return
		}
		if !admin.IsAdmin {
			errResponse(ctx, fasthttp.StatusForbidden, "admin only")
			return
		}

		user, ok := userFromPathID(ctx, db)
		if !ok {
			return
		}
		if user.Username == cfg.AdminUser {
			errResponse(ctx, fasthttp.StatusForbidden, "cannot delete bootstrap admin user")
			return
		}

		if err := db.Delete(user).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to delete user")
			return
		}

		jsonResponse(ctx, map[string]any{"deleted": true})
	}
}

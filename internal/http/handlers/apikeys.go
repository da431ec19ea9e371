package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"tipledger/internal/config"
	dbpkg "tipledger/internal/db"
)

func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "tl_" + base64.URLEncoding.EncodeToString(b), nil
}

type createAPIKeyRequest struct {
	Name        string `json:"name"`
	Environment string `json:"environment"`
}

func CreateAPIKey(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}

		var payload createAPIKeyRequest
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		if payload.Name == "" || payload.Environment == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "name and environment required")
			return
		}

		key, err := generateAPIKey()
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to generate API key")
			return
		}

		apiKey := &dbpkg.APIKey{
			UserID:      user.ID,
			Name:        payload.Name,
			Environment: payload.Environment,
			Key:         key,
			Active:      true,
		}

		if err := db.Create(apiKey).Error; err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "failed to create API key (name may already exist for this user)")
			return
		}

		ctx.SetStatusCode(fasthttp.StatusCreated)
		jsonResponse(ctx, map[string]any{"id": apiKey.ID, "name": apiKey.Name, "key": apiKey.Key})
	}
}

func apiKeyFromRequest(ctx *fasthttp.RequestCtx, db *gorm.DB, user *dbpkg.User, id string) (*dbpkg.APIKey, bool) {
	if id == "" {
		errResponse(ctx, fasthttp.StatusBadRequest, "id required")
		return nil, false
	}
	var apiKey dbpkg.APIKey
	if err := db.First(&apiKey, id).Error; err != nil {
		errResponse(ctx, fasthttp.StatusNotFound, "API key not found")
		return nil, false
	}
	if apiKey.UserID != user.ID && !user.IsAdmin {
		errResponse(ctx, fasthttp.StatusForbidden, "forbidden")
		return nil, false
	}
	return &apiKey, true
}

func DeleteAPIKey(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		apiKey, ok := apiKeyFromRequest(ctx, db, user, string(ctx.QueryArgs().Peek("id")))
		if !ok {
			return
		}

		if cfg.BootstrapAPIKey != "" && apiKey.Key == cfg.BootstrapAPIKey {
			errResponse(ctx, fasthttp.StatusForbidden, "cannot delete bootstrap API key")
			return
		}

		if err := db.Delete(apiKey).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to delete API key")
			return
		}

		jsonResponse(ctx, map[string]any{"deleted": true})
	}
}

type setActiveAPIKeyRequest struct {
	ID     string `json:"id"`
	Active *bool  `json:"active"`
}

func SetActiveAPIKey(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}

		var payload setActiveAPIKeyRequest
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil || payload.ID == "" || payload.Active == nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "id and active (true|false) required")
			return
		}

		apiKey, ok := apiKeyFromRequest(ctx, db, user, payload.ID)
		if !ok {
			return
		}

		if err := db.Model(apiKey).Update("active", *payload.Active).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to update API key")
			return
		}

		jsonResponse(ctx, map[string]any{"updated": true})
	}
}

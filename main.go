package main

import (
	"log"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"

	"tipledger/internal/config"
	"tipledger/internal/db"
	"tipledger/internal/http/handlers"
	appmw "tipledger/internal/http/middleware"
	"tipledger/internal/insight"
	"tipledger/internal/session"
	"tipledger/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := db.EnsureBootstrapAdmin(sqlDB, cfg); err != nil {
		log.Fatalf("failed to ensure bootstrap admin: %v", err)
	}

	if cfg.BootstrapAPIKey != "" {
		if err := db.EnsureBootstrapAPIKey(sqlDB, cfg); err != nil {
			log.Printf("warning: failed to ensure bootstrap API key: %v (create one via the API instead)", err)
		} else {
			log.Printf("bootstrap API key configured and associated with admin user")
		}
	}

	adapter := store.NewAdapter(sqlDB, cfg.PollInterval)
	sessions := session.NewManager(adapter)
	defer sessions.Close()

	generator := insight.NewGenerator(cfg)

	handlers.InitPrometheusMetrics()

	r := router.New()

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	r.POST("/login", handlers.LoginSubmit(sqlDB))
	r.POST("/logout", appmw.SessionAuth(sqlDB, cfg)(handlers.Logout(sessions)))

	r.POST("/admin/users/create", appmw.SessionAuth(sqlDB, cfg)(handlers.CreateUser(sqlDB)))
	r.POST("/admin/users/{id}/reset-password", appmw.SessionAuth(sqlDB, cfg)(handlers.ResetPassword(sqlDB, cfg)))
	r.POST("/admin/users/{id}/delete", appmw.SessionAuth(sqlDB, cfg)(handlers.DeleteUser(sqlDB, cfg)))

	r.POST("/settings/password", appmw.SessionAuth(sqlDB, cfg)(handlers.ChangePasswordSelf(sqlDB, cfg)))

	r.POST("/admin/apikeys/create", appmw.SessionAuth(sqlDB, cfg)(handlers.CreateAPIKey(sqlDB)))
	r.POST("/admin/apikeys/delete", appmw.SessionAuth(sqlDB, cfg)(handlers.DeleteAPIKey(sqlDB, cfg)))
	r.POST("/admin/apikeys/set-active", appmw.SessionAuth(sqlDB, cfg)(handlers.SetActiveAPIKey(sqlDB)))

	r.GET("/v1/metrics", handlers.ProjectMetricsHandler(sqlDB))

	bearer := appmw.BearerAuth(sqlDB)
	r.POST("/v1/tips", bearer(handlers.LogTip(adapter)))
	r.GET("/v1/tips/recent", bearer(handlers.RecentTips(sessions)))
	r.GET("/v1/tips/{id}", bearer(handlers.TipDetail(sqlDB)))

	r.GET("/v1/metrics/today", bearer(handlers.TodayMetrics(sessions, cfg)))
	r.GET("/v1/metrics/all-time", bearer(handlers.AllTimeMetrics(sessions)))
	r.GET("/v1/metrics/day-of-week", bearer(handlers.DayOfWeekSeries(sessions, cfg)))
	r.GET("/v1/metrics/hour-of-day", bearer(handlers.HourOfDaySeries(sessions, cfg)))
	r.GET("/v1/metrics/weekly", bearer(handlers.WeeklySeries(sessions, cfg)))

	r.GET("/v1/insights/pep-talk", bearer(handlers.PepTalk(sessions, cfg, generator)))
	r.GET("/v1/insights/weekly", bearer(handlers.WeeklyInsight(sessions, cfg, generator)))

	handler := handlers.RequestLogger(r.Handler)

	log.Printf("tipledger listening on %s", cfg.ListenAddr)
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

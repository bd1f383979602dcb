package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"voice-dashboard/internal/audit"
	"voice-dashboard/internal/auth"
	"voice-dashboard/internal/calls"
	"voice-dashboard/internal/config"
	"voice-dashboard/internal/httpapi"
	"voice-dashboard/internal/knowledgebases"
	"voice-dashboard/internal/pathways"
	"voice-dashboard/internal/provider"
	"voice-dashboard/internal/reporting"
	"voice-dashboard/internal/users"
	"voice-dashboard/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// A dispatched call that never reports back frees its slot after this.
const callSlotTTL = time.Hour

type app struct {
	router  http.Handler
	sweeper auth.SessionSweeper
}

// buildApp wires repositories, services and routes. No business logic here.
func buildApp(cfg config.Config, db *sql.DB, rdb *redis.Client, log *slog.Logger) (*app, error) {
	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return nil, err
	}

	userRepo := users.NewPostgresRepo(db)
	sessionRepo := auth.NewPostgresSessionRepo(db)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))

	factory := provider.Factory{Options: provider.Options{
		BaseURL: cfg.Provider.BaseURL,
		Timeout: cfg.Provider.Timeout,
	}}
	gateways := func(apiKey string) (calls.Gateway, error) {
		return factory.New(apiKey)
	}

	callSvc := calls.NewService(calls.NewPostgresRepo(db), userRepo, gateways).
		WithSlots(utils.CallSlots{RDB: rdb, Limit: cfg.Provider.MaxConcurrentCalls, TTL: callSlotTTL})

	h := httpapi.Handlers{
		Auth:           auth.NewService(userRepo, sessionRepo, tokens).WithAudit(auditSvc),
		Users:          users.NewService(userRepo, sessionRepo).WithEvents(auditSvc),
		Calls:          callSvc,
		Stats:          reporting.NewService(callSvc),
		Pathways:       pathways.NewService(pathways.NewPostgresRepo(db)),
		KnowledgeBases: knowledgebases.NewService(knowledgebases.NewPostgresRepo(db)),
		Provider:       factory,
		DB:             db,
		Redis:          rdb,
	}

	router := httpapi.NewRouter(h, httpapi.RouterOptions{
		Logger:          log,
		CORSOrigins:     cfg.App.CORSOrigins,
		Redis:           rdb,
		LoginRateLimit:  cfg.Auth.LoginRateLimit,
		LoginRateWindow: cfg.Auth.LoginRateWindow,
		Webhook:         provider.WebhookHandler{Sink: callSvc, Secret: cfg.Provider.WebhookSecret},
	})

	return &app{
		router: router,
		sweeper: auth.SessionSweeper{
			Sessions: sessionRepo,
			Interval: cfg.Auth.SweepInterval,
			Logger:   log,
		},
	}, nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/config"
	"github.com/ruralmed/clinicstock/internal/repository/mongodb"
	"github.com/ruralmed/clinicstock/internal/repository/sheets"
	"github.com/ruralmed/clinicstock/internal/scheduler"
	"github.com/ruralmed/clinicstock/internal/server/handlers"
	"github.com/ruralmed/clinicstock/internal/server/router"
	authsvc "github.com/ruralmed/clinicstock/internal/service/auth"
	forecastsvc "github.com/ruralmed/clinicstock/internal/service/forecast"
	insightsvc "github.com/ruralmed/clinicstock/internal/service/insight"
	inventorysvc "github.com/ruralmed/clinicstock/internal/service/inventory"
	reportingsvc "github.com/ruralmed/clinicstock/internal/service/reporting"
	subscriptionsvc "github.com/ruralmed/clinicstock/internal/service/subscription"
	syncsvc "github.com/ruralmed/clinicstock/internal/service/sync"
	"github.com/ruralmed/clinicstock/internal/store/sqlite"
	"github.com/ruralmed/clinicstock/pkg/clients/anthropic"
	"github.com/ruralmed/clinicstock/pkg/clients/sms"
	"github.com/ruralmed/clinicstock/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	if cfg.Store.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
			baseLogger.Fatal("failed to create store directory", zap.Error(err))
		}
	}

	localStore, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		baseLogger.Fatal("failed to open local store", zap.Error(err))
	}
	defer func() {
		if err := localStore.Close(); err != nil {
			baseLogger.Error("failed to close local store", zap.Error(err))
		}
	}()

	// The remote store is optional; without it the sync engine runs in
	// local-only demo mode.
	var remote syncsvc.Remote
	if cfg.RemoteConfigured() {
		remoteStore, err := mongodb.NewRemoteStore(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init remote store", zap.Error(err))
		}
		defer func() {
			if err := remoteStore.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close remote store connection", zap.Error(err))
			}
		}()
		remote = remoteStore
		baseLogger.Info("remote store enabled", zap.String("db", cfg.MongoDB.DBName))
	} else {
		baseLogger.Warn("no remote store configured, sync will run in local-only mode")
	}

	// Initialize AI Client
	var aiClient anthropic.Client
	if cfg.AI.AnthropicKey != "" {
		aiClient = anthropic.NewClient(cfg.AI.AnthropicKey)
		baseLogger.Info("anthropic ai client enabled")
	} else {
		baseLogger.Warn("anthropic api key missing, inventory insights degraded")
	}

	var codeSender authsvc.CodeSender
	if cfg.SMSConfigured() {
		codeSender = sms.NewGatewayClient(cfg.SMS)
		baseLogger.Info("sms gateway enabled")
	} else {
		codeSender = sms.NewLogSender(baseLogger.Named("sms.log"))
		baseLogger.Warn("no sms gateway configured, recovery codes are logged instead")
	}

	var sheetsRepo sheets.Repository
	if cfg.SheetsConfigured() {
		sheetsRepo, err = sheets.New(context.Background(), cfg.Sheets.CredentialsPath, cfg.Sheets.SpreadsheetID, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		baseLogger.Info("daily sales export enabled")
	}

	inventorySvc := inventorysvc.NewService(localStore, baseLogger.Named("svc.inventory"))
	forecastSvc := forecastsvc.NewService(localStore, baseLogger.Named("svc.forecast"))
	authSvc := authsvc.NewService(localStore, codeSender, baseLogger.Named("svc.auth"))
	subscriptionSvc := subscriptionsvc.NewService(localStore, cfg.Subscription.RenewalCode, baseLogger.Named("svc.subscription"))
	insightSvc := insightsvc.NewService(localStore, aiClient, baseLogger.Named("svc.insight"))
	reportingSvc := reportingsvc.NewService(localStore, sheetsRepo, baseLogger.Named("svc.reporting"))
	engine := syncsvc.NewEngine(localStore, remote, baseLogger.Named("svc.sync"))

	// Reconcile the license record with the clock on startup so the gate is
	// correct before the first request.
	if _, err := subscriptionSvc.Current(); err != nil {
		baseLogger.Error("startup subscription check failed", zap.Error(err))
	}

	// Best-effort startup sync; offline is a normal condition here.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := engine.Sync(ctx); err != nil {
			baseLogger.Warn("startup sync failed", zap.Error(err))
		}
	}()

	routes := router.New(router.Handlers{
		Auth:         handlers.NewAuthHandler(authSvc, baseLogger.Named("handlers.auth")),
		Inventory:    handlers.NewInventoryHandler(inventorySvc, baseLogger.Named("handlers.inventory")),
		Analytics:    handlers.NewAnalyticsHandler(forecastSvc, reportingSvc, baseLogger.Named("handlers.analytics")),
		Sync:         handlers.NewSyncHandler(engine, baseLogger.Named("handlers.sync")),
		Subscription: handlers.NewSubscriptionHandler(subscriptionSvc, baseLogger.Named("handlers.subscription")),
		Insight:      handlers.NewInsightHandler(insightSvc, baseLogger.Named("handlers.insight")),
		Admin:        handlers.NewAdminHandler(localStore, baseLogger.Named("handlers.admin")),
	}, authSvc, subscriptionSvc, baseLogger.Named("router"))

	// Initialize Scheduler
	sched := scheduler.NewScheduler(*cfg, engine, reportingSvc, localStore, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      routes,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

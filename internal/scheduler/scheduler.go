package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/config"
	"github.com/ruralmed/clinicstock/internal/service/reporting"
	syncsvc "github.com/ruralmed/clinicstock/internal/service/sync"
	"github.com/ruralmed/clinicstock/internal/store"
)

// Scheduler manages scheduled tasks: the periodic auto-sync, the hourly
// cleanup of expired recovery codes and the nightly sales export.
type Scheduler struct {
	cron         *cron.Cron
	engine       *syncsvc.Engine
	reportingSvc *reporting.Service
	store        store.Store
	cfg          config.Config
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.Config, engine *syncsvc.Engine, reportingSvc *reporting.Service, st store.Store, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:         cron.New(),
		engine:       engine,
		reportingSvc: reportingSvc,
		store:        st,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(s.cfg.Sync.CronSchedule, s.runSync); err != nil {
		s.logger.Error("failed to schedule auto sync", zap.Error(err))
	}

	if _, err := s.cron.AddFunc("0 * * * *", s.purgeOtps); err != nil {
		s.logger.Error("failed to schedule otp cleanup", zap.Error(err))
	}

	if _, err := s.cron.AddFunc(s.cfg.Sync.SalesExportSchedule, s.exportSales); err != nil {
		s.logger.Error("failed to schedule sales export", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runSync() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	err := s.engine.Sync(ctx)
	switch {
	case errors.Is(err, syncsvc.ErrSyncInProgress):
		s.logger.Debug("auto sync skipped, a pass is already running")
	case err != nil:
		s.logger.Error("auto sync failed", zap.Error(err))
	default:
		s.logger.Info("auto sync completed")
	}
}

func (s *Scheduler) purgeOtps() {
	purged, err := s.store.PurgeExpiredOtps(time.Now())
	if err != nil {
		s.logger.Error("otp cleanup failed", zap.Error(err))
		return
	}
	if purged > 0 {
		s.logger.Info("expired recovery codes purged", zap.Int("count", purged))
	}
}

func (s *Scheduler) exportSales() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.reportingSvc.ExportDailySales(ctx); err != nil {
		s.logger.Error("daily sales export failed", zap.Error(err))
	}
}

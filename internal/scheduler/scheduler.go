package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/config"
	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/service/notify"
	"github.com/mamadbah2/stockroom/internal/service/reporting"
)

const (
	reportTimeout  = 2 * time.Minute
	refreshTimeout = 30 * time.Second
)

// Reporter produces the scheduled stock summaries.
type Reporter interface {
	LowStockDigest(ctx context.Context, now time.Time) (string, error)
	ExportInventory(ctx context.Context, now time.Time) error
}

// Refresher reloads the shared product snapshot.
type Refresher interface {
	Load(ctx context.Context) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	cfg       config.ReportingConfig
	reporter  Reporter
	messenger notify.Messenger
	catalog   Refresher
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a new scheduler running in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, reporter Reporter, messenger notify.Messenger, catalog Refresher, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc := time.Local
	if cfg.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
		}
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		cfg:       cfg,
		reporter:  reporter,
		messenger: messenger,
		catalog:   catalog,
		logger:    logger,
		now:       func() time.Time { return time.Now().In(loc) },
	}, nil
}

// Start registers the jobs with a non-empty schedule and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	jobs := []struct {
		name     string
		schedule string
		run      func()
	}{
		{"low stock digest", s.cfg.DigestSchedule, s.sendLowStockDigest},
		{"inventory export", s.cfg.ExportSchedule, s.exportInventory},
		{"catalog refresh", s.cfg.RefreshSchedule, s.refreshCatalog},
	}
	for _, job := range jobs {
		if job.schedule == "" {
			s.logger.Info("job disabled", zap.String("job", job.name))
			continue
		}
		if _, err := s.cron.AddFunc(job.schedule, job.run); err != nil {
			return fmt.Errorf("schedule %s %q: %w", job.name, job.schedule, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendLowStockDigest() {
	if s.messenger == nil || !s.messenger.Enabled() {
		s.logger.Debug("messaging disabled, skipping low stock digest")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	digest, err := s.reporter.LowStockDigest(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to build low stock digest", zap.Error(err))
		return
	}
	if digest == "" {
		s.logger.Info("nothing to buy, digest not sent")
		return
	}

	if err := s.messenger.SendOutbound(ctx, models.OutboundMessageRequest{Message: digest}); err != nil {
		s.logger.Error("failed to send low stock digest", zap.Error(err))
	} else {
		s.logger.Info("low stock digest sent successfully")
	}
}

func (s *Scheduler) exportInventory() {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	err := s.reporter.ExportInventory(ctx, s.now())
	switch {
	case errors.Is(err, reporting.ErrExportDisabled):
		s.logger.Debug("spreadsheet not configured, skipping export")
	case err != nil:
		s.logger.Error("failed to export inventory", zap.Error(err))
	}
}

func (s *Scheduler) refreshCatalog() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := s.catalog.Load(ctx); err != nil {
		s.logger.Warn("catalog refresh failed", zap.Error(err))
	}
}

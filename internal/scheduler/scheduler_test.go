package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/stockroom/internal/config"
	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/service/reporting"
)

type fakeReporter struct {
	digest    string
	digestErr error
	exportErr error
	exports   int
}

func (f *fakeReporter) LowStockDigest(context.Context, time.Time) (string, error) {
	return f.digest, f.digestErr
}

func (f *fakeReporter) ExportInventory(context.Context, time.Time) error {
	f.exports++
	return f.exportErr
}

type fakeMessenger struct {
	enabled bool
	sent    []models.OutboundMessageRequest
}

func (f *fakeMessenger) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	f.sent = append(f.sent, req)
	return nil
}

func (f *fakeMessenger) Enabled() bool { return f.enabled }

type fakeCatalog struct{ loads int }

func (f *fakeCatalog) Load(context.Context) error {
	f.loads++
	return nil
}

func newTestScheduler(t *testing.T, cfg config.ReportingConfig, r *fakeReporter, m *fakeMessenger, c *fakeCatalog) *Scheduler {
	t.Helper()
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	s, err := NewScheduler(cfg, r, m, c, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return s
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := newTestScheduler(t, config.ReportingConfig{DigestSchedule: "not a schedule"}, &fakeReporter{}, &fakeMessenger{}, &fakeCatalog{})
	if err := s.Start(); err == nil {
		t.Fatal("expected invalid schedule to fail")
	}
}

func TestStartAndStop(t *testing.T) {
	s := newTestScheduler(t, config.ReportingConfig{DigestSchedule: "0 7 * * 1-5", RefreshSchedule: "@every 5m"}, &fakeReporter{}, &fakeMessenger{}, &fakeCatalog{})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := len(s.cron.Entries()); got != 2 {
		t.Errorf("expected 2 scheduled jobs, got %d", got)
	}
	s.Stop()
}

func TestNewSchedulerRejectsUnknownTimezone(t *testing.T) {
	if _, err := NewScheduler(config.ReportingConfig{Timezone: "Mars/Olympus"}, nil, nil, nil, nil); err == nil {
		t.Fatal("expected unknown timezone to fail")
	}
}

func TestLowStockDigestJob(t *testing.T) {
	t.Run("sends digest", func(t *testing.T) {
		m := &fakeMessenger{enabled: true}
		s := newTestScheduler(t, config.ReportingConfig{}, &fakeReporter{digest: "Shopping list"}, m, &fakeCatalog{})
		s.sendLowStockDigest()
		if len(m.sent) != 1 || m.sent[0].Message != "Shopping list" || m.sent[0].To != "" {
			t.Errorf("unexpected messages %+v", m.sent)
		}
	})

	t.Run("skips empty digest", func(t *testing.T) {
		m := &fakeMessenger{enabled: true}
		s := newTestScheduler(t, config.ReportingConfig{}, &fakeReporter{}, m, &fakeCatalog{})
		s.sendLowStockDigest()
		if len(m.sent) != 0 {
			t.Errorf("expected nothing sent, got %+v", m.sent)
		}
	})

	t.Run("skips when messaging disabled", func(t *testing.T) {
		m := &fakeMessenger{}
		s := newTestScheduler(t, config.ReportingConfig{}, &fakeReporter{digest: "x"}, m, &fakeCatalog{})
		s.sendLowStockDigest()
		if len(m.sent) != 0 {
			t.Errorf("expected nothing sent, got %+v", m.sent)
		}
	})

	t.Run("does not send on error", func(t *testing.T) {
		m := &fakeMessenger{enabled: true}
		s := newTestScheduler(t, config.ReportingConfig{}, &fakeReporter{digest: "x", digestErr: errors.New("store down")}, m, &fakeCatalog{})
		s.sendLowStockDigest()
		if len(m.sent) != 0 {
			t.Errorf("expected nothing sent, got %+v", m.sent)
		}
	})
}

func TestExportAndRefreshJobs(t *testing.T) {
	r := &fakeReporter{exportErr: reporting.ErrExportDisabled}
	c := &fakeCatalog{}
	s := newTestScheduler(t, config.ReportingConfig{}, r, &fakeMessenger{}, c)

	s.exportInventory()
	s.refreshCatalog()
	s.refreshCatalog()

	if r.exports != 1 {
		t.Errorf("expected one export attempt, got %d", r.exports)
	}
	if c.loads != 2 {
		t.Errorf("expected two catalog loads, got %d", c.loads)
	}
}

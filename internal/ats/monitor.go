package ats

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/api"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/notify"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/pkg/icron"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/pkg/log"
)

// LogArchive persists sync logs seen during a monitor run and
// reports which ones are new.
type LogArchive interface {
	ArchiveSyncLogs(ctx context.Context, logs []api.SyncLog) ([]api.SyncLog, error)
}

// Monitor periodically refreshes the connection list and archives
// each connection's sync logs, notifying on newly seen failures.
type Monitor struct {
	manager  *Manager
	archive  LogArchive
	notifier notify.Notifier
	cronExpr string
	cron     *cron.Cron

	flight singleflight.Group

	mu          sync.Mutex
	lastRunTime time.Time
}

func NewMonitor(
	manager *Manager,
	archive LogArchive,
	notifier notify.Notifier,
	cronExpr string,
	cronEngine *cron.Cron,
) *Monitor {
	return &Monitor{
		manager:  manager,
		archive:  archive,
		notifier: notifier,
		cronExpr: cronExpr,
		cron:     cronEngine,
	}
}

// Schedule registers the monitor with the cron engine. The engine's
// Start/Stop lifecycle belongs to the caller.
func (m *Monitor) Schedule(ctx context.Context) error {
	log.Info("Scheduling ATS sync monitor with expression %q", m.cronExpr)
	_, err := m.cron.AddFunc(m.cronExpr, func() {
		_, _, _ = m.flight.Do("run", func() (any, error) {
			m.mu.Lock()
			m.lastRunTime = time.Now()
			m.mu.Unlock()
			if err := m.Run(ctx); err != nil {
				log.Error("ATS monitor run failed: %v", err)
			}
			return nil, nil
		})
	})
	return err
}

// Run performs one refresh-and-archive pass.
func (m *Monitor) Run(ctx context.Context) error {
	connections, err := m.manager.Refresh(ctx)
	if err != nil {
		return err
	}
	log.Info("ATS monitor refreshed %d connections", len(connections))

	for _, conn := range connections {
		logs, err := m.manager.SyncLogs(ctx, conn.ID)
		if err != nil {
			log.Warn("Failed to fetch sync logs for connection %d: %v", conn.ID, err)
			continue
		}
		fresh, err := m.archive.ArchiveSyncLogs(ctx, logs)
		if err != nil {
			log.Warn("Failed to archive sync logs for connection %d: %v", conn.ID, err)
			continue
		}
		m.notifyFailures(conn, fresh)
	}
	return nil
}

func (m *Monitor) notifyFailures(conn api.ATSConnection, fresh []api.SyncLog) {
	if m.notifier == nil {
		return
	}
	name := ProviderDisplayName(conn.Provider)
	for _, entry := range fresh {
		if entry.Status != "failed" {
			continue
		}
		if err := m.notifier.Notify(notify.FormatSyncFailure(name, entry)); err != nil {
			log.Warn("Failed to deliver sync-failure notification: %v", err)
		}
	}
}

// TriggerInfo reports the monitor's schedule relative to now.
func (m *Monitor) TriggerInfo() (*icron.TriggerInfo, error) {
	return icron.GetTriggerInfo(m.cronExpr, time.Now())
}

// LastRunTime is when the scheduled run last fired. Zero before the
// first tick.
func (m *Monitor) LastRunTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRunTime
}

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/api"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/apply"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/ats"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/config"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/httpapi"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/notify"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/reconcile"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/resume"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/session"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/store"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/pkg/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal("Gateway failed: %v", err)
	}
}

func run() error {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	log.InitLogger(log.ParseLevel(cfg.LogLevel))

	settingsStore := config.NewFileSettingsStore(config.RuntimeSettingsFilePath(), cfg.RuntimeSettings())
	saved, err := settingsStore.GetRuntimeSettings()
	if err != nil {
		return fmt.Errorf("load runtime settings: %w", err)
	}
	cfg, err = config.NewFromEnv(config.WithRuntimeSettings(saved))
	if err != nil {
		return fmt.Errorf("apply runtime settings: %w", err)
	}

	db, err := store.NewSQLiteStore(cfg.Data.DBPath())
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	defer db.Close()

	sess, err := session.NewController(cfg.Backend.TokenFile,
		session.WithExpiryHandler(func() {
			log.Warn("Session expired, sign in again via POST /api/session")
		}),
	)
	if err != nil {
		return fmt.Errorf("init session: %w", err)
	}

	client := api.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout,
		api.WithTokenSource(sess),
		api.WithUnauthorizedHandler(sess.Expire),
	)

	reconciler := reconcile.New(client,
		reconcile.WithCacheStore(db),
		reconcile.WithConcurrency(cfg.Reconcile.Concurrency),
		reconcile.WithCacheTTL(cfg.Reconcile.CacheTTL),
	)

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			log.Warn("Telegram notifier unavailable, falling back to log: %v", err)
		} else {
			notifier = tg
		}
	}

	queue := resume.NewQueue(2, db)
	submitter := apply.NewSubmitter(client,
		apply.WithAppliedRecorder(reconciler),
		apply.WithNotifier(notifier),
		apply.WithRetryEnqueuer(queueEnqueuer{queue: queue}),
	)
	queue.Start(func(ctx context.Context, task *resume.Task) error {
		result := submitter.ProcessResume(ctx, task.ApplicationID, task.Filename, task.Content)
		if result.State == apply.ResumeFailed {
			return result.Err
		}
		return nil
	})
	defer queue.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager := ats.NewManager(client)
	cronEngine := cron.New()
	monitor := ats.NewMonitor(manager, db, notifier, cfg.Sync.CronExpr, cronEngine)
	if err := monitor.Schedule(ctx); err != nil {
		return fmt.Errorf("schedule sync monitor: %w", err)
	}
	cronEngine.Start()
	defer cronEngine.Stop()

	go sess.RunActivityLoop(ctx, cfg.Session.ActivityInterval, client.Activity)

	server := httpapi.NewServer(client, reconciler, submitter, queue, manager,
		httpapi.WithSession(sess),
		httpapi.WithMonitor(monitor),
		httpapi.WithSyncLogHistory(db),
		httpapi.WithRuntimeSettingsStore(settingsStore),
		httpapi.WithRuntimeSettingsApplier(func(next config.RuntimeSettings) error {
			log.Info("Runtime settings saved, backend URL and cron changes apply on restart")
			return nil
		}),
		httpapi.WithCandidate(cfg.Candidate.Email, cfg.Candidate.Role),
		httpapi.WithUI(cfg.HTTP.UIStaticDir, cfg.HTTP.UIStaticDir != ""),
	)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Gateway listening on %s", cfg.HTTP.Addr)
		serveErr <- server.ListenAndServe(cfg.HTTP.Addr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown: %v", err)
	}
	sess.SendLogoutBeacon(client.Logout)
	return nil
}

// queueEnqueuer adapts the retry queue to the submitter's enqueue hook.
type queueEnqueuer struct {
	queue *resume.Queue
}

func (q queueEnqueuer) EnqueueResume(applicationID int64, filename string, content []byte) {
	q.queue.Enqueue(resume.EnqueueRequest{
		ApplicationID: applicationID,
		Filename:      filename,
		Content:       content,
	})
}

package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/api"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/reconcile"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/resume"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore is the gateway's local persistence: the applied-status
// cache, the archived sync-log history and the resume retry tasks.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "0001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

// GetAppliedStatuses implements reconcile.CacheStore.
func (s *SQLiteStore) GetAppliedStatuses(ctx context.Context, email string, jobIDs []int64) ([]reconcile.CachedStatus, error) {
	if len(jobIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(jobIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(jobIDs)+1)
	args = append(args, email)
	for _, id := range jobIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, email, has_applied, application_id, checked_at
		 FROM applied_status
		 WHERE email = ? AND job_id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]reconcile.CachedStatus, 0)
	for rows.Next() {
		var item reconcile.CachedStatus
		var hasApplied int
		if err := rows.Scan(&item.JobID, &item.Email, &hasApplied, &item.ApplicationID, &item.CheckedAt); err != nil {
			return nil, err
		}
		item.HasApplied = hasApplied != 0
		ret = append(ret, item)
	}
	return ret, rows.Err()
}

// PutAppliedStatus implements reconcile.CacheStore.
func (s *SQLiteStore) PutAppliedStatus(ctx context.Context, status reconcile.CachedStatus) error {
	hasApplied := 0
	if status.HasApplied {
		hasApplied = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO applied_status (job_id, email, has_applied, application_id, checked_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(job_id, email) DO UPDATE SET
			has_applied = excluded.has_applied,
			application_id = excluded.application_id,
			checked_at = excluded.checked_at`,
		status.JobID, status.Email, hasApplied, status.ApplicationID, status.CheckedAt,
	)
	return err
}

// DeleteAppliedStatus implements reconcile.CacheStore.
func (s *SQLiteStore) DeleteAppliedStatus(ctx context.Context, jobID int64, email string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM applied_status WHERE job_id = ? AND email = ?`, jobID, email)
	return err
}

// ArchiveSyncLogs upserts backend sync logs and returns the ones not
// seen before. Completed/failed details of known logs are refreshed in
// place since a running sync finishes later.
func (s *SQLiteStore) ArchiveSyncLogs(ctx context.Context, logs []api.SyncLog) ([]api.SyncLog, error) {
	fresh := make([]api.SyncLog, 0)
	now := time.Now()

	for _, entry := range logs {
		var completedAt any
		if entry.CompletedAt != nil {
			completedAt = *entry.CompletedAt
		}
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO sync_logs
				(id, connection_id, sync_type, status, started_at, completed_at, records_synced, error_message, archived_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.ConnectionID, entry.SyncType, entry.Status,
			entry.StartedAt, completedAt, entry.RecordsSynced, entry.ErrorMessage, now,
		)
		if err != nil {
			return nil, fmt.Errorf("archive sync log %d: %w", entry.ID, err)
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if inserted > 0 {
			fresh = append(fresh, entry)
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE sync_logs
			 SET status = ?, completed_at = ?, records_synced = ?, error_message = ?
			 WHERE id = ?`,
			entry.Status, completedAt, entry.RecordsSynced, entry.ErrorMessage, entry.ID,
		); err != nil {
			return nil, fmt.Errorf("refresh sync log %d: %w", entry.ID, err)
		}
	}
	return fresh, nil
}

// RecentSyncLogs lists archived logs for one connection, newest first.
func (s *SQLiteStore) RecentSyncLogs(ctx context.Context, connectionID int64, limit int) ([]api.SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, connection_id, sync_type, status, started_at, completed_at, records_synced, error_message
		 FROM sync_logs
		 WHERE connection_id = ?
		 ORDER BY started_at DESC
		 LIMIT ?`,
		connectionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]api.SyncLog, 0)
	for rows.Next() {
		var item api.SyncLog
		var completedAt sql.NullTime
		if err := rows.Scan(
			&item.ID,
			&item.ConnectionID,
			&item.SyncType,
			&item.Status,
			&item.StartedAt,
			&completedAt,
			&item.RecordsSynced,
			&item.ErrorMessage,
		); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			t := completedAt.Time
			item.CompletedAt = &t
		}
		ret = append(ret, item)
	}
	return ret, rows.Err()
}

// LoadTasks implements resume.Store.
func (s *SQLiteStore) LoadTasks(ctx context.Context) ([]*resume.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, application_id, filename, content, status, error, attempts, created_at, updated_at
		 FROM resume_tasks
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]*resume.Task, 0)
	for rows.Next() {
		var item resume.Task
		var status string
		if err := rows.Scan(
			&item.ID,
			&item.ApplicationID,
			&item.Filename,
			&item.Content,
			&status,
			&item.Error,
			&item.Attempts,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		item.Status = resume.Status(status)
		ret = append(ret, &item)
	}
	return ret, rows.Err()
}

// UpsertTask implements resume.Store.
func (s *SQLiteStore) UpsertTask(ctx context.Context, task *resume.Task) error {
	if task == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resume_tasks (id, application_id, filename, content, status, error, attempts, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			status = excluded.status,
			error = excluded.error,
			attempts = excluded.attempts,
			updated_at = excluded.updated_at`,
		task.ID, task.ApplicationID, task.Filename, task.Content,
		string(task.Status), task.Error, task.Attempts, task.CreatedAt, task.UpdatedAt,
	)
	return err
}

// DeleteTask implements resume.Store.
func (s *SQLiteStore) DeleteTask(ctx context.Context, taskID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM resume_tasks WHERE id = ?`, taskID)
	return err
}

package resume

import "context"

// Store persists task state so pending retries survive a restart.
type Store interface {
	LoadTasks(ctx context.Context) ([]*Task, error)
	UpsertTask(ctx context.Context, task *Task) error
	DeleteTask(ctx context.Context, taskID string) error
}

package resume

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Task is one resume upload+parse chain awaiting (re)processing for a
// submitted application.
type Task struct {
	ID            string    `json:"id"`
	ApplicationID int64     `json:"application_id"`
	Filename      string    `json:"filename"`
	Content       []byte    `json:"-"`
	Status        Status    `json:"status"`
	Error         string    `json:"error,omitempty"`
	Attempts      int       `json:"attempts"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type EnqueueRequest struct {
	ApplicationID int64
	Filename      string
	Content       []byte
}

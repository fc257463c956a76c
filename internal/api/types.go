package api

import "time"

// JobStatus values mirror the platform backend verbatim, including
// the space-separated interview state.
type JobStatus string

const (
	JobOpen      JobStatus = "Open"
	JobClosed    JobStatus = "Closed"
	JobPaused    JobStatus = "Paused"
	JobInterview JobStatus = "Interview In Progress"
)

type Job struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Location        string    `json:"location"`
	Status          JobStatus `json:"status"`
	Department      string    `json:"department"`
	ExperienceLevel string    `json:"experience_level"`
	SkillsRequired  []string  `json:"skills_required"`
	CreatedAt       time.Time `json:"created_at"`
}

type JobApplication struct {
	ID             int64     `json:"id"`
	JobID          int64     `json:"job_id"`
	CandidateEmail string    `json:"candidate_email"`
	Status         string    `json:"status"`
	AppliedAt      time.Time `json:"applied_at"`
}

// ApplicationStatus is the per-(job, candidate) answer to "has this
// candidate already applied".
type ApplicationStatus struct {
	HasApplied      bool   `json:"has_applied"`
	ApplicationID   int64  `json:"application_id,omitempty"`
	ApplicationDate string `json:"application_date,omitempty"`
	Status          string `json:"status,omitempty"`
}

// ApplicationRequest is the payload for a new application. Language
// is the detected cover-letter language, when one could be detected.
type ApplicationRequest struct {
	JobID          int64  `json:"job_id"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	CurrentTitle   string `json:"current_title,omitempty"`
	YearsExp       int    `json:"years_experience,omitempty"`
	ExpectedSalary string `json:"expected_salary,omitempty"`
	CoverLetter    string `json:"cover_letter,omitempty"`
	Language       string `json:"language,omitempty"`
}

// ATSConnectionRequest carries the write-only api_key. It exists only
// on the request side; ATSConnection never echoes the key back.
type ATSConnectionRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url,omitempty"`
	IsActive bool   `json:"is_active"`
}

type ATSConnection struct {
	ID         int64      `json:"id"`
	Provider   string     `json:"provider"`
	BaseURL    string     `json:"base_url,omitempty"`
	IsActive   bool       `json:"is_active"`
	SyncStatus string     `json:"sync_status"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

type SyncLog struct {
	ID            int64      `json:"id"`
	ConnectionID  int64      `json:"connection_id"`
	SyncType      string     `json:"sync_type"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	RecordsSynced int        `json:"records_synced"`
	ErrorMessage  string     `json:"error_message,omitempty"`
}

type JobMapping struct {
	ID           int64  `json:"id"`
	ConnectionID int64  `json:"connection_id"`
	LocalJobID   int64  `json:"local_job_id"`
	RemoteJobID  string `json:"remote_job_id"`
}

type CandidateMapping struct {
	ID                int64  `json:"id"`
	ConnectionID      int64  `json:"connection_id"`
	LocalCandidateID  int64  `json:"local_candidate_id"`
	RemoteCandidateID string `json:"remote_candidate_id"`
}

type Feedback struct {
	ID            int64     `json:"id"`
	CandidateID   int64     `json:"candidate_id"`
	JobID         int64     `json:"job_id"`
	OverallScore  float64   `json:"overall_score"`
	StillEmployed bool      `json:"still_employed"`
	HireDate      time.Time `json:"hire_date"`
}

type FeedbackFilter struct {
	JobID       int64
	CandidateID int64
}

type UploadResult struct {
	ResumeID string `json:"resume_id"`
	URL      string `json:"url,omitempty"`
}

type ParseResult struct {
	ResumeID string   `json:"resume_id"`
	Skills   []string `json:"skills,omitempty"`
	Summary  string   `json:"summary,omitempty"`
}

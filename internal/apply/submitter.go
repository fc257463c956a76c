package apply

import (
	"context"
	"fmt"

	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/api"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/pkg/log"
)

// Backend is the slice of the platform client the submission chain
// uses.
type Backend interface {
	Apply(ctx context.Context, req api.ApplicationRequest, idempotencyKey string) (int64, error)
	UploadResume(ctx context.Context, applicationID int64, filename string, content []byte) (*api.UploadResult, error)
	ParseResume(ctx context.Context, resumeID string) (*api.ParseResult, error)
}

// AppliedRecorder flips the reconciler's cached answer after a
// successful submission.
type AppliedRecorder interface {
	MarkApplied(ctx context.Context, jobID int64, email string, applicationID int64)
}

// Notifier surfaces non-blocking failures to the user.
type Notifier interface {
	Notify(text string) error
}

// RetryEnqueuer parks a failed resume chain for a later retry.
type RetryEnqueuer interface {
	EnqueueResume(applicationID int64, filename string, content []byte)
}

type ResumeState int

const (
	// ResumeSkipped: no resume was attached, neither endpoint called.
	ResumeSkipped ResumeState = iota
	ResumeProcessed
	ResumeFailed
)

func (s ResumeState) String() string {
	switch s {
	case ResumeSkipped:
		return "skipped"
	case ResumeProcessed:
		return "processed"
	case ResumeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ResumeResult is the typed outcome of the upload-then-parse chain.
type ResumeResult struct {
	State    ResumeState
	Stage    string // "upload" or "parse" when failed
	ResumeID string
	Err      error
}

// Outcome of one submission. A failed resume chain does not fail the
// submission itself; the application is saved either way.
type Outcome struct {
	ApplicationID int64
	Resume        ResumeResult
}

type Submitter struct {
	backend  Backend
	recorder AppliedRecorder
	notifier Notifier
	retries  RetryEnqueuer
}

type SubmitterOption func(*Submitter)

func WithAppliedRecorder(recorder AppliedRecorder) SubmitterOption {
	return func(s *Submitter) { s.recorder = recorder }
}

func WithNotifier(notifier Notifier) SubmitterOption {
	return func(s *Submitter) { s.notifier = notifier }
}

func WithRetryEnqueuer(retries RetryEnqueuer) SubmitterOption {
	return func(s *Submitter) { s.retries = retries }
}

func NewSubmitter(backend Backend, opts ...SubmitterOption) *Submitter {
	s := &Submitter{backend: backend}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates the whole wizard, posts the application, then runs
// the resume chain when a resume is attached. Only the application
// post can fail the call; resume trouble is reported in the outcome,
// pushed to the notifier, and parked for retry.
func (s *Submitter) Submit(ctx context.Context, w *Wizard) (*Outcome, error) {
	if err := w.validateAll(); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	req := w.Request()
	applicationID, err := s.backend.Apply(ctx, req, w.IdempotencyKey())
	if err != nil {
		return nil, fmt.Errorf("submit application for job %d: %w", w.JobID(), err)
	}
	log.Info("Application %d submitted for job %d", applicationID, w.JobID())

	if s.recorder != nil {
		s.recorder.MarkApplied(ctx, w.JobID(), req.Email, applicationID)
	}

	outcome := &Outcome{ApplicationID: applicationID}
	if !w.HasResume() {
		outcome.Resume = ResumeResult{State: ResumeSkipped}
		return outcome, nil
	}

	outcome.Resume = s.ProcessResume(ctx, applicationID, w.documents.ResumeName, w.documents.Resume)
	if outcome.Resume.State == ResumeFailed {
		s.reportResumeFailure(applicationID, outcome.Resume)
		if s.retries != nil {
			s.retries.EnqueueResume(applicationID, w.documents.ResumeName, w.documents.Resume)
		}
	}
	return outcome, nil
}

// ProcessResume runs upload then parse. Parse never runs when upload
// fails. Shared by the submission path and the retry queue.
func (s *Submitter) ProcessResume(ctx context.Context, applicationID int64, filename string, content []byte) ResumeResult {
	uploaded, err := s.backend.UploadResume(ctx, applicationID, filename, content)
	if err != nil {
		return ResumeResult{State: ResumeFailed, Stage: "upload", Err: err}
	}

	if _, err := s.backend.ParseResume(ctx, uploaded.ResumeID); err != nil {
		return ResumeResult{State: ResumeFailed, Stage: "parse", ResumeID: uploaded.ResumeID, Err: err}
	}
	return ResumeResult{State: ResumeProcessed, ResumeID: uploaded.ResumeID}
}

func (s *Submitter) reportResumeFailure(applicationID int64, result ResumeResult) {
	log.Warn("Resume %s failed for application %d: %v", result.Stage, applicationID, result.Err)
	if s.notifier == nil {
		return
	}
	text := fmt.Sprintf(
		"Application %d saved, but resume %s failed: %v. A retry has been scheduled.",
		applicationID, result.Stage, result.Err,
	)
	if err := s.notifier.Notify(text); err != nil {
		log.Warn("Failed to deliver resume-failure notification: %v", err)
	}
}

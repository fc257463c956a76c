package httpapi

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/api"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/apply"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/ats"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/config"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/reconcile"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/resume"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/session"
)

type runtimeSettingsStore interface {
	GetRuntimeSettings() (config.RuntimeSettings, error)
	UpdateRuntimeSettings(next config.RuntimeSettings) (config.RuntimeSettings, error)
}

type runtimeSettingsApplier func(next config.RuntimeSettings) error

type syncLogHistory interface {
	RecentSyncLogs(ctx context.Context, connectionID int64, limit int) ([]api.SyncLog, error)
}

// Server is the local gateway surface a UI talks to. It fronts the
// recruiting backend with the applied-status reconciler, the
// submission pipeline and the ATS connection manager.
type Server struct {
	backend     *api.Client
	reconciler  *reconcile.Reconciler
	submitter   *apply.Submitter
	queue       *resume.Queue
	connections *ats.Manager
	monitor     *ats.Monitor
	session     *session.Controller
	settings    runtimeSettingsStore
	applier     runtimeSettingsApplier
	history     syncLogHistory

	candidateEmail string
	candidateRole  string

	uiEnabled   bool
	uiStaticDir string

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithUI(staticDir string, enabled bool) Option {
	return func(s *Server) {
		s.uiStaticDir = staticDir
		s.uiEnabled = enabled
	}
}

func WithRuntimeSettingsStore(store runtimeSettingsStore) Option {
	return func(s *Server) {
		s.settings = store
	}
}

func WithRuntimeSettingsApplier(applier runtimeSettingsApplier) Option {
	return func(s *Server) {
		s.applier = applier
	}
}

func WithSession(controller *session.Controller) Option {
	return func(s *Server) {
		s.session = controller
	}
}

func WithMonitor(monitor *ats.Monitor) Option {
	return func(s *Server) {
		s.monitor = monitor
	}
}

func WithSyncLogHistory(history syncLogHistory) Option {
	return func(s *Server) {
		s.history = history
	}
}

func WithCandidate(email, role string) Option {
	return func(s *Server) {
		s.candidateEmail = email
		s.candidateRole = role
	}
}

func NewServer(
	backend *api.Client,
	reconciler *reconcile.Reconciler,
	submitter *apply.Submitter,
	queue *resume.Queue,
	connections *ats.Manager,
	opts ...Option,
) *Server {
	s := &Server{
		backend:       backend,
		reconciler:    reconciler,
		submitter:     submitter,
		queue:         queue,
		connections:   connections,
		candidateRole: reconcile.RoleCandidate,
		uiEnabled:     false,
		mux:           http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/jobs", s.handleJobs)
	s.mux.HandleFunc("/api/jobs/", s.handleJobDetail)
	s.mux.HandleFunc("/api/applications", s.handleSubmitApplication)
	s.mux.HandleFunc("/api/resume/tasks", s.handleResumeTasks)
	s.mux.HandleFunc("/api/resume/tasks/", s.handleResumeTaskRetry)
	s.mux.HandleFunc("/api/ats/providers", s.handleProviders)
	s.mux.HandleFunc("/api/ats/connections", s.handleConnections)
	s.mux.HandleFunc("/api/ats/connections/", s.handleConnectionDetail)
	s.mux.HandleFunc("/api/ats/monitor", s.handleMonitor)
	s.mux.HandleFunc("/api/feedback", s.handleFeedback)
	s.mux.HandleFunc("/api/session", s.handleSession)
	s.mux.HandleFunc("/api/settings", s.handleSettings)
	s.mux.HandleFunc("/api/stream", s.handleStream)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/", s.handleStatic)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !s.uiEnabled || s.uiStaticDir == "" {
		http.NotFound(w, r)
		return
	}

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	indexPath := filepath.Join(s.uiStaticDir, "index.html")

	if rel == "" || !strings.Contains(filepath.Base(rel), ".") {
		http.ServeFile(w, r, indexPath)
		return
	}

	filePath := filepath.Join(s.uiStaticDir, rel)
	if _, err := os.Stat(filePath); err != nil {
		// SPA fallback: non-existing static file path returns index
		http.ServeFile(w, r, indexPath)
		return
	}
	http.ServeFile(w, r, filePath)
}

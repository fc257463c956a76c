package ats

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/api"
)

// Sync types the backend accepts for a manual trigger.
const (
	SyncFull        = "full"
	SyncIncremental = "incremental"
	SyncJobs        = "jobs"
	SyncCandidates  = "candidates"
)

// ConnectionClient is the slice of the backend API the manager needs.
type ConnectionClient interface {
	ListConnections(ctx context.Context) ([]api.ATSConnection, error)
	CreateConnection(ctx context.Context, req api.ATSConnectionRequest) (*api.ATSConnection, error)
	UpdateConnection(ctx context.Context, id int64, req api.ATSConnectionRequest) (*api.ATSConnection, error)
	DeleteConnection(ctx context.Context, id int64) error
	TestConnection(ctx context.Context, id int64) (*api.TestResult, error)
	TriggerSync(ctx context.Context, id int64, syncType string) error
	SyncLogs(ctx context.Context, connectionID int64) ([]api.SyncLog, error)
	JobMappings(ctx context.Context, connectionID int64) ([]api.JobMapping, error)
	CandidateMappings(ctx context.Context, connectionID int64) ([]api.CandidateMapping, error)
}

// Manager keeps a locally held view of the candidate's ATS
// connections. Mutations update the local list in place so callers
// see the result immediately; Refresh replaces the list wholesale
// with the backend's current state.
type Manager struct {
	client ConnectionClient

	mu          sync.RWMutex
	connections []api.ATSConnection
	refreshedAt time.Time
}

func NewManager(client ConnectionClient) *Manager {
	return &Manager{client: client}
}

// Refresh re-fetches the connection list from the backend and
// replaces the local copy.
func (m *Manager) Refresh(ctx context.Context) ([]api.ATSConnection, error) {
	connections, err := m.client.ListConnections(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.connections = connections
	m.refreshedAt = time.Now()
	m.mu.Unlock()

	return m.Connections(), nil
}

// Connections returns a copy of the locally held list.
func (m *Manager) Connections() []api.ATSConnection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]api.ATSConnection, len(m.connections))
	copy(out, m.connections)
	return out
}

// RefreshedAt reports when the local list was last replaced by a
// backend fetch. Zero when no refresh has happened yet.
func (m *Manager) RefreshedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshedAt
}

func validateRequest(req api.ATSConnectionRequest) error {
	if !KnownProvider(req.Provider) {
		return fmt.Errorf("unknown ats provider %q", req.Provider)
	}
	if strings.TrimSpace(req.APIKey) == "" {
		return fmt.Errorf("api key is required")
	}
	return nil
}

// Create registers a new connection and appends it to the local list.
func (m *Manager) Create(ctx context.Context, req api.ATSConnectionRequest) (*api.ATSConnection, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	created, err := m.client.CreateConnection(ctx, req)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.connections = append(m.connections, *created)
	m.mu.Unlock()

	return created, nil
}

// Update edits a connection and patches the local list entry.
func (m *Manager) Update(ctx context.Context, id int64, req api.ATSConnectionRequest) (*api.ATSConnection, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	updated, err := m.client.UpdateConnection(ctx, id, req)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	for i := range m.connections {
		if m.connections[i].ID == id {
			m.connections[i] = *updated
			break
		}
	}
	m.mu.Unlock()

	return updated, nil
}

// Delete removes the connection on the backend and drops it from the
// local list without another list fetch.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	if err := m.client.DeleteConnection(ctx, id); err != nil {
		return err
	}

	m.mu.Lock()
	filtered := m.connections[:0]
	for _, conn := range m.connections {
		if conn.ID != id {
			filtered = append(filtered, conn)
		}
	}
	m.connections = filtered
	m.mu.Unlock()

	return nil
}

// Test checks the stored credentials of one connection.
func (m *Manager) Test(ctx context.Context, id int64) (*api.TestResult, error) {
	return m.client.TestConnection(ctx, id)
}

// Sync kicks off a backend sync. The call is fire-and-forget: progress
// shows up through the next Refresh and the sync logs.
func (m *Manager) Sync(ctx context.Context, id int64, syncType string) error {
	switch syncType {
	case SyncFull, SyncIncremental, SyncJobs, SyncCandidates:
	default:
		return fmt.Errorf("unknown sync type %q", syncType)
	}
	return m.client.TriggerSync(ctx, id, syncType)
}

// SyncLogs fetches the backend's sync history for one connection.
func (m *Manager) SyncLogs(ctx context.Context, connectionID int64) ([]api.SyncLog, error) {
	return m.client.SyncLogs(ctx, connectionID)
}

// JobMappings fetches the job-mapping table for one connection.
func (m *Manager) JobMappings(ctx context.Context, connectionID int64) ([]api.JobMapping, error) {
	return m.client.JobMappings(ctx, connectionID)
}

// CandidateMappings fetches the candidate-mapping table for one connection.
func (m *Manager) CandidateMappings(ctx context.Context, connectionID int64) ([]api.CandidateMapping, error) {
	return m.client.CandidateMappings(ctx, connectionID)
}

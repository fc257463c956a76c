package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/api"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/apply"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/ats"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/reconcile"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/resume"
)

// fakeBackend is an httptest stand-in for the recruiting backend,
// recording what the gateway sends it.
type fakeBackend struct {
	t *testing.T

	jobs        []api.Job
	applied     map[int64]api.ApplicationStatus
	connections []api.ATSConnection

	applyCalls   int
	deleteCalls  []string
	lastSyncBody string
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, f.jobs)
	})
	mux.HandleFunc("/api/job/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/check-application") {
			writeTestJSON(w, api.ApplicationStatus{})
			return
		}
		writeTestJSON(w, f.jobs[0])
	})
	mux.HandleFunc("/api/applications/status-batch", func(w http.ResponseWriter, r *http.Request) {
		statuses := map[string]api.ApplicationStatus{}
		for id, status := range f.applied {
			statuses[fmt.Sprintf("%d", id)] = status
		}
		writeTestJSON(w, map[string]any{"statuses": statuses})
	})
	mux.HandleFunc("/api/job/apply", func(w http.ResponseWriter, r *http.Request) {
		f.applyCalls++
		writeTestJSON(w, map[string]any{"application_id": 501})
	})
	mux.HandleFunc("/api/resume/upload", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, api.UploadResult{ResumeID: "res-1"})
	})
	mux.HandleFunc("/api/resume/parse", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, api.ParseResult{ResumeID: "res-1"})
	})
	mux.HandleFunc("/api/ats/connections", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			writeTestJSON(w, api.ATSConnection{ID: 77, Provider: "lever", IsActive: true})
			return
		}
		writeTestJSON(w, f.connections)
	})
	mux.HandleFunc("/api/ats/connections/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete:
			f.deleteCalls = append(f.deleteCalls, r.URL.Path)
			writeTestJSON(w, map[string]any{"deleted": true})
		case strings.HasSuffix(r.URL.Path, "/sync"):
			var buf bytes.Buffer
			_, _ = buf.ReadFrom(r.Body)
			f.lastSyncBody = buf.String()
			w.WriteHeader(http.StatusAccepted)
			writeTestJSON(w, map[string]any{"triggered": true})
		case strings.HasSuffix(r.URL.Path, "/test"):
			writeTestJSON(w, api.TestResult{Success: true, Message: "ok"})
		case strings.HasSuffix(r.URL.Path, "/sync-logs"):
			writeTestJSON(w, []api.SyncLog{
				{ID: 1, ConnectionID: 9, SyncType: "jobs", Status: "completed", StartedAt: time.Now()},
			})
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/api/feedback", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, []api.Feedback{{ID: 1, JobID: 3, OverallScore: 4.5}})
	})
	return mux
}

func writeTestJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func newTestServer(t *testing.T, backend *fakeBackend) *Server {
	t.Helper()
	upstream := httptest.NewServer(backend.handler())
	t.Cleanup(upstream.Close)

	client := api.NewClient(upstream.URL, 5*time.Second)
	reconciler := reconcile.New(client)
	submitter := apply.NewSubmitter(client)
	queue := resume.NewQueue(1, nil)
	t.Cleanup(queue.Stop)
	manager := ats.NewManager(client)

	server := NewServer(client, reconciler, submitter, queue, manager,
		WithCandidate("dev@example.com", reconcile.RoleCandidate),
	)
	return server
}

func doRequest(t *testing.T, server *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestJobsListWithAppliedFlags(t *testing.T) {
	backend := &fakeBackend{
		t: t,
		jobs: []api.Job{
			{ID: 10, Title: "Backend Engineer", Company: "Acme", Status: api.JobOpen, Department: "Engineering"},
			{ID: 11, Title: "Designer", Company: "Acme", Status: api.JobOpen, Department: "Design"},
			{ID: 12, Title: "Data Analyst", Company: "Globex", Status: api.JobClosed, Department: "Data"},
		},
		applied: map[int64]api.ApplicationStatus{
			11: {HasApplied: true, ApplicationID: 7},
		},
	}
	server := newTestServer(t, backend)

	rec := doRequest(t, server, http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp jobListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Total)

	byID := map[int64]jobResponse{}
	for _, job := range resp.Jobs {
		byID[job.ID] = job
	}
	assert.False(t, byID[10].HasApplied)
	assert.True(t, byID[11].HasApplied)
	assert.False(t, byID[12].HasApplied)
}

func TestJobsListFilters(t *testing.T) {
	backend := &fakeBackend{
		t: t,
		jobs: []api.Job{
			{ID: 10, Title: "Backend Engineer", Company: "Acme", Location: "Berlin", Status: api.JobOpen, Department: "Engineering"},
			{ID: 11, Title: "Designer", Company: "Acme", Location: "Remote", Status: api.JobOpen, Department: "Design"},
		},
	}
	server := newTestServer(t, backend)

	rec := doRequest(t, server, http.MethodGet, "/api/jobs?search=backend", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp jobListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, int64(10), resp.Jobs[0].ID)

	rec = doRequest(t, server, http.MethodGet, "/api/jobs?department=design", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, int64(11), resp.Jobs[0].ID)
}

func TestSubmitApplicationFullChain(t *testing.T) {
	backend := &fakeBackend{t: t, jobs: []api.Job{{ID: 10}}}
	server := newTestServer(t, backend)

	rec := doRequest(t, server, http.MethodPost, "/api/applications", map[string]any{
		"job_id": 10,
		"personal_info": map[string]any{
			"full_name": "Dana Fields",
			"email":     "dev@example.com",
			"phone":     "+4915512345678",
		},
		"professional_details": map[string]any{
			"current_title":    "Engineer",
			"years_experience": 5,
		},
		"resume_name":   "resume.pdf",
		"resume_base64": base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp submitApplicationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(501), resp.ApplicationID)
	assert.Equal(t, "processed", resp.ResumeState)
	assert.Equal(t, 1, backend.applyCalls)
}

func TestSubmitApplicationRejectsInvalidInput(t *testing.T) {
	backend := &fakeBackend{t: t}
	server := newTestServer(t, backend)

	rec := doRequest(t, server, http.MethodPost, "/api/applications", map[string]any{
		"job_id": 10,
		"personal_info": map[string]any{
			"full_name": "Dana Fields",
			"email":     "not-an-email",
		},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, backend.applyCalls)
}

func TestConnectionLifecycleOverGateway(t *testing.T) {
	backend := &fakeBackend{
		t: t,
		connections: []api.ATSConnection{
			{ID: 1, Provider: "greenhouse", IsActive: true},
			{ID: 2, Provider: "lever", IsActive: true},
		},
	}
	server := newTestServer(t, backend)

	rec := doRequest(t, server, http.MethodGet, "/api/ats/connections", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []api.ATSConnection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)

	rec = doRequest(t, server, http.MethodDelete, "/api/ats/connections/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// List again without refresh: the deleted connection is gone from
	// the local list without another backend fetch.
	rec = doRequest(t, server, http.MethodGet, "/api/ats/connections", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].ID)
	require.Len(t, backend.deleteCalls, 1)
}

func TestTriggerSyncPassesSyncType(t *testing.T) {
	backend := &fakeBackend{
		t:           t,
		connections: []api.ATSConnection{{ID: 9, Provider: "workable"}},
	}
	server := newTestServer(t, backend)

	rec := doRequest(t, server, http.MethodPost, "/api/ats/connections/9/sync", map[string]any{
		"sync_type": "incremental",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, backend.lastSyncBody, `"incremental"`)

	rec = doRequest(t, server, http.MethodPost, "/api/ats/connections/9/sync", map[string]any{
		"sync_type": "bogus",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProvidersEndpoint(t *testing.T) {
	server := newTestServer(t, &fakeBackend{t: t})

	rec := doRequest(t, server, http.MethodGet, "/api/ats/providers", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var providers []providerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &providers))
	require.NotEmpty(t, providers)

	names := map[string]string{}
	for _, p := range providers {
		names[p.ID] = p.DisplayName
	}
	assert.Equal(t, "BambooHR", names["bamboohr"])
	assert.Equal(t, "Greenhouse", names["greenhouse"])
}

func TestFeedbackEndpointForwardsFilters(t *testing.T) {
	server := newTestServer(t, &fakeBackend{t: t})

	rec := doRequest(t, server, http.MethodGet, "/api/feedback?job_id=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var feedback []api.Feedback
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feedback))
	require.Len(t, feedback, 1)
	assert.Equal(t, int64(3), feedback[0].JobID)

	rec = doRequest(t, server, http.MethodGet, "/api/feedback?job_id=abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResumeTasksEndpoints(t *testing.T) {
	server := newTestServer(t, &fakeBackend{t: t})

	rec := doRequest(t, server, http.MethodGet, "/api/resume/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tasks []*resume.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	assert.Empty(t, tasks)

	rec = doRequest(t, server, http.MethodPost, "/api/resume/tasks/nope/retry", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, &fakeBackend{t: t})

	rec := doRequest(t, server, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestStreamSendsInitialSnapshot(t *testing.T) {
	backend := &fakeBackend{
		t:           t,
		connections: []api.ATSConnection{{ID: 4, Provider: "ashby"}},
	}
	server := newTestServer(t, backend)

	// Warm the local connection list so the snapshot carries it.
	rec := doRequest(t, server, http.MethodGet, "/api/ats/connections", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	streamRec := httptest.NewRecorder()
	server.Handler().ServeHTTP(streamRec, req)

	assert.Equal(t, "text/event-stream", streamRec.Header().Get("Content-Type"))
	body := streamRec.Body.String()
	require.True(t, strings.HasPrefix(body, "data: "), body)
	assert.Contains(t, body, `"ashby"`)
	assert.Contains(t, body, `"resume_tasks"`)
}

func TestMethodNotAllowed(t *testing.T) {
	server := newTestServer(t, &fakeBackend{t: t})

	rec := doRequest(t, server, http.MethodDelete, "/api/jobs", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doRequest(t, server, http.MethodPost, "/api/health", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

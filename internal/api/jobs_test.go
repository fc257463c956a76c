package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckApplication_SendsEmailQuery(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/job/42/check-application", r.URL.Path)
		require.Equal(t, "a@x.com", r.URL.Query().Get("email"))
		_, _ = w.Write([]byte(`{"has_applied":true,"application_id":7,"status":"submitted"}`))
	}))
	defer backend.Close()

	client := NewClient(backend.URL, time.Second)
	status, err := client.CheckApplication(context.Background(), 42, "a@x.com")
	require.NoError(t, err)
	assert.True(t, status.HasApplied)
	assert.Equal(t, int64(7), status.ApplicationID)
}

func TestBatchApplicationStatus_DecodesJobKeyedMap(t *testing.T) {
	var gotBody batchStatusRequest
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/applications/status-batch", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"statuses":{"10":{"has_applied":false},"11":{"has_applied":true,"application_id":3}}}`))
	}))
	defer backend.Close()

	client := NewClient(backend.URL, time.Second)
	statuses, err := client.BatchApplicationStatus(context.Background(), []int64{10, 11}, "a@x.com")
	require.NoError(t, err)

	assert.Equal(t, []int64{10, 11}, gotBody.JobIDs)
	assert.Equal(t, "a@x.com", gotBody.Email)
	require.Len(t, statuses, 2)
	assert.False(t, statuses[10].HasApplied)
	assert.True(t, statuses[11].HasApplied)
}

func TestListJobs_DecodesEntities(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":1,"title":"Backend Engineer","company":"Acme","status":"Open","skills_required":["go","sql"]},
			{"id":2,"title":"Recruiter","company":"Acme","status":"Interview In Progress"}
		]`))
	}))
	defer backend.Close()

	client := NewClient(backend.URL, time.Second)
	jobs, err := client.ListJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, JobOpen, jobs[0].Status)
	assert.Equal(t, JobInterview, jobs[1].Status)
	assert.Equal(t, []string{"go", "sql"}, jobs[0].SkillsRequired)
}

func TestCreateJob_UsesDedicatedRoute(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/createJob", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":9,"title":"QA"}`))
	}))
	defer backend.Close()

	client := NewClient(backend.URL, time.Second)
	created, err := client.CreateJob(context.Background(), Job{Title: "QA"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)
}

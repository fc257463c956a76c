package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer backend.Close()

	client := NewClient(backend.URL, time.Second, WithTokenSource(staticTokens("tok-123")))
	_, err := client.ListJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClient_SkipsAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer backend.Close()

	client := NewClient(backend.URL, time.Second, WithTokenSource(staticTokens("")))
	_, err := client.ListJobs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_MapsErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{name: "unauthorized status", status: http.StatusUnauthorized, body: `{"error":"unauthorized"}`, sentinel: ErrUnauthorized},
		{name: "not found", status: http.StatusNotFound, body: `{"error":"not_found"}`, sentinel: ErrNotFound},
		{name: "rate limited code", status: http.StatusBadRequest, body: `{"error":"rate_limited"}`, sentinel: ErrRateLimited},
		{name: "validation code", status: http.StatusUnprocessableEntity, body: `{"error":"validation","message":"email is required"}`, sentinel: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer backend.Close()

			client := NewClient(backend.URL, time.Second)
			_, err := client.ListJobs(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestClient_NonJSONErrorBodyKeptAsMessage(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer backend.Close()

	client := NewClient(backend.URL, time.Second)
	_, err := client.ListJobs(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream exploded", apiErr.Message)
}

func TestClient_UnauthorizedHookFiresPerResponse(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer backend.Close()

	var calls atomic.Int32
	client := NewClient(backend.URL, time.Second, WithUnauthorizedHandler(func() {
		calls.Add(1)
	}))

	_, err := client.ListJobs(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = client.ListJobs(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)

	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ContextCancellationAborts(t *testing.T) {
	release := make(chan struct{})
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer backend.Close()
	defer close(release)

	client := NewClient(backend.URL, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ListJobs(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_TrimsTrailingSlash(t *testing.T) {
	var gotPath string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[]`))
	}))
	defer backend.Close()

	client := NewClient(backend.URL+"/", time.Second)
	_, err := client.ListJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/jobs", gotPath)
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

func (c *Client) ListConnections(ctx context.Context) ([]ATSConnection, error) {
	var connections []ATSConnection
	if err := c.do(ctx, http.MethodGet, "/api/ats/connections", nil, nil, &connections); err != nil {
		return nil, fmt.Errorf("list ats connections: %w", err)
	}
	return connections, nil
}

func (c *Client) GetConnection(ctx context.Context, id int64) (*ATSConnection, error) {
	var connection ATSConnection
	if err := c.do(ctx, http.MethodGet, "/api/ats/connections/"+strconv.FormatInt(id, 10), nil, nil, &connection); err != nil {
		return nil, fmt.Errorf("get ats connection %d: %w", id, err)
	}
	return &connection, nil
}

func (c *Client) CreateConnection(ctx context.Context, req ATSConnectionRequest) (*ATSConnection, error) {
	var created ATSConnection
	if err := c.do(ctx, http.MethodPost, "/api/ats/connections", nil, req, &created); err != nil {
		return nil, fmt.Errorf("create ats connection: %w", err)
	}
	return &created, nil
}

func (c *Client) UpdateConnection(ctx context.Context, id int64, req ATSConnectionRequest) (*ATSConnection, error) {
	var updated ATSConnection
	if err := c.do(ctx, http.MethodPut, "/api/ats/connections/"+strconv.FormatInt(id, 10), nil, req, &updated); err != nil {
		return nil, fmt.Errorf("update ats connection %d: %w", id, err)
	}
	return &updated, nil
}

func (c *Client) DeleteConnection(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, "/api/ats/connections/"+strconv.FormatInt(id, 10), nil, nil, nil); err != nil {
		return fmt.Errorf("delete ats connection %d: %w", id, err)
	}
	return nil
}

type TestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// TestConnection verifies the stored credentials against the provider.
func (c *Client) TestConnection(ctx context.Context, id int64) (*TestResult, error) {
	var result TestResult
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/ats/connections/%d/test", id), nil, nil, &result); err != nil {
		return nil, fmt.Errorf("test ats connection %d: %w", id, err)
	}
	return &result, nil
}

type triggerSyncRequest struct {
	SyncType string `json:"sync_type"`
}

// TriggerSync starts a server-side sync job. Fire-and-forget: progress
// is only visible through subsequent connection or sync-log fetches.
func (c *Client) TriggerSync(ctx context.Context, id int64, syncType string) error {
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/ats/connections/%d/sync", id), nil, triggerSyncRequest{SyncType: syncType}, nil); err != nil {
		return fmt.Errorf("trigger sync on ats connection %d: %w", id, err)
	}
	return nil
}

func (c *Client) SyncLogs(ctx context.Context, connectionID int64) ([]SyncLog, error) {
	var logs []SyncLog
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/ats/connections/%d/sync-logs", connectionID), nil, nil, &logs); err != nil {
		return nil, fmt.Errorf("list sync logs for connection %d: %w", connectionID, err)
	}
	return logs, nil
}

func (c *Client) JobMappings(ctx context.Context, connectionID int64) ([]JobMapping, error) {
	var mappings []JobMapping
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/ats/connections/%d/job-mappings", connectionID), nil, nil, &mappings); err != nil {
		return nil, fmt.Errorf("list job mappings for connection %d: %w", connectionID, err)
	}
	return mappings, nil
}

func (c *Client) CandidateMappings(ctx context.Context, connectionID int64) ([]CandidateMapping, error) {
	var mappings []CandidateMapping
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/ats/connections/%d/candidate-mappings", connectionID), nil, nil, &mappings); err != nil {
		return nil, fmt.Errorf("list candidate mappings for connection %d: %w", connectionID, err)
	}
	return mappings, nil
}

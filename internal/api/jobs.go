package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListJobs returns all jobs visible to the signed-in user.
func (c *Client) ListJobs(ctx context.Context) ([]Job, error) {
	var jobs []Job
	if err := c.do(ctx, http.MethodGet, "/api/jobs", nil, nil, &jobs); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

func (c *Client) GetJob(ctx context.Context, id int64) (*Job, error) {
	var job Job
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+strconv.FormatInt(id, 10), nil, nil, &job); err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	return &job, nil
}

// CreateJob posts a new job. The backend exposes this as a dedicated
// route rather than POST /api/jobs.
func (c *Client) CreateJob(ctx context.Context, job Job) (*Job, error) {
	var created Job
	if err := c.do(ctx, http.MethodPost, "/api/createJob", nil, job, &created); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return &created, nil
}

func (c *Client) UpdateJob(ctx context.Context, job Job) (*Job, error) {
	var updated Job
	if err := c.do(ctx, http.MethodPut, "/api/jobs/"+strconv.FormatInt(job.ID, 10), nil, job, &updated); err != nil {
		return nil, fmt.Errorf("update job %d: %w", job.ID, err)
	}
	return &updated, nil
}

func (c *Client) DeleteJob(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, "/api/jobs/"+strconv.FormatInt(id, 10), nil, nil, nil); err != nil {
		return fmt.Errorf("delete job %d: %w", id, err)
	}
	return nil
}

// CheckApplication answers whether the candidate has already applied
// to one job. The reconciler prefers BatchApplicationStatus; this is
// the per-job fallback.
func (c *Client) CheckApplication(ctx context.Context, jobID int64, email string) (*ApplicationStatus, error) {
	query := url.Values{"email": {email}}
	var status ApplicationStatus
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/job/%d/check-application", jobID), query, nil, &status); err != nil {
		return nil, fmt.Errorf("check application for job %d: %w", jobID, err)
	}
	return &status, nil
}

type batchStatusRequest struct {
	JobIDs []int64 `json:"job_ids"`
	Email  string  `json:"email"`
}

type batchStatusResponse struct {
	Statuses map[string]ApplicationStatus `json:"statuses"`
}

// BatchApplicationStatus resolves applied-status for a whole job set
// in one round trip.
func (c *Client) BatchApplicationStatus(ctx context.Context, jobIDs []int64, email string) (map[int64]ApplicationStatus, error) {
	payload := batchStatusRequest{JobIDs: jobIDs, Email: email}
	var resp batchStatusResponse
	if err := c.do(ctx, http.MethodPost, "/api/applications/status-batch", nil, payload, &resp); err != nil {
		return nil, fmt.Errorf("batch application status: %w", err)
	}

	statuses := make(map[int64]ApplicationStatus, len(resp.Statuses))
	for key, status := range resp.Statuses {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		statuses[id] = status
	}
	return statuses, nil
}

// JobApplications lists the applications of a job, used for per-job
// stats.
func (c *Client) JobApplications(ctx context.Context, jobID int64) ([]JobApplication, error) {
	var applications []JobApplication
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/job/%d/applications", jobID), nil, nil, &applications); err != nil {
		return nil, fmt.Errorf("list applications for job %d: %w", jobID, err)
	}
	return applications, nil
}

package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

type applyResponse struct {
	ApplicationID int64  `json:"application_id"`
	Status        string `json:"status"`
}

// Apply submits a job application. The idempotency key makes an
// accidental double-submit a no-op on the backend side.
func (c *Client) Apply(ctx context.Context, req ApplicationRequest, idempotencyKey string) (int64, error) {
	if req.JobID <= 0 {
		return 0, fmt.Errorf("apply: job id is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return 0, fmt.Errorf("apply: candidate email is required")
	}

	var body bytes.Buffer
	httpReq, err := c.newJSONRequest(ctx, http.MethodPost, "/api/job/apply", req, &body)
	if err != nil {
		return 0, fmt.Errorf("apply: %w", err)
	}
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		httpReq.Header.Set("Idempotency-Key", key)
	}

	var resp applyResponse
	if err := c.send(httpReq, &resp); err != nil {
		return 0, fmt.Errorf("apply to job %d: %w", req.JobID, err)
	}
	return resp.ApplicationID, nil
}

// UploadResume ships the resume bytes for a submitted application as
// a multipart form.
func (c *Client) UploadResume(ctx context.Context, applicationID int64, filename string, content []byte) (*UploadResult, error) {
	if applicationID <= 0 {
		return nil, fmt.Errorf("upload resume: application id is required")
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("upload resume: empty file")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("application_id", strconv.FormatInt(applicationID, 10)); err != nil {
		return nil, fmt.Errorf("upload resume: %w", err)
	}
	part, err := writer.CreateFormFile("resume", filename)
	if err != nil {
		return nil, fmt.Errorf("upload resume: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("upload resume: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("upload resume: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/resume/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("upload resume: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuth(req)

	var result UploadResult
	if err := c.send(req, &result); err != nil {
		return nil, fmt.Errorf("upload resume for application %d: %w", applicationID, err)
	}
	return &result, nil
}

type parseResumeRequest struct {
	ResumeID string `json:"resume_id"`
}

// ParseResume asks the backend to extract structured data from an
// uploaded resume. Only valid after a successful upload.
func (c *Client) ParseResume(ctx context.Context, resumeID string) (*ParseResult, error) {
	if strings.TrimSpace(resumeID) == "" {
		return nil, fmt.Errorf("parse resume: resume id is required")
	}
	var result ParseResult
	if err := c.do(ctx, http.MethodPost, "/api/resume/parse", nil, parseResumeRequest{ResumeID: resumeID}, &result); err != nil {
		return nil, fmt.Errorf("parse resume %s: %w", resumeID, err)
	}
	return &result, nil
}

// newJSONRequest builds a context-bound JSON request with auth
// attached, for callers that need to add extra headers before send.
func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any, buf *bytes.Buffer) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("backend base URL is not configured")
	}
	if err := encodeJSON(buf, payload); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)
	return req, nil
}

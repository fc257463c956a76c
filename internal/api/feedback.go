package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListFeedback returns post-hire feedback records, optionally scoped
// to a job and/or candidate.
func (c *Client) ListFeedback(ctx context.Context, filter FeedbackFilter) ([]Feedback, error) {
	query := url.Values{}
	if filter.JobID > 0 {
		query.Set("job_id", strconv.FormatInt(filter.JobID, 10))
	}
	if filter.CandidateID > 0 {
		query.Set("candidate_id", strconv.FormatInt(filter.CandidateID, 10))
	}

	var feedback []Feedback
	if err := c.do(ctx, http.MethodGet, "/api/feedback", query, nil, &feedback); err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return feedback, nil
}

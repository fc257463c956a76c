package api

import (
	"context"
	"fmt"
	"net/http"
)

// Activity reports that the session is still in use, so the backend
// keeps the token alive.
func (c *Client) Activity(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/auth/activity", nil, nil, nil); err != nil {
		return fmt.Errorf("report activity: %w", err)
	}
	return nil
}

// Logout invalidates the session server-side. Called best-effort on
// shutdown, after the local token has already been dropped.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

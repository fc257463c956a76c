package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pooja-fusiongs/ai-interview-platform-sub000/pkg/log"
)

// State of the session. There is exactly one transition:
// Active -> ExpiredPendingRedirect, taken at most once.
type State int

const (
	StateActive State = iota
	StateExpiredPendingRedirect
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExpiredPendingRedirect:
		return "expired_pending_redirect"
	default:
		return "unknown"
	}
}

// Controller owns the persisted bearer token and the session
// lifecycle. Concurrent 401s from in-flight requests collapse into a
// single expiry transition.
type Controller struct {
	tokenFile string

	mu    sync.RWMutex
	token string

	expired  atomic.Bool
	onExpire func()
}

type Option func(*Controller)

// WithExpiryHandler registers the hook fired on the (single) expiry
// transition. The headless stand-in for redirect-to-login.
func WithExpiryHandler(fn func()) Option {
	return func(c *Controller) {
		c.onExpire = fn
	}
}

// NewController loads any previously persisted token from tokenFile.
// A missing file just means a signed-out session.
func NewController(tokenFile string, opts ...Option) (*Controller, error) {
	c := &Controller{tokenFile: tokenFile}
	for _, opt := range opts {
		opt(c)
	}

	if tokenFile != "" {
		data, err := os.ReadFile(tokenFile)
		switch {
		case err == nil:
			c.token = strings.TrimSpace(string(data))
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read token file: %w", err)
		}
	}
	return c, nil
}

// Token implements the API client's token source.
func (c *Controller) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken stores a fresh token and re-activates the session.
func (c *Controller) SetToken(token string) error {
	token = strings.TrimSpace(token)

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.expired.Store(false)

	if c.tokenFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.tokenFile), 0o755); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := os.WriteFile(c.tokenFile, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func (c *Controller) State() State {
	if c.expired.Load() {
		return StateExpiredPendingRedirect
	}
	return StateActive
}

// Expire transitions the session to ExpiredPendingRedirect. The
// compare-and-swap guarantees the hook and the token wipe run once no
// matter how many callers race here.
func (c *Controller) Expire() {
	if !c.expired.CompareAndSwap(false, true) {
		return
	}

	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()

	if c.tokenFile != "" {
		if err := os.Remove(c.tokenFile); err != nil && !os.IsNotExist(err) {
			log.Warn("Failed to remove token file: %v", err)
		}
	}

	log.Info("Session expired, pending redirect to login")
	if c.onExpire != nil {
		c.onExpire()
	}
}

// RunActivityLoop pings the backend on an interval while the session
// is active. Returns when ctx is cancelled.
func (c *Controller) RunActivityLoop(ctx context.Context, interval time.Duration, ping func(context.Context) error) {
	if interval <= 0 || ping == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.State() != StateActive || c.Token() == "" {
				continue
			}
			if err := ping(ctx); err != nil {
				log.Debug("Activity ping failed: %v", err)
			}
		}
	}
}

// SendLogoutBeacon delivers a best-effort logout on shutdown, bounded
// by its own short deadline so it cannot stall the exit path.
func (c *Controller) SendLogoutBeacon(logout func(context.Context) error) {
	if logout == nil || c.Token() == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := logout(ctx); err != nil {
		log.Debug("Logout beacon failed: %v", err)
	}
}

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/api"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/pkg/log"
)

// RoleCandidate is the only role whose job views trigger applied-status
// lookups.
const RoleCandidate = "candidate"

// StatusClient is the slice of the backend client the reconciler
// needs.
type StatusClient interface {
	BatchApplicationStatus(ctx context.Context, jobIDs []int64, email string) (map[int64]api.ApplicationStatus, error)
	CheckApplication(ctx context.Context, jobID int64, email string) (*api.ApplicationStatus, error)
}

// CachedStatus is one resolved (job, candidate) answer with its check
// time, so staleness is an explicit decision instead of an accident.
type CachedStatus struct {
	JobID         int64     `json:"job_id"`
	Email         string    `json:"email"`
	HasApplied    bool      `json:"has_applied"`
	ApplicationID int64     `json:"application_id,omitempty"`
	CheckedAt     time.Time `json:"checked_at"`
}

// CacheStore persists resolved statuses across restarts.
type CacheStore interface {
	GetAppliedStatuses(ctx context.Context, email string, jobIDs []int64) ([]CachedStatus, error)
	PutAppliedStatus(ctx context.Context, status CachedStatus) error
	DeleteAppliedStatus(ctx context.Context, jobID int64, email string) error
}

// Reconciler resolves, per visible job, whether the candidate has
// already applied. One batched round trip when the backend supports
// it; a bounded per-job fan-out otherwise. Individual lookup failures
// fail open to "not applied".
type Reconciler struct {
	client      StatusClient
	store       CacheStore
	concurrency int
	ttl         time.Duration

	group singleflight.Group

	mu  sync.RWMutex
	mem map[string]CachedStatus
}

type Option func(*Reconciler)

// WithCacheStore adds a persistent cache layer under the in-memory one.
func WithCacheStore(store CacheStore) Option {
	return func(r *Reconciler) {
		r.store = store
	}
}

// WithConcurrency bounds the per-job fallback fan-out.
func WithConcurrency(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithCacheTTL sets how long a resolved status stays trusted.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Reconciler) {
		r.ttl = ttl
	}
}

func New(client StatusClient, opts ...Option) *Reconciler {
	r := &Reconciler{
		client:      client,
		concurrency: 8,
		ttl:         15 * time.Minute,
		mem:         make(map[string]CachedStatus),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile returns a map holding exactly one boolean per requested
// job id. Non-candidate roles get an all-false map without any
// network traffic. Concurrent calls for the same (job set, email)
// collapse into one resolution.
func (r *Reconciler) Reconcile(ctx context.Context, jobIDs []int64, email, role string) (map[int64]bool, error) {
	ids := uniqueIDs(jobIDs)
	result := make(map[int64]bool, len(ids))
	for _, id := range ids {
		result[id] = false
	}
	if len(ids) == 0 {
		return result, nil
	}
	if role != RoleCandidate || strings.TrimSpace(email) == "" {
		return result, nil
	}

	missing := r.fillFromCache(ctx, ids, email, result)
	if len(missing) == 0 {
		return result, nil
	}

	resolved, err := r.resolve(ctx, missing, email)
	if err != nil {
		return nil, err
	}
	for id, status := range resolved {
		result[id] = status.HasApplied
	}
	return result, nil
}

// MarkApplied records a successful submission, so the next render
// flips the job to "Applied" without another round trip.
func (r *Reconciler) MarkApplied(ctx context.Context, jobID int64, email string, applicationID int64) {
	status := CachedStatus{
		JobID:         jobID,
		Email:         email,
		HasApplied:    true,
		ApplicationID: applicationID,
		CheckedAt:     time.Now(),
	}
	r.cachePut(ctx, status)
}

// Invalidate drops any cached answer for one (job, candidate) pair.
func (r *Reconciler) Invalidate(ctx context.Context, jobID int64, email string) {
	r.mu.Lock()
	delete(r.mem, cacheKey(jobID, email))
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.DeleteAppliedStatus(ctx, jobID, email); err != nil {
			log.Warn("Failed to invalidate persisted status for job %d: %v", jobID, err)
		}
	}
}

// fillFromCache populates result from fresh cache entries and returns
// the ids still needing a lookup.
func (r *Reconciler) fillFromCache(ctx context.Context, ids []int64, email string, result map[int64]bool) []int64 {
	now := time.Now()
	missing := make([]int64, 0, len(ids))

	r.mu.RLock()
	for _, id := range ids {
		status, ok := r.mem[cacheKey(id, email)]
		if ok && r.fresh(status, now) {
			result[id] = status.HasApplied
			continue
		}
		missing = append(missing, id)
	}
	r.mu.RUnlock()

	if r.store == nil || len(missing) == 0 {
		return missing
	}

	persisted, err := r.store.GetAppliedStatuses(ctx, email, missing)
	if err != nil {
		log.Warn("Failed to read persisted status cache: %v", err)
		return missing
	}
	byID := make(map[int64]CachedStatus, len(persisted))
	for _, status := range persisted {
		if r.fresh(status, now) {
			byID[status.JobID] = status
		}
	}

	still := missing[:0]
	for _, id := range missing {
		if status, ok := byID[id]; ok {
			result[id] = status.HasApplied
			r.mu.Lock()
			r.mem[cacheKey(id, email)] = status
			r.mu.Unlock()
			continue
		}
		still = append(still, id)
	}
	return still
}

func (r *Reconciler) fresh(status CachedStatus, now time.Time) bool {
	if r.ttl <= 0 {
		return true
	}
	return now.Sub(status.CheckedAt) < r.ttl
}

func (r *Reconciler) resolve(ctx context.Context, ids []int64, email string) (map[int64]CachedStatus, error) {
	v, err, _ := r.group.Do(flightKey(ids, email), func() (any, error) {
		return r.lookup(ctx, ids, email)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[int64]CachedStatus), nil
}

// lookup tries the batch endpoint first and falls back to bounded
// per-job checks for backends that do not expose it.
func (r *Reconciler) lookup(ctx context.Context, ids []int64, email string) (map[int64]CachedStatus, error) {
	statuses, err := r.client.BatchApplicationStatus(ctx, ids, email)
	if err == nil {
		return r.collect(ctx, ids, email, statuses), nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if !errors.Is(err, api.ErrNotFound) {
		// Whole-batch failure fails open for every job.
		log.Warn("Batch status lookup failed, failing open: %v", err)
		return r.collect(ctx, ids, email, nil), nil
	}

	log.Debug("Backend has no batch status endpoint, falling back to per-job checks")
	return r.fanOut(ctx, ids, email)
}

func (r *Reconciler) fanOut(ctx context.Context, ids []int64, email string) (map[int64]CachedStatus, error) {
	results := make([]api.ApplicationStatus, len(ids))
	failed := make([]bool, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			status, err := r.client.CheckApplication(gctx, id, email)
			if err != nil {
				// Fail open for this job only; the rest continue.
				log.Debug("Status check failed for job %d: %v", id, err)
				failed[i] = true
				return nil
			}
			results[i] = *status
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	statuses := make(map[int64]api.ApplicationStatus, len(ids))
	for i, id := range ids {
		if failed[i] {
			continue
		}
		statuses[id] = results[i]
	}
	return r.collect(ctx, ids, email, statuses), nil
}

// collect turns backend answers into cache entries. Jobs without an
// answer default to not-applied and are not cached, so the next run
// retries them.
func (r *Reconciler) collect(ctx context.Context, ids []int64, email string, statuses map[int64]api.ApplicationStatus) map[int64]CachedStatus {
	now := time.Now()
	out := make(map[int64]CachedStatus, len(ids))
	for _, id := range ids {
		status, ok := statuses[id]
		entry := CachedStatus{
			JobID:         id,
			Email:         email,
			HasApplied:    ok && status.HasApplied,
			ApplicationID: status.ApplicationID,
			CheckedAt:     now,
		}
		out[id] = entry
		if ok {
			r.cachePut(ctx, entry)
		}
	}
	return out
}

func (r *Reconciler) cachePut(ctx context.Context, status CachedStatus) {
	r.mu.Lock()
	r.mem[cacheKey(status.JobID, status.Email)] = status
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.PutAppliedStatus(ctx, status); err != nil {
			log.Warn("Failed to persist status for job %d: %v", status.JobID, err)
		}
	}
}

func cacheKey(jobID int64, email string) string {
	return fmt.Sprintf("%d|%s", jobID, email)
}

func flightKey(ids []int64, email string) string {
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var b strings.Builder
	b.WriteString(email)
	for _, id := range sorted {
		fmt.Fprintf(&b, "|%d", id)
	}
	return b.String()
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

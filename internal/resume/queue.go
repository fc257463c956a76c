package resume

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pooja-fusiongs/ai-interview-platform-sub000/pkg/log"
)

// Executor runs one task's upload+parse chain.
type Executor func(ctx context.Context, task *Task) error

// Queue is the retry queue for failed resume processing. One active
// task per application; finished failures can be retried, manually or
// by a fresh enqueue.
type Queue struct {
	workerCount int
	maxTasks    int
	store       Store

	mu         sync.RWMutex
	tasks      map[string]*Task
	active     map[int64]string // applicationID -> pending/running task
	started    bool
	pendingIDs chan string
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewQueue(workerCount int, store Store) *Queue {
	if workerCount <= 0 {
		workerCount = 1
	}
	q := &Queue{
		workerCount: workerCount,
		maxTasks:    500,
		store:       store,
		tasks:       make(map[string]*Task),
		active:      make(map[int64]string),
		pendingIDs:  make(chan string, 256),
		stopCh:      make(chan struct{}),
	}
	q.hydrateFromStore(context.Background())
	return q
}

// Enqueue registers a task for an application. When that application
// already has a pending or running task the existing one is returned
// instead of queueing a duplicate.
func (q *Queue) Enqueue(req EnqueueRequest) (*Task, bool) {
	now := time.Now()

	q.mu.Lock()
	if id, ok := q.active[req.ApplicationID]; ok {
		if existing, exists := q.tasks[id]; exists {
			snapshot := cloneTask(existing)
			q.mu.Unlock()
			return snapshot, false
		}
		delete(q.active, req.ApplicationID)
	}

	task := &Task{
		ID:            uuid.NewString(),
		ApplicationID: req.ApplicationID,
		Filename:      req.Filename,
		Content:       req.Content,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	q.tasks[task.ID] = task
	q.active[req.ApplicationID] = task.ID
	started := q.started
	snapshot := cloneTask(task)
	q.mu.Unlock()

	q.persistTask(snapshot)
	if started {
		q.enqueuePendingID(task.ID)
	}
	return snapshot, true
}

// Retry re-queues a failed task.
func (q *Queue) Retry(id string) (*Task, error) {
	q.mu.Lock()
	task, ok := q.tasks[id]
	if !ok {
		q.mu.Unlock()
		return nil, fmt.Errorf("retry: unknown task %s", id)
	}
	if task.Status != StatusFailed {
		q.mu.Unlock()
		return nil, fmt.Errorf("retry: task %s is %s, only failed tasks can be retried", id, task.Status)
	}
	task.Status = StatusPending
	task.Error = ""
	task.UpdatedAt = time.Now()
	q.active[task.ApplicationID] = task.ID
	started := q.started
	snapshot := cloneTask(task)
	q.mu.Unlock()

	q.persistTask(snapshot)
	if started {
		q.enqueuePendingID(id)
	}
	return snapshot, nil
}

func (q *Queue) Get(id string) (*Task, bool) {
	q.mu.RLock()
	task, ok := q.tasks[id]
	q.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneTask(task), true
}

func (q *Queue) List() []*Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	ret := make([]*Task, 0, len(q.tasks))
	for _, task := range q.tasks {
		ret = append(ret, cloneTask(task))
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].CreatedAt.Before(ret[j].CreatedAt)
	})
	return ret
}

func (q *Queue) Start(exec Executor) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true

	pending := make([]string, 0)
	for id, task := range q.tasks {
		if task.Status == StatusPending {
			pending = append(pending, id)
		}
	}
	q.mu.Unlock()

	for _, id := range pending {
		q.enqueuePendingID(id)
	}

	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(exec)
	}
}

func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.stopCh)
		q.wg.Wait()
	})
}

func (q *Queue) worker(exec Executor) {
	defer q.wg.Done()

	for {
		select {
		case <-q.stopCh:
			return
		case id := <-q.pendingIDs:
			task, ok := q.markRunning(id)
			if !ok {
				continue
			}

			if err := exec(context.Background(), task); err != nil {
				q.markFailed(id, err)
				continue
			}
			q.markSucceeded(id)
		}
	}
}

func (q *Queue) enqueuePendingID(id string) {
	select {
	case q.pendingIDs <- id:
	default:
		go func() { q.pendingIDs <- id }()
	}
}

func (q *Queue) markRunning(id string) (*Task, bool) {
	q.mu.Lock()
	task, ok := q.tasks[id]
	if !ok || task.Status != StatusPending {
		q.mu.Unlock()
		return nil, false
	}
	task.Status = StatusRunning
	task.Attempts++
	task.UpdatedAt = time.Now()
	snapshot := cloneTask(task)
	q.mu.Unlock()

	q.persistTask(snapshot)
	return snapshot, true
}

func (q *Queue) markSucceeded(id string) {
	q.finish(id, StatusSucceeded, nil)
}

func (q *Queue) markFailed(id string, err error) {
	q.finish(id, StatusFailed, err)
}

func (q *Queue) finish(id string, status Status, cause error) {
	q.mu.Lock()
	task, ok := q.tasks[id]
	if !ok {
		q.mu.Unlock()
		return
	}
	task.Status = status
	task.Error = ""
	if cause != nil {
		task.Error = cause.Error()
	}
	if status == StatusSucceeded {
		// Content is only needed for retries.
		task.Content = nil
	}
	task.UpdatedAt = time.Now()
	q.releaseActiveLocked(task)
	pruned := q.pruneTerminalTasksLocked()
	snapshot := cloneTask(task)
	q.mu.Unlock()

	q.persistTask(snapshot)
	q.deleteTasksFromStore(pruned)
}

func (q *Queue) releaseActiveLocked(task *Task) {
	if task == nil {
		return
	}
	if id, ok := q.active[task.ApplicationID]; ok && id == task.ID {
		delete(q.active, task.ApplicationID)
	}
}

func (q *Queue) pruneTerminalTasksLocked() []string {
	if q.maxTasks <= 0 || len(q.tasks) <= q.maxTasks {
		return nil
	}

	type candidate struct {
		id        string
		updatedAt time.Time
	}
	terminal := make([]candidate, 0, len(q.tasks))
	for id, task := range q.tasks {
		if task == nil || task.Status == StatusPending || task.Status == StatusRunning {
			continue
		}
		terminal = append(terminal, candidate{id: id, updatedAt: task.UpdatedAt})
	}
	if len(terminal) == 0 {
		return nil
	}

	sort.Slice(terminal, func(i, j int) bool {
		return terminal[i].updatedAt.Before(terminal[j].updatedAt)
	})

	toRemove := len(q.tasks) - q.maxTasks
	if toRemove > len(terminal) {
		toRemove = len(terminal)
	}

	pruned := make([]string, 0, toRemove)
	for i := 0; i < toRemove; i++ {
		id := terminal[i].id
		q.releaseActiveLocked(q.tasks[id])
		delete(q.tasks, id)
		pruned = append(pruned, id)
	}
	return pruned
}

func (q *Queue) deleteTasksFromStore(ids []string) {
	if q.store == nil || len(ids) == 0 {
		return
	}
	for _, id := range ids {
		if err := q.store.DeleteTask(context.Background(), id); err != nil {
			log.Error("Failed to delete pruned task %s from store: %v", id, err)
		}
	}
}

func (q *Queue) hydrateFromStore(ctx context.Context) {
	if q.store == nil {
		return
	}
	loaded, err := q.store.LoadTasks(ctx)
	if err != nil {
		log.Error("Failed to load resume tasks from store: %v", err)
		return
	}

	now := time.Now()
	toPersist := make([]*Task, 0)
	q.mu.Lock()
	for _, raw := range loaded {
		if raw == nil || raw.ID == "" {
			continue
		}
		task := cloneTask(raw)
		if task.Status == StatusRunning {
			// Interrupted mid-run by a crash; run it again.
			task.Status = StatusPending
			task.UpdatedAt = now
			toPersist = append(toPersist, cloneTask(task))
		}
		q.tasks[task.ID] = task
		if task.Status == StatusPending {
			q.active[task.ApplicationID] = task.ID
		}
	}
	q.mu.Unlock()

	for _, task := range toPersist {
		q.persistTask(task)
	}
}

func (q *Queue) persistTask(task *Task) {
	if q.store == nil || task == nil {
		return
	}
	if err := q.store.UpsertTask(context.Background(), task); err != nil {
		log.Error("Failed to persist resume task %s: %v", task.ID, err)
	}
}

func cloneTask(task *Task) *Task {
	if task == nil {
		return nil
	}
	tmp := *task
	return &tmp
}

package resume

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_Enqueue_OneActiveTaskPerApplication(t *testing.T) {
	q := NewQueue(1, nil)

	taskA, createdA := q.Enqueue(EnqueueRequest{ApplicationID: 42, Filename: "cv.pdf", Content: []byte("x")})
	taskB, createdB := q.Enqueue(EnqueueRequest{ApplicationID: 42, Filename: "cv.pdf", Content: []byte("x")})

	require.True(t, createdA)
	require.False(t, createdB)
	assert.Equal(t, taskA.ID, taskB.ID)
}

func TestQueue_Enqueue_AllowsNewTaskAfterFailure(t *testing.T) {
	q := NewQueue(1, nil)

	var attempts int
	q.Start(func(_ context.Context, _ *Task) error {
		attempts++
		if attempts == 1 {
			return assert.AnError
		}
		return nil
	})
	defer q.Stop()

	first, created := q.Enqueue(EnqueueRequest{ApplicationID: 42, Filename: "cv.pdf", Content: []byte("x")})
	require.True(t, created)

	require.Eventually(t, func() bool {
		got, ok := q.Get(first.ID)
		return ok && got.Status == StatusFailed
	}, time.Second, 10*time.Millisecond)

	second, created := q.Enqueue(EnqueueRequest{ApplicationID: 42, Filename: "cv.pdf", Content: []byte("x")})
	require.True(t, created)
	assert.NotEqual(t, first.ID, second.ID)

	require.Eventually(t, func() bool {
		got, ok := q.Get(second.ID)
		return ok && got.Status == StatusSucceeded
	}, time.Second, 10*time.Millisecond)
}

func TestQueue_Retry_RequeuesFailedTask(t *testing.T) {
	q := NewQueue(1, nil)

	var mu sync.Mutex
	var attempts int
	q.Start(func(_ context.Context, _ *Task) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return assert.AnError
		}
		return nil
	})
	defer q.Stop()

	task, _ := q.Enqueue(EnqueueRequest{ApplicationID: 42, Filename: "cv.pdf", Content: []byte("x")})
	require.Eventually(t, func() bool {
		got, _ := q.Get(task.ID)
		return got != nil && got.Status == StatusFailed
	}, time.Second, 10*time.Millisecond)

	retried, err := q.Retry(task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, retried.ID)

	require.Eventually(t, func() bool {
		got, _ := q.Get(task.ID)
		return got != nil && got.Status == StatusSucceeded
	}, time.Second, 10*time.Millisecond)

	got, _ := q.Get(task.ID)
	assert.Equal(t, 2, got.Attempts)
}

func TestQueue_Retry_RejectsNonFailedTasks(t *testing.T) {
	q := NewQueue(1, nil)
	task, _ := q.Enqueue(EnqueueRequest{ApplicationID: 42, Filename: "cv.pdf", Content: []byte("x")})

	_, err := q.Retry(task.ID)
	require.Error(t, err)

	_, err = q.Retry("nope")
	require.Error(t, err)
}

func TestQueue_SuccessDropsContent(t *testing.T) {
	q := NewQueue(1, nil)
	q.Start(func(_ context.Context, task *Task) error {
		require.Equal(t, []byte("payload"), task.Content)
		return nil
	})
	defer q.Stop()

	task, _ := q.Enqueue(EnqueueRequest{ApplicationID: 42, Filename: "cv.pdf", Content: []byte("payload")})

	require.Eventually(t, func() bool {
		got, _ := q.Get(task.ID)
		return got != nil && got.Status == StatusSucceeded
	}, time.Second, 10*time.Millisecond)

	got, _ := q.Get(task.ID)
	assert.Nil(t, got.Content)
}

type memStore struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

func newMemStore() *memStore {
	return &memStore{tasks: make(map[string]*Task)}
}

func (m *memStore) LoadTasks(context.Context) ([]*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := make([]*Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		tmp := *task
		ret = append(ret, &tmp)
	}
	return ret, nil
}

func (m *memStore) UpsertTask(_ context.Context, task *Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tmp := *task
	m.tasks[task.ID] = &tmp
	return nil
}

func (m *memStore) DeleteTask(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, taskID)
	return nil
}

func TestQueue_HydrateRequeuesInterruptedTasks(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.UpsertTask(context.Background(), &Task{
		ID:            "task-a",
		ApplicationID: 42,
		Filename:      "cv.pdf",
		Content:       []byte("x"),
		Status:        StatusRunning,
	}))
	require.NoError(t, store.UpsertTask(context.Background(), &Task{
		ID:            "task-b",
		ApplicationID: 43,
		Status:        StatusSucceeded,
	}))

	q := NewQueue(1, store)

	got, ok := q.Get("task-a")
	require.True(t, ok)
	assert.Equal(t, StatusPending, got.Status)

	done := make(chan int64, 1)
	q.Start(func(_ context.Context, task *Task) error {
		done <- task.ApplicationID
		return nil
	})
	defer q.Stop()

	select {
	case appID := <-done:
		assert.Equal(t, int64(42), appID)
	case <-time.After(time.Second):
		t.Fatal("interrupted task was not re-run after hydrate")
	}
}

func TestQueue_PersistsStateTransitions(t *testing.T) {
	store := newMemStore()
	q := NewQueue(1, store)
	q.Start(func(_ context.Context, _ *Task) error { return nil })
	defer q.Stop()

	task, _ := q.Enqueue(EnqueueRequest{ApplicationID: 42, Filename: "cv.pdf", Content: []byte("x")})

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		persisted, ok := store.tasks[task.ID]
		return ok && persisted.Status == StatusSucceeded
	}, time.Second, 10*time.Millisecond)
}

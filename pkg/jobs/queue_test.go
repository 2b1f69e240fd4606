package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]int)
	done := make(chan struct{}, 3)

	q := NewQueue[int]("test", func(ctx context.Context, job Job[int]) error {
		mu.Lock()
		seen[job.ID] = job.Payload
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Job[int]{ID: id, Payload: i}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("job not processed")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2}, seen)
}

func TestQueueRetriesThenGivesUp(t *testing.T) {
	var attempts int32
	exhausted := make(chan Job[string], 1)

	q := NewQueue[string]("retry", func(ctx context.Context, job Job[string]) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("boom")
	}, QueueConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	q.OnExhausted(func(job Job[string], err error) {
		exhausted <- job
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[string]{ID: "x", Payload: "p"}))

	select {
	case job := <-exhausted:
		assert.Equal(t, "x", job.ID)
		assert.Equal(t, 3, job.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job never exhausted")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue[int]("idle", func(context.Context, Job[int]) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job[int]{ID: "a"}))

	q.Start(context.Background())
	q.Stop()
	assert.Error(t, q.Enqueue(Job[int]{ID: "b"}))
}

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
	seen := make([]string, 0)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.Type)
		return nil
	}, QueueConfig{Workers: 2})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(context.Background(), Job{Type: "a"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Type: "b"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, 5*time.Millisecond)
	q.Stop()
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(context.Background(), Job{Type: "flaky"}))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&attempts) == 3
	}, time.Second, 5*time.Millisecond)
	q.Stop()
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(context.Background(), Job{Type: "x"})
	assert.Error(t, err)
}

func TestQueueStopHandlesEveryAcceptedJob(t *testing.T) {
	var handled int64
	q := NewQueue("shutdown", func(ctx context.Context, job Job) error {
		atomic.AddInt64(&handled, 1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})
	q.Start(context.Background())

	var accepted int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := q.Enqueue(context.Background(), Job{Type: "audit"}); err != nil {
					return
				}
				atomic.AddInt64(&accepted, 1)
			}
		}()
	}

	time.Sleep(time.Millisecond)
	q.Stop()
	wg.Wait()

	assert.Equal(t, atomic.LoadInt64(&accepted), atomic.LoadInt64(&handled))
	assert.Zero(t, q.Pending())
	assert.Error(t, q.Enqueue(context.Background(), Job{Type: "late"}))
}

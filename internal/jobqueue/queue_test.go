package jobqueue

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRedisDB = 14

// testClient connects to a local Redis and skips the test when none is
// reachable. Uses an isolated DB index and flushes it per test.
func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       testRedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	require.NoError(t, client.FlushDB(context.Background()).Err())
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

func TestNewQueueDefaults(t *testing.T) {
	tests := []struct {
		name            string
		workers         int
		expectedWorkers int
	}{
		{"valid worker count", 5, 5},
		{"zero workers", 0, 3},
		{"negative workers", -1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue(nil, tt.workers, func(ctx context.Context, job Job) error { return nil })
			assert.Equal(t, tt.expectedWorkers, q.workers)
			assert.NotNil(t, q.stopCh)
			assert.False(t, q.running)
		})
	}
}

func TestNewJobAttemptIDsAreUnique(t *testing.T) {
	a := NewJob(1, 1)
	b := NewJob(1, 1)
	assert.NotEmpty(t, a.AttemptID)
	assert.NotEqual(t, a.AttemptID, b.AttemptID)
	assert.Equal(t, JobStatusPending, a.Status)
	assert.Equal(t, DefaultMaxRetries, a.MaxRetries)
}

func TestEnqueuePersistsJob(t *testing.T) {
	client := testClient(t)
	q := NewQueue(client, 1, func(ctx context.Context, job Job) error { return nil })

	job := NewJob(42, 7)
	require.NoError(t, q.Enqueue(job))

	ctx := context.Background()
	n, err := q.PendingSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := q.GetJob(ctx, job.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, uint(42), stored.LookID)
	assert.Equal(t, uint(7), stored.UserID)
	assert.Equal(t, JobStatusPending, stored.Status)
}

func TestJobsProcessedFromRedis(t *testing.T) {
	client := testClient(t)

	var mu sync.Mutex
	seen := map[uint]bool{}
	q := NewQueue(client, 2, func(ctx context.Context, job Job) error {
		mu.Lock()
		seen[job.LookID] = true
		mu.Unlock()
		return nil
	})
	q.Start()
	defer q.Stop()

	for i := uint(1); i <= 5; i++ {
		require.NoError(t, q.Enqueue(NewJob(i, 1)))
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 5
	}, 5*time.Second, 20*time.Millisecond)

	// Completed jobs are removed entirely.
	n, err := q.PendingSize(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestJobSurvivesRestart(t *testing.T) {
	client := testClient(t)

	// First instance accepts the job but is never started: the process dies
	// before a worker picks it up.
	dead := NewQueue(client, 1, func(ctx context.Context, job Job) error { return nil })
	job := NewJob(42, 7)
	require.NoError(t, dead.Enqueue(job))

	processed := make(chan Job, 1)
	revived := NewQueue(client, 1, func(ctx context.Context, j Job) error {
		processed <- j
		return nil
	})
	revived.Start()
	defer revived.Stop()

	select {
	case got := <-processed:
		assert.Equal(t, job.AttemptID, got.AttemptID)
		assert.Equal(t, uint(42), got.LookID)
	case <-time.After(5 * time.Second):
		t.Fatal("enqueued job was not redelivered after restart")
	}
}

func TestFailedAttemptMarkedRetrying(t *testing.T) {
	client := testClient(t)

	q := NewQueue(client, 1, func(ctx context.Context, job Job) error {
		return assert.AnError
	})
	q.Start()
	defer q.Stop()

	job := NewJob(42, 7)
	require.NoError(t, q.Enqueue(job))

	// The record stays in Redis with the retry bookkeeping; the re-push
	// itself is delayed by a backoff timer.
	assert.Eventually(t, func() bool {
		stored, err := q.GetJob(context.Background(), job.AttemptID)
		return err == nil && stored.Status == JobStatusRetrying && stored.RetryCount == 1
	}, 5*time.Second, 20*time.Millisecond)
}

func TestStopIsIdempotent(t *testing.T) {
	client := testClient(t)
	q := NewQueue(client, 1, func(ctx context.Context, job Job) error { return nil })
	q.Start()
	q.Stop()
	q.Stop()
}

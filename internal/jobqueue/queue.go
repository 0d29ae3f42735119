package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Redis key layout
	jobKeyPrefix  = "lookjob:"
	queueKey      = "look_job_queue"
	processingKey = "look_job_processing"

	DefaultMaxRetries = 3
	// JobTTL bounds how long an unprocessed or failed job record survives.
	JobTTL = 24 * time.Hour

	dequeueBlock  = time.Second
	stuckMaxAge   = 10 * time.Minute
	sweepInterval = time.Minute
)

// Job statuses tracked on the persisted record.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusRetrying   = "retrying"
	JobStatusFailed     = "failed"
)

// Job is one generation attempt for a (look, requester) pair, persisted in
// Redis until a worker finishes it. Delivery is at-least-once: a crashed
// worker's job is requeued by the sweeper, so a job can reach the processor
// twice. AttemptID keys the attempt — the processor writes its artifact under
// it, so a redelivery overwrites its own result instead of duplicating it.
type Job struct {
	AttemptID   string     `json:"attempt_id"`
	LookID      uint       `json:"look_id"`
	UserID      uint       `json:"user_id"`
	Status      string     `json:"status"`
	ErrorMsg    string     `json:"error_msg,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
	EnqueuedAt  time.Time  `json:"enqueued_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// NewJob builds a job with a fresh attempt id.
func NewJob(lookID, userID uint) Job {
	now := time.Now()
	return Job{
		AttemptID:  uuid.New().String(),
		LookID:     lookID,
		UserID:     userID,
		Status:     JobStatusPending,
		MaxRetries: DefaultMaxRetries,
		EnqueuedAt: now,
		UpdatedAt:  now,
	}
}

// ProcessFunc performs a generation attempt. A non-nil error means the
// attempt could not run (infrastructure failure) and the job is retried;
// a render failure the processor has already recorded must return nil.
type ProcessFunc func(ctx context.Context, job Job) error

// Queue manages generation jobs through Redis: the job record is persisted
// on enqueue and survives a process restart, and in-flight jobs sit on a
// processing list a sweeper recovers from after a crash.
type Queue struct {
	client  *redis.Client
	workers int
	process ProcessFunc

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewQueue(client *redis.Client, workers int, process ProcessFunc) *Queue {
	if workers <= 0 {
		workers = 3
	}
	return &Queue{
		client:  client,
		workers: workers,
		process: process,
		stopCh:  make(chan struct{}),
	}
}

func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.running = true
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.wg.Add(1)
	go q.stuckSweeper()
	log.Printf("[QUEUE] started %d generation workers", q.workers)
}

func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return
	}
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Printf("[QUEUE] all workers stopped")
}

// Enqueue persists the job record and pushes its id onto the pending list in
// one pipeline. Once Enqueue returns nil the job survives a restart.
func (q *Queue) Enqueue(job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	ctx := context.Background()
	pipe := q.client.Pipeline()
	pipe.Set(ctx, jobKeyPrefix+job.AttemptID, data, JobTTL)
	pipe.LPush(ctx, queueKey, job.AttemptID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()
	for {
		select {
		case <-q.stopCh:
			return
		default:
			job, err := q.dequeue(ctx)
			if err != nil {
				if err != redis.Nil {
					log.Printf("[QUEUE] worker %d dequeue: %v", id, err)
					time.Sleep(time.Second)
				}
				continue
			}
			if job != nil {
				q.processJob(ctx, job)
			}
		}
	}
}

// dequeue moves one job id from pending to processing atomically and loads
// its record.
func (q *Queue) dequeue(ctx context.Context) (*Job, error) {
	id, err := q.client.BRPopLPush(ctx, queueKey, processingKey, dequeueBlock).Result()
	if err != nil {
		return nil, err
	}
	data, err := q.client.Get(ctx, jobKeyPrefix+id).Result()
	if err != nil {
		// Record expired or missing; drop the stray id.
		q.client.LRem(ctx, processingKey, 1, id)
		return nil, fmt.Errorf("job record missing for %s", id)
	}
	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		q.client.LRem(ctx, processingKey, 1, id)
		return nil, fmt.Errorf("unmarshal job %s: %w", id, err)
	}
	return &job, nil
}

func (q *Queue) processJob(ctx context.Context, job *Job) {
	now := time.Now()
	job.Status = JobStatusProcessing
	job.ProcessedAt = &now
	job.UpdatedAt = now
	q.updateJob(ctx, job)

	err := q.process(ctx, *job)
	if err == nil {
		q.client.Del(ctx, jobKeyPrefix+job.AttemptID)
		q.client.LRem(ctx, processingKey, 1, job.AttemptID)
		return
	}

	log.Printf("[QUEUE] job look=%d attempt=%s: %v", job.LookID, job.AttemptID, err)
	job.ErrorMsg = err.Error()
	job.UpdatedAt = time.Now()
	if job.RetryCount < job.MaxRetries {
		job.RetryCount++
		job.Status = JobStatusRetrying
		q.updateJob(ctx, job)
		id := job.AttemptID
		delay := time.Minute * time.Duration(job.RetryCount)
		time.AfterFunc(delay, func() {
			if err := q.client.LPush(context.Background(), queueKey, id).Err(); err != nil {
				log.Printf("[QUEUE] requeue %s: %v", id, err)
			}
		})
	} else {
		log.Printf("[QUEUE] job attempt=%s permanently failed after %d retries", job.AttemptID, job.RetryCount)
		job.Status = JobStatusFailed
		q.updateJob(ctx, job)
	}
	q.client.LRem(ctx, processingKey, 1, job.AttemptID)
}

func (q *Queue) updateJob(ctx context.Context, job *Job) {
	data, err := json.Marshal(job)
	if err != nil {
		log.Printf("[QUEUE] marshal job %s: %v", job.AttemptID, err)
		return
	}
	if err := q.client.Set(ctx, jobKeyPrefix+job.AttemptID, data, JobTTL).Err(); err != nil {
		log.Printf("[QUEUE] update job %s: %v", job.AttemptID, err)
	}
}

// stuckSweeper requeues jobs that sat on the processing list past stuckMaxAge,
// which happens when a worker died mid-attempt.
func (q *Queue) stuckSweeper() {
	defer q.wg.Done()
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	ctx := context.Background()
	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			ids, err := q.client.LRange(ctx, processingKey, 0, -1).Result()
			if err != nil {
				log.Printf("[QUEUE] sweeper lrange: %v", err)
				continue
			}
			now := time.Now()
			for _, id := range ids {
				data, err := q.client.Get(ctx, jobKeyPrefix+id).Result()
				if err != nil {
					q.client.LRem(ctx, processingKey, 1, id)
					continue
				}
				var job Job
				if err := json.Unmarshal([]byte(data), &job); err != nil {
					q.client.LRem(ctx, processingKey, 1, id)
					continue
				}
				if job.Status != JobStatusProcessing {
					q.client.LRem(ctx, processingKey, 1, id)
					continue
				}
				started := job.ProcessedAt
				if started == nil || started.IsZero() {
					started = &job.UpdatedAt
				}
				if now.Sub(*started) > stuckMaxAge {
					log.Printf("[QUEUE] recovering stuck job attempt=%s look=%d age=%s", job.AttemptID, job.LookID, now.Sub(*started))
					job.Status = JobStatusPending
					job.ErrorMsg = "recovered by sweeper"
					job.UpdatedAt = now
					q.updateJob(ctx, &job)
					q.client.LRem(ctx, processingKey, 1, id)
					q.client.RPush(ctx, queueKey, id)
				}
			}
		}
	}
}

// GetJob loads a persisted job record by attempt id.
func (q *Queue) GetJob(ctx context.Context, attemptID string) (*Job, error) {
	data, err := q.client.Get(ctx, jobKeyPrefix+attemptID).Result()
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

// PendingSize returns the number of jobs waiting for a worker.
func (q *Queue) PendingSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, queueKey).Result()
}

// ProcessingSize returns the number of in-flight jobs.
func (q *Queue) ProcessingSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, processingKey).Result()
}

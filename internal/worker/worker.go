package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kmarlowe/frontier-engine/internal/services/queue"
)

const lockTTL = 30 * time.Second

// Worker drains the impact job queue and applies each job through the
// impact processor.
type Worker struct {
	id           string
	queue        *queue.ImpactQueue
	processor    *ImpactProcessor
	redisClient  *redis.Client
	log          *slog.Logger
	pollInterval time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
}

// New creates a new worker instance
func New(impactQueue *queue.ImpactQueue, processor *ImpactProcessor, redisClient *redis.Client, log *slog.Logger, workerID string, pollInterval time.Duration) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	return &Worker{
		id:           workerID,
		queue:        impactQueue,
		processor:    processor,
		redisClient:  redisClient,
		log:          log,
		pollInterval: pollInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start begins processing jobs from the queue
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNextJob(); err != nil {
				w.log.Error("Error processing job", "error", err, "worker_id", w.id)
				// Continue processing even on error
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNextJob pulls the next job from the queue and processes it
func (w *Worker) processNextJob() error {
	job, err := w.queue.Dequeue(w.ctx)
	if err != nil {
		return fmt.Errorf("failed to dequeue job: %w", err)
	}

	if job == nil {
		// Queue is empty, wait before polling again
		select {
		case <-w.ctx.Done():
		case <-time.After(w.pollInterval):
		}
		return nil
	}

	w.log.Info("Received job from queue",
		"worker_id", w.id,
		"job_id", job.JobID,
		"session_id", job.SessionID.String(),
		"decision_id", job.DecisionID,
	)

	// Try to acquire the session lock
	locked, err := w.acquireSessionLock(job.SessionID)
	if err != nil {
		return fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !locked {
		// Another worker holds the session, re-queue at the end
		w.log.Info("Session already locked, re-queueing job",
			"worker_id", w.id,
			"job_id", job.JobID,
			"session_id", job.SessionID.String(),
		)
		if err := w.queue.Enqueue(w.ctx, job.SessionID, job.DecisionID); err != nil {
			return fmt.Errorf("failed to re-queue job: %w", err)
		}
		return nil
	}

	defer w.releaseSessionLock(job.SessionID)
	return w.processor.ProcessJob(w.ctx, job)
}

// acquireSessionLock attempts to acquire a lock for a session
// Returns true if lock was acquired, false if already locked
func (w *Worker) acquireSessionLock(sessionID uuid.UUID) (bool, error) {
	lockKey := fmt.Sprintf("session-lock:%s", sessionID.String())

	result, err := w.redisClient.SetNX(w.ctx, lockKey, w.id, lockTTL).Result()
	if err != nil {
		return false, err
	}

	return result, nil
}

// releaseSessionLock releases the lock for a session
func (w *Worker) releaseSessionLock(sessionID uuid.UUID) {
	lockKey := fmt.Sprintf("session-lock:%s", sessionID.String())

	// Only delete if we own the lock
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	if err := script.Run(w.ctx, w.redisClient, []string{lockKey}, w.id).Err(); err != nil {
		w.log.Error("Failed to release session lock", "error", err, "session_id", sessionID.String())
	}
}

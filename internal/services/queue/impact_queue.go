package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const impactQueueKey = "impact-jobs"

// ImpactJob asks the worker to process the impacts of one recorded decision.
type ImpactJob struct {
	JobID      string    `json:"job_id"`
	SessionID  uuid.UUID `json:"session_id"`
	DecisionID string    `json:"decision_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// ImpactQueue manages the global queue of pending impact jobs.
type ImpactQueue struct {
	client *Client
}

func NewImpactQueue(client *Client) *ImpactQueue {
	return &ImpactQueue{
		client: client,
	}
}

// Enqueue adds an impact job to the end of the queue
func (iq *ImpactQueue) Enqueue(ctx context.Context, sessionID uuid.UUID, decisionID string) error {
	job := ImpactJob{
		JobID:      uuid.NewString(),
		SessionID:  sessionID,
		DecisionID: decisionID,
		EnqueuedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(&job)
	if err != nil {
		return fmt.Errorf("failed to serialize impact job: %w", err)
	}
	if err := iq.client.rdb.RPush(ctx, impactQueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue impact job: %w", err)
	}
	return nil
}

// Dequeue removes and returns the next impact job.
// Returns nil if the queue is empty.
func (iq *ImpactQueue) Dequeue(ctx context.Context) (*ImpactJob, error) {
	result, err := iq.client.rdb.LPop(ctx, impactQueueKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Queue is empty
		}
		return nil, fmt.Errorf("failed to dequeue impact job: %w", err)
	}

	var job ImpactJob
	if err := json.Unmarshal([]byte(result), &job); err != nil {
		return nil, fmt.Errorf("failed to parse impact job: %w", err)
	}
	return &job, nil
}

// Depth returns the number of jobs waiting in the queue
func (iq *ImpactQueue) Depth(ctx context.Context) (int, error) {
	count, err := iq.client.rdb.LLen(ctx, impactQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}
	return int(count), nil
}

// Clear removes all pending impact jobs
func (iq *ImpactQueue) Clear(ctx context.Context) error {
	if err := iq.client.rdb.Del(ctx, impactQueueKey).Err(); err != nil {
		return fmt.Errorf("failed to clear impact queue: %w", err)
	}
	return nil
}

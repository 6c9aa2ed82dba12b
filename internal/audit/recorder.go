package audit

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Recorder accepts mutation events. Recording is best effort: a lost
// event never fails the mutation that produced it.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// QueueRecorder enqueues events on asynq.
type QueueRecorder struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewQueueRecorder constructs a recorder over an asynq client.
func NewQueueRecorder(client *asynq.Client, logger *slog.Logger) *QueueRecorder {
	return &QueueRecorder{client: client, logger: logger}
}

// Record enqueues the event, logging enqueue failures.
func (r *QueueRecorder) Record(ctx context.Context, event Event) {
	task, err := NewEntityMutationTask(event)
	if err != nil {
		r.logger.Warn("audit build task", slog.Any("error", err))
		return
	}
	if _, err := r.client.EnqueueContext(ctx, task); err != nil {
		r.logger.Warn("audit enqueue", slog.Any("error", err), slog.String("event", event.EventID))
	}
}

// NopRecorder drops every event. Used in tests and when the queue is
// not configured.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(ctx context.Context, event Event) {}

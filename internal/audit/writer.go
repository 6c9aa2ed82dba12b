package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Writer is the worker-side consumer persisting events to audit_log.
type Writer struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewWriter constructs a Writer.
func NewWriter(pool *pgxpool.Pool, logger *slog.Logger) *Writer {
	return &Writer{pool: pool, logger: logger}
}

// HandleEntityMutation persists one event. Duplicate deliveries are
// absorbed by the event id primary key.
func (w *Writer) HandleEntityMutation(ctx context.Context, task *asynq.Task) error {
	var event Event
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		return fmt.Errorf("audit: unmarshal event: %w", err)
	}
	const query = `
		INSERT INTO audit_log (event_id, actor_id, action, resource, entity_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING`
	if _, err := w.pool.Exec(ctx, query,
		event.EventID, event.ActorID, event.Action, event.Resource, event.EntityID, event.OccurredAt,
	); err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	w.logger.Debug("audit event stored",
		slog.String("event", event.EventID),
		slog.String("action", event.Action),
		slog.String("resource", event.Resource),
	)
	return nil
}

// NewMux registers the audit handlers on an asynq mux.
func NewMux(w *Writer) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEntityMutation, w.HandleEntityMutation)
	return mux
}

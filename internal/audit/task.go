// Package audit records entity mutations on a queue so request latency
// never pays for the trail. A worker drains the queue into the
// audit_log table.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypeEntityMutation is the asynq task type for mutation events.
const TypeEntityMutation = "audit:entity_mutation"

// Event describes one successful mutation of an entity.
type Event struct {
	EventID    string    `json:"event_id"`
	ActorID    int64     `json:"actor_id"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	EntityID   int64     `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent stamps an event with its id and time.
func NewEvent(actorID int64, action, resource string, entityID int64) Event {
	return Event{
		EventID:    uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		Resource:   resource,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
}

// NewEntityMutationTask packs an event into an asynq task.
func NewEntityMutationTask(event Event) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("audit: marshal event: %w", err)
	}
	return asynq.NewTask(TypeEntityMutation, payload, asynq.MaxRetry(5)), nil
}

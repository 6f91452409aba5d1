package core

import (
	"context"
	"time"
)

const (
	EventCourseDeleted     = "course.deleted"
	EventSubmissionCreated = "submission.created"
	EventSubmissionDeleted = "submission.deleted"
	EventGradeAssigned     = "grade.assigned"
)

// Event is a domain fact published after a successful mutation.
type Event struct {
	Name       string      `json:"name"`
	EntityID   string      `json:"entity_id"`
	ActorID    string      `json:"actor_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload,omitempty"`
}

func NewEvent(name, entityID, actorID string, payload interface{}) Event {
	return Event{Name: name, EntityID: entityID, ActorID: actorID, OccurredAt: time.Now().UTC(), Payload: payload}
}

// EventPublisher is any service that can publish domain events.
// Publishing never fails the mutation that produced the events.
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event)
}

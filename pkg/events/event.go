package events

import "time"

// Event is the contract for everything published on the event bus.
type Event interface {
	// EventType returns the unique code for this event (e.g. "SOURCE_INDEXED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Domain events emitted by the retrieval and chat pipeline.

func NewSourceIndexedEvent(kind string, sourceId string, userId string, chunks int) Event {
	return BaseEvent{
		Type: "SOURCE_INDEXED",
		Data: map[string]interface{}{
			"kind":      kind,
			"source_id": sourceId,
			"user_id":   userId,
			"chunks":    chunks,
		},
		OccurredAt: time.Now(),
	}
}

func NewRetrievalDegradedEvent(userId string, reason string) Event {
	return BaseEvent{
		Type: "RETRIEVAL_DEGRADED",
		Data: map[string]interface{}{
			"user_id": userId,
			"reason":  reason,
		},
		OccurredAt: time.Now(),
	}
}

func NewRetrievalKindFailedEvent(userId string, kind string, reason string) Event {
	return BaseEvent{
		Type: "RETRIEVAL_KIND_FAILED",
		Data: map[string]interface{}{
			"user_id": userId,
			"kind":    kind,
			"reason":  reason,
		},
		OccurredAt: time.Now(),
	}
}

func NewTurnPersistFailedEvent(sessionId string, reason string) Event {
	return BaseEvent{
		Type: "TURN_PERSIST_FAILED",
		Data: map[string]interface{}{
			"session_id": sessionId,
			"reason":     reason,
		},
		OccurredAt: time.Now(),
	}
}

func NewTurnInterruptedEvent(sessionId string, turnId string) Event {
	return BaseEvent{
		Type: "TURN_INTERRUPTED",
		Data: map[string]interface{}{
			"session_id": sessionId,
			"turn_id":    turnId,
		},
		OccurredAt: time.Now(),
	}
}

package stream

import (
	"encoding/json"
	"fmt"

	"ai-companion-be/internal/entity"

	"github.com/google/uuid"
)

type EventType string

const (
	EventSources EventType = "sources"
	EventToken   EventType = "token"
	EventDone    EventType = "done"
	EventError   EventType = "error"
)

// Event is one frame of the response stream. The coordinator produces a
// pull-based sequence of these; transports adapt them to SSE, WebSocket or
// a plain JSON response.
type Event struct {
	Type      EventType
	SessionId uuid.UUID
	Sources   []entity.ContextSource
	Token     string
	Err       string
}

func SourcesEvent(sessionId uuid.UUID, sources []entity.ContextSource) Event {
	return Event{Type: EventSources, SessionId: sessionId, Sources: sources}
}

func TokenEvent(token string) Event {
	return Event{Type: EventToken, Token: token}
}

func DoneEvent(sessionId uuid.UUID) Event {
	return Event{Type: EventDone, SessionId: sessionId}
}

func ErrorEvent(message string) Event {
	return Event{Type: EventError, Err: message}
}

// FormatSSE renders one event as a Server-Sent Events frame, terminated by
// a blank line.
func FormatSSE(e Event) string {
	var payload interface{}
	switch e.Type {
	case EventSources:
		sources := e.Sources
		if sources == nil {
			sources = []entity.ContextSource{}
		}
		payload = map[string]interface{}{
			"sessionId": e.SessionId,
			"sources":   sources,
		}
	case EventToken:
		payload = map[string]interface{}{
			"token": e.Token,
		}
	case EventDone:
		payload = map[string]interface{}{
			"sessionId": e.SessionId,
		}
	case EventError:
		payload = map[string]interface{}{
			"error": e.Err,
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("{}")
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", e.Type, data)
}

package stream

import (
	"context"
	"strings"
	"sync"

	"ai-companion-be/internal/constant"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/pkg/events"
	"ai-companion-be/pkg/llm"

	"github.com/google/uuid"
)

// Completer is the slice of the LLM provider contract the coordinator uses.
type Completer interface {
	Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error)
	ChatStream(ctx context.Context, history []llm.Message, onToken llm.TokenHandler, options ...llm.Option) (string, error)
}

// Persister records the assistant turn once generation settles and returns
// the id of the written turn.
type Persister interface {
	PersistAssistantTurn(ctx context.Context, sessionId uuid.UUID, content, status string, sources []entity.ContextSource) (uuid.UUID, error)
}

// EventPublisher receives observability events. Failures to publish are
// logged, never surfaced. A nil publisher disables publishing.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Coordinator drives one generation and owns the exactly-once persistence
// guarantee: whichever way a request ends (clean completion, caller cancel,
// upstream failure, timeout) the assistant turn is written at most once,
// and its content equals the concatenation of the tokens that were actually
// delivered to the caller.
type Coordinator struct {
	completer Completer
	persister Persister
	publisher EventPublisher
	log       logger.ILogger
}

func NewCoordinator(completer Completer, persister Persister, publisher EventPublisher, log logger.ILogger) *Coordinator {
	return &Coordinator{
		completer: completer,
		persister: persister,
		publisher: publisher,
		log:       log,
	}
}

// Stream runs the generation and returns a pull-based event sequence:
// one sources event, zero or more token events, then done or error. The
// channel is closed when the request settles. Cancelling ctx stops the
// relay within one chunk and triggers the interrupted persistence path.
func (c *Coordinator) Stream(ctx context.Context, sessionId uuid.UUID, history []llm.Message, sources []entity.ContextSource) <-chan Event {
	ch := make(chan Event)

	go func() {
		defer close(ch)

		send := func(e Event) bool {
			select {
			case ch <- e:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(SourcesEvent(sessionId, sources)) {
			// Caller was gone before anything was generated, nothing to keep.
			return
		}

		var accumulated strings.Builder
		var persistOnce sync.Once

		persist := func(status string) uuid.UUID {
			var turnId uuid.UUID
			persistOnce.Do(func() {
				// The request context may already be cancelled, persistence
				// must still run.
				pctx := context.WithoutCancel(ctx)
				id, err := c.persister.PersistAssistantTurn(pctx, sessionId, accumulated.String(), status, sources)
				if err != nil {
					c.log.Error("stream", "assistant turn persistence failed", map[string]interface{}{
						"session_id": sessionId.String(),
						"status":     status,
						"error":      err.Error(),
					})
					c.publish(pctx, events.NewTurnPersistFailedEvent(sessionId.String(), err.Error()))
					return
				}
				turnId = id
			})
			return turnId
		}

		_, err := c.completer.ChatStream(ctx, history, func(token string) error {
			if !send(TokenEvent(token)) {
				return ctx.Err()
			}
			// Only tokens the caller actually received count toward the
			// persisted content.
			accumulated.WriteString(token)
			return nil
		})

		if err != nil {
			if accumulated.Len() > 0 {
				// Partial answer already delivered: keep it, no error event.
				c.log.Warn("stream", "generation interrupted", map[string]interface{}{
					"session_id": sessionId.String(),
					"error":      err.Error(),
				})
				turnId := persist(constant.ChatTurnStatusInterrupted)
				if turnId != uuid.Nil {
					c.publish(context.WithoutCancel(ctx), events.NewTurnInterruptedEvent(sessionId.String(), turnId.String()))
				}
				return
			}
			// Failed before any output: surface the error, persist nothing.
			c.log.Error("stream", "generation failed before output", map[string]interface{}{
				"session_id": sessionId.String(),
				"error":      err.Error(),
			})
			send(ErrorEvent("generation failed"))
			return
		}

		send(DoneEvent(sessionId))
		persist(constant.ChatTurnStatusComplete)
	}()

	return ch
}

// Complete is the non-streaming mode: one blocking completion call, persisted
// as a complete turn, returned whole.
func (c *Coordinator) Complete(ctx context.Context, sessionId uuid.UUID, history []llm.Message, sources []entity.ContextSource) (string, error) {
	response, err := c.completer.Chat(ctx, history)
	if err != nil {
		return "", err
	}

	pctx := context.WithoutCancel(ctx)
	if _, perr := c.persister.PersistAssistantTurn(pctx, sessionId, response, constant.ChatTurnStatusComplete, sources); perr != nil {
		c.log.Error("stream", "assistant turn persistence failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      perr.Error(),
		})
		c.publish(pctx, events.NewTurnPersistFailedEvent(sessionId.String(), perr.Error()))
	}

	return response, nil
}

func (c *Coordinator) publish(ctx context.Context, event events.Event) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.log.Warn("stream", "event publish failed", map[string]interface{}{
			"event_type": event.EventType(),
			"error":      err.Error(),
		})
	}
}

package stream

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-companion-be/internal/constant"
	"ai-companion-be/internal/entity"
	"ai-companion-be/pkg/events"
	"ai-companion-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

type stubCompleter struct {
	tokens   []string
	chatResp string
	err      error // returned after all tokens are delivered
}

func (s *stubCompleter) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.chatResp, nil
}

func (s *stubCompleter) ChatStream(ctx context.Context, history []llm.Message, onToken llm.TokenHandler, options ...llm.Option) (string, error) {
	var full strings.Builder
	for _, token := range s.tokens {
		if err := onToken(token); err != nil {
			return full.String(), err
		}
		full.WriteString(token)
	}
	if s.err != nil {
		return full.String(), s.err
	}
	return full.String(), nil
}

type recordingPersister struct {
	mu      sync.Mutex
	calls   int
	content string
	status  string
	sources []entity.ContextSource
	turnId  uuid.UUID
	err     error
	done    chan struct{}
}

func newRecordingPersister() *recordingPersister {
	return &recordingPersister{turnId: uuid.New(), done: make(chan struct{}, 4)}
}

func (p *recordingPersister) PersistAssistantTurn(ctx context.Context, sessionId uuid.UUID, content, status string, sources []entity.ContextSource) (uuid.UUID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.content = content
	p.status = status
	p.sources = sources
	p.done <- struct{}{}
	if p.err != nil {
		return uuid.Nil, p.err
	}
	return p.turnId, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []events.Event
	done      chan struct{}
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{done: make(chan struct{}, 4)}
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, event)
	p.done <- struct{}{}
	return nil
}

func (p *recordingPublisher) events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.published...)
}

func collect(ch <-chan Event) []Event {
	var got []Event
	for e := range ch {
		got = append(got, e)
	}
	return got
}

func TestStreamCleanCompletion(t *testing.T) {
	persister := newRecordingPersister()
	completer := &stubCompleter{tokens: []string{"Hello", " ", "world"}}
	coord := NewCoordinator(completer, persister, nil, noopLogger{})
	sessionId := uuid.New()
	sources := []entity.ContextSource{{Id: "1", Kind: entity.SourceKindTask, Title: "t", Relevance: 0.9}}

	got := collect(coord.Stream(context.Background(), sessionId, nil, sources))

	assert.Equal(t, EventSources, got[0].Type)
	assert.Equal(t, sessionId, got[0].SessionId)
	assert.Equal(t, sources, got[0].Sources)

	var tokens []string
	for _, e := range got[1 : len(got)-1] {
		assert.Equal(t, EventToken, e.Type)
		tokens = append(tokens, e.Token)
	}
	assert.Equal(t, EventDone, got[len(got)-1].Type)

	<-persister.done
	assert.Equal(t, 1, persister.calls)
	assert.Equal(t, constant.ChatTurnStatusComplete, persister.status)
	// Concatenated tokens equal the persisted content.
	assert.Equal(t, strings.Join(tokens, ""), persister.content)
	assert.Equal(t, "Hello world", persister.content)
}

func TestStreamCallerDisconnectPersistsInterrupted(t *testing.T) {
	persister := newRecordingPersister()
	completer := &stubCompleter{tokens: []string{"a", "b", "c", "d", "e", "f"}}
	coord := NewCoordinator(completer, persister, nil, noopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := coord.Stream(ctx, uuid.New(), nil, nil)

	var received []Event
	for e := range ch {
		received = append(received, e)
		// Disconnect after the third token: stop reading and cancel.
		if e.Type == EventToken && e.Token == "c" {
			cancel()
			break
		}
	}

	<-persister.done
	assert.Equal(t, 1, persister.calls)
	assert.Equal(t, constant.ChatTurnStatusInterrupted, persister.status)
	assert.Equal(t, "abc", persister.content)

	for _, e := range received {
		assert.NotEqual(t, EventDone, e.Type)
		assert.NotEqual(t, EventError, e.Type)
	}
}

func TestStreamInterruptedPublishesTurnEvent(t *testing.T) {
	persister := newRecordingPersister()
	publisher := newRecordingPublisher()
	completer := &stubCompleter{tokens: []string{"x", "y"}, err: errors.New("connection reset")}
	coord := NewCoordinator(completer, persister, publisher, noopLogger{})
	sessionId := uuid.New()

	collect(coord.Stream(context.Background(), sessionId, nil, nil))

	<-persister.done
	<-publisher.done

	got := publisher.events()
	assert.Len(t, got, 1)
	assert.Equal(t, "TURN_INTERRUPTED", got[0].EventType())
	assert.Equal(t, sessionId.String(), got[0].Payload()["session_id"])
	assert.Equal(t, persister.turnId.String(), got[0].Payload()["turn_id"])
}

func TestStreamPersistFailurePublishesEvent(t *testing.T) {
	persister := newRecordingPersister()
	persister.err = errors.New("db unavailable")
	publisher := newRecordingPublisher()
	completer := &stubCompleter{tokens: []string{"answer"}}
	coord := NewCoordinator(completer, persister, publisher, noopLogger{})
	sessionId := uuid.New()

	got := collect(coord.Stream(context.Background(), sessionId, nil, nil))

	// Persistence failure never surfaces to the caller.
	assert.Equal(t, EventDone, got[len(got)-1].Type)

	<-persister.done
	<-publisher.done

	published := publisher.events()
	assert.Len(t, published, 1)
	assert.Equal(t, "TURN_PERSIST_FAILED", published[0].EventType())
	assert.Equal(t, sessionId.String(), published[0].Payload()["session_id"])
}

func TestStreamFailureBeforeOutputEmitsError(t *testing.T) {
	persister := newRecordingPersister()
	completer := &stubCompleter{err: errors.New("backend down")}
	coord := NewCoordinator(completer, persister, nil, noopLogger{})

	got := collect(coord.Stream(context.Background(), uuid.New(), nil, nil))

	assert.Equal(t, EventSources, got[0].Type)
	assert.Equal(t, EventError, got[len(got)-1].Type)

	// No assistant turn is created when nothing was generated.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, persister.calls)
}

func TestStreamMidFlightFailurePersistsInterrupted(t *testing.T) {
	persister := newRecordingPersister()
	completer := &stubCompleter{tokens: []string{"part", "ial"}, err: errors.New("connection reset")}
	coord := NewCoordinator(completer, persister, nil, noopLogger{})

	got := collect(coord.Stream(context.Background(), uuid.New(), nil, nil))

	<-persister.done
	assert.Equal(t, 1, persister.calls)
	assert.Equal(t, constant.ChatTurnStatusInterrupted, persister.status)
	assert.Equal(t, "partial", persister.content)

	// Partial output was already delivered, no error event follows it.
	for _, e := range got {
		assert.NotEqual(t, EventError, e.Type)
		assert.NotEqual(t, EventDone, e.Type)
	}
}

func TestComplete(t *testing.T) {
	persister := newRecordingPersister()
	completer := &stubCompleter{chatResp: "a full answer"}
	coord := NewCoordinator(completer, persister, nil, noopLogger{})
	sessionId := uuid.New()

	response, err := coord.Complete(context.Background(), sessionId, nil, nil)

	assert.NoError(t, err)
	assert.Equal(t, "a full answer", response)
	assert.Equal(t, 1, persister.calls)
	assert.Equal(t, constant.ChatTurnStatusComplete, persister.status)
	assert.Equal(t, "a full answer", persister.content)
}

func TestCompleteFailureDoesNotPersist(t *testing.T) {
	persister := newRecordingPersister()
	completer := &stubCompleter{err: errors.New("backend down")}
	coord := NewCoordinator(completer, persister, nil, noopLogger{})

	_, err := coord.Complete(context.Background(), uuid.New(), nil, nil)

	assert.Error(t, err)
	assert.Equal(t, 0, persister.calls)
}

func TestFormatSSE(t *testing.T) {
	sessionId := uuid.MustParse("11111111-2222-3333-4444-555555555555")

	frame := FormatSSE(TokenEvent("hi"))
	assert.Equal(t, "event: token\ndata: {\"token\":\"hi\"}\n\n", frame)

	frame = FormatSSE(DoneEvent(sessionId))
	assert.Equal(t, "event: done\ndata: {\"sessionId\":\"11111111-2222-3333-4444-555555555555\"}\n\n", frame)

	frame = FormatSSE(ErrorEvent("boom"))
	assert.Equal(t, "event: error\ndata: {\"error\":\"boom\"}\n\n", frame)

	frame = FormatSSE(SourcesEvent(sessionId, nil))
	assert.Contains(t, frame, "event: sources\n")
	assert.Contains(t, frame, "\"sources\":[]")
	assert.True(t, strings.HasSuffix(frame, "\n\n"))
}

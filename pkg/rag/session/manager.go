package session

import (
	"context"
	"sync"
	"time"

	"ai-companion-be/internal/entity"

	"github.com/google/uuid"
)

// Store is the narrow persistence surface the manager needs. The repository
// layer adapts to it; tests supply an in-memory fake.
type Store interface {
	FindSession(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error)
	CreateSession(ctx context.Context, session *entity.ChatSession) error
	// LoadRecentTurns returns at most limit turns, newest first.
	LoadRecentTurns(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ChatTurn, error)
	MaxSeq(ctx context.Context, sessionId uuid.UUID) (int, error)
	AppendTurn(ctx context.Context, turn *entity.ChatTurn) error
}

// Manager resolves sessions and serializes turn appends per session, so a
// user turn always receives a lower sequence number than the assistant turn
// it provoked, even with concurrent requests against the same session.
type Manager struct {
	store Store

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (m *Manager) lockFor(sessionId uuid.UUID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[sessionId]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[sessionId] = lock
	}
	return lock
}

// Resolve returns the existing session when an id is supplied and known,
// creates it lazily otherwise. Resolving the same id twice never creates a
// second session.
func (m *Manager) Resolve(ctx context.Context, userId uuid.UUID, sessionId *uuid.UUID, title string) (*entity.ChatSession, error) {
	id := uuid.New()
	if sessionId != nil && *sessionId != uuid.Nil {
		id = *sessionId

		existing, err := m.store.FindSession(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	session := &entity.ChatSession{
		Id:        id,
		UserId:    userId,
		Title:     title,
		CreatedAt: time.Now(),
	}
	if err := m.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// LoadRecent returns at most limit turns ordered oldest to newest, a suffix
// of the full persisted turn list.
func (m *Manager) LoadRecent(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ChatTurn, error) {
	turns, err := m.store.LoadRecentTurns(ctx, sessionId, limit)
	if err != nil {
		return nil, err
	}

	// Store hands them back newest first.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Append assigns the next sequence number under the session lock and writes
// the turn. Turns are append-only, never reordered.
func (m *Manager) Append(ctx context.Context, turn *entity.ChatTurn) error {
	lock := m.lockFor(turn.ChatSessionId)
	lock.Lock()
	defer lock.Unlock()

	maxSeq, err := m.store.MaxSeq(ctx, turn.ChatSessionId)
	if err != nil {
		return err
	}

	if turn.Id == uuid.Nil {
		turn.Id = uuid.New()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	turn.Seq = maxSeq + 1

	return m.store.AppendTurn(ctx, turn)
}

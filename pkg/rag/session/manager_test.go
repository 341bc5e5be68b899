package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"ai-companion-be/internal/constant"
	"ai-companion-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.ChatSession
	turns    map[uuid.UUID][]*entity.ChatTurn
	creates  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[uuid.UUID]*entity.ChatSession),
		turns:    make(map[uuid.UUID][]*entity.ChatTurn),
	}
}

func (s *fakeStore) FindSession(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id], nil
}

func (s *fakeStore) CreateSession(ctx context.Context, session *entity.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	s.sessions[session.Id] = session
	return nil
}

func (s *fakeStore) LoadRecentTurns(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ChatTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := append([]*entity.ChatTurn{}, s.turns[sessionId]...)
	sort.Slice(all, func(i, j int) bool { return all[i].Seq > all[j].Seq })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *fakeStore) MaxSeq(ctx context.Context, sessionId uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxSeq := 0
	for _, t := range s.turns[sessionId] {
		if t.Seq > maxSeq {
			maxSeq = t.Seq
		}
	}
	return maxSeq, nil
}

func (s *fakeStore) AppendTurn(ctx context.Context, turn *entity.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[turn.ChatSessionId] = append(s.turns[turn.ChatSessionId], turn)
	return nil
}

func TestResolveCreatesWhenNoIdSupplied(t *testing.T) {
	store := newFakeStore()
	mgr := NewManager(store)
	userId := uuid.New()

	session, err := mgr.Resolve(context.Background(), userId, nil, "first question")
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, session.Id)
	assert.Equal(t, userId, session.UserId)
	assert.Equal(t, 1, store.creates)
}

func TestResolveIsIdempotentForExistingId(t *testing.T) {
	store := newFakeStore()
	mgr := NewManager(store)
	userId := uuid.New()

	first, err := mgr.Resolve(context.Background(), userId, nil, "hello")
	assert.NoError(t, err)

	second, err := mgr.Resolve(context.Background(), userId, &first.Id, "ignored")
	assert.NoError(t, err)
	assert.Equal(t, first.Id, second.Id)

	third, err := mgr.Resolve(context.Background(), userId, &first.Id, "ignored")
	assert.NoError(t, err)
	assert.Equal(t, first.Id, third.Id)
	assert.Equal(t, 1, store.creates)
}

func TestLoadRecentReturnsSuffixOldestFirst(t *testing.T) {
	store := newFakeStore()
	mgr := NewManager(store)
	sessionId := uuid.New()

	// 12 turns persisted, only the most recent 10 come back.
	for i := 1; i <= 12; i++ {
		role := constant.ChatTurnRoleUser
		if i%2 == 0 {
			role = constant.ChatTurnRoleAssistant
		}
		err := mgr.Append(context.Background(), &entity.ChatTurn{
			ChatSessionId: sessionId,
			Role:          role,
			Content:       fmt.Sprintf("turn %d", i),
		})
		assert.NoError(t, err)
	}

	recent, err := mgr.LoadRecent(context.Background(), sessionId, 10)
	assert.NoError(t, err)
	assert.Len(t, recent, 10)
	assert.Equal(t, "turn 3", recent[0].Content)
	assert.Equal(t, "turn 12", recent[9].Content)
	for i := 1; i < len(recent); i++ {
		assert.Greater(t, recent[i].Seq, recent[i-1].Seq)
	}
	assert.Len(t, store.turns[sessionId], 12)
}

func TestAppendAssignsMonotonicSeq(t *testing.T) {
	store := newFakeStore()
	mgr := NewManager(store)
	sessionId := uuid.New()

	user := &entity.ChatTurn{ChatSessionId: sessionId, Role: constant.ChatTurnRoleUser, Content: "q"}
	assistant := &entity.ChatTurn{ChatSessionId: sessionId, Role: constant.ChatTurnRoleAssistant, Content: "a"}

	assert.NoError(t, mgr.Append(context.Background(), user))
	assert.NoError(t, mgr.Append(context.Background(), assistant))

	assert.Equal(t, 1, user.Seq)
	assert.Equal(t, 2, assistant.Seq)
	assert.NotEqual(t, uuid.Nil, user.Id)
	assert.False(t, user.CreatedAt.IsZero())
	assert.False(t, user.CreatedAt.After(assistant.CreatedAt))
}

func TestAppendConcurrentSameSession(t *testing.T) {
	store := newFakeStore()
	mgr := NewManager(store)
	sessionId := uuid.New()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = mgr.Append(context.Background(), &entity.ChatTurn{
				ChatSessionId: sessionId,
				Role:          constant.ChatTurnRoleUser,
				Content:       "concurrent",
				CreatedAt:     time.Now(),
			})
		}()
	}
	wg.Wait()

	seen := make(map[int]bool)
	for _, turn := range store.turns[sessionId] {
		assert.False(t, seen[turn.Seq], "duplicate seq %d", turn.Seq)
		seen[turn.Seq] = true
	}
	assert.Len(t, seen, n)
}

package service

import (
	"context"
	"errors"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/mapper"
	"ai-companion-be/internal/repository/specification"
	"ai-companion-be/internal/repository/unitofwork"
	"ai-companion-be/pkg/embedding"
	"ai-companion-be/pkg/rag/session"

	"github.com/google/uuid"
)

// sessionStore adapts the repository layer to the session manager's narrow
// Store contract.
type sessionStore struct {
	uowFactory unitofwork.RepositoryFactory
}

var _ session.Store = (*sessionStore)(nil)

func newSessionStore(uowFactory unitofwork.RepositoryFactory) *sessionStore {
	return &sessionStore{uowFactory: uowFactory}
}

func (s *sessionStore) FindSession(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: id})
}

func (s *sessionStore) CreateSession(ctx context.Context, chatSession *entity.ChatSession) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatSessionRepository().Create(ctx, chatSession)
}

func (s *sessionStore) LoadRecentTurns(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ChatTurn, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatTurnRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "seq", Desc: true},
		specification.Limit{Count: limit},
	)
}

func (s *sessionStore) MaxSeq(ctx context.Context, sessionId uuid.UUID) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatTurnRepository().MaxSeq(ctx, sessionId)
}

func (s *sessionStore) AppendTurn(ctx context.Context, turn *entity.ChatTurn) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatTurnRepository().Create(ctx, turn)
}

// queryEmbedder adapts the embedding provider to the aggregator's Embedder.
type queryEmbedder struct {
	provider embedding.EmbeddingProvider
}

func (e *queryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := e.provider.Generate(text, embedding.TaskTypeQuery)
	if err != nil {
		return nil, err
	}
	if res == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("embedding provider returned an empty vector")
	}
	return res.Embedding.Values, nil
}

// vectorSearcher runs the per-kind pgvector search and hydrates the matched
// chunks back into ContextSources. Multiple chunks of one record collapse to
// the record's best-scoring chunk.
type vectorSearcher struct {
	uowFactory unitofwork.RepositoryFactory
}

func (v *vectorSearcher) Search(ctx context.Context, kind entity.SourceKind, vector []float32, limit int, userId uuid.UUID, threshold float64) ([]entity.ContextSource, error) {
	uow := v.uowFactory.NewUnitOfWork(ctx)

	scored, err := uow.SourceEmbeddingRepository().SearchSimilarWithScore(ctx, kind, vector, limit*2, userId, threshold)
	if err != nil {
		return nil, err
	}

	type best struct {
		similarity float64
		document   string
	}
	bySource := make(map[uuid.UUID]best)
	var order []uuid.UUID
	for _, hit := range scored {
		current, seen := bySource[hit.Embedding.SourceId]
		if !seen {
			order = append(order, hit.Embedding.SourceId)
		}
		if !seen || hit.Similarity > current.similarity {
			bySource[hit.Embedding.SourceId] = best{similarity: hit.Similarity, document: hit.Embedding.Document}
		}
	}

	var sources []entity.ContextSource
	for _, sourceId := range order {
		if len(sources) >= limit {
			break
		}
		source, err := v.hydrate(ctx, uow, kind, sourceId)
		if err != nil {
			return nil, err
		}
		if source == nil {
			// Record deleted after indexing, skip the stale chunk.
			continue
		}
		hit := bySource[sourceId]
		source.Relevance = clamp01(hit.similarity)
		if source.Content == "" {
			source.Content = hit.document
		}
		sources = append(sources, *source)
	}

	return sources, nil
}

func (v *vectorSearcher) hydrate(ctx context.Context, uow unitofwork.UnitOfWork, kind entity.SourceKind, sourceId uuid.UUID) (*entity.ContextSource, error) {
	byId := specification.ByID{ID: sourceId}

	switch kind {
	case entity.SourceKindTask:
		task, err := uow.TaskRepository().FindOne(ctx, byId)
		if err != nil || task == nil {
			return nil, err
		}
		source := mapper.TaskToContextSource(task)
		return &source, nil

	case entity.SourceKindJournal:
		entry, err := uow.JournalRepository().FindOne(ctx, byId)
		if err != nil || entry == nil {
			return nil, err
		}
		source := mapper.JournalToContextSource(entry)
		return &source, nil

	case entity.SourceKindNote:
		note, err := uow.NoteRepository().FindOne(ctx, byId)
		if err != nil || note == nil {
			return nil, err
		}
		source := mapper.NoteToContextSource(note)
		return &source, nil
	}

	return nil, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

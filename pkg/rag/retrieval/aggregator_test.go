package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ai-companion-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.vector, s.err
}

type stubSearcher struct {
	results map[entity.SourceKind][]entity.ContextSource
	errs    map[entity.SourceKind]error
}

func (s *stubSearcher) Search(ctx context.Context, kind entity.SourceKind, vector []float32, limit int, userId uuid.UUID, threshold float64) ([]entity.ContextSource, error) {
	if err := s.errs[kind]; err != nil {
		return nil, err
	}
	return s.results[kind], nil
}

type stubCandidates struct {
	sources []entity.ContextSource
}

func (s *stubCandidates) GetAll(userId uuid.UUID) []entity.ContextSource {
	return s.sources
}

func src(kind entity.SourceKind, title string, relevance float64) entity.ContextSource {
	return entity.ContextSource{
		Id:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		Content:   title + " content",
		Relevance: relevance,
	}
}

func TestRetrieveMergesAndRanks(t *testing.T) {
	searcher := &stubSearcher{
		results: map[entity.SourceKind][]entity.ContextSource{
			entity.SourceKindTask: {
				src(entity.SourceKindTask, "ship release", 0.9),
				src(entity.SourceKindTask, "review design", 0.8),
				src(entity.SourceKindTask, "update roadmap", 0.8),
			},
			entity.SourceKindJournal: {
				src(entity.SourceKindJournal, "morning reflection", 0.7),
			},
		},
	}
	agg := NewAggregator(&stubEmbedder{vector: []float32{0.1, 0.2}}, searcher, &stubCandidates{}, nil, noopLogger{})

	result, err := agg.Retrieve(context.Background(), Request{
		QueryText:      "what should I focus on today",
		UserId:         uuid.New(),
		MatchThreshold: 0.3,
		MatchCount:     5,
	})

	assert.NoError(t, err)
	assert.False(t, result.Degraded)
	assert.Len(t, result.Sources, 4)

	assert.Equal(t, "ship release", result.Sources[0].Title)
	// Equal relevance keeps retrieval order.
	assert.Equal(t, "review design", result.Sources[1].Title)
	assert.Equal(t, "update roadmap", result.Sources[2].Title)
	assert.Equal(t, "morning reflection", result.Sources[3].Title)
}

func TestRetrieveTopKTruncation(t *testing.T) {
	many := make([]entity.ContextSource, 12)
	for i := range many {
		many[i] = src(entity.SourceKindNote, fmt.Sprintf("note %d", i), float64(100-i)/100)
	}
	searcher := &stubSearcher{
		results: map[entity.SourceKind][]entity.ContextSource{
			entity.SourceKindNote: many,
		},
	}
	agg := NewAggregator(&stubEmbedder{vector: []float32{1}}, searcher, &stubCandidates{}, nil, noopLogger{})

	result, err := agg.Retrieve(context.Background(), Request{
		QueryText:  "notes",
		UserId:     uuid.New(),
		MatchCount: 20,
	})

	assert.NoError(t, err)
	assert.Len(t, result.Sources, DefaultTopK)
	for i := 1; i < len(result.Sources); i++ {
		assert.GreaterOrEqual(t, result.Sources[i-1].Relevance, result.Sources[i].Relevance)
	}
}

func TestRetrieveEmbeddingFailureDegrades(t *testing.T) {
	candidates := &stubCandidates{
		sources: []entity.ContextSource{
			src(entity.SourceKindTask, "finish quarterly report", 0),
			src(entity.SourceKindNote, "grocery list", 0),
		},
	}
	agg := NewAggregator(&stubEmbedder{err: errors.New("connection refused")}, &stubSearcher{}, candidates, nil, noopLogger{})

	result, err := agg.Retrieve(context.Background(), Request{
		QueryText: "quarterly report",
		UserId:    uuid.New(),
	})

	assert.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.Len(t, result.Sources, 1)
	assert.Equal(t, "finish quarterly report", result.Sources[0].Title)
	assert.Greater(t, result.Sources[0].Relevance, 0.0)
}

func TestRetrieveSingleKindFailureIsTolerated(t *testing.T) {
	searcher := &stubSearcher{
		results: map[entity.SourceKind][]entity.ContextSource{
			entity.SourceKindTask: {src(entity.SourceKindTask, "plan sprint", 0.6)},
			entity.SourceKindNote: {src(entity.SourceKindNote, "sprint notes", 0.5)},
		},
		errs: map[entity.SourceKind]error{
			entity.SourceKindJournal: errors.New("timeout"),
		},
	}
	agg := NewAggregator(&stubEmbedder{vector: []float32{1}}, searcher, &stubCandidates{}, nil, noopLogger{})

	result, err := agg.Retrieve(context.Background(), Request{
		QueryText: "sprint",
		UserId:    uuid.New(),
	})

	assert.NoError(t, err)
	assert.False(t, result.Degraded)
	assert.Len(t, result.Sources, 2)
	assert.Equal(t, "plan sprint", result.Sources[0].Title)
	assert.Equal(t, "sprint notes", result.Sources[1].Title)
}

func TestRetrieveEmptyResults(t *testing.T) {
	agg := NewAggregator(&stubEmbedder{vector: []float32{1}}, &stubSearcher{}, &stubCandidates{}, nil, noopLogger{})

	result, err := agg.Retrieve(context.Background(), Request{
		QueryText: "nothing matches",
		UserId:    uuid.New(),
	})

	assert.NoError(t, err)
	assert.Empty(t, result.Sources)
}

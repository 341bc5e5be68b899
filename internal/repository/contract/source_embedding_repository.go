package contract

import (
	"context"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredSourceEmbedding wraps SourceEmbedding with its similarity score
type ScoredSourceEmbedding struct {
	Embedding  *entity.SourceEmbedding
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type SourceEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.SourceEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.SourceEmbedding) error
	DeleteBySource(ctx context.Context, kind entity.SourceKind, sourceId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SourceEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore runs a ranked cosine-similarity search within one
	// source kind, filtered by threshold and bounded by limit.
	SearchSimilarWithScore(ctx context.Context, kind entity.SourceKind, vector []float32, limit int, userId uuid.UUID, threshold float64) ([]*ScoredSourceEmbedding, error)
}

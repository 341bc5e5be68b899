package implementation

import (
	"context"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/mapper"
	"ai-companion-be/internal/model"
	"ai-companion-be/internal/repository/contract"
	"ai-companion-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type SourceEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SourceEmbeddingMapper
}

func NewSourceEmbeddingRepository(db *gorm.DB) contract.SourceEmbeddingRepository {
	return &SourceEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewSourceEmbeddingMapper(),
	}
}

func (r *SourceEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SourceEmbeddingRepositoryImpl) Create(ctx context.Context, embedding *entity.SourceEmbedding) error {
	m := r.mapper.ToModel(embedding)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

func (r *SourceEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.SourceEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := r.mapper.ToModels(embeddings)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *SourceEmbeddingRepositoryImpl) DeleteBySource(ctx context.Context, kind entity.SourceKind, sourceId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("kind = ? AND source_id = ?", string(kind), sourceId).
		Delete(&model.SourceEmbedding{}).Error
}

func (r *SourceEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SourceEmbedding, error) {
	var models []*model.SourceEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SourceEmbeddingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.SourceEmbedding{}).Count(&count).Error
	return count, err
}

// SearchSimilarWithScore returns one kind's embeddings with similarity scores,
// filtered by threshold. Cosine distance in pgvector is 1 - cosine_similarity,
// so similarity is computed as 1 - (embedding_value <=> query_vector).
func (r *SourceEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, kind entity.SourceKind, vector []float32, limit int, userId uuid.UUID, threshold float64) ([]*contract.ScoredSourceEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.SourceEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)

	err := r.db.WithContext(ctx).
		Table("source_embeddings").
		Select("source_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("kind = ?", string(kind)).
		Where("user_id = ?", userId).
		Where("deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredSourceEmbedding, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredSourceEmbedding{
			Embedding:  r.mapper.ToEntity(&res.SourceEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

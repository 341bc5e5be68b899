package mapper

import (
	"time"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type SourceEmbeddingMapper struct{}

func NewSourceEmbeddingMapper() *SourceEmbeddingMapper {
	return &SourceEmbeddingMapper{}
}

func (m *SourceEmbeddingMapper) ToEntity(e *model.SourceEmbedding) *entity.SourceEmbedding {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		u := e.UpdatedAt
		updatedAt = &u
	}

	return &entity.SourceEmbedding{
		Id:             e.Id,
		Kind:           entity.SourceKind(e.Kind),
		SourceId:       e.SourceId,
		UserId:         e.UserId,
		Document:       e.Document,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *SourceEmbeddingMapper) ToModel(e *entity.SourceEmbedding) *model.SourceEmbedding {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.SourceEmbedding{
		Id:             e.Id,
		Kind:           string(e.Kind),
		SourceId:       e.SourceId,
		UserId:         e.UserId,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *SourceEmbeddingMapper) ToEntities(embeddings []*model.SourceEmbedding) []*entity.SourceEmbedding {
	entities := make([]*entity.SourceEmbedding, len(embeddings))
	for i, e := range embeddings {
		entities[i] = m.ToEntity(e)
	}
	return entities
}

func (m *SourceEmbeddingMapper) ToModels(embeddings []*entity.SourceEmbedding) []*model.SourceEmbedding {
	models := make([]*model.SourceEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = m.ToModel(e)
	}
	return models
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

// SourceEmbedding is one embedded chunk of a task, journal entry or note.
type SourceEmbedding struct {
	Id             uuid.UUID
	Kind           SourceKind
	SourceId       uuid.UUID
	UserId         uuid.UUID
	Document       string
	EmbeddingValue []float32
	ChunkIndex     int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

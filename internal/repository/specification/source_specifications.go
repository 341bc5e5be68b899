package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByKind filters source embeddings by source kind
type ByKind struct {
	Kind string
}

func (s ByKind) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("kind = ?", s.Kind)
}

// BySourceID filters source embeddings by originating record
type BySourceID struct {
	SourceID uuid.UUID
}

func (s BySourceID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_id = ?", s.SourceID)
}

package contract

import (
	"context"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/repository/specification"

	"github.com/google/uuid"
)

type JournalRepository interface {
	Create(ctx context.Context, entry *entity.JournalEntry) error
	Update(ctx context.Context, entry *entity.JournalEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.JournalEntry, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.JournalEntry, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

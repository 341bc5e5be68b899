package contract

import (
	"context"

	"ai-companion-be/internal/entity"

	"github.com/google/uuid"
)

type UserContextRepository interface {
	FindByUser(ctx context.Context, userId uuid.UUID) (*entity.UserContext, error)
	// Upsert creates the row on first write and replaces objectives and focus
	// areas on subsequent writes.
	Upsert(ctx context.Context, userContext *entity.UserContext) error
}

package contract

import (
	"context"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ChatTurnRepository is append-only: turns are never updated or reordered.
type ChatTurnRepository interface {
	Create(ctx context.Context, turn *entity.ChatTurn) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatTurn, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// MaxSeq returns the highest sequence number in a session, 0 when empty.
	MaxSeq(ctx context.Context, sessionId uuid.UUID) (int, error)
	DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error
}

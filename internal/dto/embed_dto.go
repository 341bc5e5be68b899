package dto

import (
	"ai-companion-be/internal/entity"

	"github.com/google/uuid"
)

// PublishEmbedSourceMessage is the payload queued for the indexing consumer
// whenever a task, journal entry or note changes.
type PublishEmbedSourceMessage struct {
	Kind     entity.SourceKind `json:"kind"`
	SourceId uuid.UUID         `json:"source_id"`
	UserId   uuid.UUID         `json:"user_id"`
	Deleted  bool              `json:"deleted"`
}

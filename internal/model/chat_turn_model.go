package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ChatTurn rows are append-only: no UpdatedAt, no soft delete. Status is
// fixed at the moment the row is written.
type ChatTurn struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId uuid.UUID      `gorm:"type:uuid;not null;index:idx_chat_turns_session_seq,priority:1"`
	Role          string         `gorm:"type:varchar(20);not null"`
	Content       string         `gorm:"type:text;not null"`
	Status        string         `gorm:"type:varchar(20);not null;default:'complete'"`
	Seq           int            `gorm:"not null;index:idx_chat_turns_session_seq,priority:2"`
	Sources       datatypes.JSON `gorm:"type:jsonb"` // snapshot of []entity.ContextSource, assistant turns only
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
}

func (ChatTurn) TableName() string {
	return "chat_turns"
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// ChatTurn is one message within a session. Turns are append-only and
// immutable once persisted; Seq gives a total order that is assigned under
// the session lock, so a user turn always sorts before the assistant turn
// it provoked even when clocks are coarse.
type ChatTurn struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string // constant.ChatTurnRoleUser | constant.ChatTurnRoleAssistant
	Content       string
	Status        string // constant.ChatTurnStatusComplete | constant.ChatTurnStatusInterrupted
	Seq           int
	Sources       []ContextSource // assistant turns only
	CreatedAt     time.Time
}

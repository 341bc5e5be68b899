package dto

import (
	"time"

	"ai-companion-be/internal/entity"

	"github.com/google/uuid"
)

type ChatRequest struct {
	Message   string     `json:"message" validate:"required"`
	SessionId *uuid.UUID `json:"sessionId"`
	Stream    *bool      `json:"stream"` // defaults to true
}

// StreamRequested resolves the default: callers stream unless they opt out.
func (r *ChatRequest) StreamRequested() bool {
	return r.Stream == nil || *r.Stream
}

type ChatResponse struct {
	Response  string                 `json:"response"`
	SessionId uuid.UUID              `json:"sessionId"`
	Sources   []entity.ContextSource `json:"sources"`
}

type ChatSessionResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type ChatTurnResponse struct {
	Id        uuid.UUID              `json:"id"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Status    string                 `json:"status"`
	Sources   []entity.ContextSource `json:"sources,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type ChatHistoryResponse struct {
	SessionId uuid.UUID          `json:"session_id"`
	Turns     []ChatTurnResponse `json:"turns"`
}

type SuggestRequest struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit"`
}

type SuggestionResponse struct {
	Id        string            `json:"id"`
	Kind      entity.SourceKind `json:"kind"`
	Title     string            `json:"title"`
	Relevance float64           `json:"relevance"`
}

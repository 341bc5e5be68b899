package mapper

import (
	"encoding/json"
	"time"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) SessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		u := s.UpdatedAt
		updatedAt = &u
	}

	return &entity.ChatSession{
		Id:        s.Id,
		UserId:    s.UserId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ChatMapper) SessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:        s.Id,
		UserId:    s.UserId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ChatMapper) TurnToEntity(t *model.ChatTurn) *entity.ChatTurn {
	if t == nil {
		return nil
	}

	var sources []entity.ContextSource
	if len(t.Sources) > 0 {
		// A snapshot that no longer parses degrades to no sources.
		_ = json.Unmarshal(t.Sources, &sources)
	}

	return &entity.ChatTurn{
		Id:            t.Id,
		ChatSessionId: t.ChatSessionId,
		Role:          t.Role,
		Content:       t.Content,
		Status:        t.Status,
		Seq:           t.Seq,
		Sources:       sources,
		CreatedAt:     t.CreatedAt,
	}
}

func (m *ChatMapper) TurnToModel(t *entity.ChatTurn) *model.ChatTurn {
	if t == nil {
		return nil
	}

	var sources datatypes.JSON
	if len(t.Sources) > 0 {
		raw, err := json.Marshal(t.Sources)
		if err == nil {
			sources = datatypes.JSON(raw)
		}
	}

	return &model.ChatTurn{
		Id:            t.Id,
		ChatSessionId: t.ChatSessionId,
		Role:          t.Role,
		Content:       t.Content,
		Status:        t.Status,
		Seq:           t.Seq,
		Sources:       sources,
		CreatedAt:     t.CreatedAt,
	}
}

func (m *ChatMapper) TurnsToEntities(turns []*model.ChatTurn) []*entity.ChatTurn {
	entities := make([]*entity.ChatTurn, len(turns))
	for i, t := range turns {
		entities[i] = m.TurnToEntity(t)
	}
	return entities
}

func (m *ChatMapper) SessionsToEntities(sessions []*model.ChatSession) []*entity.ChatSession {
	entities := make([]*entity.ChatSession, len(sessions))
	for i, s := range sessions {
		entities[i] = m.SessionToEntity(s)
	}
	return entities
}

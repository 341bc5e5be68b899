package mapper

import (
	"time"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/model"
)

type JournalMapper struct{}

func NewJournalMapper() *JournalMapper {
	return &JournalMapper{}
}

func (m *JournalMapper) ToEntity(j *model.JournalEntry) *entity.JournalEntry {
	if j == nil {
		return nil
	}

	var updatedAt *time.Time
	if !j.UpdatedAt.IsZero() {
		u := j.UpdatedAt
		updatedAt = &u
	}

	return &entity.JournalEntry{
		Id:        j.Id,
		UserId:    j.UserId,
		Title:     j.Title,
		Content:   j.Content,
		Mood:      j.Mood,
		EntryDate: j.EntryDate,
		CreatedAt: j.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *JournalMapper) ToModel(j *entity.JournalEntry) *model.JournalEntry {
	if j == nil {
		return nil
	}

	var updatedAt time.Time
	if j.UpdatedAt != nil {
		updatedAt = *j.UpdatedAt
	}

	return &model.JournalEntry{
		Id:        j.Id,
		UserId:    j.UserId,
		Title:     j.Title,
		Content:   j.Content,
		Mood:      j.Mood,
		EntryDate: j.EntryDate,
		CreatedAt: j.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *JournalMapper) ToEntities(entries []*model.JournalEntry) []*entity.JournalEntry {
	entities := make([]*entity.JournalEntry, len(entries))
	for i, j := range entries {
		entities[i] = m.ToEntity(j)
	}
	return entities
}

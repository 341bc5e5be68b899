package mapper

import (
	"encoding/json"
	"time"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/model"

	"gorm.io/datatypes"
)

type UserContextMapper struct{}

func NewUserContextMapper() *UserContextMapper {
	return &UserContextMapper{}
}

func (m *UserContextMapper) ToEntity(c *model.UserContext) *entity.UserContext {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		u := c.UpdatedAt
		updatedAt = &u
	}

	var objectives, focusAreas []string
	if len(c.Objectives) > 0 {
		_ = json.Unmarshal(c.Objectives, &objectives)
	}
	if len(c.FocusAreas) > 0 {
		_ = json.Unmarshal(c.FocusAreas, &focusAreas)
	}

	return &entity.UserContext{
		Id:         c.Id,
		UserId:     c.UserId,
		Objectives: objectives,
		FocusAreas: focusAreas,
		UpdatedAt:  updatedAt,
	}
}

func (m *UserContextMapper) ToModel(c *entity.UserContext) *model.UserContext {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.UserContext{
		Id:         c.Id,
		UserId:     c.UserId,
		Objectives: marshalStrings(c.Objectives),
		FocusAreas: marshalStrings(c.FocusAreas),
		UpdatedAt:  updatedAt,
	}
}

func marshalStrings(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}

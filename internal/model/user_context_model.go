package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserContext struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	Objectives datatypes.JSON `gorm:"type:jsonb"`
	FocusAreas datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
}

func (UserContext) TableName() string {
	return "user_contexts"
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

// UserContext is the persistent, always-on objective context owned by the
// user. The chat pipeline loads it read-only on every request; it is only
// mutated through the settings path.
type UserContext struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	Objectives []string
	FocusAreas []string
	UpdatedAt  *time.Time
}

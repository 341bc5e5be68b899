package entity

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	Title       string
	Description string
	Status      string // "pending" | "in_progress" | "done"
	Priority    int    // higher is more urgent
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

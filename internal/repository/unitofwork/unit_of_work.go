package unitofwork

import (
	"context"

	"ai-companion-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	TaskRepository() contract.TaskRepository
	JournalRepository() contract.JournalRepository
	NoteRepository() contract.NoteRepository
	SourceEmbeddingRepository() contract.SourceEmbeddingRepository

	ChatSessionRepository() contract.ChatSessionRepository
	ChatTurnRepository() contract.ChatTurnRepository
	UserContextRepository() contract.UserContextRepository
}

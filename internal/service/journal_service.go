package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/specification"
	"ai-companion-be/internal/repository/unitofwork"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IJournalService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateJournalRequest) (*dto.JournalResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.JournalResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.JournalResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type journalService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	log              logger.ILogger
}

func NewJournalService(uowFactory unitofwork.RepositoryFactory, publisherService IPublisherService, log logger.ILogger) IJournalService {
	return &journalService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		log:              log,
	}
}

func (s *journalService) queueIndexing(ctx context.Context, sourceId, userId uuid.UUID, deleted bool) {
	payload, err := json.Marshal(dto.PublishEmbedSourceMessage{
		Kind:     entity.SourceKindJournal,
		SourceId: sourceId,
		UserId:   userId,
		Deleted:  deleted,
	})
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.log.Warn("journal", "failed to queue source for indexing", map[string]interface{}{
			"source_id": sourceId.String(),
			"error":     err.Error(),
		})
	}
}

func (s *journalService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateJournalRequest) (*dto.JournalResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	entryDate := time.Now()
	if req.EntryDate != nil {
		entryDate = *req.EntryDate
	}

	entry := entity.JournalEntry{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     req.Title,
		Content:   req.Content,
		Mood:      req.Mood,
		EntryDate: entryDate,
		CreatedAt: time.Now(),
	}

	if err := uow.JournalRepository().Create(ctx, &entry); err != nil {
		return nil, err
	}

	s.queueIndexing(ctx, entry.Id, userId, false)

	return journalToResponse(&entry), nil
}

func (s *journalService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.JournalResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	entry, err := uow.JournalRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "journal entry not found")
	}
	return journalToResponse(entry), nil
}

func (s *journalService) List(ctx context.Context, userId uuid.UUID) ([]*dto.JournalResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	entries, err := uow.JournalRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "entry_date", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.JournalResponse, len(entries))
	for i, e := range entries {
		responses[i] = journalToResponse(e)
	}
	return responses, nil
}

func (s *journalService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	entry, err := uow.JournalRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if entry == nil {
		return fiber.NewError(fiber.StatusNotFound, "journal entry not found")
	}

	if err := uow.JournalRepository().Delete(ctx, id); err != nil {
		return err
	}

	s.queueIndexing(ctx, id, userId, true)
	return nil
}

func journalToResponse(e *entity.JournalEntry) *dto.JournalResponse {
	return &dto.JournalResponse{
		Id:        e.Id,
		Title:     e.Title,
		Content:   e.Content,
		Mood:      e.Mood,
		EntryDate: e.EntryDate,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

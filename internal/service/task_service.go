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

type ITaskService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.TaskResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.TaskResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type taskService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	log              logger.ILogger
}

func NewTaskService(uowFactory unitofwork.RepositoryFactory, publisherService IPublisherService, log logger.ILogger) ITaskService {
	return &taskService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		log:              log,
	}
}

func (s *taskService) queueIndexing(ctx context.Context, kind entity.SourceKind, sourceId, userId uuid.UUID, deleted bool) {
	payload, err := json.Marshal(dto.PublishEmbedSourceMessage{
		Kind:     kind,
		SourceId: sourceId,
		UserId:   userId,
		Deleted:  deleted,
	})
	if err != nil {
		return
	}
	// Indexing is auxiliary, a publish failure never fails the request.
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.log.Warn("task", "failed to queue source for indexing", map[string]interface{}{
			"source_id": sourceId.String(),
			"error":     err.Error(),
		})
	}
}

func (s *taskService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	status := req.Status
	if status == "" {
		status = "pending"
	}

	task := entity.Task{
		Id:          uuid.New(),
		UserId:      userId,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		CreatedAt:   time.Now(),
	}

	if err := uow.TaskRepository().Create(ctx, &task); err != nil {
		return nil, err
	}

	s.queueIndexing(ctx, entity.SourceKindTask, task.Id, userId, false)

	return taskToResponse(&task), nil
}

func (s *taskService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.TaskResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	task, err := uow.TaskRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "task not found")
	}
	return taskToResponse(task), nil
}

func (s *taskService) List(ctx context.Context, userId uuid.UUID) ([]*dto.TaskResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	tasks, err := uow.TaskRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.TaskResponse, len(tasks))
	for i, t := range tasks {
		responses[i] = taskToResponse(t)
	}
	return responses, nil
}

func (s *taskService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	task, err := uow.TaskRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "task not found")
	}

	task.Title = req.Title
	task.Description = req.Description
	if req.Status != "" {
		task.Status = req.Status
	}
	task.Priority = req.Priority
	task.DueDate = req.DueDate

	if err := uow.TaskRepository().Update(ctx, task); err != nil {
		return nil, err
	}

	s.queueIndexing(ctx, entity.SourceKindTask, task.Id, userId, false)

	return taskToResponse(task), nil
}

func (s *taskService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	task, err := uow.TaskRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if task == nil {
		return fiber.NewError(fiber.StatusNotFound, "task not found")
	}

	if err := uow.TaskRepository().Delete(ctx, id); err != nil {
		return err
	}

	s.queueIndexing(ctx, entity.SourceKindTask, id, userId, true)
	return nil
}

func taskToResponse(t *entity.Task) *dto.TaskResponse {
	return &dto.TaskResponse{
		Id:          t.Id,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

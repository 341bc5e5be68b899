package service

import (
	"context"
	"time"

	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IContextService interface {
	Show(ctx context.Context, userId uuid.UUID) (*dto.UserContextResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateUserContextRequest) (*dto.UserContextResponse, error)
}

// contextService manages the persistent objective context. The chat pipeline
// reads it on every request; only this path writes it.
type contextService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewContextService(uowFactory unitofwork.RepositoryFactory) IContextService {
	return &contextService{
		uowFactory: uowFactory,
	}
}

func (s *contextService) Show(ctx context.Context, userId uuid.UUID) (*dto.UserContextResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	userContext, err := uow.UserContextRepository().FindByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if userContext == nil {
		// No row yet, an empty context is a valid state.
		return &dto.UserContextResponse{
			Objectives: []string{},
			FocusAreas: []string{},
		}, nil
	}
	return contextToResponse(userContext), nil
}

func (s *contextService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateUserContextRequest) (*dto.UserContextResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	now := time.Now()
	userContext := &entity.UserContext{
		UserId:     userId,
		Objectives: req.Objectives,
		FocusAreas: req.FocusAreas,
		UpdatedAt:  &now,
	}

	if err := uow.UserContextRepository().Upsert(ctx, userContext); err != nil {
		return nil, err
	}

	return contextToResponse(userContext), nil
}

func contextToResponse(c *entity.UserContext) *dto.UserContextResponse {
	objectives := c.Objectives
	if objectives == nil {
		objectives = []string{}
	}
	focusAreas := c.FocusAreas
	if focusAreas == nil {
		focusAreas = []string{}
	}
	return &dto.UserContextResponse{
		Objectives: objectives,
		FocusAreas: focusAreas,
		UpdatedAt:  c.UpdatedAt,
	}
}

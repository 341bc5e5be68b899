package implementation

import (
	"context"
	"errors"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/mapper"
	"ai-companion-be/internal/model"
	"ai-companion-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserContextRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserContextMapper
}

func NewUserContextRepository(db *gorm.DB) contract.UserContextRepository {
	return &UserContextRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserContextMapper(),
	}
}

func (r *UserContextRepositoryImpl) FindByUser(ctx context.Context, userId uuid.UUID) (*entity.UserContext, error) {
	var m model.UserContext
	err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *UserContextRepositoryImpl) Upsert(ctx context.Context, userContext *entity.UserContext) error {
	if userContext.Id == uuid.Nil {
		userContext.Id = uuid.New()
	}
	m := r.mapper.ToModel(userContext)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"objectives", "focus_areas", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*userContext = *r.mapper.ToEntity(m)
	return nil
}

package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/types"
)

type StoryModelRepo interface {
	Create(ctx context.Context, tx *gorm.DB, models []*types.StoryModel) ([]*types.StoryModel, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.StoryModel, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.StoryModel, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.StoryModel, error)
}

type storyModelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStoryModelRepo(db *gorm.DB, baseLog *logger.Logger) StoryModelRepo {
	repoLog := baseLog.With("repo", "StoryModelRepo")
	return &storyModelRepo{db: db, log: repoLog}
}

func (r *storyModelRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *storyModelRepo) Create(ctx context.Context, tx *gorm.DB, models []*types.StoryModel) ([]*types.StoryModel, error) {
	if len(models) == 0 {
		return []*types.StoryModel{}, nil
	}
	if err := r.conn(tx).WithContext(ctx).Create(&models).Error; err != nil {
		return nil, err
	}
	return models, nil
}

func (r *storyModelRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.StoryModel, error) {
	var result types.StoryModel
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *storyModelRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.StoryModel, error) {
	var result types.StoryModel
	err := r.conn(tx).WithContext(ctx).Where("name = ?", name).First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *storyModelRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.StoryModel, error) {
	var results []*types.StoryModel
	if err := r.conn(tx).WithContext(ctx).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

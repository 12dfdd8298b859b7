package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/types"
)

type TemplateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, templates []*types.Template) ([]*types.Template, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Template, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Template, error)
	ListByStoryModel(ctx context.Context, tx *gorm.DB, storyModelID uuid.UUID) ([]*types.Template, error)
	Save(ctx context.Context, tx *gorm.DB, template *types.Template) error
}

type templateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	repoLog := baseLog.With("repo", "TemplateRepo")
	return &templateRepo{db: db, log: repoLog}
}

func (r *templateRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *templateRepo) Create(ctx context.Context, tx *gorm.DB, templates []*types.Template) ([]*types.Template, error) {
	if len(templates) == 0 {
		return []*types.Template{}, nil
	}
	if err := r.conn(tx).WithContext(ctx).Create(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Template, error) {
	var result types.Template
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *templateRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Template, error) {
	var results []*types.Template
	if err := r.conn(tx).WithContext(ctx).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *templateRepo) ListByStoryModel(ctx context.Context, tx *gorm.DB, storyModelID uuid.UUID) ([]*types.Template, error) {
	var results []*types.Template
	if err := r.conn(tx).WithContext(ctx).
		Where("story_model_id = ?", storyModelID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *templateRepo) Save(ctx context.Context, tx *gorm.DB, template *types.Template) error {
	return r.conn(tx).WithContext(ctx).Save(template).Error
}

package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/types"
)

type SectionBindingRepo interface {
	Create(ctx context.Context, tx *gorm.DB, bindings []*types.SectionBinding) ([]*types.SectionBinding, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SectionBinding, error)
	ListByTemplate(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) ([]*types.SectionBinding, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type sectionBindingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSectionBindingRepo(db *gorm.DB, baseLog *logger.Logger) SectionBindingRepo {
	repoLog := baseLog.With("repo", "SectionBindingRepo")
	return &sectionBindingRepo{db: db, log: repoLog}
}

func (r *sectionBindingRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *sectionBindingRepo) Create(ctx context.Context, tx *gorm.DB, bindings []*types.SectionBinding) ([]*types.SectionBinding, error) {
	if len(bindings) == 0 {
		return []*types.SectionBinding{}, nil
	}
	if err := r.conn(tx).WithContext(ctx).Create(&bindings).Error; err != nil {
		return nil, err
	}
	return bindings, nil
}

func (r *sectionBindingRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SectionBinding, error) {
	var result types.SectionBinding
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *sectionBindingRepo) ListByTemplate(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) ([]*types.SectionBinding, error) {
	var results []*types.SectionBinding
	if err := r.conn(tx).WithContext(ctx).
		Where("template_id = ?", templateID).
		Order("section_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sectionBindingRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.SectionBinding{}).Error
}

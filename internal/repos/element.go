package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/types"
)

type ElementFilter struct {
	LayerID *uuid.UUID
	Status  *types.ElementStatus
	Name    string
}

type ElementRepo interface {
	Create(ctx context.Context, tx *gorm.DB, elements []*types.Element) ([]*types.Element, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Element, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Element, error)
	ListByName(ctx context.Context, tx *gorm.DB, name string) ([]*types.Element, error)
	List(ctx context.Context, tx *gorm.DB, filter ElementFilter) ([]*types.Element, error)
	Save(ctx context.Context, tx *gorm.DB, element *types.Element) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.ElementStatus) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type elementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewElementRepo(db *gorm.DB, baseLog *logger.Logger) ElementRepo {
	repoLog := baseLog.With("repo", "ElementRepo")
	return &elementRepo{db: db, log: repoLog}
}

func (r *elementRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *elementRepo) Create(ctx context.Context, tx *gorm.DB, elements []*types.Element) ([]*types.Element, error) {
	if len(elements) == 0 {
		return []*types.Element{}, nil
	}
	if err := r.conn(tx).WithContext(ctx).Create(&elements).Error; err != nil {
		return nil, err
	}
	return elements, nil
}

func (r *elementRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Element, error) {
	var result types.Element
	err := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *elementRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Element, error) {
	var results []*types.Element
	if len(ids) == 0 {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *elementRepo) ListByName(ctx context.Context, tx *gorm.DB, name string) ([]*types.Element, error) {
	var results []*types.Element
	if err := r.conn(tx).WithContext(ctx).
		Where("name = ?", name).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *elementRepo) List(ctx context.Context, tx *gorm.DB, filter ElementFilter) ([]*types.Element, error) {
	q := r.conn(tx).WithContext(ctx).Model(&types.Element{})
	if filter.LayerID != nil {
		q = q.Where("layer_id = ?", *filter.LayerID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Name != "" {
		q = q.Where("name = ?", filter.Name)
	}

	var results []*types.Element
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *elementRepo) Save(ctx context.Context, tx *gorm.DB, element *types.Element) error {
	return r.conn(tx).WithContext(ctx).Save(element).Error
}

func (r *elementRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.ElementStatus) error {
	return r.conn(tx).WithContext(ctx).
		Model(&types.Element{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *elementRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Element{}).Error
}

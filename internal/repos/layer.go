package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/types"
)

type LayerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, layers []*types.Layer) ([]*types.Layer, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Layer, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Layer, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Layer, error)
}

type layerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLayerRepo(db *gorm.DB, baseLog *logger.Logger) LayerRepo {
	repoLog := baseLog.With("repo", "LayerRepo")
	return &layerRepo{db: db, log: repoLog}
}

func (r *layerRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *layerRepo) Create(ctx context.Context, tx *gorm.DB, layers []*types.Layer) ([]*types.Layer, error) {
	if len(layers) == 0 {
		return []*types.Layer{}, nil
	}
	if err := r.conn(tx).WithContext(ctx).Create(&layers).Error; err != nil {
		return nil, err
	}
	return layers, nil
}

func (r *layerRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Layer, error) {
	var result types.Layer
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *layerRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Layer, error) {
	var result types.Layer
	err := r.conn(tx).WithContext(ctx).Where("name = ?", name).First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *layerRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Layer, error) {
	var results []*types.Layer
	if err := r.conn(tx).WithContext(ctx).
		Order("order_index ASC, name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

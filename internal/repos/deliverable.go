package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/types"
)

type DeliverableRepo interface {
	Create(ctx context.Context, tx *gorm.DB, deliverables []*types.Deliverable) ([]*types.Deliverable, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Deliverable, error)
	List(ctx context.Context, tx *gorm.DB, status *types.DeliverableStatus) ([]*types.Deliverable, error)
	Save(ctx context.Context, tx *gorm.DB, deliverable *types.Deliverable) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.DeliverableStatus) error
}

type deliverableRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeliverableRepo(db *gorm.DB, baseLog *logger.Logger) DeliverableRepo {
	repoLog := baseLog.With("repo", "DeliverableRepo")
	return &deliverableRepo{db: db, log: repoLog}
}

func (r *deliverableRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *deliverableRepo) Create(ctx context.Context, tx *gorm.DB, deliverables []*types.Deliverable) ([]*types.Deliverable, error) {
	if len(deliverables) == 0 {
		return []*types.Deliverable{}, nil
	}
	if err := r.conn(tx).WithContext(ctx).Create(&deliverables).Error; err != nil {
		return nil, err
	}
	return deliverables, nil
}

func (r *deliverableRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Deliverable, error) {
	var result types.Deliverable
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *deliverableRepo) List(ctx context.Context, tx *gorm.DB, status *types.DeliverableStatus) ([]*types.Deliverable, error) {
	q := r.conn(tx).WithContext(ctx).Model(&types.Deliverable{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var results []*types.Deliverable
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *deliverableRepo) Save(ctx context.Context, tx *gorm.DB, deliverable *types.Deliverable) error {
	return r.conn(tx).WithContext(ctx).Save(deliverable).Error
}

func (r *deliverableRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.DeliverableStatus) error {
	return r.conn(tx).WithContext(ctx).
		Model(&types.Deliverable{}).
		Where("id = ?", id).
		Update("status", status).Error
}

package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/types"
)

type VoiceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, voices []*types.Voice) ([]*types.Voice, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Voice, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Voice, error)
	Save(ctx context.Context, tx *gorm.DB, voice *types.Voice) error
}

type voiceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVoiceRepo(db *gorm.DB, baseLog *logger.Logger) VoiceRepo {
	repoLog := baseLog.With("repo", "VoiceRepo")
	return &voiceRepo{db: db, log: repoLog}
}

func (r *voiceRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *voiceRepo) Create(ctx context.Context, tx *gorm.DB, voices []*types.Voice) ([]*types.Voice, error) {
	if len(voices) == 0 {
		return []*types.Voice{}, nil
	}
	if err := r.conn(tx).WithContext(ctx).Create(&voices).Error; err != nil {
		return nil, err
	}
	return voices, nil
}

func (r *voiceRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Voice, error) {
	var result types.Voice
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *voiceRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Voice, error) {
	var results []*types.Voice
	if err := r.conn(tx).WithContext(ctx).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *voiceRepo) Save(ctx context.Context, tx *gorm.DB, voice *types.Voice) error {
	return r.conn(tx).WithContext(ctx).Save(voice).Error
}

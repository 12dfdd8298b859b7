package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/storyos/storyos-backend/internal/apperr"
	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/repos"
	"github.com/storyos/storyos-backend/internal/types"
)

type StoryModelService interface {
	Create(ctx context.Context, model *types.StoryModel) (*types.StoryModel, error)
	Get(ctx context.Context, id uuid.UUID) (*types.StoryModel, error)
	GetByName(ctx context.Context, name string) (*types.StoryModel, error)
	List(ctx context.Context) ([]*types.StoryModel, error)
}

type storyModelService struct {
	log    *logger.Logger
	models repos.StoryModelRepo
}

func NewStoryModelService(models repos.StoryModelRepo, baseLog *logger.Logger) StoryModelService {
	return &storyModelService{
		log:    baseLog.With("service", "StoryModelService"),
		models: models,
	}
}

func (s *storyModelService) Create(ctx context.Context, model *types.StoryModel) (*types.StoryModel, error) {
	if strings.TrimSpace(model.Name) == "" {
		return nil, fmt.Errorf("story model name is required")
	}
	if len(model.Sections) == 0 {
		return nil, fmt.Errorf("story model needs at least one section")
	}
	for i := range model.Sections {
		sec := &model.Sections[i]
		if strings.TrimSpace(sec.Name) == "" {
			return nil, fmt.Errorf("section %d: name is required", i)
		}
		if sec.TransformProfile != "" && !ValidProfileKind(sec.TransformProfile) {
			return nil, fmt.Errorf("section %q: unknown transform profile %q", sec.Name, sec.TransformProfile)
		}
	}
	sort.SliceStable(model.Sections, func(i, j int) bool {
		return model.Sections[i].Order < model.Sections[j].Order
	})

	created, err := s.models.Create(ctx, nil, []*types.StoryModel{model})
	if err != nil {
		return nil, fmt.Errorf("create story model: %w", err)
	}
	s.log.Info("story model created", "id", created[0].ID, "name", model.Name, "sections", len(model.Sections))
	return created[0], nil
}

func (s *storyModelService) Get(ctx context.Context, id uuid.UUID) (*types.StoryModel, error) {
	model, err := s.models.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("load story model: %w", err)
	}
	if model == nil {
		return nil, fmt.Errorf("story model %s: %w", id, apperr.ErrNotFound)
	}
	return model, nil
}

func (s *storyModelService) GetByName(ctx context.Context, name string) (*types.StoryModel, error) {
	model, err := s.models.GetByName(ctx, nil, name)
	if err != nil {
		return nil, fmt.Errorf("load story model: %w", err)
	}
	if model == nil {
		return nil, fmt.Errorf("story model %q: %w", name, apperr.ErrNotFound)
	}
	return model, nil
}

func (s *storyModelService) List(ctx context.Context) ([]*types.StoryModel, error) {
	return s.models.List(ctx, nil)
}

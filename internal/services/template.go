package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/storyos/storyos-backend/internal/apperr"
	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/repos"
	"github.com/storyos/storyos-backend/internal/types"
)

type TemplateService interface {
	Create(ctx context.Context, tmpl *types.Template) (*types.Template, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Template, error)
	List(ctx context.Context) ([]*types.Template, error)
	ListByStoryModel(ctx context.Context, storyModelID uuid.UUID) ([]*types.Template, error)

	CreateBinding(ctx context.Context, templateID uuid.UUID, sectionName string, elementIDs []uuid.UUID, rules *types.BindingRule) (*types.SectionBinding, error)
	ListBindings(ctx context.Context, templateID uuid.UUID) ([]*types.SectionBinding, error)
	DeleteBinding(ctx context.Context, id uuid.UUID) error
}

type templateService struct {
	log       *logger.Logger
	templates repos.TemplateRepo
	bindings  repos.SectionBindingRepo
	models    repos.StoryModelRepo
	voices    repos.VoiceRepo
	elements  repos.ElementRepo
}

func NewTemplateService(
	templates repos.TemplateRepo,
	bindings repos.SectionBindingRepo,
	models repos.StoryModelRepo,
	voices repos.VoiceRepo,
	elements repos.ElementRepo,
	baseLog *logger.Logger,
) TemplateService {
	return &templateService{
		log:       baseLog.With("service", "TemplateService"),
		templates: templates,
		bindings:  bindings,
		models:    models,
		voices:    voices,
		elements:  elements,
	}
}

func (s *templateService) Create(ctx context.Context, tmpl *types.Template) (*types.Template, error) {
	if strings.TrimSpace(tmpl.Name) == "" {
		return nil, fmt.Errorf("template name is required")
	}
	model, err := s.models.GetByID(ctx, nil, tmpl.StoryModelID)
	if err != nil {
		return nil, fmt.Errorf("load story model: %w", err)
	}
	if model == nil {
		return nil, fmt.Errorf("story model %s: %w", tmpl.StoryModelID, apperr.ErrNotFound)
	}
	voice, err := s.voices.GetByID(ctx, nil, tmpl.DefaultVoiceID)
	if err != nil {
		return nil, fmt.Errorf("load voice: %w", err)
	}
	if voice == nil {
		return nil, fmt.Errorf("voice %s: %w", tmpl.DefaultVoiceID, apperr.ErrNotFound)
	}
	for section, profile := range tmpl.ProfileOverrides {
		if !ValidProfileKind(profile) {
			return nil, fmt.Errorf("profile override for %q: unknown profile %q", section, profile)
		}
		if model.SectionByName(section) == nil {
			return nil, fmt.Errorf("profile override for %q: story model %q has no such section", section, model.Name)
		}
	}

	if tmpl.Version == "" {
		tmpl.Version = "1.0"
	}
	if tmpl.Status == "" {
		tmpl.Status = types.TemplateStatusDraft
	}
	created, err := s.templates.Create(ctx, nil, []*types.Template{tmpl})
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	s.log.Info("template created", "id", created[0].ID, "name", tmpl.Name, "story_model", model.Name)
	return created[0], nil
}

func (s *templateService) Get(ctx context.Context, id uuid.UUID) (*types.Template, error) {
	tmpl, err := s.templates.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if tmpl == nil {
		return nil, fmt.Errorf("template %s: %w", id, apperr.ErrNotFound)
	}
	return tmpl, nil
}

func (s *templateService) List(ctx context.Context) ([]*types.Template, error) {
	return s.templates.List(ctx, nil)
}

func (s *templateService) ListByStoryModel(ctx context.Context, storyModelID uuid.UUID) ([]*types.Template, error) {
	return s.templates.ListByStoryModel(ctx, nil, storyModelID)
}

// CreateBinding attaches elements to a template section. Every referenced
// element's family must hold an approved version somewhere in its chain,
// otherwise the binding would point at content that can never render.
func (s *templateService) CreateBinding(ctx context.Context, templateID uuid.UUID, sectionName string, elementIDs []uuid.UUID, rules *types.BindingRule) (*types.SectionBinding, error) {
	tmpl, err := s.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	model, err := s.models.GetByID(ctx, nil, tmpl.StoryModelID)
	if err != nil {
		return nil, fmt.Errorf("load story model: %w", err)
	}
	if model == nil {
		return nil, fmt.Errorf("story model %s: %w", tmpl.StoryModelID, apperr.ErrNotFound)
	}
	section := model.SectionByName(sectionName)
	if section == nil {
		return nil, fmt.Errorf("story model %q has no section %q", model.Name, sectionName)
	}

	for _, elementID := range elementIDs {
		element, err := s.elements.GetByID(ctx, nil, elementID)
		if err != nil {
			return nil, fmt.Errorf("load element: %w", err)
		}
		if element == nil {
			return nil, fmt.Errorf("element %s: %w", elementID, apperr.ErrNotFound)
		}
		family, err := s.elements.ListByName(ctx, nil, element.Name)
		if err != nil {
			return nil, fmt.Errorf("list family %q: %w", element.Name, err)
		}
		if !familyHasApproved(family) {
			return nil, &apperr.BindingRejectedError{ElementName: element.Name}
		}
	}

	binding := &types.SectionBinding{
		TemplateID:   templateID,
		SectionName:  sectionName,
		SectionOrder: section.Order,
		ElementIDs:   elementIDs,
		BindingRules: rules,
	}
	created, err := s.bindings.Create(ctx, nil, []*types.SectionBinding{binding})
	if err != nil {
		return nil, fmt.Errorf("create binding: %w", err)
	}
	s.log.Info("binding created", "template_id", templateID, "section", sectionName, "elements", len(elementIDs))
	return created[0], nil
}

func (s *templateService) ListBindings(ctx context.Context, templateID uuid.UUID) ([]*types.SectionBinding, error) {
	return s.bindings.ListByTemplate(ctx, nil, templateID)
}

func (s *templateService) DeleteBinding(ctx context.Context, id uuid.UUID) error {
	binding, err := s.bindings.GetByID(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("load binding: %w", err)
	}
	if binding == nil {
		return fmt.Errorf("binding %s: %w", id, apperr.ErrNotFound)
	}
	return s.bindings.Delete(ctx, nil, id)
}

func familyHasApproved(family []*types.Element) bool {
	for _, member := range family {
		if member.Status == types.ElementStatusApproved {
			return true
		}
	}
	return false
}

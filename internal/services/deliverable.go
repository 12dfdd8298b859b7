package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/storyos/storyos-backend/internal/apperr"
	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/repos"
	"github.com/storyos/storyos-backend/internal/types"
	"github.com/storyos/storyos-backend/internal/version"
)

// elementMode selects which version of each bound element a render uses.
type elementMode int

const (
	// modeApproved resolves every bound element to its family's current
	// approved version. Used by create, refresh and update.
	modeApproved elementMode = iota
	// modeDraftPreferred substitutes the highest draft sharing the
	// element's name when one exists. Used only by preview.
	modeDraftPreferred
)

// DeliverableUpdate carries the mutable references for update. A story model
// switch must arrive together with a template bound to that story model;
// bindings are structure-specific.
type DeliverableUpdate struct {
	VoiceID      *uuid.UUID
	TemplateID   *uuid.UUID
	StoryModelID *uuid.UUID
	InstanceData map[string]string
}

// PreviewResult pairs a throwaway render against the persisted content.
type PreviewResult struct {
	Preview    map[string]string `json:"preview"`
	Original   map[string]string `json:"original"`
	DraftsUsed []string          `json:"drafts_used"`
}

type DeliverableService interface {
	Create(ctx context.Context, name string, templateID, voiceID, storyModelID uuid.UUID, instanceData map[string]string) (*types.Deliverable, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Deliverable, error)
	GetAlerts(ctx context.Context, id uuid.UUID) ([]types.ImpactAlert, error)
	List(ctx context.Context, status *types.DeliverableStatus) ([]*types.Deliverable, error)
	Refresh(ctx context.Context, id uuid.UUID, force bool) (*types.Deliverable, error)
	Preview(ctx context.Context, id uuid.UUID) (*PreviewResult, error)
	Update(ctx context.Context, id uuid.UUID, changes DeliverableUpdate) (*types.Deliverable, error)
	Validate(ctx context.Context, id uuid.UUID) ([]types.ValidationLogEntry, error)
}

type deliverableService struct {
	log          *logger.Logger
	db           *gorm.DB
	deliverables repos.DeliverableRepo
	templates    repos.TemplateRepo
	bindings     repos.SectionBindingRepo
	models       repos.StoryModelRepo
	voices       repos.VoiceRepo
	elements     repos.ElementRepo

	composer    *Composer
	transformer *Transformer
	alerts      *AlertResolver
	validator   *Validator
}

func NewDeliverableService(
	db *gorm.DB,
	deliverables repos.DeliverableRepo,
	templates repos.TemplateRepo,
	bindings repos.SectionBindingRepo,
	models repos.StoryModelRepo,
	voices repos.VoiceRepo,
	elements repos.ElementRepo,
	composer *Composer,
	transformer *Transformer,
	alerts *AlertResolver,
	validator *Validator,
	baseLog *logger.Logger,
) DeliverableService {
	return &deliverableService{
		log:          baseLog.With("service", "DeliverableService"),
		db:           db,
		deliverables: deliverables,
		templates:    templates,
		bindings:     bindings,
		models:       models,
		voices:       voices,
		elements:     elements,
		composer:     composer,
		transformer:  transformer,
		alerts:       alerts,
		validator:    validator,
	}
}

func (s *deliverableService) txRun(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.db == nil {
		return fn(nil)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// ---------------------------------------------------------------------------
// Render pipeline
// ---------------------------------------------------------------------------

type renderResult struct {
	Rendered        map[string]string
	ElementVersions map[string]string
	BoundElements   map[string][]string
	Rationales      map[string]string
	FilterFailures  []string
	DraftsUsed      []string
}

// render runs the full composition walk: for every section binding, resolve
// elements per mode, compose, then transform. Sections only share the same
// read-only element snapshot, so the transform calls run concurrently.
func (s *deliverableService) render(ctx context.Context, tmpl *types.Template, model *types.StoryModel, voice *types.Voice, instanceData map[string]string, mode elementMode) (*renderResult, error) {
	bindings, err := s.bindings.ListByTemplate(ctx, nil, tmpl.ID)
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}

	res := &renderResult{
		Rendered:        map[string]string{},
		ElementVersions: map[string]string{},
		BoundElements:   map[string][]string{},
		Rationales:      map[string]string{},
	}
	draftsUsed := map[string]bool{}

	type sectionJob struct {
		section  *types.Section
		composed string
		profile  Profile
	}
	jobs := make([]sectionJob, 0, len(bindings))
	names := make([]string, 0, len(bindings))

	for _, binding := range bindings {
		section := model.SectionByName(binding.SectionName)

		resolved, substituted, err := s.resolveElements(ctx, binding.ElementIDs, mode)
		if err != nil {
			return nil, err
		}
		for _, el := range resolved {
			res.ElementVersions[el.ID.String()] = el.Version
			res.BoundElements[binding.SectionName] = append(res.BoundElements[binding.SectionName], el.Name)
		}
		for _, name := range substituted {
			draftsUsed[name] = true
		}

		composed, err := s.composer.ComposeSection(section, binding, resolved, instanceData)
		if err != nil {
			return nil, fmt.Errorf("compose section %q: %w", binding.SectionName, err)
		}

		templateOverride := ""
		if tmpl.ProfileOverrides != nil {
			templateOverride = tmpl.ProfileOverrides[binding.SectionName]
		}
		storyModelOverride := ""
		if section != nil {
			storyModelOverride = section.TransformProfile
		}
		profile := ResolveProfile(binding.SectionName, templateOverride, storyModelOverride)

		if section == nil {
			section = &types.Section{Name: binding.SectionName}
		}
		jobs = append(jobs, sectionJob{section: section, composed: composed, profile: profile})
		names = append(names, binding.SectionName)
	}

	outcomes := make([]TransformOutcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i := range jobs {
		i := i
		g.Go(func() error {
			outcomes[i] = s.transformer.TransformSection(gctx, jobs[i].section, jobs[i].composed, voice, jobs[i].profile)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, out := range outcomes {
		res.Rendered[names[i]] = out.Text
		if out.Rationale != "" {
			res.Rationales[names[i]] = out.Rationale
		}
		if out.FilterFailed {
			res.FilterFailures = append(res.FilterFailures, names[i])
		}
	}
	for name := range draftsUsed {
		res.DraftsUsed = append(res.DraftsUsed, name)
	}
	return res, nil
}

// resolveElements maps bound element ids onto the versions a render should
// use. In approved mode each id resolves to its family's current approved
// version (skipped entirely when the family has none). In draft-preferred
// mode the highest draft sharing the name wins; the returned names list the
// families where a draft was substituted.
func (s *deliverableService) resolveElements(ctx context.Context, ids []uuid.UUID, mode elementMode) ([]*types.Element, []string, error) {
	var resolved []*types.Element
	var substituted []string

	for _, id := range ids {
		bound, err := s.elements.GetByID(ctx, nil, id)
		if err != nil {
			return nil, nil, fmt.Errorf("load element: %w", err)
		}
		if bound == nil {
			return nil, nil, fmt.Errorf("element %s: %w", id, apperr.ErrNotFound)
		}
		family, err := s.elements.ListByName(ctx, nil, bound.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("list family %q: %w", bound.Name, err)
		}

		if mode == modeDraftPreferred {
			if draft := highestByStatus(family, types.ElementStatusDraft); draft != nil {
				resolved = append(resolved, draft)
				if draft.ID != bound.ID {
					substituted = append(substituted, bound.Name)
				}
				continue
			}
			resolved = append(resolved, bound)
			continue
		}

		if approved := highestByStatus(family, types.ElementStatusApproved); approved != nil {
			resolved = append(resolved, approved)
			continue
		}
		s.log.Warn("element family has no approved version, section composes without it", "name", bound.Name)
	}
	return resolved, substituted, nil
}

func highestByStatus(family []*types.Element, status types.ElementStatus) *types.Element {
	var best *types.Element
	for _, member := range family {
		if member.Status != status {
			continue
		}
		if best == nil || version.Newer(member.Version, best.Version) {
			best = member
		}
	}
	return best
}

func renderMetadata(res *renderResult) []byte {
	meta := map[string]any{}
	if len(res.FilterFailures) > 0 {
		meta["filter_failures"] = res.FilterFailures
	}
	if len(res.Rationales) > 0 {
		meta["transformation_notes"] = res.Rationales
	}
	if len(meta) == 0 {
		return nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil
	}
	return raw
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// Create instantiates a template into deliverable v1: full render against
// approved element versions, validation, then persist with provenance
// snapshots (element versions, voice version, template version).
func (s *deliverableService) Create(ctx context.Context, name string, templateID, voiceID, storyModelID uuid.UUID, instanceData map[string]string) (*types.Deliverable, error) {
	tmpl, model, voice, err := s.loadRenderConfig(ctx, templateID, voiceID, storyModelID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = tmpl.Name
	}

	res, err := s.render(ctx, tmpl, model, voice, instanceData, modeApproved)
	if err != nil {
		return nil, err
	}
	entries := s.validator.Validate(ValidationInput{
		Model:         model,
		Template:      tmpl,
		Rendered:      res.Rendered,
		InstanceData:  instanceData,
		BoundElements: res.BoundElements,
	})
	if err := s.validator.Gate(entries); err != nil {
		return nil, err
	}

	d := &types.Deliverable{
		Name:            name,
		TemplateID:      tmpl.ID,
		TemplateVersion: tmpl.Version,
		StoryModelID:    model.ID,
		VoiceID:         voice.ID,
		VoiceVersion:    voice.Version,
		Status:          types.DeliverableStatusDraft,
		Version:         1,
		InstanceData:    instanceData,
		ElementVersions: res.ElementVersions,
		RenderedContent: res.Rendered,
		ValidationLog:   entries,
		Metadata:        renderMetadata(res),
	}
	created, err := s.deliverables.Create(ctx, nil, []*types.Deliverable{d})
	if err != nil {
		return nil, fmt.Errorf("create deliverable: %w", err)
	}
	s.log.Info("deliverable created", "id", created[0].ID, "name", name, "sections", len(res.Rendered))
	return created[0], nil
}

func (s *deliverableService) loadRenderConfig(ctx context.Context, templateID, voiceID, storyModelID uuid.UUID) (*types.Template, *types.StoryModel, *types.Voice, error) {
	tmpl, err := s.templates.GetByID(ctx, nil, templateID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load template: %w", err)
	}
	if tmpl == nil {
		return nil, nil, nil, fmt.Errorf("template %s: %w", templateID, apperr.ErrNotFound)
	}
	if storyModelID != uuid.Nil && tmpl.StoryModelID != storyModelID {
		return nil, nil, nil, &apperr.StructureMismatchError{
			Reason: fmt.Sprintf("template %q is not bound to story model %s", tmpl.Name, storyModelID),
		}
	}
	model, err := s.models.GetByID(ctx, nil, tmpl.StoryModelID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load story model: %w", err)
	}
	if model == nil {
		return nil, nil, nil, fmt.Errorf("story model %s: %w", tmpl.StoryModelID, apperr.ErrNotFound)
	}
	if voiceID == uuid.Nil {
		voiceID = tmpl.DefaultVoiceID
	}
	voice, err := s.voices.GetByID(ctx, nil, voiceID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load voice: %w", err)
	}
	if voice == nil {
		return nil, nil, nil, fmt.Errorf("voice %s: %w", voiceID, apperr.ErrNotFound)
	}
	return tmpl, model, voice, nil
}

func (s *deliverableService) Get(ctx context.Context, id uuid.UUID) (*types.Deliverable, error) {
	d, err := s.deliverables.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("load deliverable: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("deliverable %s: %w", id, apperr.ErrNotFound)
	}
	return d, nil
}

func (s *deliverableService) GetAlerts(ctx context.Context, id uuid.UUID) ([]types.ImpactAlert, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.alerts.Resolve(ctx, d)
}

func (s *deliverableService) List(ctx context.Context, status *types.DeliverableStatus) ([]*types.Deliverable, error) {
	return s.deliverables.List(ctx, nil, status)
}

// Refresh re-renders against current approved element versions and persists
// the result as a new version row. Pending drafts block a refresh unless
// force is set: refreshing past un-approved edits silently discards them
// from the reviewer's view.
func (s *deliverableService) Refresh(ctx context.Context, id uuid.UUID, force bool) (*types.Deliverable, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	alerts, err := s.alerts.Resolve(ctx, d)
	if err != nil {
		return nil, err
	}
	if !force {
		var pending []string
		for _, a := range alerts {
			if a.Status == types.AlertUpdatePending {
				pending = append(pending, a.ElementName)
			}
		}
		if len(pending) > 0 {
			return nil, &apperr.BlockedByDraftUpdateError{ElementNames: pending}
		}
	}
	return s.newVersion(ctx, d, d.TemplateID, d.VoiceID, d.InstanceData)
}

// Preview renders with the highest draft of each bound element family
// substituted in, persisting nothing. The stored render is returned
// alongside for comparison.
func (s *deliverableService) Preview(ctx context.Context, id uuid.UUID) (*PreviewResult, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tmpl, model, voice, err := s.loadRenderConfig(ctx, d.TemplateID, d.VoiceID, uuid.Nil)
	if err != nil {
		return nil, err
	}
	res, err := s.renderPreview(ctx, tmpl, model, voice, d.InstanceData)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{
		Preview:    res.Rendered,
		Original:   d.RenderedContent,
		DraftsUsed: res.DraftsUsed,
	}, nil
}

func (s *deliverableService) renderPreview(ctx context.Context, tmpl *types.Template, model *types.StoryModel, voice *types.Voice, instanceData map[string]string) (*renderResult, error) {
	return s.render(ctx, tmpl, model, voice, instanceData, modeDraftPreferred)
}

// Update changes the deliverable's voice, template or story model and
// re-renders as a new version. A story model switch without a template bound
// to the new structure is rejected; section bindings belong to templates and
// are structure-specific.
func (s *deliverableService) Update(ctx context.Context, id uuid.UUID, changes DeliverableUpdate) (*types.Deliverable, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	templateID := d.TemplateID
	if changes.TemplateID != nil {
		templateID = *changes.TemplateID
	}
	voiceID := d.VoiceID
	if changes.VoiceID != nil {
		voiceID = *changes.VoiceID
	}
	instanceData := d.InstanceData
	if changes.InstanceData != nil {
		instanceData = changes.InstanceData
	}

	if changes.StoryModelID != nil && *changes.StoryModelID != d.StoryModelID && changes.TemplateID == nil {
		return nil, &apperr.StructureMismatchError{
			Reason: "story model change requires a template bound to the new story model",
		}
	}
	if changes.TemplateID != nil {
		tmpl, err := s.templates.GetByID(ctx, nil, templateID)
		if err != nil {
			return nil, fmt.Errorf("load template: %w", err)
		}
		if tmpl == nil {
			return nil, fmt.Errorf("template %s: %w", templateID, apperr.ErrNotFound)
		}
		// The new template must match the deliverable's structure, or the
		// structure explicitly being switched to.
		wantModelID := d.StoryModelID
		if changes.StoryModelID != nil {
			wantModelID = *changes.StoryModelID
		}
		if tmpl.StoryModelID != wantModelID {
			return nil, &apperr.StructureMismatchError{
				Reason: fmt.Sprintf("template %q is not bound to story model %s", tmpl.Name, wantModelID),
			}
		}
	}

	return s.newVersion(ctx, d, templateID, voiceID, instanceData)
}

// newVersion re-renders and persists the result as version+1, supersedes the
// prior row, and links the chain. The prior row's rendered content is never
// touched.
func (s *deliverableService) newVersion(ctx context.Context, prior *types.Deliverable, templateID, voiceID uuid.UUID, instanceData map[string]string) (*types.Deliverable, error) {
	tmpl, model, voice, err := s.loadRenderConfig(ctx, templateID, voiceID, uuid.Nil)
	if err != nil {
		return nil, err
	}
	res, err := s.render(ctx, tmpl, model, voice, instanceData, modeApproved)
	if err != nil {
		return nil, err
	}
	entries := s.validator.Validate(ValidationInput{
		Model:         model,
		Template:      tmpl,
		Rendered:      res.Rendered,
		InstanceData:  instanceData,
		BoundElements: res.BoundElements,
	})
	if err := s.validator.Gate(entries); err != nil {
		return nil, err
	}

	next := &types.Deliverable{
		Name:              prior.Name,
		TemplateID:        tmpl.ID,
		TemplateVersion:   tmpl.Version,
		StoryModelID:      model.ID,
		VoiceID:           voice.ID,
		VoiceVersion:      voice.Version,
		Status:            types.DeliverableStatusDraft,
		Version:           prior.Version + 1,
		PrevDeliverableID: &prior.ID,
		InstanceData:      instanceData,
		ElementVersions:   res.ElementVersions,
		RenderedContent:   res.Rendered,
		ValidationLog:     entries,
		Metadata:          renderMetadata(res),
	}

	err = s.txRun(ctx, func(tx *gorm.DB) error {
		created, err := s.deliverables.Create(ctx, tx, []*types.Deliverable{next})
		if err != nil {
			return fmt.Errorf("create deliverable version: %w", err)
		}
		next = created[0]
		if err := s.deliverables.UpdateStatus(ctx, tx, prior.ID, types.DeliverableStatusSuperseded); err != nil {
			return fmt.Errorf("supersede prior version: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("deliverable versioned", "id", next.ID, "name", next.Name, "version", next.Version)
	return next, nil
}

// Validate re-runs the validation engine against the stored render and
// returns the fresh log without re-rendering.
func (s *deliverableService) Validate(ctx context.Context, id uuid.UUID) ([]types.ValidationLogEntry, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tmpl, model, _, err := s.loadRenderConfig(ctx, d.TemplateID, d.VoiceID, uuid.Nil)
	if err != nil {
		return nil, err
	}

	bound := map[string][]string{}
	bindings, err := s.bindings.ListByTemplate(ctx, nil, tmpl.ID)
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}
	for _, binding := range bindings {
		elements, err := s.elements.GetByIDs(ctx, nil, binding.ElementIDs)
		if err != nil {
			return nil, fmt.Errorf("load bound elements: %w", err)
		}
		for _, el := range elements {
			bound[binding.SectionName] = append(bound[binding.SectionName], el.Name)
		}
	}

	return s.validator.Validate(ValidationInput{
		Model:         model,
		Template:      tmpl,
		Rendered:      d.RenderedContent,
		InstanceData:  d.InstanceData,
		BoundElements: bound,
	}), nil
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/storyos/storyos-backend/internal/apperr"
	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/repos"
	"github.com/storyos/storyos-backend/internal/types"
	"github.com/storyos/storyos-backend/internal/version"
)

// ElementService is the version ledger: element lifecycle, version chains and
// the one-approved-per-name invariant.
type ElementService interface {
	CreateLayer(ctx context.Context, name, description string, orderIndex int) (*types.Layer, error)
	ListLayers(ctx context.Context) ([]*types.Layer, error)

	Create(ctx context.Context, layerID uuid.UUID, name, content string, metadata datatypes.JSON) (*types.Element, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Element, error)
	List(ctx context.Context, filter repos.ElementFilter) ([]*types.Element, error)
	Edit(ctx context.Context, id uuid.UUID, content string) (*types.Element, error)
	Branch(ctx context.Context, id uuid.UUID, content string) (*types.Element, error)
	Approve(ctx context.Context, id uuid.UUID) (*types.Element, error)
	Delete(ctx context.Context, id uuid.UUID) error
	History(ctx context.Context, id uuid.UUID) ([]*types.Element, error)
}

type elementService struct {
	log      *logger.Logger
	db       *gorm.DB
	elements repos.ElementRepo
	layers   repos.LayerRepo
}

func NewElementService(db *gorm.DB, elements repos.ElementRepo, layers repos.LayerRepo, baseLog *logger.Logger) ElementService {
	return &elementService{
		log:      baseLog.With("service", "ElementService"),
		db:       db,
		elements: elements,
		layers:   layers,
	}
}

// txRun executes fn inside a transaction when a database is attached; with no
// database (unit tests against fake repos) fn runs with a nil tx.
func (s *elementService) txRun(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.db == nil {
		return fn(nil)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *elementService) CreateLayer(ctx context.Context, name, description string, orderIndex int) (*types.Layer, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("layer name is required")
	}
	layer := &types.Layer{
		Name:        name,
		Description: description,
		OrderIndex:  orderIndex,
	}
	created, err := s.layers.Create(ctx, nil, []*types.Layer{layer})
	if err != nil {
		return nil, fmt.Errorf("create layer: %w", err)
	}
	return created[0], nil
}

func (s *elementService) ListLayers(ctx context.Context) ([]*types.Layer, error) {
	return s.layers.List(ctx, nil)
}

func (s *elementService) Create(ctx context.Context, layerID uuid.UUID, name, content string, metadata datatypes.JSON) (*types.Element, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("element name is required")
	}
	layer, err := s.layers.GetByID(ctx, nil, layerID)
	if err != nil {
		return nil, fmt.Errorf("load layer: %w", err)
	}
	if layer == nil {
		return nil, fmt.Errorf("layer %s: %w", layerID, apperr.ErrNotFound)
	}

	element := &types.Element{
		LayerID:  layerID,
		Name:     name,
		Content:  content,
		Version:  "1.0",
		Status:   types.ElementStatusDraft,
		Metadata: metadata,
	}
	created, err := s.elements.Create(ctx, nil, []*types.Element{element})
	if err != nil {
		return nil, fmt.Errorf("create element: %w", err)
	}
	s.log.Info("element created", "id", created[0].ID, "name", name, "version", "1.0")
	return created[0], nil
}

func (s *elementService) Get(ctx context.Context, id uuid.UUID) (*types.Element, error) {
	element, err := s.elements.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("load element: %w", err)
	}
	if element == nil {
		return nil, fmt.Errorf("element %s: %w", id, apperr.ErrNotFound)
	}
	return element, nil
}

func (s *elementService) List(ctx context.Context, filter repos.ElementFilter) ([]*types.Element, error) {
	return s.elements.List(ctx, nil, filter)
}

// Edit updates a draft element's content in place. The version string never
// changes on edit; approved and superseded rows are immutable.
func (s *elementService) Edit(ctx context.Context, id uuid.UUID, content string) (*types.Element, error) {
	element, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if element.Status != types.ElementStatusDraft {
		return nil, &apperr.InvalidTransitionError{Entity: "element", Op: "edit", Status: string(element.Status)}
	}
	element.Content = content
	if err := s.elements.Save(ctx, nil, element); err != nil {
		return nil, fmt.Errorf("save element: %w", err)
	}
	return element, nil
}

// Branch creates a new draft version from an approved element: minor version
// bump, same name and layer, linked backwards through PrevElementID. The
// approved source stays approved until the new draft is itself approved.
func (s *elementService) Branch(ctx context.Context, id uuid.UUID, content string) (*types.Element, error) {
	source, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if source.Status != types.ElementStatusApproved {
		return nil, &apperr.InvalidTransitionError{Entity: "element", Op: "branch", Status: string(source.Status)}
	}
	if content == "" {
		content = source.Content
	}

	draft := &types.Element{
		LayerID:       source.LayerID,
		Name:          source.Name,
		Content:       content,
		Version:       version.MinorBump(source.Version),
		Status:        types.ElementStatusDraft,
		PrevElementID: &source.ID,
		Metadata:      source.Metadata,
	}
	created, err := s.elements.Create(ctx, nil, []*types.Element{draft})
	if err != nil {
		return nil, fmt.Errorf("create draft version: %w", err)
	}
	s.log.Info("element branched", "name", source.Name, "from", source.Version, "to", created[0].Version)
	return created[0], nil
}

// Approve promotes a draft and supersedes the current approved holder of the
// same name, in one transaction. The partial unique index on (name) where
// status='approved' backs this up against concurrent approvals.
func (s *elementService) Approve(ctx context.Context, id uuid.UUID) (*types.Element, error) {
	var approved *types.Element
	err := s.txRun(ctx, func(tx *gorm.DB) error {
		element, err := s.elements.GetByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("load element: %w", err)
		}
		if element == nil {
			return fmt.Errorf("element %s: %w", id, apperr.ErrNotFound)
		}
		if element.Status != types.ElementStatusDraft {
			return &apperr.InvalidTransitionError{Entity: "element", Op: "approve", Status: string(element.Status)}
		}

		family, err := s.elements.ListByName(ctx, tx, element.Name)
		if err != nil {
			return fmt.Errorf("list element family: %w", err)
		}
		for _, prior := range family {
			if prior.ID == element.ID || prior.Status != types.ElementStatusApproved {
				continue
			}
			if err := s.elements.UpdateStatus(ctx, tx, prior.ID, types.ElementStatusSuperseded); err != nil {
				return fmt.Errorf("supersede %s v%s: %w", prior.Name, prior.Version, err)
			}
			s.log.Info("element superseded", "name", prior.Name, "version", prior.Version)
		}

		if err := s.elements.UpdateStatus(ctx, tx, element.ID, types.ElementStatusApproved); err != nil {
			return fmt.Errorf("approve element: %w", err)
		}
		element.Status = types.ElementStatusApproved
		approved = element
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("element approved", "id", approved.ID, "name", approved.Name, "version", approved.Version)
	return approved, nil
}

// Delete removes a draft. Approved and superseded versions are permanent
// ledger entries and cannot be deleted.
func (s *elementService) Delete(ctx context.Context, id uuid.UUID) error {
	element, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if element.Status != types.ElementStatusDraft {
		return &apperr.InvalidTransitionError{Entity: "element", Op: "delete", Status: string(element.Status)}
	}
	if err := s.elements.Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("delete element: %w", err)
	}
	return nil
}

// History walks the version chain from id back to the root, newest first.
// The state machine cannot produce a cycle, but the walk guards against one
// rather than trusting stored pointers.
func (s *elementService) History(ctx context.Context, id uuid.UUID) ([]*types.Element, error) {
	var chain []*types.Element
	seen := map[uuid.UUID]bool{}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	for current != nil {
		if seen[current.ID] {
			s.log.Warn("version chain cycle detected, truncating walk", "element_id", current.ID)
			break
		}
		seen[current.ID] = true
		chain = append(chain, current)

		if current.PrevElementID == nil {
			break
		}
		prev, err := s.elements.GetByID(ctx, nil, *current.PrevElementID)
		if err != nil {
			return nil, fmt.Errorf("walk version chain: %w", err)
		}
		current = prev
	}
	return chain, nil
}

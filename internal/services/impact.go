package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/storyos/storyos-backend/internal/apperr"
	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/repos"
	"github.com/storyos/storyos-backend/internal/types"
)

// DeliverableImpact describes one deliverable that depends on an element
// family, and how far behind its snapshot is.
type DeliverableImpact struct {
	DeliverableID   uuid.UUID `json:"deliverable_id"`
	DeliverableName string    `json:"deliverable_name"`
	Version         int       `json:"version"`
	Status          string    `json:"status"`
	UsedVersion     string    `json:"used_version"`
	// Alert is nil when the snapshot is current.
	Alert *types.ImpactAlert `json:"alert,omitempty"`
}

// ImpactReport is the answer to "what breaks if this element changes".
type ImpactReport struct {
	ElementID    uuid.UUID           `json:"element_id"`
	ElementName  string              `json:"element_name"`
	FamilySize   int                 `json:"family_size"`
	Deliverables []DeliverableImpact `json:"deliverables"`
}

// ImpactService reports which deliverables reference an element family,
// walking every deliverable's element_versions provenance snapshot. Like the
// alert resolver it is read-only.
type ImpactService struct {
	log          *logger.Logger
	elements     repos.ElementRepo
	deliverables repos.DeliverableRepo
}

func NewImpactService(elements repos.ElementRepo, deliverables repos.DeliverableRepo, baseLog *logger.Logger) *ImpactService {
	return &ImpactService{
		log:          baseLog.With("service", "ImpactService"),
		elements:     elements,
		deliverables: deliverables,
	}
}

// Usage returns every deliverable whose snapshot references any version in
// the element's family, ordered by name then version.
func (s *ImpactService) Usage(ctx context.Context, elementID uuid.UUID) (*ImpactReport, error) {
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
	familyIDs := map[string]*types.Element{}
	for _, member := range family {
		familyIDs[member.ID.String()] = member
	}

	all, err := s.deliverables.List(ctx, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list deliverables: %w", err)
	}

	report := &ImpactReport{
		ElementID:   element.ID,
		ElementName: element.Name,
		FamilySize:  len(family),
	}
	for _, d := range all {
		for idStr, usedVersion := range d.ElementVersions {
			member, ok := familyIDs[idStr]
			if !ok {
				continue
			}
			report.Deliverables = append(report.Deliverables, DeliverableImpact{
				DeliverableID:   d.ID,
				DeliverableName: d.Name,
				Version:         d.Version,
				Status:          string(d.Status),
				UsedVersion:     usedVersion,
				Alert:           computeAlert(member, usedVersion, family),
			})
			break
		}
	}

	sort.Slice(report.Deliverables, func(i, j int) bool {
		a, b := report.Deliverables[i], report.Deliverables[j]
		if a.DeliverableName != b.DeliverableName {
			return a.DeliverableName < b.DeliverableName
		}
		return a.Version < b.Version
	})
	return report, nil
}

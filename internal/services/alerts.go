package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/repos"
	"github.com/storyos/storyos-backend/internal/types"
	"github.com/storyos/storyos-backend/internal/version"
)

// AlertResolver computes impact alerts for a deliverable's element snapshot.
// Alerts are ephemeral: recomputed on every read, never persisted, and the
// resolver performs no writes. Given the same ledger state it always returns
// the same result.
type AlertResolver struct {
	log      *logger.Logger
	elements repos.ElementRepo
}

func NewAlertResolver(elements repos.ElementRepo, baseLog *logger.Logger) *AlertResolver {
	return &AlertResolver{
		log:      baseLog.With("service", "AlertResolver"),
		elements: elements,
	}
}

// Resolve walks the deliverable's element_versions snapshot and emits one
// alert per element whose family has moved past the snapshotted version.
// Pending drafts pre-empt approved updates for the same name.
func (r *AlertResolver) Resolve(ctx context.Context, d *types.Deliverable) ([]types.ImpactAlert, error) {
	var alerts []types.ImpactAlert

	for idStr, usedVersion := range d.ElementVersions {
		elementID, err := uuid.Parse(idStr)
		if err != nil {
			r.log.Warn("skipping malformed element id in snapshot", "id", idStr)
			continue
		}
		element, err := r.elements.GetByID(ctx, nil, elementID)
		if err != nil {
			return nil, fmt.Errorf("load element %s: %w", elementID, err)
		}
		if element == nil {
			// The bound row was deleted (draft cleanup); nothing to
			// compare against.
			continue
		}
		family, err := r.elements.ListByName(ctx, nil, element.Name)
		if err != nil {
			return nil, fmt.Errorf("list family %q: %w", element.Name, err)
		}
		if a := computeAlert(element, usedVersion, family); a != nil {
			alerts = append(alerts, *a)
		}
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].ElementName != alerts[j].ElementName {
			return alerts[i].ElementName < alerts[j].ElementName
		}
		return alerts[i].ElementID.String() < alerts[j].ElementID.String()
	})
	return alerts, nil
}

// computeAlert decides the alert for one element family. The highest draft
// and highest approved versions are tracked independently, each starting from
// "0.0"; a draft newer than the used version wins over any approved update.
func computeAlert(used *types.Element, usedVersion string, family []*types.Element) *types.ImpactAlert {
	highestDraft := "0.0"
	highestApproved := "0.0"
	for _, member := range family {
		switch member.Status {
		case types.ElementStatusDraft:
			if version.Newer(member.Version, highestDraft) {
				highestDraft = member.Version
			}
		case types.ElementStatusApproved:
			if version.Newer(member.Version, highestApproved) {
				highestApproved = member.Version
			}
		}
	}

	switch {
	case version.Newer(highestDraft, usedVersion):
		return &types.ImpactAlert{
			ElementID:   used.ID,
			ElementName: used.Name,
			OldVersion:  usedVersion,
			NewVersion:  highestDraft,
			Status:      types.AlertUpdatePending,
			Message:     fmt.Sprintf("Draft v%s pending approval", highestDraft),
		}
	case version.Newer(highestApproved, usedVersion):
		return &types.ImpactAlert{
			ElementID:   used.ID,
			ElementName: used.Name,
			OldVersion:  usedVersion,
			NewVersion:  highestApproved,
			Status:      types.AlertUpdateAvailable,
			Message:     fmt.Sprintf("Approved v%s available", highestApproved),
		}
	default:
		return nil
	}
}

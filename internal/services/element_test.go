package services

import (
	"context"
	"errors"
	"testing"

	"github.com/storyos/storyos-backend/internal/apperr"
	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/repos"
	"github.com/storyos/storyos-backend/internal/types"
)

func newElementFixture(t *testing.T) (ElementService, *fakeElementRepo, *fakeLayerRepo, *types.Layer) {
	t.Helper()
	elements := newFakeElementRepo()
	layers := newFakeLayerRepo()
	svc := NewElementService(nil, elements, layers, logger.NewNop())

	layer, err := svc.CreateLayer(context.Background(), "Foundation", "", 0)
	if err != nil {
		t.Fatalf("CreateLayer: %v", err)
	}
	return svc, elements, layers, layer
}

func TestElementCreate_StartsAsDraftV1(t *testing.T) {
	svc, _, _, layer := newElementFixture(t)

	el, err := svc.Create(context.Background(), layer.ID, "Vision", "We build rockets.", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if el.Status != types.ElementStatusDraft {
		t.Fatalf("expected draft, got %q", el.Status)
	}
	if el.Version != "1.0" {
		t.Fatalf("expected version 1.0, got %q", el.Version)
	}
}

func TestElementEdit_DraftOnlyAndVersionPreserved(t *testing.T) {
	svc, _, _, layer := newElementFixture(t)
	ctx := context.Background()

	el, err := svc.Create(ctx, layer.ID, "Vision", "v1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	edited, err := svc.Edit(ctx, el.ID, "v1 revised")
	if err != nil {
		t.Fatalf("Edit draft: %v", err)
	}
	if edited.Version != "1.0" {
		t.Fatalf("edit must not change version, got %q", edited.Version)
	}
	if edited.Content != "v1 revised" {
		t.Fatalf("content not updated: %q", edited.Content)
	}

	if _, err := svc.Approve(ctx, el.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	var transition *apperr.InvalidTransitionError
	if _, err := svc.Edit(ctx, el.ID, "nope"); !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransition editing approved element, got %v", err)
	}
}

func TestElementApprove_SupersedesPriorHolder(t *testing.T) {
	svc, _, _, layer := newElementFixture(t)
	ctx := context.Background()

	v10, err := svc.Create(ctx, layer.ID, "Vision", "v1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Approve(ctx, v10.ID); err != nil {
		t.Fatalf("Approve v1.0: %v", err)
	}

	v11, err := svc.Branch(ctx, v10.ID, "v1.1 content")
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}
	if v11.Version != "1.1" {
		t.Fatalf("expected 1.1, got %q", v11.Version)
	}
	if v11.PrevElementID == nil || *v11.PrevElementID != v10.ID {
		t.Fatalf("prev_element_id not linked to source")
	}

	// Source stays approved until the draft is approved.
	cur, err := svc.Get(ctx, v10.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cur.Status != types.ElementStatusApproved {
		t.Fatalf("branch must not touch source, got %q", cur.Status)
	}

	if _, err := svc.Approve(ctx, v11.ID); err != nil {
		t.Fatalf("Approve v1.1: %v", err)
	}
	old, err := svc.Get(ctx, v10.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if old.Status != types.ElementStatusSuperseded {
		t.Fatalf("expected prior holder superseded, got %q", old.Status)
	}

	// At most one approved per name.
	family, err := svc.List(ctx, repos.ElementFilter{Name: "Vision"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	approvedCount := 0
	for _, el := range family {
		if el.Status == types.ElementStatusApproved {
			approvedCount++
		}
	}
	if approvedCount != 1 {
		t.Fatalf("expected exactly one approved element, got %d", approvedCount)
	}
}

func TestElementApprove_RejectsNonDraft(t *testing.T) {
	svc, _, _, layer := newElementFixture(t)
	ctx := context.Background()

	el, err := svc.Create(ctx, layer.ID, "Vision", "v1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Approve(ctx, el.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	var transition *apperr.InvalidTransitionError
	if _, err := svc.Approve(ctx, el.ID); !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransition re-approving, got %v", err)
	}
}

func TestElementBranch_RejectsDraftSource(t *testing.T) {
	svc, _, _, layer := newElementFixture(t)
	ctx := context.Background()

	el, err := svc.Create(ctx, layer.ID, "Vision", "v1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	var transition *apperr.InvalidTransitionError
	if _, err := svc.Branch(ctx, el.ID, ""); !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransition branching a draft, got %v", err)
	}
}

func TestElementDelete_DraftOnly(t *testing.T) {
	svc, _, _, layer := newElementFixture(t)
	ctx := context.Background()

	el, err := svc.Create(ctx, layer.ID, "Vision", "v1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Approve(ctx, el.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	var transition *apperr.InvalidTransitionError
	if err := svc.Delete(ctx, el.ID); !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransition deleting approved, got %v", err)
	}

	draft, err := svc.Branch(ctx, el.ID, "")
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}
	if err := svc.Delete(ctx, draft.ID); err != nil {
		t.Fatalf("Delete draft: %v", err)
	}
	if _, err := svc.Get(ctx, draft.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
}

func TestElementHistory_WalksChainNewestFirst(t *testing.T) {
	svc, _, _, layer := newElementFixture(t)
	ctx := context.Background()

	v10, err := svc.Create(ctx, layer.ID, "Vision", "v1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Approve(ctx, v10.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	v11, err := svc.Branch(ctx, v10.ID, "next")
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}

	chain, err := svc.History(ctx, v11.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(chain) != 2 {
		t.Fatalf("expected chain of 2, got %d", len(chain))
	}
	if chain[0].ID != v11.ID || chain[1].ID != v10.ID {
		t.Fatalf("chain out of order")
	}
}

func TestElementHistory_GuardsAgainstCycles(t *testing.T) {
	svc, elements, _, layer := newElementFixture(t)
	ctx := context.Background()

	v10, err := svc.Create(ctx, layer.ID, "Vision", "v1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Corrupt the stored pointer into a self-cycle.
	row, _ := elements.GetByID(ctx, nil, v10.ID)
	row.PrevElementID = &row.ID
	if err := elements.Save(ctx, nil, row); err != nil {
		t.Fatalf("Save: %v", err)
	}

	chain, err := svc.History(ctx, v10.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(chain) != 1 {
		t.Fatalf("cycle not truncated, chain length %d", len(chain))
	}
}

package services

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/storyos/storyos-backend/internal/apperr"
	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/types"
)

// engineFixture wires the full composition engine over in-memory fakes, with
// the deterministic rule filter as the only style filter.
type engineFixture struct {
	ctx          context.Context
	elements     *fakeElementRepo
	layers       *fakeLayerRepo
	voices       *fakeVoiceRepo
	models       *fakeStoryModelRepo
	templates    *fakeTemplateRepo
	bindings     *fakeBindingRepo
	deliverables *fakeDeliverableRepo

	elementSvc     ElementService
	templateSvc    TemplateService
	deliverableSvc DeliverableService

	layer *types.Layer
	voice *types.Voice
	model *types.StoryModel
	tmpl  *types.Template
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	log := logger.NewNop()
	f := &engineFixture{
		ctx:          context.Background(),
		elements:     newFakeElementRepo(),
		layers:       newFakeLayerRepo(),
		voices:       newFakeVoiceRepo(),
		models:       newFakeStoryModelRepo(),
		templates:    newFakeTemplateRepo(),
		bindings:     newFakeBindingRepo(),
		deliverables: newFakeDeliverableRepo(),
	}

	f.elementSvc = NewElementService(nil, f.elements, f.layers, log)
	f.templateSvc = NewTemplateService(f.templates, f.bindings, f.models, f.voices, f.elements, log)

	composer := NewComposer(log)
	transformer := NewTransformer(NewRuleStyleFilter(log), nil, nil, log)
	alerts := NewAlertResolver(f.elements, log)
	validator := NewValidator(log, false)
	f.deliverableSvc = NewDeliverableService(nil,
		f.deliverables, f.templates, f.bindings, f.models, f.voices, f.elements,
		composer, transformer, alerts, validator, log)

	layer, err := f.elementSvc.CreateLayer(f.ctx, "Foundation", "", 0)
	if err != nil {
		t.Fatalf("CreateLayer: %v", err)
	}
	f.layer = layer

	voices, err := f.voices.Create(f.ctx, nil, []*types.Voice{{
		Name:    "Corporate Voice",
		Version: "1.0",
		Status:  types.VoiceStatusApproved,
	}})
	if err != nil {
		t.Fatalf("create voice: %v", err)
	}
	f.voice = voices[0]

	models, err := f.models.Create(f.ctx, nil, []*types.StoryModel{{
		Name: "Press Release",
		Sections: []types.Section{
			{Name: "Body", Order: 0, Required: true, ExtractionStrategy: types.ExtractFullContent},
			{Name: "Quote 1", Order: 1, ExtractionStrategy: types.ExtractInstanceData,
				InstanceFields: []string{"quote1_text", "quote1_speaker"}},
		},
	}})
	if err != nil {
		t.Fatalf("create story model: %v", err)
	}
	f.model = models[0]

	templates, err := f.templates.Create(f.ctx, nil, []*types.Template{{
		Name:           "Launch Release",
		Version:        "1.0",
		StoryModelID:   f.model.ID,
		DefaultVoiceID: f.voice.ID,
		Status:         types.TemplateStatusApproved,
	}})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	f.tmpl = templates[0]
	return f
}

// approvedElement creates and approves an element in one step.
func (f *engineFixture) approvedElement(t *testing.T, name, content string) *types.Element {
	t.Helper()
	el, err := f.elementSvc.Create(f.ctx, f.layer.ID, name, content, nil)
	if err != nil {
		t.Fatalf("Create element: %v", err)
	}
	approved, err := f.elementSvc.Approve(f.ctx, el.ID)
	if err != nil {
		t.Fatalf("Approve element: %v", err)
	}
	return approved
}

func (f *engineFixture) bind(t *testing.T, sectionName string, elementIDs ...uuid.UUID) {
	t.Helper()
	if _, err := f.templateSvc.CreateBinding(f.ctx, f.tmpl.ID, sectionName, elementIDs, nil); err != nil {
		t.Fatalf("CreateBinding %q: %v", sectionName, err)
	}
}

func TestDeliverableCreate_SnapshotsApprovedVersions(t *testing.T) {
	f := newEngineFixture(t)
	vision := f.approvedElement(t, "Vision", "We build rockets for everyone.")
	f.bind(t, "Body", vision.ID)
	f.bind(t, "Quote 1")

	d, err := f.deliverableSvc.Create(f.ctx, "Launch", f.tmpl.ID, f.voice.ID, f.model.ID, map[string]string{
		"quote1_text":    "Ready for liftoff.",
		"quote1_speaker": "Dana Reyes",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.Version != 1 {
		t.Fatalf("expected version 1, got %d", d.Version)
	}
	if got := d.ElementVersions[vision.ID.String()]; got != "1.0" {
		t.Fatalf("element snapshot missing: %v", d.ElementVersions)
	}
	if !strings.Contains(d.RenderedContent["Body"], "rockets") {
		t.Fatalf("body not rendered: %q", d.RenderedContent["Body"])
	}
	if !strings.Contains(d.RenderedContent["Quote 1"], "— Dana Reyes") {
		t.Fatalf("quote not rendered: %q", d.RenderedContent["Quote 1"])
	}
}

func TestDeliverableCreate_InstanceDataSectionWithEmptyBinding(t *testing.T) {
	// The quote section binds zero elements and still renders from
	// instance data.
	f := newEngineFixture(t)
	vision := f.approvedElement(t, "Vision", "Body copy.")
	f.bind(t, "Body", vision.ID)
	f.bind(t, "Quote 1")

	d, err := f.deliverableSvc.Create(f.ctx, "Launch", f.tmpl.ID, f.voice.ID, f.model.ID, map[string]string{
		"quote1_text":    "Still works.",
		"quote1_speaker": "Lee Park",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.RenderedContent["Quote 1"] == "" {
		t.Fatalf("expected non-empty quote section from instance data alone")
	}
}

func TestDeliverableRefresh_BlockedByPendingDraftThenSucceeds(t *testing.T) {
	f := newEngineFixture(t)
	vision := f.approvedElement(t, "Vision", "Original body.")
	f.bind(t, "Body", vision.ID)

	d, err := f.deliverableSvc.Create(f.ctx, "Launch", f.tmpl.ID, f.voice.ID, f.model.ID, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A pending draft blocks refresh.
	draft, err := f.elementSvc.Branch(f.ctx, vision.ID, "Updated body.")
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}
	var blocked *apperr.BlockedByDraftUpdateError
	if _, err := f.deliverableSvc.Refresh(f.ctx, d.ID, false); !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedByDraftUpdate, got %v", err)
	}
	if len(blocked.ElementNames) != 1 || blocked.ElementNames[0] != "Vision" {
		t.Fatalf("blocking names wrong: %v", blocked.ElementNames)
	}

	// Approving the draft unblocks, refresh picks up the new version and
	// alerts clear.
	if _, err := f.elementSvc.Approve(f.ctx, draft.ID); err != nil {
		t.Fatalf("Approve draft: %v", err)
	}
	refreshed, err := f.deliverableSvc.Refresh(f.ctx, d.ID, false)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.Version != d.Version+1 {
		t.Fatalf("expected version %d, got %d", d.Version+1, refreshed.Version)
	}
	if refreshed.PrevDeliverableID == nil || *refreshed.PrevDeliverableID != d.ID {
		t.Fatalf("prev_deliverable_id not linked")
	}
	if !strings.Contains(refreshed.RenderedContent["Body"], "Updated body") {
		t.Fatalf("refresh did not pick up approved content: %q", refreshed.RenderedContent["Body"])
	}

	old, err := f.deliverableSvc.Get(f.ctx, d.ID)
	if err != nil {
		t.Fatalf("Get old: %v", err)
	}
	if old.Status != types.DeliverableStatusSuperseded {
		t.Fatalf("expected old version superseded, got %q", old.Status)
	}

	alerts, err := f.deliverableSvc.GetAlerts(f.ctx, refreshed.ID)
	if err != nil {
		t.Fatalf("GetAlerts: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("expected alerts cleared, got %v", alerts)
	}
}

func TestDeliverableRefresh_ForceOverridesPendingDraft(t *testing.T) {
	f := newEngineFixture(t)
	vision := f.approvedElement(t, "Vision", "Original body.")
	f.bind(t, "Body", vision.ID)

	d, err := f.deliverableSvc.Create(f.ctx, "Launch", f.tmpl.ID, f.voice.ID, f.model.ID, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.elementSvc.Branch(f.ctx, vision.ID, "Pending draft."); err != nil {
		t.Fatalf("Branch: %v", err)
	}

	refreshed, err := f.deliverableSvc.Refresh(f.ctx, d.ID, true)
	if err != nil {
		t.Fatalf("forced refresh: %v", err)
	}
	// Forced refresh still renders the approved version, not the draft.
	if !strings.Contains(refreshed.RenderedContent["Body"], "Original body") {
		t.Fatalf("forced refresh must use approved content: %q", refreshed.RenderedContent["Body"])
	}
}

func TestDeliverablePreview_UsesDraftsAndNeverMutates(t *testing.T) {
	f := newEngineFixture(t)
	vision := f.approvedElement(t, "Vision", "Approved body.")
	f.bind(t, "Body", vision.ID)

	d, err := f.deliverableSvc.Create(f.ctx, "Launch", f.tmpl.ID, f.voice.ID, f.model.ID, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.elementSvc.Branch(f.ctx, vision.ID, "Draft body."); err != nil {
		t.Fatalf("Branch: %v", err)
	}

	result, err := f.deliverableSvc.Preview(f.ctx, d.ID)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !strings.Contains(result.Preview["Body"], "Draft body") {
		t.Fatalf("preview must substitute the draft: %q", result.Preview["Body"])
	}
	if !strings.Contains(result.Original["Body"], "Approved body") {
		t.Fatalf("original render wrong: %q", result.Original["Body"])
	}
	if len(result.DraftsUsed) != 1 || result.DraftsUsed[0] != "Vision" {
		t.Fatalf("drafts used wrong: %v", result.DraftsUsed)
	}

	// Round-trip: the stored deliverable is untouched.
	after, err := f.deliverableSvc.Get(f.ctx, d.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(after.RenderedContent, d.RenderedContent) {
		t.Fatalf("preview mutated rendered content")
	}
	if after.Version != d.Version || after.Status != d.Status {
		t.Fatalf("preview mutated version or status")
	}
}

func TestDeliverableUpdate_StoryModelSwitchNeedsMatchingTemplate(t *testing.T) {
	f := newEngineFixture(t)
	vision := f.approvedElement(t, "Vision", "Body.")
	f.bind(t, "Body", vision.ID)

	d, err := f.deliverableSvc.Create(f.ctx, "Launch", f.tmpl.ID, f.voice.ID, f.model.ID, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	otherModels, err := f.models.Create(f.ctx, nil, []*types.StoryModel{{
		Name: "PAS",
		Sections: []types.Section{
			{Name: "Problem", Order: 0, ExtractionStrategy: types.ExtractFullContent},
		},
	}})
	if err != nil {
		t.Fatalf("create model: %v", err)
	}
	otherModelID := otherModels[0].ID

	var mismatch *apperr.StructureMismatchError
	if _, err := f.deliverableSvc.Update(f.ctx, d.ID, DeliverableUpdate{StoryModelID: &otherModelID}); !errors.As(err, &mismatch) {
		t.Fatalf("expected StructureMismatch without template, got %v", err)
	}

	// Old template is bound to the old structure; still a mismatch.
	oldTemplateID := f.tmpl.ID
	if _, err := f.deliverableSvc.Update(f.ctx, d.ID, DeliverableUpdate{
		StoryModelID: &otherModelID,
		TemplateID:   &oldTemplateID,
	}); !errors.As(err, &mismatch) {
		t.Fatalf("expected StructureMismatch with incompatible template, got %v", err)
	}

	// A template bound to the new structure succeeds and produces a new
	// version.
	pasTemplates, err := f.templates.Create(f.ctx, nil, []*types.Template{{
		Name:           "PAS Template",
		Version:        "1.0",
		StoryModelID:   otherModelID,
		DefaultVoiceID: f.voice.ID,
		Status:         types.TemplateStatusApproved,
	}})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	pasTemplateID := pasTemplates[0].ID
	updated, err := f.deliverableSvc.Update(f.ctx, d.ID, DeliverableUpdate{
		StoryModelID: &otherModelID,
		TemplateID:   &pasTemplateID,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Version != d.Version+1 {
		t.Fatalf("expected new version, got %d", updated.Version)
	}
	if updated.StoryModelID != otherModelID {
		t.Fatalf("story model not switched")
	}
}

func TestDeliverableUpdate_RejectsTemplateFromOtherStoryModel(t *testing.T) {
	f := newEngineFixture(t)
	vision := f.approvedElement(t, "Vision", "Body.")
	f.bind(t, "Body", vision.ID)

	d, err := f.deliverableSvc.Create(f.ctx, "Launch", f.tmpl.ID, f.voice.ID, f.model.ID, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	otherModels, err := f.models.Create(f.ctx, nil, []*types.StoryModel{{
		Name: "PAS",
		Sections: []types.Section{
			{Name: "Problem", Order: 0, ExtractionStrategy: types.ExtractFullContent},
		},
	}})
	if err != nil {
		t.Fatalf("create model: %v", err)
	}
	pasTemplates, err := f.templates.Create(f.ctx, nil, []*types.Template{{
		Name:           "PAS Template",
		Version:        "1.0",
		StoryModelID:   otherModels[0].ID,
		DefaultVoiceID: f.voice.ID,
		Status:         types.TemplateStatusApproved,
	}})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	// A template swap alone must not silently change the structure.
	pasTemplateID := pasTemplates[0].ID
	var mismatch *apperr.StructureMismatchError
	if _, err := f.deliverableSvc.Update(f.ctx, d.ID, DeliverableUpdate{TemplateID: &pasTemplateID}); !errors.As(err, &mismatch) {
		t.Fatalf("expected StructureMismatch for template bound to another story model, got %v", err)
	}

	// Swapping to a template on the same story model stays allowed.
	sameModel, err := f.templates.Create(f.ctx, nil, []*types.Template{{
		Name:           "Earnings Release",
		Version:        "1.0",
		StoryModelID:   f.model.ID,
		DefaultVoiceID: f.voice.ID,
		Status:         types.TemplateStatusApproved,
	}})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	sameModelID := sameModel[0].ID
	updated, err := f.deliverableSvc.Update(f.ctx, d.ID, DeliverableUpdate{TemplateID: &sameModelID})
	if err != nil {
		t.Fatalf("Update with same-structure template: %v", err)
	}
	if updated.TemplateID != sameModelID {
		t.Fatalf("template not switched")
	}
}

func TestCreateBinding_RejectsFamilyWithoutApproval(t *testing.T) {
	f := newEngineFixture(t)
	draft, err := f.elementSvc.Create(f.ctx, f.layer.ID, "Proof", "Draft only.", nil)
	if err != nil {
		t.Fatalf("Create element: %v", err)
	}

	var rejected *apperr.BindingRejectedError
	if _, err := f.templateSvc.CreateBinding(f.ctx, f.tmpl.ID, "Body", []uuid.UUID{draft.ID}, nil); !errors.As(err, &rejected) {
		t.Fatalf("expected BindingRejected, got %v", err)
	}
	if rejected.ElementName != "Proof" {
		t.Fatalf("wrong element named: %q", rejected.ElementName)
	}

	if _, err := f.elementSvc.Approve(f.ctx, draft.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := f.templateSvc.CreateBinding(f.ctx, f.tmpl.ID, "Body", []uuid.UUID{draft.ID}, nil); err != nil {
		t.Fatalf("binding after approval should succeed: %v", err)
	}
}

func TestImpactUsage_ListsDependentDeliverables(t *testing.T) {
	f := newEngineFixture(t)
	vision := f.approvedElement(t, "Vision", "Body.")
	f.bind(t, "Body", vision.ID)

	d, err := f.deliverableSvc.Create(f.ctx, "Launch", f.tmpl.ID, f.voice.ID, f.model.ID, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	impact := NewImpactService(f.elements, f.deliverables, logger.NewNop())
	report, err := impact.Usage(f.ctx, vision.ID)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if len(report.Deliverables) != 1 {
		t.Fatalf("expected one dependent deliverable, got %d", len(report.Deliverables))
	}
	if report.Deliverables[0].DeliverableID != d.ID {
		t.Fatalf("wrong deliverable reported")
	}
	if report.Deliverables[0].Alert != nil {
		t.Fatalf("up-to-date snapshot must carry no alert")
	}

	if _, err := f.elementSvc.Branch(f.ctx, vision.ID, "New."); err != nil {
		t.Fatalf("Branch: %v", err)
	}
	report, err = impact.Usage(f.ctx, vision.ID)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if report.Deliverables[0].Alert == nil || report.Deliverables[0].Alert.Status != types.AlertUpdatePending {
		t.Fatalf("expected update_pending alert after branch")
	}
}

package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storyos/storyos-backend/internal/repos"
	"github.com/storyos/storyos-backend/internal/types"
)

// In-memory repo fakes. Services built over these run with a nil *gorm.DB,
// so every tx passed down is nil and ignored.

type fakeElementRepo struct {
	rows map[uuid.UUID]*types.Element
}

func newFakeElementRepo() *fakeElementRepo {
	return &fakeElementRepo{rows: map[uuid.UUID]*types.Element{}}
}

func (r *fakeElementRepo) Create(_ context.Context, _ *gorm.DB, elements []*types.Element) ([]*types.Element, error) {
	for _, el := range elements {
		if el.ID == uuid.Nil {
			el.ID = uuid.New()
		}
		if el.CreatedAt.IsZero() {
			el.CreatedAt = time.Now()
		}
		cp := *el
		r.rows[el.ID] = &cp
	}
	return elements, nil
}

func (r *fakeElementRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Element, error) {
	el, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *el
	return &cp, nil
}

func (r *fakeElementRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Element, error) {
	var out []*types.Element
	for _, id := range ids {
		if el, ok := r.rows[id]; ok {
			cp := *el
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeElementRepo) ListByName(_ context.Context, _ *gorm.DB, name string) ([]*types.Element, error) {
	var out []*types.Element
	for _, el := range r.rows {
		if el.Name == name {
			cp := *el
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeElementRepo) List(_ context.Context, _ *gorm.DB, filter repos.ElementFilter) ([]*types.Element, error) {
	var out []*types.Element
	for _, el := range r.rows {
		if filter.LayerID != nil && el.LayerID != *filter.LayerID {
			continue
		}
		if filter.Status != nil && el.Status != *filter.Status {
			continue
		}
		if filter.Name != "" && el.Name != filter.Name {
			continue
		}
		cp := *el
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeElementRepo) Save(_ context.Context, _ *gorm.DB, element *types.Element) error {
	cp := *element
	r.rows[element.ID] = &cp
	return nil
}

func (r *fakeElementRepo) UpdateStatus(_ context.Context, _ *gorm.DB, id uuid.UUID, status types.ElementStatus) error {
	if el, ok := r.rows[id]; ok {
		el.Status = status
	}
	return nil
}

func (r *fakeElementRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.rows, id)
	return nil
}

type fakeLayerRepo struct {
	rows map[uuid.UUID]*types.Layer
}

func newFakeLayerRepo() *fakeLayerRepo {
	return &fakeLayerRepo{rows: map[uuid.UUID]*types.Layer{}}
}

func (r *fakeLayerRepo) Create(_ context.Context, _ *gorm.DB, layers []*types.Layer) ([]*types.Layer, error) {
	for _, l := range layers {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		cp := *l
		r.rows[l.ID] = &cp
	}
	return layers, nil
}

func (r *fakeLayerRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Layer, error) {
	l, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLayerRepo) GetByName(_ context.Context, _ *gorm.DB, name string) (*types.Layer, error) {
	for _, l := range r.rows {
		if l.Name == name {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLayerRepo) List(_ context.Context, _ *gorm.DB) ([]*types.Layer, error) {
	var out []*types.Layer
	for _, l := range r.rows {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

type fakeVoiceRepo struct {
	rows map[uuid.UUID]*types.Voice
}

func newFakeVoiceRepo() *fakeVoiceRepo {
	return &fakeVoiceRepo{rows: map[uuid.UUID]*types.Voice{}}
}

func (r *fakeVoiceRepo) Create(_ context.Context, _ *gorm.DB, voices []*types.Voice) ([]*types.Voice, error) {
	for _, v := range voices {
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		cp := *v
		r.rows[v.ID] = &cp
	}
	return voices, nil
}

func (r *fakeVoiceRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Voice, error) {
	v, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (r *fakeVoiceRepo) List(_ context.Context, _ *gorm.DB) ([]*types.Voice, error) {
	var out []*types.Voice
	for _, v := range r.rows {
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeVoiceRepo) Save(_ context.Context, _ *gorm.DB, voice *types.Voice) error {
	cp := *voice
	r.rows[voice.ID] = &cp
	return nil
}

type fakeStoryModelRepo struct {
	rows map[uuid.UUID]*types.StoryModel
}

func newFakeStoryModelRepo() *fakeStoryModelRepo {
	return &fakeStoryModelRepo{rows: map[uuid.UUID]*types.StoryModel{}}
}

func (r *fakeStoryModelRepo) Create(_ context.Context, _ *gorm.DB, models []*types.StoryModel) ([]*types.StoryModel, error) {
	for _, m := range models {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		cp := *m
		r.rows[m.ID] = &cp
	}
	return models, nil
}

func (r *fakeStoryModelRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.StoryModel, error) {
	m, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *fakeStoryModelRepo) GetByName(_ context.Context, _ *gorm.DB, name string) (*types.StoryModel, error) {
	for _, m := range r.rows {
		if m.Name == name {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeStoryModelRepo) List(_ context.Context, _ *gorm.DB) ([]*types.StoryModel, error) {
	var out []*types.StoryModel
	for _, m := range r.rows {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

type fakeTemplateRepo struct {
	rows map[uuid.UUID]*types.Template
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{rows: map[uuid.UUID]*types.Template{}}
}

func (r *fakeTemplateRepo) Create(_ context.Context, _ *gorm.DB, templates []*types.Template) ([]*types.Template, error) {
	for _, t := range templates {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		cp := *t
		r.rows[t.ID] = &cp
	}
	return templates, nil
}

func (r *fakeTemplateRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Template, error) {
	t, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTemplateRepo) List(_ context.Context, _ *gorm.DB) ([]*types.Template, error) {
	var out []*types.Template
	for _, t := range r.rows {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeTemplateRepo) ListByStoryModel(_ context.Context, _ *gorm.DB, storyModelID uuid.UUID) ([]*types.Template, error) {
	var out []*types.Template
	for _, t := range r.rows {
		if t.StoryModelID == storyModelID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTemplateRepo) Save(_ context.Context, _ *gorm.DB, template *types.Template) error {
	cp := *template
	r.rows[template.ID] = &cp
	return nil
}

type fakeBindingRepo struct {
	rows map[uuid.UUID]*types.SectionBinding
}

func newFakeBindingRepo() *fakeBindingRepo {
	return &fakeBindingRepo{rows: map[uuid.UUID]*types.SectionBinding{}}
}

func (r *fakeBindingRepo) Create(_ context.Context, _ *gorm.DB, bindings []*types.SectionBinding) ([]*types.SectionBinding, error) {
	for _, b := range bindings {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		cp := *b
		r.rows[b.ID] = &cp
	}
	return bindings, nil
}

func (r *fakeBindingRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.SectionBinding, error) {
	b, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBindingRepo) ListByTemplate(_ context.Context, _ *gorm.DB, templateID uuid.UUID) ([]*types.SectionBinding, error) {
	var out []*types.SectionBinding
	for _, b := range r.rows {
		if b.TemplateID == templateID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SectionOrder < out[j].SectionOrder })
	return out, nil
}

func (r *fakeBindingRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.rows, id)
	return nil
}

type fakeDeliverableRepo struct {
	rows map[uuid.UUID]*types.Deliverable
}

func newFakeDeliverableRepo() *fakeDeliverableRepo {
	return &fakeDeliverableRepo{rows: map[uuid.UUID]*types.Deliverable{}}
}

func (r *fakeDeliverableRepo) Create(_ context.Context, _ *gorm.DB, deliverables []*types.Deliverable) ([]*types.Deliverable, error) {
	for _, d := range deliverables {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		cp := *d
		r.rows[d.ID] = &cp
	}
	return deliverables, nil
}

func (r *fakeDeliverableRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Deliverable, error) {
	d, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDeliverableRepo) List(_ context.Context, _ *gorm.DB, status *types.DeliverableStatus) ([]*types.Deliverable, error) {
	var out []*types.Deliverable
	for _, d := range r.rows {
		if status != nil && d.Status != *status {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeDeliverableRepo) Save(_ context.Context, _ *gorm.DB, deliverable *types.Deliverable) error {
	cp := *deliverable
	r.rows[deliverable.ID] = &cp
	return nil
}

func (r *fakeDeliverableRepo) UpdateStatus(_ context.Context, _ *gorm.DB, id uuid.UUID, status types.DeliverableStatus) error {
	if d, ok := r.rows[id]; ok {
		d.Status = status
	}
	return nil
}

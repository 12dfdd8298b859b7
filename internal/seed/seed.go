// Package seed loads baseline content configuration (layers, voices, story
// models, templates) from a YAML file and applies it idempotently at startup.
package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/repos"
	"github.com/storyos/storyos-backend/internal/types"
)

type LayerSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	OrderIndex  int    `yaml:"order_index"`
}

type ToneSpec struct {
	Formality      string `yaml:"formality"`
	PointOfView    string `yaml:"point_of_view"`
	SentenceLength string `yaml:"sentence_length"`
	Voice          string `yaml:"voice"`
	Contractions   string `yaml:"contractions"`
	Tense          string `yaml:"tense"`
}

type LexiconSpec struct {
	Branded   map[string]string `yaml:"branded"`
	Preferred map[string]string `yaml:"preferred"`
	Required  []string          `yaml:"required"`
	Banned    []string          `yaml:"banned"`
}

type GuardrailSpec struct {
	Do          []string `yaml:"do"`
	Dont        []string `yaml:"dont"`
	Punctuation string   `yaml:"punctuation"`
}

type VoiceSpec struct {
	Name        string         `yaml:"name"`
	CompanyName string         `yaml:"company_name"`
	Traits      []string       `yaml:"traits"`
	ToneRules   *ToneSpec      `yaml:"tone_rules"`
	Lexicon     *LexiconSpec   `yaml:"lexicon"`
	Guardrails  *GuardrailSpec `yaml:"guardrails"`
	Approved    bool           `yaml:"approved"`
}

type SectionSpec struct {
	Name               string   `yaml:"name"`
	Intent             string   `yaml:"intent"`
	Order              int      `yaml:"order"`
	Required           bool     `yaml:"required"`
	ExtractionStrategy string   `yaml:"extraction_strategy"`
	FieldPath          string   `yaml:"field_path"`
	SelectionCount     int      `yaml:"selection_count"`
	InstanceFields     []string `yaml:"instance_fields"`
	CompositionSources []string `yaml:"composition_sources"`
	Format             string   `yaml:"format"`
	MaxWords           int      `yaml:"max_words"`
	QuoteNumber        int      `yaml:"quote_number"`
	TransformProfile   string   `yaml:"transform_profile"`
}

type ConstraintSpec struct {
	SectionName    string   `yaml:"section_name"`
	ConstraintType string   `yaml:"constraint_type"`
	MaxWords       int      `yaml:"max_words"`
	ElementName    string   `yaml:"element_name"`
	Fields         []string `yaml:"fields"`
}

type StoryModelSpec struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Sections    []SectionSpec    `yaml:"sections"`
	Constraints []ConstraintSpec `yaml:"constraints"`
}

type RuleSpec struct {
	RuleType     string   `yaml:"rule_type"`
	SectionName  string   `yaml:"section_name"`
	MaxWordCount int      `yaml:"max_word_count"`
	ElementName  string   `yaml:"element_name"`
	Fields       []string `yaml:"fields"`
	MinItems     int      `yaml:"min_items"`
	Pattern      string   `yaml:"pattern"`
	ErrorMessage string   `yaml:"error_message"`
}

type FieldSpec struct {
	Name         string `yaml:"name"`
	FieldType    string `yaml:"field_type"`
	Required     bool   `yaml:"required"`
	Description  string `yaml:"description"`
	DefaultValue string `yaml:"default_value"`
}

type TemplateSpec struct {
	Name             string            `yaml:"name"`
	StoryModel       string            `yaml:"story_model"`
	DefaultVoice     string            `yaml:"default_voice"`
	ValidationRules  []RuleSpec        `yaml:"validation_rules"`
	InstanceFields   []FieldSpec       `yaml:"instance_fields"`
	ProfileOverrides map[string]string `yaml:"profile_overrides"`
}

type File struct {
	Layers      []LayerSpec      `yaml:"layers"`
	Voices      []VoiceSpec      `yaml:"voices"`
	StoryModels []StoryModelSpec `yaml:"story_models"`
	Templates   []TemplateSpec   `yaml:"templates"`
}

func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

type Seeder struct {
	log       *logger.Logger
	layers    repos.LayerRepo
	voices    repos.VoiceRepo
	models    repos.StoryModelRepo
	templates repos.TemplateRepo
}

func NewSeeder(layers repos.LayerRepo, voices repos.VoiceRepo, models repos.StoryModelRepo, templates repos.TemplateRepo, baseLog *logger.Logger) *Seeder {
	return &Seeder{
		log:       baseLog.With("service", "Seeder"),
		layers:    layers,
		voices:    voices,
		models:    models,
		templates: templates,
	}
}

// Apply creates any seed entities that do not exist yet, matching by name.
// Existing rows are never modified.
func (s *Seeder) Apply(ctx context.Context, f *File) error {
	for _, spec := range f.Layers {
		existing, err := s.layers.GetByName(ctx, nil, spec.Name)
		if err != nil {
			return fmt.Errorf("seed layer %q: %w", spec.Name, err)
		}
		if existing != nil {
			continue
		}
		if _, err := s.layers.Create(ctx, nil, []*types.Layer{{
			Name:        spec.Name,
			Description: spec.Description,
			OrderIndex:  spec.OrderIndex,
		}}); err != nil {
			return fmt.Errorf("seed layer %q: %w", spec.Name, err)
		}
		s.log.Info("seeded layer", "name", spec.Name)
	}

	voiceByName := map[string]*types.Voice{}
	allVoices, err := s.voices.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("list voices: %w", err)
	}
	for _, v := range allVoices {
		voiceByName[v.Name] = v
	}
	for _, spec := range f.Voices {
		if _, ok := voiceByName[spec.Name]; ok {
			continue
		}
		created, err := s.voices.Create(ctx, nil, []*types.Voice{voiceFromSpec(spec)})
		if err != nil {
			return fmt.Errorf("seed voice %q: %w", spec.Name, err)
		}
		voiceByName[spec.Name] = created[0]
		s.log.Info("seeded voice", "name", spec.Name)
	}

	modelByName := map[string]*types.StoryModel{}
	for _, spec := range f.StoryModels {
		existing, err := s.models.GetByName(ctx, nil, spec.Name)
		if err != nil {
			return fmt.Errorf("seed story model %q: %w", spec.Name, err)
		}
		if existing != nil {
			modelByName[spec.Name] = existing
			continue
		}
		created, err := s.models.Create(ctx, nil, []*types.StoryModel{modelFromSpec(spec)})
		if err != nil {
			return fmt.Errorf("seed story model %q: %w", spec.Name, err)
		}
		modelByName[spec.Name] = created[0]
		s.log.Info("seeded story model", "name", spec.Name, "sections", len(spec.Sections))
	}

	existingTemplates, err := s.templates.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}
	templateNames := map[string]bool{}
	for _, t := range existingTemplates {
		templateNames[t.Name] = true
	}
	for _, spec := range f.Templates {
		if templateNames[spec.Name] {
			continue
		}
		model, ok := modelByName[spec.StoryModel]
		if !ok {
			return fmt.Errorf("seed template %q: unknown story model %q", spec.Name, spec.StoryModel)
		}
		voice, ok := voiceByName[spec.DefaultVoice]
		if !ok {
			return fmt.Errorf("seed template %q: unknown voice %q", spec.Name, spec.DefaultVoice)
		}
		if _, err := s.templates.Create(ctx, nil, []*types.Template{templateFromSpec(spec, model.ID, voice.ID)}); err != nil {
			return fmt.Errorf("seed template %q: %w", spec.Name, err)
		}
		s.log.Info("seeded template", "name", spec.Name)
	}
	return nil
}

func voiceFromSpec(spec VoiceSpec) *types.Voice {
	status := types.VoiceStatusDraft
	if spec.Approved {
		status = types.VoiceStatusApproved
	}
	voice := &types.Voice{
		Name:        spec.Name,
		Version:     "1.0",
		Status:      status,
		Traits:      spec.Traits,
		CompanyName: spec.CompanyName,
	}
	if t := spec.ToneRules; t != nil {
		voice.ToneRules = &types.ToneRules{
			Formality:      t.Formality,
			PointOfView:    t.PointOfView,
			SentenceLength: t.SentenceLength,
			Voice:          t.Voice,
			Contractions:   t.Contractions,
			Tense:          t.Tense,
		}
	}
	if l := spec.Lexicon; l != nil {
		voice.Lexicon = &types.Lexicon{
			Branded:   l.Branded,
			Preferred: l.Preferred,
			Required:  l.Required,
			Banned:    l.Banned,
		}
	}
	if g := spec.Guardrails; g != nil {
		voice.StyleGuardrails = &types.StyleGuardrails{
			Do:          g.Do,
			Dont:        g.Dont,
			Punctuation: g.Punctuation,
		}
	}
	return voice
}

func modelFromSpec(spec StoryModelSpec) *types.StoryModel {
	model := &types.StoryModel{
		Name:        spec.Name,
		Description: spec.Description,
	}
	for _, sec := range spec.Sections {
		model.Sections = append(model.Sections, types.Section{
			Name:               sec.Name,
			Intent:             sec.Intent,
			Order:              sec.Order,
			Required:           sec.Required,
			ExtractionStrategy: types.ExtractionStrategy(sec.ExtractionStrategy),
			FieldPath:          sec.FieldPath,
			SelectionCount:     sec.SelectionCount,
			InstanceFields:     sec.InstanceFields,
			CompositionSources: sec.CompositionSources,
			Format:             sec.Format,
			MaxWords:           sec.MaxWords,
			QuoteNumber:        sec.QuoteNumber,
			TransformProfile:   sec.TransformProfile,
		})
	}
	for _, c := range spec.Constraints {
		model.Constraints = append(model.Constraints, types.SectionConstraint{
			SectionName:    c.SectionName,
			ConstraintType: c.ConstraintType,
			MaxWords:       c.MaxWords,
			ElementName:    c.ElementName,
			Fields:         c.Fields,
		})
	}
	return model
}

func templateFromSpec(spec TemplateSpec, storyModelID, voiceID uuid.UUID) *types.Template {
	tmpl := &types.Template{
		Name:             spec.Name,
		Version:          "1.0",
		StoryModelID:     storyModelID,
		DefaultVoiceID:   voiceID,
		Status:           types.TemplateStatusApproved,
		ProfileOverrides: spec.ProfileOverrides,
	}
	for _, r := range spec.ValidationRules {
		tmpl.ValidationRules = append(tmpl.ValidationRules, types.TemplateRule{
			RuleType:     r.RuleType,
			SectionName:  r.SectionName,
			MaxWordCount: r.MaxWordCount,
			ElementName:  r.ElementName,
			Fields:       r.Fields,
			MinItems:     r.MinItems,
			Pattern:      r.Pattern,
			ErrorMessage: r.ErrorMessage,
		})
	}
	for _, fld := range spec.InstanceFields {
		tmpl.InstanceFields = append(tmpl.InstanceFields, types.InstanceField{
			Name:         fld.Name,
			FieldType:    fld.FieldType,
			Required:     fld.Required,
			Description:  fld.Description,
			DefaultValue: fld.DefaultValue,
		})
	}
	return tmpl
}

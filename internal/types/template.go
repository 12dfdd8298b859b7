package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TemplateStatus string

const (
	TemplateStatusDraft    TemplateStatus = "draft"
	TemplateStatusApproved TemplateStatus = "approved"
	TemplateStatusArchived TemplateStatus = "archived"
)

// InstanceField declares a caller-supplied field a deliverable built from
// this template must (or may) carry in its instance data.
type InstanceField struct {
	Name         string `json:"name"`
	FieldType    string `json:"field_type,omitempty"` // "text" | "date" | "number" | "email" | "url"
	Required     bool   `json:"required"`
	Description  string `json:"description,omitempty"`
	DefaultValue string `json:"default_value,omitempty"`
}

// TemplateRule is a template-level validation rule, parameterized by target
// section.
type TemplateRule struct {
	RuleType     string   `json:"rule_type"` // max_word_count | require_element | require_fields | require_attribution | min_items | require_pattern | non_empty
	SectionName  string   `json:"section_name,omitempty"`
	MaxWordCount int      `json:"max_word_count,omitempty"`
	ElementName  string   `json:"element_name,omitempty"`
	Fields       []string `json:"fields,omitempty"`
	MinItems     int      `json:"min_items,omitempty"`
	Pattern      string   `json:"pattern,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

// BindingRule tunes how a section binding uses its elements.
type BindingRule struct {
	Quantity       int    `json:"quantity,omitempty"`
	Transformation string `json:"transformation,omitempty"` // "excerpt" | "summary" | "full"
	MaxLength      int    `json:"max_length,omitempty"`
	Format         string `json:"format,omitempty"` // "bullet" | "paragraph" | "quote"
}

// Template assembles a story model, a default voice, validation rules and
// section bindings into a reusable deliverable blueprint.
type Template struct {
	ID               uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name             string            `gorm:"column:name;not null" json:"name"`
	Version          string            `gorm:"column:version;not null;default:'1.0'" json:"version"`
	StoryModelID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"story_model_id"`
	StoryModel       *StoryModel       `gorm:"constraint:OnDelete:RESTRICT;foreignKey:StoryModelID;references:ID" json:"story_model,omitempty"`
	DefaultVoiceID   uuid.UUID         `gorm:"type:uuid;not null" json:"default_voice_id"`
	Status           TemplateStatus    `gorm:"column:status;not null;default:'draft'" json:"status"`
	ValidationRules  []TemplateRule    `gorm:"column:validation_rules;serializer:json" json:"validation_rules"`
	InstanceFields   []InstanceField   `gorm:"column:instance_fields;serializer:json" json:"instance_fields"`
	ProfileOverrides map[string]string `gorm:"column:profile_overrides;serializer:json" json:"profile_overrides,omitempty"`
	Metadata         datatypes.JSON    `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt        time.Time         `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null;default:now()" json:"updated_at"`
}

func (Template) TableName() string { return "template" }

// SectionBinding declares which elements (or instance-data fields) fill a
// given structural section of a template.
type SectionBinding struct {
	ID           uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TemplateID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"template_id"`
	Template     *Template    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TemplateID;references:ID" json:"template,omitempty"`
	SectionName  string       `gorm:"column:section_name;not null" json:"section_name"`
	SectionOrder int          `gorm:"column:section_order;not null;default:0" json:"section_order"`
	ElementIDs   []uuid.UUID  `gorm:"column:element_ids;serializer:json" json:"element_ids"`
	BindingRules *BindingRule `gorm:"column:binding_rules;serializer:json" json:"binding_rules,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:now()" json:"created_at"`
}

func (SectionBinding) TableName() string { return "section_binding" }

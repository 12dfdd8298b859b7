package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ExtractionStrategy names how a section composes its raw text from bound
// elements and instance data.
type ExtractionStrategy string

const (
	ExtractFullContent    ExtractionStrategy = "full_content"
	ExtractFieldFromBlock ExtractionStrategy = "field_extraction"
	ExtractFiveWs         ExtractionStrategy = "five_ws"
	ExtractComposed       ExtractionStrategy = "composed"
	ExtractInstanceData   ExtractionStrategy = "instance_data"
	ExtractStructuredList ExtractionStrategy = "structured_list"
	ExtractKeyMessage     ExtractionStrategy = "key_message"
	ExtractQuote          ExtractionStrategy = "quote"
)

// Section defines one structural slot of a story model, including the
// composition strategy for the section composer and an optional
// transformation-profile override for the resolver cascade.
type Section struct {
	Name               string             `json:"name"`
	Intent             string             `json:"intent,omitempty"`
	Order              int                `json:"order"`
	Required           bool               `json:"required"`
	ExtractionStrategy ExtractionStrategy `json:"extraction_strategy,omitempty"`

	// Strategy parameters. Which ones apply depends on ExtractionStrategy.
	FieldPath          string   `json:"field_path,omitempty"`
	SelectionCount     int      `json:"selection_count,omitempty"`
	InstanceFields     []string `json:"instance_fields,omitempty"`
	CompositionSources []string `json:"composition_sources,omitempty"`
	Format             string   `json:"format,omitempty"` // "bullets" | "numbered" | "paragraph"
	MaxWords           int      `json:"max_words,omitempty"`
	QuoteNumber        int      `json:"quote_number,omitempty"`

	// TransformProfile, when set, overrides the section-name default table
	// (story-model level of the cascade).
	TransformProfile string `json:"transform_profile,omitempty"`
}

// SectionConstraint is a story-model-level validation rule for one section.
type SectionConstraint struct {
	SectionName    string   `json:"section_name"`
	ConstraintType string   `json:"constraint_type"` // "max_words" | "requires_element" | "requires_fields"
	MaxWords       int      `json:"max_words,omitempty"`
	ElementName    string   `json:"element_name,omitempty"`
	Fields         []string `json:"fields,omitempty"`
}

// StoryModel is a named narrative structure (PAS, Inverted Pyramid, ...)
// with ordered sections and validation constraints.
type StoryModel struct {
	ID          uuid.UUID           `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string              `gorm:"column:name;not null" json:"name"`
	Description string              `gorm:"column:description" json:"description"`
	Sections    []Section           `gorm:"column:sections;serializer:json" json:"sections"`
	Constraints []SectionConstraint `gorm:"column:constraints;serializer:json" json:"constraints"`
	Metadata    datatypes.JSON      `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt   time.Time           `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"not null;default:now()" json:"updated_at"`
}

func (StoryModel) TableName() string { return "story_model" }

// SectionByName returns the section definition for name, if any.
func (m *StoryModel) SectionByName(name string) *Section {
	for i := range m.Sections {
		if m.Sections[i].Name == name {
			return &m.Sections[i]
		}
	}
	return nil
}

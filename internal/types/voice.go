package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type VoiceStatus string

const (
	VoiceStatusDraft    VoiceStatus = "draft"
	VoiceStatusApproved VoiceStatus = "approved"
	VoiceStatusArchived VoiceStatus = "archived"
)

// ToneRules configures register and grammar preferences for a voice.
type ToneRules struct {
	Formality      string `json:"formality,omitempty"`
	PointOfView    string `json:"point_of_view,omitempty"`
	SentenceLength string `json:"sentence_length,omitempty"`
	Voice          string `json:"voice,omitempty"`
	Contractions   string `json:"contractions,omitempty"`
	Tense          string `json:"tense,omitempty"`
}

// Lexicon carries branded, preferred and banned terms. Branded maps generic
// phrasings (e.g. "the company") onto the brand term; Preferred maps
// industry-standard terms onto brand terminology.
type Lexicon struct {
	Branded   map[string]string `json:"branded,omitempty"`
	Preferred map[string]string `json:"preferred,omitempty"`
	Required  []string          `json:"required,omitempty"`
	Banned    []string          `json:"banned,omitempty"`
}

// StyleGuardrails lists do's and don'ts passed verbatim to the style filter.
type StyleGuardrails struct {
	Do          []string `json:"do,omitempty"`
	Dont        []string `json:"dont,omitempty"`
	Punctuation string   `json:"punctuation,omitempty"`
}

// Voice is a brand voice: the stylistic configuration the transformation
// resolver hands to the style filter.
type Voice struct {
	ID               uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name             string           `gorm:"column:name;not null" json:"name"`
	Version          string           `gorm:"column:version;not null;default:'1.0'" json:"version"`
	Status           VoiceStatus      `gorm:"column:status;not null;default:'draft'" json:"status"`
	Traits           []string         `gorm:"column:traits;serializer:json" json:"traits"`
	ToneRules        *ToneRules       `gorm:"column:tone_rules;serializer:json" json:"tone_rules,omitempty"`
	StyleGuardrails  *StyleGuardrails `gorm:"column:style_guardrails;serializer:json" json:"style_guardrails,omitempty"`
	Lexicon          *Lexicon         `gorm:"column:lexicon;serializer:json" json:"lexicon,omitempty"`
	ReadabilityRange string           `gorm:"column:readability_range" json:"readability_range,omitempty"`
	CompanyName      string           `gorm:"column:company_name" json:"company_name,omitempty"`
	ParentVoiceID    *uuid.UUID       `gorm:"type:uuid" json:"parent_voice_id,omitempty"`
	Metadata         datatypes.JSON   `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt        time.Time        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"not null;default:now()" json:"updated_at"`
}

func (Voice) TableName() string { return "voice" }

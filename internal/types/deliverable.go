package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DeliverableStatus string

const (
	DeliverableStatusDraft      DeliverableStatus = "draft"
	DeliverableStatusReview     DeliverableStatus = "review"
	DeliverableStatusApproved   DeliverableStatus = "approved"
	DeliverableStatusPublished  DeliverableStatus = "published"
	DeliverableStatusSuperseded DeliverableStatus = "superseded"
)

// ValidationLogEntry records one validation rule outcome. Entries are ordered
// and stored with the deliverable row they were computed for.
type ValidationLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Rule      string    `json:"rule"`
	Passed    bool      `json:"passed"`
	Message   string    `json:"message,omitempty"`
}

// Deliverable is one immutable rendered version of a document. Updating a
// deliverable never mutates an existing row's rendered content; it creates a
// new row with Version+1, marks the old one superseded, and links through
// PrevDeliverableID.
type Deliverable struct {
	ID                uuid.UUID            `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name              string               `gorm:"column:name;not null" json:"name"`
	TemplateID        uuid.UUID            `gorm:"type:uuid;not null;index" json:"template_id"`
	TemplateVersion   string               `gorm:"column:template_version" json:"template_version"`
	StoryModelID      uuid.UUID            `gorm:"type:uuid;not null" json:"story_model_id"`
	VoiceID           uuid.UUID            `gorm:"type:uuid;not null" json:"voice_id"`
	VoiceVersion      string               `gorm:"column:voice_version" json:"voice_version"`
	Status            DeliverableStatus    `gorm:"column:status;not null;default:'draft';index" json:"status"`
	Version           int                  `gorm:"column:version;not null;default:1" json:"version"`
	PrevDeliverableID *uuid.UUID           `gorm:"type:uuid;index" json:"prev_deliverable_id,omitempty"`
	InstanceData      map[string]string    `gorm:"column:instance_data;serializer:json" json:"instance_data"`
	ElementVersions   map[string]string    `gorm:"column:element_versions;serializer:json" json:"element_versions"`
	RenderedContent   map[string]string    `gorm:"column:rendered_content;serializer:json" json:"rendered_content"`
	ValidationLog     []ValidationLogEntry `gorm:"column:validation_log;serializer:json" json:"validation_log"`
	Metadata          datatypes.JSON       `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt         time.Time            `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time            `gorm:"not null;default:now()" json:"updated_at"`
}

func (Deliverable) TableName() string { return "deliverable" }

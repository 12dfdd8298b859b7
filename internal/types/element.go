package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ElementStatus string

const (
	ElementStatusDraft      ElementStatus = "draft"
	ElementStatusApproved   ElementStatus = "approved"
	ElementStatusSuperseded ElementStatus = "superseded"
)

// Layer is a logical grouping for elements (e.g. Category, Vision,
// Messaging). It carries no behavior.
type Layer struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string         `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description string         `gorm:"column:description" json:"description"`
	OrderIndex  int            `gorm:"column:order_index;not null;default:0" json:"order_index"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Layer) TableName() string { return "layer" }

// Element is an atomic, versioned, named unit of narrative content. Versions
// of the same logical element share Name and link backwards through
// PrevElementID; at most one element per name is approved at any time.
type Element struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LayerID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"layer_id"`
	Layer         *Layer         `gorm:"constraint:OnDelete:CASCADE;foreignKey:LayerID;references:ID" json:"layer,omitempty"`
	Name          string         `gorm:"column:name;not null;index" json:"name"`
	Content       string         `gorm:"column:content;type:text" json:"content"`
	Version       string         `gorm:"column:version;not null;default:'1.0'" json:"version"`
	Status        ElementStatus  `gorm:"column:status;not null;default:'draft';index" json:"status"`
	PrevElementID *uuid.UUID     `gorm:"type:uuid;index" json:"prev_element_id,omitempty"`
	Metadata      datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Element) TableName() string { return "element" }

// ImpactAlert is computed on read and never persisted: it signals that a
// deliverable's recorded element version is behind the element's current
// draft or approved version.
type ImpactAlert struct {
	ElementID   uuid.UUID `json:"element_id"`
	ElementName string    `json:"element_name"`
	OldVersion  string    `json:"old_version"`
	NewVersion  string    `json:"new_version"`
	Status      string    `json:"status"` // "update_pending" | "update_available"
	Message     string    `json:"message"`
}

const (
	AlertUpdatePending   = "update_pending"
	AlertUpdateAvailable = "update_available"
)

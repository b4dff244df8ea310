package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document is one page of project documentation. Blocks is an ordered
// array of opaque editor nodes; this service never interprets block
// internals, only stores and returns them.
type Document struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_document_project_slug" json:"project_id"`
	Project     *Project       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	Slug        string         `gorm:"column:slug;not null;uniqueIndex:idx_document_project_slug" json:"slug"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description" json:"description,omitempty"`
	Blocks      datatypes.JSON `gorm:"column:blocks;type:jsonb" json:"blocks"`
	Published   bool           `gorm:"column:published;not null;default:true" json:"published"`
	OrderIndex  int            `gorm:"column:order_index;not null;default:0" json:"order_index"`
	CreatedBy   uuid.UUID      `gorm:"type:uuid;column:created_by" json:"created_by"`
	UpdatedBy   uuid.UUID      `gorm:"type:uuid;column:updated_by" json:"updated_by"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "document" }

// DocMeta is the listing projection of a document (no blocks).
type DocMeta struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Published   bool      `json:"published"`
	OrderIndex  int       `json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d *Document) Meta() DocMeta {
	return DocMeta{
		ID:          d.ID,
		Slug:        d.Slug,
		Title:       d.Title,
		Description: d.Description,
		Published:   d.Published,
		OrderIndex:  d.OrderIndex,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

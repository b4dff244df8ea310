package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Navigation holds the single table-of-contents tree for a project.
// Structure is the jsonb {title, version, routes} aggregate; Revision
// is the compare-and-swap token every replace must present.
type Navigation struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"project_id"`
	Project   *Project       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	Structure datatypes.JSON `gorm:"column:structure;type:jsonb" json:"structure"`
	Revision  int            `gorm:"column:revision;not null;default:0" json:"revision"`
	UpdatedBy uuid.UUID      `gorm:"type:uuid;column:updated_by" json:"updated_by"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Navigation) TableName() string { return "navigation" }

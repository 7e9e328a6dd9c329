package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ActivityLog is the append-only audit trail. One row per significant
// state change, written inside the same transaction as the mutation it
// documents.
type ActivityLog struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	UserID         string         `gorm:"size:255;not null" json:"user_id"`
	EntityType     string         `gorm:"size:50;not null;index" json:"entity_type"` // supplier, vehicle, quote_request, ...
	EntityID       uuid.UUID      `gorm:"type:uuid;index" json:"entity_id"`
	Action         string         `gorm:"size:50;not null" json:"action"` // created, updated, deleted, sent, converted, ...
	Description    string         `gorm:"size:500" json:"description,omitempty"`
	Details        datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"details,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for ActivityLog
func (ActivityLog) TableName() string {
	return "activity_logs"
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Part is a catalog entry in the organization's parts inventory.
type Part struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_part_org_number" json:"organization_id"`
	PartNumber     string         `gorm:"size:100;not null;uniqueIndex:idx_part_org_number" json:"part_number"`
	Description    string         `gorm:"size:500;not null" json:"description"`
	Category       string         `gorm:"size:100;index" json:"category,omitempty"` // hydraulics, filters, electrical, ...
	Manufacturer   string         `gorm:"size:255" json:"manufacturer,omitempty"`
	UnitPrice      float64        `gorm:"type:decimal(12,2);default:0" json:"unit_price"`
	QuantityOnHand int            `gorm:"default:0" json:"quantity_on_hand"`
	ReorderPoint   int            `gorm:"default:0" json:"reorder_point"`
	ImageURLs      pq.StringArray `gorm:"type:text[]" json:"image_urls,omitempty"`
	Notes          string         `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName specifies the table name for Part
func (Part) TableName() string {
	return "parts"
}

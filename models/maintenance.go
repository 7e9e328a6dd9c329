package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MaintenanceType classifies why a unit went into the shop
type MaintenanceType string

const (
	MaintenanceTypeScheduled  MaintenanceType = "SCHEDULED"
	MaintenanceTypeRepair     MaintenanceType = "REPAIR"
	MaintenanceTypeInspection MaintenanceType = "INSPECTION"
)

// MaintenanceStatus tracks the job lifecycle
type MaintenanceStatus string

const (
	MaintenanceStatusScheduled  MaintenanceStatus = "SCHEDULED"
	MaintenanceStatusInProgress MaintenanceStatus = "IN_PROGRESS"
	MaintenanceStatusCompleted  MaintenanceStatus = "COMPLETED"
	MaintenanceStatusCancelled  MaintenanceStatus = "CANCELLED"
)

// MaintenanceRecord is one service event on a vehicle, with the parts
// consumed by the job.
type MaintenanceRecord struct {
	ID             uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrganizationID uuid.UUID         `gorm:"type:uuid;not null;index" json:"organization_id"`
	VehicleID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle        *Vehicle          `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	Type           MaintenanceType   `gorm:"size:20;not null;default:'SCHEDULED'" json:"type"`
	Status         MaintenanceStatus `gorm:"size:20;not null;default:'SCHEDULED';index" json:"status"`
	Description    string            `gorm:"type:text;not null" json:"description"`
	ScheduledDate  *time.Time        `json:"scheduled_date,omitempty"`
	CompletedDate  *time.Time        `json:"completed_date,omitempty"`
	MeterReading   float64           `gorm:"type:decimal(12,1);default:0" json:"meter_reading"`
	LaborCost      float64           `gorm:"type:decimal(12,2);default:0" json:"labor_cost"`
	PartsCost      float64           `gorm:"type:decimal(12,2);default:0" json:"parts_cost"`
	Photos         pq.StringArray    `gorm:"type:text[]" json:"photos,omitempty"`
	PerformedBy    string            `gorm:"size:255" json:"performed_by,omitempty"`
	CreatedBy      string            `gorm:"size:255;not null" json:"created_by"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`

	Parts []MaintenancePart `gorm:"foreignKey:MaintenanceRecordID" json:"parts,omitempty"`
}

// TableName specifies the table name for MaintenanceRecord
func (MaintenanceRecord) TableName() string {
	return "maintenance_records"
}

// MaintenancePart is a part line consumed by a maintenance job.
type MaintenancePart struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MaintenanceRecordID uuid.UUID `gorm:"type:uuid;not null;index" json:"maintenance_record_id"`
	PartNumber          string    `gorm:"size:100;not null" json:"part_number"`
	Description         string    `gorm:"size:500" json:"description,omitempty"`
	Quantity            int       `gorm:"not null;default:1" json:"quantity"`
	UnitCost            float64   `gorm:"type:decimal(12,2);default:0" json:"unit_cost"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for MaintenancePart
func (MaintenancePart) TableName() string {
	return "maintenance_parts"
}

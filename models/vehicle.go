package models

import (
	"time"

	"github.com/google/uuid"
)

// VehicleStatus tracks whether a unit is in service
type VehicleStatus string

const (
	VehicleStatusActive      VehicleStatus = "ACTIVE"
	VehicleStatusMaintenance VehicleStatus = "MAINTENANCE"
	VehicleStatusRetired     VehicleStatus = "RETIRED"
)

// Vehicle is a fleet unit (truck, excavator, loader, ...) parts are
// ordered for.
type Vehicle struct {
	ID             uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrganizationID uuid.UUID     `gorm:"type:uuid;not null;index;uniqueIndex:idx_vehicle_org_unit" json:"organization_id"`
	UnitNumber     string        `gorm:"size:50;not null;uniqueIndex:idx_vehicle_org_unit" json:"unit_number"`
	Make           string        `gorm:"size:100" json:"make,omitempty"`
	Model          string        `gorm:"size:100" json:"model,omitempty"`
	Year           int           `json:"year,omitempty"`
	VIN            string        `gorm:"size:50" json:"vin,omitempty"`
	Type           string        `gorm:"size:50" json:"type,omitempty"` // truck, excavator, loader, trailer
	Status         VehicleStatus `gorm:"size:20;not null;default:'ACTIVE';index" json:"status"`
	MeterReading   float64       `gorm:"type:decimal(12,1);default:0" json:"meter_reading"` // hours or km
	MeterUnit      string        `gorm:"size:10;default:'hours'" json:"meter_unit"`
	Notes          string        `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`

	MaintenanceRecords []MaintenanceRecord `gorm:"foreignKey:VehicleID" json:"maintenance_records,omitempty"`
}

// TableName specifies the table name for Vehicle
func (Vehicle) TableName() string {
	return "vehicles"
}

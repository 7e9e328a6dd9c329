package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant boundary. Every domain entity carries an
// OrganizationID and every query is scoped to the caller's organization.
type Organization struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name     string    `gorm:"size:255;not null" json:"name"`
	Slug     string    `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Email    string    `gorm:"size:255" json:"email,omitempty"`
	Phone    string    `gorm:"size:50" json:"phone,omitempty"`
	Address  string    `gorm:"type:text" json:"address,omitempty"`
	IsActive bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`

	Users []User `gorm:"foreignKey:OrganizationID" json:"users,omitempty"`
}

// TableName specifies the table name for Organization
func (Organization) TableName() string {
	return "organizations"
}

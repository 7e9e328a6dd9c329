package models

import (
	"time"

	"github.com/google/uuid"
)

// SupplierType classifies where a supplier sits in the parts market
type SupplierType string

const (
	SupplierTypeDealer      SupplierType = "DEALER"
	SupplierTypeDistributor SupplierType = "DISTRIBUTOR"
	SupplierTypeJobber      SupplierType = "JOBBER"
	SupplierTypeSalvage     SupplierType = "SALVAGE"
	SupplierTypeOther       SupplierType = "OTHER"
)

// SupplierStatus marks whether a supplier is in rotation
type SupplierStatus string

const (
	SupplierStatusActive   SupplierStatus = "ACTIVE"
	SupplierStatusInactive SupplierStatus = "INACTIVE"
)

// Supplier is a parts vendor the organization requests quotes from.
// Email is the primary address; AuxiliaryEmails cover replies that come
// from other mailboxes at the same vendor.
type Supplier struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_supplier_org_code" json:"organization_id"`
	Code           string         `gorm:"size:50;not null;uniqueIndex:idx_supplier_org_code" json:"code"`
	Name           string         `gorm:"size:255;not null" json:"name"`
	Type           SupplierType   `gorm:"size:20;not null;default:'OTHER'" json:"type"`
	Status         SupplierStatus `gorm:"size:20;not null;default:'ACTIVE';index" json:"status"`
	ContactName    string         `gorm:"size:255" json:"contact_name,omitempty"`
	Email          string         `gorm:"size:255" json:"email,omitempty"`
	Phone          string         `gorm:"size:50" json:"phone,omitempty"`
	Address        string         `gorm:"type:text" json:"address,omitempty"`
	City           string         `gorm:"size:100" json:"city,omitempty"`
	State          string         `gorm:"size:100" json:"state,omitempty"`
	PostalCode     string         `gorm:"size:20" json:"postal_code,omitempty"`
	Notes          string         `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`

	AuxiliaryEmails []AuxiliaryEmail `gorm:"foreignKey:SupplierID" json:"auxiliary_emails,omitempty"`
}

// TableName specifies the table name for Supplier
func (Supplier) TableName() string {
	return "suppliers"
}

// AuxiliaryEmail is an extra inbox for a supplier, used when matching
// inbound mail that did not come from the primary address.
type AuxiliaryEmail struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SupplierID uuid.UUID `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier   *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Email      string    `gorm:"size:255;not null" json:"email"`
	Name       string    `gorm:"size:255" json:"name,omitempty"`
	Phone      string    `gorm:"size:50" json:"phone,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for AuxiliaryEmail
func (AuxiliaryEmail) TableName() string {
	return "auxiliary_emails"
}

// AllEmails returns the primary address plus every auxiliary address,
// skipping blanks.
func (s *Supplier) AllEmails() []string {
	emails := make([]string, 0, len(s.AuxiliaryEmails)+1)
	if s.Email != "" {
		emails = append(emails, s.Email)
	}
	for _, aux := range s.AuxiliaryEmails {
		if aux.Email != "" {
			emails = append(emails, aux.Email)
		}
	}
	return emails
}

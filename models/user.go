// models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role levels within an organization. Admins manage users and can delete
// anything; managers run the purchasing workflow; members are read-mostly.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
)

type User struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string        `gorm:"size:100;not null" json:"name"`
	Email          string        `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone          string        `gorm:"size:15" json:"phone,omitempty"`
	PasswordHash   string        `gorm:"size:255;not null" json:"-"`
	Role           string        `gorm:"size:20;not null;default:'member'" json:"role"`
	OrganizationID uuid.UUID     `gorm:"type:uuid;not null;index" json:"organization_id"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	IsActive       bool          `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// CanManage reports whether the user's role grants destructive operations
// (deletes, conversions) on organization data.
func (u *User) CanManage() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Employee roles, most privileged first
const (
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
	RoleTailor  = "Tailor"
	RoleCashier = "Cashier"
)

// Roles lists every role an employee account may hold
var Roles = []string{RoleAdmin, RoleManager, RoleTailor, RoleCashier}

// User is an employee account. Identity is delegated to Auth0; the role lives here.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   *string        `gorm:"uniqueIndex" json:"auth0_id,omitempty"` // 'sub' claim, set on first login or by an admin
	FullName  string         `gorm:"not null" json:"full_name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string         `json:"phone"`
	Role      string         `gorm:"not null;default:'Tailor'" json:"role"`
	Active    bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsElevated reports whether the user may cancel orders and edit financials
func (u User) IsElevated() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}

// IsValidRole reports whether role is one of the known employee roles
func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// internal/domain/user/entity.go
package user

import (
	"time"

	"gorm.io/gorm"
)

// Roles
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// User represents a portal account. Customers see their own orders and
// invoices; admins see everything.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;size:255" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password  string         `gorm:"not null;size:255" json:"-"`
	Role      string         `gorm:"not null;size:20;default:'customer'" json:"role"`
	Company   string         `gorm:"size:255" json:"company,omitempty"`
	Phone     string         `gorm:"size:50" json:"phone,omitempty"`
	IsActive  bool           `gorm:"default:true" json:"isActive"`
	LastLogin *time.Time     `json:"lastLogin,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (User) TableName() string { return "users" }

// IsAdmin reports whether the account has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

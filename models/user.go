package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the closed set of principal roles known to the marketplace
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSHG      Role = "shg"
	RoleAdmin    Role = "admin"
)

// ParseRole converts a claim value into a Role, reporting whether it is known
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCustomer, RoleSHG, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// User represents a user in the system (customer, SHG operator or admin)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string         `json:"phone"`
	Role      Role           `gorm:"not null;default:'customer'" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// Principal is the authenticated caller of a request
type Principal struct {
	ID    uint
	Role  Role
	Name  string
	Phone string
}

// Principal returns the request principal view of the user
func (u User) Principal() Principal {
	return Principal{ID: u.ID, Role: u.Role, Name: u.Name, Phone: u.Phone}
}

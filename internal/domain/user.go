package domain

import "time" // Timestamps and durations

// Role is the closed set of account roles
type Role string

const (
	RoleAdmin      Role = "admin"      // Manages catalog and own cart
	RoleSuperAdmin Role = "superadmin" // Everything, including user management
)

// Roles lists every valid role
var Roles = []Role{RoleSuperAdmin, RoleAdmin}

// ParseRole validates a role name
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                             // Primary key
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`       // Unique, lower-cased email
	Password  string    `gorm:"size:255;not null" json:"-"`                       // Hashed password
	Role      Role      `gorm:"size:20;not null;default:admin;index" json:"role"` // Role: superadmin or admin
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package model

import (
	"fmt"
	"time"
)

// User represents an authentication user.
type User struct {
	ID           int64      `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         string     `json:"role" db:"role"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Roles.
const (
	RoleOwner    = "owner"
	RoleOperator = "operator"
)

// Capability names an action or view that is granted per role.
type Capability string

// Capabilities.
const (
	CapViewPrices    Capability = "view_prices"
	CapManageCatalog Capability = "manage_catalog"
	CapManageUsers   Capability = "manage_users"
)

var roleCapabilities = map[string][]Capability{
	RoleOwner:    {CapViewPrices, CapManageCatalog, CapManageUsers},
	RoleOperator: {},
}

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	_, ok := roleCapabilities[role]
	return ok
}

// RoleCan reports whether role has been granted the capability.
// Unknown roles have no capabilities.
func RoleCan(role string, c Capability) bool {
	for _, granted := range roleCapabilities[role] {
		if granted == c {
			return true
		}
	}
	return false
}

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ValidatePassword checks that a password meets the minimum requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

package domain

import (
	"slices"
	"strings"
	"time"
)

// Roles carried in access tokens.
const (
	RoleClient = "client" // self-registered
	RoleStaff  = "staff"  // joined through an invitation
	RoleAdmin  = "admin"
)

type User struct {
	ID           string
	Email        string // stored normalised, see NormalizeEmail
	PasswordHash string // argon2id PHC string
	Roles        []string
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// NormalizeEmail is applied before every write and lookup so addresses
// compare case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

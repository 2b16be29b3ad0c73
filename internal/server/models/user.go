// Package models defines the records persisted by the repositories.
package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// PasswordReset is an active one-time-password reset. A user either has one
// or has none; code and expiry never exist apart.
type PasswordReset struct {
	Code      string
	ExpiresAt time.Time
}

// Active reports whether the reset can still be used at now.
func (r *PasswordReset) Active(now time.Time) bool {
	return r != nil && now.Before(r.ExpiresAt)
}

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Reset        *PasswordReset
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents the account that owns stored backup codes.
type User struct {
	ID             uuid.UUID
	Email          string
	Name           *string
	CodeKey        string // root secret used to sign code tokens, rotated wholesale
	CodeKeyVersion int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// CodeKey is the versioned signing key a user's code tokens are bound to.
// Rotating the key bumps the version and invalidates every previously
// issued token.
type CodeKey struct {
	Secret  string
	Version int
}

// Key returns the user's current signing key.
func (u *User) Key() CodeKey {
	return CodeKey{Secret: u.CodeKey, Version: u.CodeKeyVersion}
}

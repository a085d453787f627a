package domain

import (
	"time"

	"github.com/google/uuid"
)

// CodeStatus represents the lifecycle state of a stored backup code.
type CodeStatus string

const (
	CodeStatusActive  CodeStatus = "active"
	CodeStatusUsed    CodeStatus = "used"
	CodeStatusExpired CodeStatus = "expired"
)

// Valid reports whether s is a known code status.
func (s CodeStatus) Valid() bool {
	switch s {
	case CodeStatusActive, CodeStatusUsed, CodeStatusExpired:
		return true
	}
	return false
}

// Domain represents one external account/service a set of backup codes
// belongs to.
type Domain struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	TotalCodes int
	// RemainingCodes is the count of codes still active. It is a projection
	// computed at read time, never a stored counter.
	RemainingCodes int
	CreatedAt      time.Time
	Codes          []Code
}

// Code is a single stored backup code. Token holds the encoded form; the
// raw code never touches storage.
type Code struct {
	ID        uuid.UUID
	DomainID  uuid.UUID
	Slot      int // 1-based position in original submission order, unique per domain
	Token     string
	Status    CodeStatus
	UsedAt    *time.Time
	CreatedAt time.Time
}

// IsUsed returns true if the code has been consumed.
func (c *Code) IsUsed() bool {
	return c.Status == CodeStatusUsed
}

// DecodeFailReason classifies why a token could not be decoded.
type DecodeFailReason string

const (
	DecodeFailRotated   DecodeFailReason = "rotated"
	DecodeFailExpired   DecodeFailReason = "expired"
	DecodeFailMalformed DecodeFailReason = "malformed"
)

// DecodedCode is the read-side view of a Code. Value holds the recovered
// raw code when Decoded is true; otherwise it carries the stored token
// unchanged so display of sibling codes is never blocked by one bad entry.
type DecodedCode struct {
	Code
	Value      string
	Decoded    bool
	FailReason DecodeFailReason
}

// DecodedDomain is a Domain with its codes decoded for display.
type DecodedDomain struct {
	Domain
	DecodedCodes []DecodedCode
}

package domain

import "errors"

// Lookup errors
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDomainNotFound = errors.New("domain not found")
)

// Validation errors
var (
	ErrEmptyCode     = errors.New("code must not be empty")
	ErrEmptyName     = errors.New("domain name must not be empty")
	ErrEmptyEmail    = errors.New("email must not be empty")
	ErrNoCodes       = errors.New("at least one code is required")
	ErrInvalidStatus = errors.New("invalid code status")
)

// Extraction errors
var (
	ErrEmptyInput   = errors.New("input contains no text")
	ErrNoCodesFound = errors.New("no backup codes found in input")
)

// Conflict errors
var (
	ErrDomainExists = errors.New("domain with this name already exists")
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
)

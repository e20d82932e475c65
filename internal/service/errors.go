package service

import (
	"errors"
	"fmt"
)

// Validation reasons, reported through *ValidationError.
var (
	ErrMissingDestination = errors.New("destination is required")
	ErrInvalidURL         = errors.New("invalid URL format")
	ErrCodeTooLong        = errors.New("short code is too long")
	ErrCodeTaken          = errors.New("short code is already taken")
	ErrInvalidCode        = errors.New("short code must be valid UTF-8 without NUL characters")
	ErrInvalidExpiration  = errors.New("invalid expiration date")
	ErrPasswordTooLong    = errors.New("password is too long")
)

// Outcomes of the read and write paths.
var (
	ErrNotFound          = errors.New("short code not found")
	ErrExpired           = errors.New("short code has expired")
	ErrUnauthorized      = errors.New("password missing or incorrect")
	ErrConflict          = errors.New("short code was claimed by a concurrent request")
	ErrExhaustedKeyspace = errors.New("failed to allocate an unused short code")
)

// Request fields a ValidationError can point at.
const (
	FieldDestination     = "destination"
	FieldCustomShortCode = "customShortCode"
	FieldPassword        = "password"
	FieldExpirationDate  = "expirationDate"
)

// ValidationError reports malformed user input on a single field.
type ValidationError struct {
	Field  string
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

func invalid(field string, reason error) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StoreError wraps a failure of the underlying persistence layer.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

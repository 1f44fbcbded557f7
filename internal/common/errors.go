package common

import "errors"

// Business logic errors
var (
	// General errors
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")

	// Element errors
	ErrElementNotFound = errors.New("element not found")
	ErrPageNotFound    = errors.New("page not found")

	// Auth errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrMemberNotFound = errors.New("member not found")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

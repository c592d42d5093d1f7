// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")
	ErrValidation = errors.New("validation error")

	// Identity errors.
	ErrDuplicateEmail  = errors.New("e-mail already registered")
	ErrInvalidOTP      = errors.New("invalid otp")
	ErrExpiredOTP      = errors.New("otp expired")
	ErrOTPDispatch     = errors.New("otp could not be delivered, please request a new code")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrRateLimited     = errors.New("too many requests")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Catalog and ledger errors.
	ErrDuplicateCategory     = errors.New("category already exists")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrRecipientNotFound     = errors.New("recipient not found")
	ErrAlreadyClaimed        = errors.New("certificate already claimed")
	ErrIDGenerationExhausted = errors.New("certificate id generation exhausted")
)

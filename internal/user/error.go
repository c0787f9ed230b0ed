package user

import "shopcore-be/internal/apperr"

var (
	ErrEmailExists     = apperr.Conflict("email already registered")
	ErrUserNotFound    = apperr.NotFound("user not found")
	ErrBadCredentials  = apperr.Auth("email or password is incorrect")
	ErrWeakPassword    = apperr.Validation("password must be at least 8 characters")
	ErrInvalidEmail    = apperr.Validation("a valid email is required")
)

package ledger

import "shopcore-be/internal/apperr"

var (
	ErrInsufficientAvailable = apperr.Conflict("insufficient available balance")
	ErrInsufficientFrozen    = apperr.Conflict("insufficient frozen balance")
	ErrInvalidAmount         = apperr.Validation("amount must be positive")
	ErrInvalidKind           = apperr.Validation("unknown account kind")
)

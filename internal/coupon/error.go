package coupon

import "shopcore-be/internal/apperr"

var (
	ErrTemplateNotFound   = apperr.NotFound("coupon template not found")
	ErrCouponNotFound     = apperr.NotFound("coupon not found")
	ErrNotClaimable       = apperr.Conflict("coupon is not claimable")
	ErrDuplicateClaim     = apperr.Conflict("coupon already claimed")
	ErrAlreadyUsed        = apperr.Conflict("coupon already used")
	ErrNotOwned           = apperr.Forbidden("coupon belongs to another user")
	ErrOutsideWindow      = apperr.Conflict("coupon outside validity window")
	ErrBelowMinAmount     = apperr.Conflict("order amount below coupon threshold")
	ErrUnknownType        = apperr.Validation("unknown coupon type")
	ErrInvalidOrderAmount = apperr.Validation("order amount must not be negative")

	// -- Constants (External Systems) --
	PgUniqueViolation = "23505"
)

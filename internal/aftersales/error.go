package aftersales

import "shopcore-be/internal/apperr"

var (
	ErrNotFound          = apperr.NotFound("aftersales record not found")
	ErrNotOwner          = apperr.Forbidden("aftersales record belongs to another user")
	ErrOrderNotEligible  = apperr.Conflict("order is not eligible for aftersales")
	ErrOpenExists        = apperr.Conflict("order already has an open aftersales record")
	ErrBadTransition     = apperr.Conflict("aftersales record is not in the required state")
	ErrOrderNotPaid      = apperr.Conflict("order has not been paid")
	ErrRefundTooLarge    = apperr.Validation("refund amount exceeds what was paid")
	ErrRefundNotPositive = apperr.Validation("refund amount must be positive")
	ErrInvalidType       = apperr.Validation("unknown aftersales type")
	ErrReasonRequired    = apperr.Validation("a reason is required")
	ErrItemNotInOrder    = apperr.Validation("item does not belong to the order")
	ErrQuantityExceeds   = apperr.Validation("quantity exceeds what was ordered")
	ErrTrackingRequired  = apperr.Validation("a tracking number is required")
)

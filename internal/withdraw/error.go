package withdraw

import "shopcore-be/internal/apperr"

var (
	ErrApplyNotFound    = apperr.NotFound("withdraw application not found")
	ErrNotPending       = apperr.Conflict("withdraw application is no longer pending")
	ErrRemarkRequired   = apperr.Validation("a remark is required when rejecting")
	ErrAmountTooSmall   = apperr.Validation("amount does not cover the withdrawal fee")
	ErrInvalidAmount    = apperr.Validation("amount must be positive")
	ErrRechargeNotFound = apperr.NotFound("recharge application not found")
	ErrRechargeNotOpen  = apperr.Conflict("recharge application is not pending")
)

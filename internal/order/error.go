package order

import (
	"errors"

	"shopcore-be/internal/apperr"
	"shopcore-be/internal/product"
)

var (
	ErrOrderNotFound  = apperr.NotFound("order not found")
	ErrNotOwner       = apperr.Forbidden("order belongs to another user")
	ErrNotCancellable = apperr.Conflict("order can no longer be cancelled")
	ErrBadTransition  = apperr.Conflict("order is not in the required state")
	ErrAlreadyPaid    = apperr.Conflict("order already paid")
	ErrOverpaid       = apperr.Validation("balance and points exceed order total")

	// errSerialCollision stays internal: creation retries serial
	// generation a bounded number of times before giving up.
	errSerialCollision = errors.New("order serial collision")
)

// stockShortError reports every short line at once so the caller can fix
// the whole request in one round trip.
func stockShortError(shorts []product.ShortLine) error {
	return apperr.WithDetails(apperr.KindConflict, "insufficient stock", shorts)
}

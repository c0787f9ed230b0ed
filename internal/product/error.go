package product

import "shopcore-be/internal/apperr"

var (
	ErrProductNotFound = apperr.NotFound("product not found")
	ErrProductInactive = apperr.Conflict("product is not on sale")
	ErrStockShort      = apperr.Conflict("insufficient stock")
)

// internal/services/errors.go
package services

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrBrandNotFound    = errors.New("brand not found")

	ErrEmailExists   = errors.New("user with this email already exists")
	ErrBookingExists = errors.New("booking already exists for this product")
	ErrForbidden     = errors.New("forbidden")

	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrAlreadyPaid        = errors.New("booking already paid with a different transaction")
	ErrPaymentMismatch    = errors.New("payment does not match booking")
	ErrProductSold        = errors.New("product already sold")
	ErrPaymentNotVerified = errors.New("payment could not be verified")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	ErrStorageNotConfigured = errors.New("object storage not configured")
	ErrInvalidFile          = errors.New("invalid file")
)

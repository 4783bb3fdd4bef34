// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired    = "auth.required"
	KeyAuthForbidden   = "auth.forbidden"
	KeyAuthRateLimited = "auth.rate_limited"

	// Users
	KeyUserNotFound    = "user.not_found"
	KeyUserEmailExists = "user.email_exists"

	// Products
	KeyProductNotFound  = "product.not_found"
	KeyCategoryNotFound = "category.not_found"
	KeyBrandNotFound    = "brand.not_found"

	// Bookings
	KeyBookingNotFound = "booking.not_found"
	KeyBookingExists   = "booking.exists"

	// Payments
	KeyPaymentInvalidAmount  = "payment.invalid_amount"
	KeyPaymentNotVerified    = "payment.not_verified"
	KeyPaymentAlreadyPaid    = "payment.already_paid"
	KeyPaymentMismatch       = "payment.mismatch"
	KeyPaymentProductSold    = "payment.product_sold"
	KeyPaymentGatewayDown    = "payment.gateway_unavailable"
	KeyPaymentWebhookInvalid = "payment.webhook_invalid"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// File Upload
	KeyFileUploadFailed     = "file.upload_failed"
	KeyFileTooLarge         = "file.too_large"
	KeyFileInvalidType      = "file.invalid_type"
	KeyStorageNotConfigured = "file.storage_not_configured"

	// Generic
	KeyInternalError = "error.internal"
	KeyRateLimited   = "error.rate_limited"
)

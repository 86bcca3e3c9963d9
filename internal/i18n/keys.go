// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"

	// Errors by kind
	KeyErrorValidation        = "error.validation"
	KeyErrorInvalidTransition = "error.invalid_transition"
	KeyErrorDuplicateActive   = "error.duplicate_active"
	KeyErrorAlreadyAgreed     = "error.already_agreed"
	KeyErrorNotFound          = "error.not_found"
	KeyErrorForbidden         = "error.forbidden"
	KeyErrorConflict          = "error.conflict"
	KeyErrorInternal          = "error.internal"

	// Validation
	KeyValidationInvalid   = "validation.invalid"
	KeyValidationInvalidID = "validation.invalid_id"

	// Rate limiting
	KeyRateLimitExceeded = "rate_limit.exceeded"
)

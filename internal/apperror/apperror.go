// internal/apperror/apperror.go
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindDuplicateActive   Kind = "DUPLICATE_ACTIVE"
	KindAlreadyAgreed     Kind = "ALREADY_AGREED"
	KindNotFound          Kind = "NOT_FOUND"
	KindForbidden         Kind = "FORBIDDEN"
	KindConflict          Kind = "CONFLICT"
	KindInternal          Kind = "INTERNAL_ERROR"
)

// Error is the error type returned by every service in this module. Details is
// serialised to the client as-is, so it must only hold JSON-friendly values.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindInvalidTransition, KindDuplicateActive, KindAlreadyAgreed, KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// FieldError describes one rejected field of a terms payload or request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func Validation(message string, fields ...FieldError) *Error {
	e := &Error{Kind: KindValidation, Message: message}
	if len(fields) > 0 {
		e.Details = map[string]interface{}{"fields": fields}
	}
	return e
}

func InvalidTransition(currentStatus, action string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot %s a collaboration that is %s", action, currentStatus),
		Details: map[string]interface{}{
			"current_status":   currentStatus,
			"attempted_action": action,
		},
	}
}

func DuplicateActive(existingID string) *Error {
	return &Error{
		Kind:    KindDuplicateActive,
		Message: "an active collaboration already exists between this creator and listing",
		Details: map[string]interface{}{"existing_collaboration_id": existingID},
	}
}

func AlreadyAgreed(party string) *Error {
	return &Error{
		Kind:    KindAlreadyAgreed,
		Message: fmt.Sprintf("%s has already agreed to the current terms", party),
		Details: map[string]interface{}{"party": party},
	}
}

func NotFound(resource string, err error) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: map[string]interface{}{"resource": resource},
		Err:     err,
	}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// Is reports whether err carries an *Error of the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// From returns the *Error in err's chain, wrapping unknown errors as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal server error", err)
}

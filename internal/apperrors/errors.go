// Package apperrors defines the typed errors the service layer returns and
// the mapping from error kind to HTTP status. All of these are synchronous,
// non-retriable failures: resubmitting the same request yields the same
// result.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a service-layer failure.
type Kind int

const (
	// KindValidation covers malformed input caught before any storage
	// access: bad date strings, missing fields, unknown enum values.
	KindValidation Kind = iota
	// KindPermission covers callers without edit rights or family
	// membership, checked before any mutation logic runs.
	KindPermission
	// KindNotFound covers references to rows that don't exist or don't
	// belong to the caller's family.
	KindNotFound
	// KindConflict covers temporal overlap rejections from either guard.
	KindConflict
	// KindConstraint covers semantic input violations: identical primary
	// and secondary parents, end before start, and similar.
	KindConstraint
	// KindInternal covers storage and other unexpected failures.
	KindInternal
)

// String returns the machine-readable code for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindPermission:
		return "permission_error"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindConstraint:
		return "constraint_error"
	default:
		return "internal_error"
	}
}

// HTTPStatus maps the kind to the protocol-level status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConstraint:
		return http.StatusBadRequest
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	// ConflictStart/ConflictEnd carry the conflicting entity's span on
	// KindConflict errors so the rejection can show the user what is in
	// the way.
	ConflictStart time.Time
	ConflictEnd   time.Time
	err           error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.err }

// Validation builds a KindValidation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Permission builds a KindPermission error.
func Permission(format string, args ...any) *Error {
	return &Error{Kind: KindPermission, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Constraint builds a KindConstraint error.
func Constraint(format string, args ...any) *Error {
	return &Error{Kind: KindConstraint, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a KindConflict error carrying the conflicting span.
func Conflict(start, end time.Time, format string, args ...any) *Error {
	return &Error{
		Kind:          KindConflict,
		Message:       fmt.Sprintf(format, args...),
		ConflictStart: start,
		ConflictEnd:   end,
	}
}

// Internal wraps an unexpected failure.
func Internal(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), err: err}
}

// KindOf extracts the kind from any error, returning KindInternal for errors
// that aren't application errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

package domain

import "errors"

// Error categories. Every *Error unwraps to exactly one of these, which is what
// the HTTP layer switches on.
var (
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("authentication error")
	ErrForbiddenKind   = errors.New("authorization error")
	ErrNotFound        = errors.New("not found")
	ErrStateConflict   = errors.New("state error")
	ErrInternal        = errors.New("internal error")
)

// Error is a typed domain failure with a stable machine-readable code.
type Error struct {
	Kind    error
	Code    string
	Message string
	// Field names the offending input field, when there is one.
	Field string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Is matches any *Error carrying the same code, so errors.Is(MissingField("email"), ErrMissingField) holds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind error, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrMissingField      = newError(ErrValidation, "missing_field", "please provide all required fields")
	ErrInvalidRole       = newError(ErrValidation, "invalid_role", "role must be one of student, canteen_staff, admin")
	ErrMissingCredential = newError(ErrValidation, "missing_credential", "please provide identifier and password")
	ErrEmptyOrder        = newError(ErrValidation, "empty_order", "order must contain at least one item")
	ErrInvalidItem       = newError(ErrValidation, "invalid_item", "order contains an unknown or unavailable item")
	ErrInvalidFood       = newError(ErrValidation, "invalid_food", "food name is required and price must be positive")
	ErrPasswordTooLong   = newError(ErrValidation, "password_too_long", "password must be at most 72 bytes")

	ErrDuplicateUser = newError(ErrConflict, "duplicate_user", "user with this email or college id already exists")

	ErrInvalidCredentials = newError(ErrUnauthenticated, "invalid_credentials", "invalid credentials")
	ErrMissingToken       = newError(ErrUnauthenticated, "missing_token", "missing or malformed authorization header")
	ErrInvalidToken       = newError(ErrUnauthenticated, "invalid_token", "invalid token")
	ErrTokenExpired       = newError(ErrUnauthenticated, "token_expired", "token expired")

	ErrForbidden = newError(ErrForbiddenKind, "forbidden", "access forbidden")

	ErrUserNotFound  = newError(ErrNotFound, "user_not_found", "user not found")
	ErrOrderNotFound = newError(ErrNotFound, "order_not_found", "order not found")
	ErrFoodNotFound  = newError(ErrNotFound, "food_not_found", "food item not found")

	ErrInvalidTransition  = newError(ErrStateConflict, "invalid_transition", "invalid status transition")
	ErrCheckoutInProgress = newError(ErrStateConflict, "checkout_in_progress", "an order with this idempotency key is still being placed")
)

// MissingField reports the first absent required field.
func MissingField(field string) *Error {
	return &Error{
		Kind:    ErrValidation,
		Code:    ErrMissingField.Code,
		Message: "please provide all required fields: " + field + " is missing",
		Field:   field,
	}
}

// Package service provides business logic for the application.
package service

import (
	"errors"
)

// Kind classifies service errors for transport mapping.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuth
	KindNotFound
	KindConflict
	KindStorage
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is a classified service error. Two errors match under errors.Is
// when their codes are equal, so wrapped sentinels still compare.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Service errors.
var (
	ErrMissingFields = &Error{Kind: KindValidation, Code: "MISSING_FIELDS", Message: "Missing fields"}
	ErrInvalidEmail  = &Error{Kind: KindValidation, Code: "INVALID_EMAIL", Message: "Invalid email address"}
	ErrInvalidAmount = &Error{Kind: KindValidation, Code: "INVALID_AMOUNT", Message: "Invalid amount"}
	ErrInvalidToken  = &Error{Kind: KindValidation, Code: "INVALID_TOKEN", Message: "Invalid payment token"}
	ErrInvalidCard   = &Error{Kind: KindValidation, Code: "INVALID_CARD", Message: "Invalid card data"}

	ErrUnauthenticated    = &Error{Kind: KindAuth, Code: "UNAUTHORIZED", Message: "Authentication required"}
	ErrInvalidCredentials = &Error{Kind: KindAuth, Code: "INVALID_CREDENTIALS", Message: "Invalid credentials"}

	ErrAccountNotFound       = &Error{Kind: KindNotFound, Code: "USER_NOT_FOUND", Message: "User not found"}
	ErrAuthorizationNotFound = &Error{Kind: KindNotFound, Code: "AUTHORIZATION_NOT_FOUND", Message: "Authorization not found"}

	ErrEmailExists     = &Error{Kind: KindConflict, Code: "EMAIL_EXISTS", Message: "Email already exists"}
	ErrAlreadyCaptured = &Error{Kind: KindConflict, Code: "ALREADY_CAPTURED", Message: "Already captured"}
	ErrAlreadyRefunded = &Error{Kind: KindConflict, Code: "ALREADY_REFUNDED", Message: "Already refunded"}
	ErrNotCaptured     = &Error{Kind: KindConflict, Code: "NOT_CAPTURED", Message: "Not captured"}

	ErrStorage = &Error{Kind: KindStorage, Code: "STORAGE_ERROR", Message: "Storage error"}
)

// KindOf returns the kind of a service error, or 0 for unclassified errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// storageError wraps an unexpected persistence failure.
func storageError(op string, err error) error {
	return &Error{Kind: KindStorage, Code: ErrStorage.Code, Message: op, Err: err}
}

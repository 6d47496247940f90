// Package apperr is the error taxonomy shared by every service.
//
// Only failures the caller cannot recover from on its own are errors:
// a missing user id, touching someone else's resource, invalid input,
// an exhausted quota. "Not found" is not an error anywhere in the service
// layer; lookups return nil, nil and boolean operations return false, nil.
package apperr

import "errors"

type Kind int

const (
	KindUnauthenticated Kind = iota + 1
	KindForbidden
	KindInvalid
	KindQuotaExceeded
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindInvalid:
		return "invalid"
	case KindQuotaExceeded:
		return "quota_exceeded"
	default:
		return "unknown"
	}
}

// Error carries a Kind for status mapping and a user-facing message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrForbidden) match any Forbidden error
// regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "unauthenticated"}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrInvalid         = &Error{Kind: KindInvalid, Message: "invalid"}
	ErrQuotaExceeded   = &Error{Kind: KindQuotaExceeded, Message: "quota exceeded"}
)

func Unauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Invalid(msg string) error {
	return &Error{Kind: KindInvalid, Message: msg}
}

func QuotaExceeded(msg string) error {
	return &Error{Kind: KindQuotaExceeded, Message: msg}
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// RequireUser returns Unauthenticated when userID is empty.
func RequireUser(userID string) error {
	if userID == "" {
		return Unauthenticated("usuario no autenticado")
	}
	return nil
}

package softaculous

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed call.
type ErrorKind string

const (
	KindUnreachable       ErrorKind = "unreachable"
	KindAuthFailed        ErrorKind = "auth_failed"
	KindTransport         ErrorKind = "transport"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindBackendRejected   ErrorKind = "backend_rejected"
	KindNotFound          ErrorKind = "not_found"
	KindValidation        ErrorKind = "validation"
)

// Sentinels for errors.Is. Any *Error with the same Kind matches.
var (
	ErrUnreachable       = &Error{Kind: KindUnreachable}
	ErrAuthFailed        = &Error{Kind: KindAuthFailed}
	ErrTransport         = &Error{Kind: KindTransport}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrBackendRejected   = &Error{Kind: KindBackendRejected}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrValidation        = &Error{Kind: KindValidation}
)

// Error is the failure half of every client result.
type Error struct {
	Kind    ErrorKind
	Message string
	// Status is the HTTP status that produced the error, 0 for connection-level failures.
	Status int
	// Raw is the decoded reply for BackendRejected failures.
	Raw any
	// Preview holds the first bytes of an undecodable body.
	Preview string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	if msg == string(e.Kind) {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can compare against the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or "" when err is not a client error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(field string) *Error {
	return newError(KindValidation, "missing required parameter %q", field)
}

func rejected(reply any, message string) *Error {
	return &Error{Kind: KindBackendRejected, Message: message, Raw: reply}
}

// fallsThrough reports whether a cPanel path attempt should move on to the
// next candidate path.
func fallsThrough(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindUnreachable:
		return true
	case KindTransport:
		return e.Status == 0
	}
	return false
}

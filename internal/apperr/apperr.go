// Package apperr defines the error taxonomy shared by the transport, cache,
// services and handlers.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error by how callers must react to it.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNetwork    Kind = "network"
	KindNotFound   Kind = "not_found"
	KindAuth       Kind = "auth"
	KindConflict   Kind = "conflict"
	KindServer     Kind = "server"
)

// Error is the structured error surfaced to the console's callers.
// Code is machine-readable and doubles as the i18n message key.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on kind via the sentinel values below.
func (e *Error) Is(target error) bool {
	var k kindSentinel
	if errors.As(target, &k) {
		return e.Kind == Kind(k)
	}
	return false
}

type kindSentinel Kind

func (k kindSentinel) Error() string { return string(k) }

// Sentinels usable with errors.Is.
var (
	ErrValidation error = kindSentinel(KindValidation)
	ErrNetwork    error = kindSentinel(KindNetwork)
	ErrNotFound   error = kindSentinel(KindNotFound)
	ErrAuth       error = kindSentinel(KindAuth)
	ErrConflict   error = kindSentinel(KindConflict)
	ErrServer     error = kindSentinel(KindServer)
)

// Validation builds a field-scoped validation error.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: "validation_failed", Status: http.StatusUnprocessableEntity, Fields: fields}
}

// NotFound builds a not-found error for an entity id.
func NotFound(entity, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    "not_found",
		Message: fmt.Sprintf("%s %s not found", entity, id),
		Status:  http.StatusNotFound,
	}
}

// Network wraps a transport failure.
func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Code: "network_error", Status: http.StatusBadGateway, Err: err}
}

// CodeInvalidResponse marks a backend answer the console could not decode.
const CodeInvalidResponse = "invalid_response"

// Decode wraps a failure to decode a backend response. Retrying the same
// request yields the same body, so the error is not retryable.
func Decode(err error) *Error {
	return &Error{Kind: KindServer, Code: CodeInvalidResponse, Status: http.StatusBadGateway, Err: err}
}

// FromStatus classifies a backend HTTP status. code and message come from the
// response body when present.
func FromStatus(status int, code, message string) *Error {
	e := &Error{Status: status, Code: code, Message: message}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindAuth
		if e.Code == "" {
			e.Code = "unauthorized"
		}
	case status == http.StatusForbidden:
		e.Kind = KindAuth
		if e.Code == "" {
			e.Code = "forbidden"
		}
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
		if e.Code == "" {
			e.Code = "not_found"
		}
	case status == http.StatusConflict:
		e.Kind = KindConflict
		if e.Code == "" {
			e.Code = "conflict"
		}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
		if e.Code == "" {
			e.Code = "validation_failed"
		}
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests:
		e.Kind = KindNetwork
		if e.Code == "" {
			e.Code = "network_error"
		}
	default:
		e.Kind = KindServer
		if e.Code == "" {
			e.Code = "server_error"
		}
	}
	// Some backends reject deletes of referenced records with a 400.
	if dependencyCodes[e.Code] && e.Kind == KindValidation {
		e.Kind = KindConflict
	}
	return e
}

var dependencyCodes = map[string]bool{
	"has_dependencies":      true,
	"in_use":                true,
	"foreign_key_violation": true,
}

// KindOf reports the kind of err. Context expiry is a network error;
// unknown errors are server errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetwork
	}
	return KindServer
}

// As extracts the *Error from err, wrapping foreign errors as server errors.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if KindOf(err) == KindNetwork {
		return Network(err)
	}
	return &Error{Kind: KindServer, Code: "server_error", Status: http.StatusInternalServerError, Err: err}
}

// IsRetryable reports whether an idempotent read may be retried after err.
// Auth, not-found, validation and conflict errors are terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var e *Error
	if errors.As(err, &e) && e.Code == CodeInvalidResponse {
		return false
	}
	switch KindOf(err) {
	case KindNetwork, KindServer:
		return true
	default:
		return false
	}
}

// IsDependency reports a conflict caused by referencing records
// (e.g. deleting a client still used by an activity).
func IsDependency(err error) bool {
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindConflict {
		return false
	}
	return e.Code == "conflict" || dependencyCodes[e.Code]
}

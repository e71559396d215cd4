package resource

import (
	"errors"
	"fmt"
	"net/http"
)

// Error keys reported to clients alongside the status code.
const (
	KeyIDExists   = "idexists"
	KeyIDNull     = "idnull"
	KeyIDInvalid  = "idinvalid"
	KeyIDNotFound = "idnotfound"
)

// ErrNoRecord is returned by a Store when an update targets a row that no longer exists.
var ErrNoRecord = errors.New("no such record")

// IdentityConflictError is returned by Create when the record already carries an id.
type IdentityConflictError struct {
	Resource string
	ID       int64
}

func (e *IdentityConflictError) Error() string {
	return fmt.Sprintf("a new %s cannot already have an id (got %d)", e.Resource, e.ID)
}

// StatusCode returns the HTTP status code for this error.
func (e *IdentityConflictError) StatusCode() int { return http.StatusBadRequest }

// Key returns the client-facing error key.
func (e *IdentityConflictError) Key() string { return KeyIDExists }

// Hint returns a user-friendly suggestion for resolving this error.
func (e *IdentityConflictError) Hint() string {
	return "Remove the \"id\" field; identities are assigned by the server. Use PUT or PATCH to update."
}

// MissingIdentityError is returned by Replace and MergePatch when the payload has no id.
type MissingIdentityError struct {
	Resource string
}

func (e *MissingIdentityError) Error() string {
	return fmt.Sprintf("invalid %s: field \"id\" is null", e.Resource)
}

// StatusCode returns the HTTP status code for this error.
func (e *MissingIdentityError) StatusCode() int { return http.StatusBadRequest }

// Key returns the client-facing error key.
func (e *MissingIdentityError) Key() string { return KeyIDNull }

// Hint returns a user-friendly suggestion for resolving this error.
func (e *MissingIdentityError) Hint() string {
	return "Include the \"id\" field matching the id in the URL."
}

// IdentityMismatchError is returned when the path id and the payload id disagree.
type IdentityMismatchError struct {
	Resource  string
	PathID    int64
	PayloadID int64
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("invalid %s: payload id %d does not match path id %d", e.Resource, e.PayloadID, e.PathID)
}

// StatusCode returns the HTTP status code for this error.
func (e *IdentityMismatchError) StatusCode() int { return http.StatusBadRequest }

// Key returns the client-facing error key.
func (e *IdentityMismatchError) Key() string { return KeyIDInvalid }

// Hint returns a user-friendly suggestion for resolving this error.
func (e *IdentityMismatchError) Hint() string {
	return fmt.Sprintf("Set \"id\" to %d or send the request to /%d.", e.PathID, e.PayloadID)
}

// NotFoundError is returned when an update target does not exist.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// StatusCode returns the HTTP status code for this error.
func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }

// Key returns the client-facing error key.
func (e *NotFoundError) Key() string { return KeyIDNotFound }

// Hint returns a user-friendly suggestion for resolving this error.
func (e *NotFoundError) Hint() string {
	return fmt.Sprintf("Check that %s %d exists; create it with POST first.", e.Resource, e.ID)
}

// UnavailableError wraps a store failure. It is never retried here.
type UnavailableError struct {
	Resource string
	Op       string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s %s: store unavailable: %v", e.Resource, e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status code for this error.
func (e *UnavailableError) StatusCode() int { return http.StatusServiceUnavailable }

// Key returns the client-facing error key.
func (e *UnavailableError) Key() string { return "unavailable" }

// StatusCodeError is an error that maps onto an HTTP status.
type StatusCodeError interface {
	error
	StatusCode() int
	Key() string
}

// HintError is an error that carries a resolution hint.
type HintError interface {
	error
	Hint() string
}

// IsClientError reports whether err is one of the validation failures of the lifecycle.
func IsClientError(err error) bool {
	var sc StatusCodeError
	if !errors.As(err, &sc) {
		return false
	}
	return sc.StatusCode() >= 400 && sc.StatusCode() < 500
}

func unavailable(resource, op string, err error) error {
	return &UnavailableError{Resource: resource, Op: op, Err: err}
}

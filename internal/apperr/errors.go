// Package apperr holds the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

// Conflict codes returned to clients.
const (
	CodeTransactionExists = "transaction_exists"
	CodeItemsUnavailable  = "items_not_available"
	CodeTransactionClosed = "transaction_closed"
	CodeItemInTransaction = "item_in_transaction"
	CodeDuplicate         = "duplicate"
)

// ValidationError reports malformed input. Field is the offending request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports a missing record.
type NotFoundError struct {
	Resource string
	ID       string
	Message  string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a state conflict. Details is returned to the client as-is.
type ConflictError struct {
	Code    string
	Message string
	Details any
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// UpstreamError wraps a failure of an external collaborator (recommender, push gateway).
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// NotFoundMessage is a NotFound with a message meant for the end user.
func NotFoundMessage(resource, message string) error {
	return &NotFoundError{Resource: resource, Message: message}
}

func Conflict(code, message string, details any) error {
	return &ConflictError{Code: code, Message: message, Details: details}
}

func Upstream(service string, err error) error {
	return &UpstreamError{Service: service, Err: err}
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is or wraps a ConflictError with the given code.
// An empty code matches any conflict.
func IsConflict(err error, code string) bool {
	var ce *ConflictError
	if !errors.As(err, &ce) {
		return false
	}
	return code == "" || ce.Code == code
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpstream reports whether err is or wraps an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

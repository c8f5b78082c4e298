package service

import (
	"errors"
	"fmt"

	"bar-order-api/auth"
	"bar-order-api/store"
)

// ValidationError is a field-scoped input problem
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError means an id did not resolve
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// ProtectedReferenceError means a delete was blocked by an existing reference
type ProtectedReferenceError struct {
	Resource   string
	ID         uint
	References string
}

func (e *ProtectedReferenceError) Error() string {
	return fmt.Sprintf("cannot delete %s %d: it is referenced by %s", e.Resource, e.ID, e.References)
}

// AuthenticationError covers bad credentials and bad tokens
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return e.Reason
}

var (
	ErrInvalidCredentials = &AuthenticationError{Reason: "Invalid username or password"}
	ErrInvalidToken       = &AuthenticationError{Reason: "Token is invalid or expired"}
)

// PersistenceError wraps an underlying store failure
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// translate maps store errors onto the service taxonomy
func translate(op, resource string, id uint, err error) error {
	if err == nil {
		return nil
	}
	var (
		verr    *ValidationError
		missing *store.MissingProductError
	)
	switch {
	case errors.As(err, &verr):
		return verr
	case errors.Is(err, store.ErrNotFound):
		return &NotFoundError{Resource: resource, ID: id}
	case errors.As(err, &missing):
		return invalid("product", "Invalid pk \"%d\" - object does not exist.", missing.ProductID)
	case errors.Is(err, store.ErrProductReferenced):
		return &ProtectedReferenceError{Resource: resource, ID: id, References: "existing order details"}
	case errors.Is(err, auth.ErrInvalidToken):
		return ErrInvalidToken
	}
	return &PersistenceError{Op: op, Err: err}
}

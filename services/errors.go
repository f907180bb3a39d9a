package services

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)

// AppError carries a client-facing detail message and its kind.
type AppError struct {
	Kind   error
	Detail string
}

func (e *AppError) Error() string { return e.Detail }

func (e *AppError) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...interface{}) error {
	return &AppError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func validation(format string, args ...interface{}) error {
	return newError(ErrValidation, format, args...)
}

func unauthorized(detail string) error { return newError(ErrUnauthorized, "%s", detail) }

func forbidden(detail string) error { return newError(ErrForbidden, "%s", detail) }

func notFound(detail string) error { return newError(ErrNotFound, "%s", detail) }

func conflict(detail string) error { return newError(ErrConflict, "%s", detail) }

func unavailable(detail string) error { return newError(ErrUnavailable, "%s", detail) }

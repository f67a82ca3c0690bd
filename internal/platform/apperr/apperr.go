package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal error")
)

// AppError carries the HTTP status and stable code for an error that is
// surfaced to API callers.
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"msg"`
	Code       string            `json:"code"`
	HTTPStatus int               `json:"-"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Err != e.kind() {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// StatusCode is the HTTP status the error renders with.
func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match an AppError against the package sentinels even
// when Err carries the underlying store error.
func (e *AppError) Is(target error) bool {
	return target == e.kind()
}

func (e *AppError) kind() error {
	switch e.Code {
	case "VALIDATION_ERROR":
		return ErrValidation
	case "NOT_FOUND":
		return ErrNotFound
	case "UNAUTHENTICATED":
		return ErrUnauthenticated
	case "CONFLICT":
		return ErrConflict
	default:
		return ErrInternal
	}
}

// Validation reports a missing or malformed field. field may be empty when
// the message is not about a single field.
func Validation(field, message string) *AppError {
	e := &AppError{
		Err:        ErrValidation,
		Message:    message,
		Code:       "VALIDATION_ERROR",
		HTTPStatus: http.StatusBadRequest,
	}
	if field != "" {
		e.Details = map[string]string{"field": field}
	}
	return e
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("no %s with id : %s", resource, id),
		Code:       "NOT_FOUND",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]string{"resource": resource, "id": id},
	}
}

func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthenticated,
		Message:    message,
		Code:       "UNAUTHENTICATED",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Conflict is a duplicate unique key. The dashboard treats it as a bad
// request, so the status is 400 rather than 409.
func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Message:    message,
		Code:       "CONFLICT",
		HTTPStatus: http.StatusBadRequest,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "internal server error",
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// FromStore converts a pgx error into an AppError. Unique violations become
// Conflict, missing rows NotFound, everything else Internal.
func FromStore(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NotFound(resource, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		e := Conflict(fmt.Sprintf("%s already exists", resource))
		e.Err = err
		e.Details = map[string]string{"constraint": pgErr.ConstraintName}
		return e
	}
	return Internal(err)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

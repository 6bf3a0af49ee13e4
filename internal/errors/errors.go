package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a dexteam error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrDuplicateMember    ErrorCode = "DUPLICATE_MEMBER"    // 409
	ErrRosterFull         ErrorCode = "ROSTER_FULL"         // 409
	ErrInvalidRecord      ErrorCode = "INVALID_RECORD"      // 502
	ErrCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE" // 503
	ErrStorage            ErrorCode = "STORAGE"             // 500
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// AppError represents a structured error with code, status, and details.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// cause is the underlying error, if any. Never shown to users.
	cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause so errors.Is/As see through AppError.
func (e *AppError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a Pokémon the catalog does not know.
func NewNotFound(identifier string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "Pokémon not found",
		Details: map[string]any{"identifier": identifier},
	}
}

// NewNotMember creates a 404 error for an id that is not on the team.
func NewNotMember(id int) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("Pokémon #%d is not in your team", id),
		Details: map[string]any{"id": id},
	}
}

// NewDuplicateMember creates a 409 error when a Pokémon is already on the team.
func NewDuplicateMember(id int) *AppError {
	return &AppError{
		Code:    ErrDuplicateMember,
		Status:  409,
		Message: "This Pokémon is already in your team!",
		Details: map[string]any{"id": id},
	}
}

// NewRosterFull creates a 409 error when the team is at capacity.
func NewRosterFull(capacity int) *AppError {
	return &AppError{
		Code:    ErrRosterFull,
		Status:  409,
		Message: fmt.Sprintf("Your team can only have a maximum of %d Pokémon!", capacity),
		Details: map[string]any{"capacity": capacity},
	}
}

// NewInvalidRecord creates a 502 error for a catalog response that cannot be used.
func NewInvalidRecord(reason string, cause error) *AppError {
	return &AppError{
		Code:    ErrInvalidRecord,
		Status:  502,
		Message: "invalid Pokémon record: " + reason,
		cause:   cause,
	}
}

// NewCatalogUnavailable creates a 503 error for transport failures and
// unexpected catalog statuses.
func NewCatalogUnavailable(msg string, status int, cause error) *AppError {
	e := &AppError{
		Code:    ErrCatalogUnavailable,
		Status:  503,
		Message: msg,
		cause:   cause,
	}
	if status != 0 {
		e.Details = map[string]any{"upstream_status": status}
	}
	return e
}

// NewStorage creates a 500 error for failures of the durable store.
func NewStorage(op string, err error) *AppError {
	msg := op + " failed"
	if err != nil {
		msg = fmt.Sprintf("%s failed: %v", op, err)
	}
	return &AppError{
		Code:    ErrStorage,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AppError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if an error is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

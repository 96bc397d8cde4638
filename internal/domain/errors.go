package domain

import "errors"

// Stable error codes carried by AppError.
const (
	// CodeInvalidData marks artifacts that could not be parsed or decoded.
	CodeInvalidData = "INVALID_DATA"

	// CodeUnavailable marks fetch and transport failures.
	CodeUnavailable = "SEARCH_UNAVAILABLE"

	// CodeNotFound marks lookups of unknown posts or languages.
	CodeNotFound = "NOT_FOUND"

	// CodeInvalidInput marks rejected caller input.
	CodeInvalidInput = "INVALID_INPUT"
)

// AppError is an application error with a stable, machine readable code.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// NewError creates an AppError. cause may be nil.
func NewError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Err: cause}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the code of the first AppError in err's chain, or "".
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}

// Package common defines sentinel errors and small helpers shared by the
// repositories, services and the HTTP layer. Callers match the errors with
// errors.Is.
package common

import "errors"

var (

	// repository specific errors
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrorInvalidID     = errors.New("invalid id")

	// service specific errors
	ErrorInternal        = errors.New("internal error")
	ErrorValidation      = errors.New("validation error")
	ErrorMissingField    = errors.New("missing required field")
	ErrorInvalidPassword = errors.New("password does not satisfy policy")

	// auth errors
	ErrorUnauthorized    = errors.New("unauthorized")
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrorForbidden       = errors.New("forbidden")
	ErrorInvalidOTP      = errors.New("invalid or expired otp")

	// photo storage is not configured
	ErrorStorageDisabled = errors.New("storage disabled")
)

// ValidationError carries a message that is safe to show to the client.
// It matches ErrorValidation with errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrorValidation }

// Invalid returns a *ValidationError with the given message.
func Invalid(msg string) error {
	return &ValidationError{Message: msg}
}

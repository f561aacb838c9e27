package errors

import (
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Cause satisfies github.com/pkg/errors so errors.Cause walks through AppError.
func (e *AppError) Cause() error {
	return e.Err
}

func E(op string, err error, message string, code int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusBadRequest)
}

func MethodNotAllowed(op string, method string) *AppError {
	return E(op, nil, fmt.Sprintf("method %s not allowed", method), http.StatusMethodNotAllowed)
}

func Internal(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusInternalServerError)
}

// Downstream marks a failed call to an external service. The cause is
// annotated with the operation so log lines carry both.
func Downstream(op string, err error) *AppError {
	return Internal(op, pkgerrors.WithMessage(err, op), "downstream call failed")
}

// StatusCode reports the HTTP status carried by err, defaulting to 500.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

func IsInvalidInput(err error) bool {
	return StatusCode(err) == http.StatusBadRequest
}

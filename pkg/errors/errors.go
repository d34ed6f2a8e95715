package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid credentials")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Check-in rejection kinds. Every predictable failure of the check-in
// pipeline maps to exactly one of these; none of them is a fault.
var (
	ErrNoActiveSession       = New("NO_ACTIVE_SESSION", http.StatusNotFound, "no active attendance session found")
	ErrStudentNotFound       = New("STUDENT_NOT_FOUND", http.StatusNotFound, "student not found")
	ErrNotEnrolled           = New("NOT_ENROLLED", http.StatusForbidden, "student is not enrolled in this course")
	ErrAlreadyRecorded       = New("ALREADY_RECORDED", http.StatusConflict, "attendance already recorded for this session")
	ErrOutOfRange            = New("OUT_OF_RANGE", http.StatusForbidden, "location verification failed")
	ErrInvalidImage          = New("INVALID_IMAGE", http.StatusBadRequest, "invalid image format")
	ErrNoFaceDetected        = New("NO_FACE_DETECTED", http.StatusBadRequest, "no face detected in the uploaded image")
	ErrMultipleFacesDetected = New("MULTIPLE_FACES_DETECTED", http.StatusBadRequest, "multiple faces detected, upload an image with a single face")
	ErrFaceMismatch          = New("FACE_MISMATCH", http.StatusForbidden, "face verification failed")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code      string
	Message   string
	Kind      error // sentinel matched by errors.Is
	Transient bool
	Attempts  int // calls made before giving up, extraction only
	Cause     error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Pipeline errors
var (
	ErrExtractionFailure  = errors.New("extraction failure")
	ErrPersistenceFailure = errors.New("persistence failure")
	ErrOwnership          = errors.New("ownership failure")
	ErrDuplicateGame      = errors.New("game already recorded")
	ErrUnsupportedFormat  = errors.New("unsupported format")
)

// Review session errors
var (
	ErrInvalidState   = errors.New("invalid session state")
	ErrInvalidPath    = errors.New("invalid field path")
	ErrUnknownFinding = errors.New("unknown finding")
	ErrNotOverridable = errors.New("finding is blocking and cannot be overridden")
	ErrNotCommittable = errors.New("record is not committable")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewExtractionFailure(message string, transient bool, cause error) *AppError {
	return &AppError{
		Code:      "EXTRACTION_FAILURE",
		Message:   message,
		Kind:      ErrExtractionFailure,
		Transient: transient,
		Cause:     cause,
	}
}

func NewPersistenceFailure(message string, cause error) *AppError {
	return &AppError{
		Code:    "PERSISTENCE_FAILURE",
		Message: message,
		Kind:    ErrPersistenceFailure,
		Cause:   cause,
	}
}

func NewOwnershipFailure(message string) *AppError {
	return &AppError{
		Code:    "OWNERSHIP_FAILURE",
		Message: message,
		Kind:    ErrOwnership,
	}
}

// IsTransient reports whether err carries an AppError marked transient.
func IsTransient(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Transient
	}
	return false
}

// AttemptsOf returns the attempt count carried by an extraction failure.
func AttemptsOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Attempts
	}
	return 0
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}

// ToStatus maps application errors onto gRPC status codes.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrInvalidPath), errors.Is(err, ErrUnknownFinding), errors.Is(err, ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrNotOverridable), errors.Is(err, ErrNotCommittable), errors.Is(err, ErrOwnership):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrExtractionFailure):
		if IsTransient(err) {
			return status.Error(codes.Unavailable, err.Error())
		}
		return status.Error(codes.Internal, err.Error())
	case errors.Is(err, ErrDuplicateGame):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrPersistenceFailure):
		return status.Error(codes.Aborted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

package errors

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// ErrType represents different types of errors
type ErrType string

const (
	// ErrTypeUsage represents command line misuse (missing selector, bad flag value)
	ErrTypeUsage ErrType = "usage"
	// ErrTypeConfig represents configuration errors
	ErrTypeConfig ErrType = "config"
	// ErrTypeAWS represents AWS service errors
	ErrTypeAWS ErrType = "aws"
	// ErrTypeValidation represents validation errors
	ErrTypeValidation ErrType = "validation"
)

// ShottyError represents a custom error with context
type ShottyError struct {
	Type       ErrType
	Message    string
	Underlying error
	Context    map[string]interface{}
}

// Error implements the error interface
func (e *ShottyError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s error: %s (caused by: %v)", e.Type, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *ShottyError) Unwrap() error {
	return e.Underlying
}

// New creates a new ShottyError
func New(errType ErrType, message string) *ShottyError {
	return &ShottyError{
		Type:    errType,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ShottyError
func Wrap(errType ErrType, message string, err error) *ShottyError {
	return &ShottyError{
		Type:       errType,
		Message:    message,
		Underlying: err,
		Context:    make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *ShottyError) WithContext(key string, value interface{}) *ShottyError {
	e.Context[key] = value
	return e
}

// GetContext returns context value
func (e *ShottyError) GetContext(key string) (interface{}, bool) {
	val, exists := e.Context[key]
	return val, exists
}

// Common error constructors
func NewUsageError(message string) *ShottyError {
	return New(ErrTypeUsage, message)
}

func NewConfigError(message string, err error) *ShottyError {
	if err != nil {
		return Wrap(ErrTypeConfig, message, err)
	}
	return New(ErrTypeConfig, message)
}

func NewAWSError(message string, err error) *ShottyError {
	if err != nil {
		return Wrap(ErrTypeAWS, message, err)
	}
	return New(ErrTypeAWS, message)
}

func NewValidationError(message string) *ShottyError {
	return New(ErrTypeValidation, message)
}

// IsType reports whether any ShottyError in err's chain has the given type.
func IsType(err error, errType ErrType) bool {
	var se *ShottyError
	for err != nil {
		if !stderrors.As(err, &se) {
			return false
		}
		if se.Type == errType {
			return true
		}
		err = se.Underlying
	}
	return false
}

// IsUsage reports whether err is a usage error.
func IsUsage(err error) bool {
	return IsType(err, ErrTypeUsage)
}

// IsProviderError reports whether err carries an error response returned by
// the AWS API (as opposed to a transport, credential or cancellation failure).
func IsProviderError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr smithy.APIError
	return stderrors.As(err, &apiErr)
}

// ProviderCode returns the AWS error code (e.g. "IncorrectInstanceState"), or
// an empty string when err is not a provider error.
func ProviderCode(err error) string {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// IsRetryable reports whether a provider error is a throttling or server
// side fault worth retrying later.
func IsRetryable(err error) bool {
	var apiErr smithy.APIError
	if !stderrors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "Throttling", "ThrottlingException", "RequestLimitExceeded", "TooManyRequestsException":
		return true
	}
	return apiErr.ErrorFault() == smithy.FaultServer
}

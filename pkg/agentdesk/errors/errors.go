package errors

import (
	"errors"
	"fmt"
)

// AppError represents an SDK-level error with a code and optional cause
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// ErrorCode returns the error code
func (e *AppError) ErrorCode() string {
	return e.Code
}

// New creates a new AppError
func New(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Newf creates a new AppError without a cause and a formatted message
func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// TransportError is returned for network failures and non-2xx responses.
// StatusCode is zero when no response was received.
type TransportError struct {
	*AppError
	Method     string
	Path       string
	StatusCode int
	Payload    map[string]interface{}
}

// NewTransportError creates a TransportError
func NewTransportError(method, path string, status int, message string, payload map[string]interface{}, cause error) *TransportError {
	return &TransportError{
		AppError:   New(ErrCodeTransport, message, cause),
		Method:     method,
		Path:       path,
		StatusCode: status,
		Payload:    payload,
	}
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.AppError.Error())
	}
	return fmt.Sprintf("%s %s (status %d): %s", e.Method, e.Path, e.StatusCode, e.AppError.Error())
}

// HasCode reports whether any error in err's chain carries the given code
func HasCode(err error, code string) bool {
	for err != nil {
		if coded, ok := err.(interface{ ErrorCode() string }); ok && coded.ErrorCode() == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// AsTransportError returns the first TransportError in err's chain
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// Error codes
const (
	ErrCodeTransport           = "TRANSPORT_FAILED"
	ErrCodeInitialization      = "INITIALIZATION_FAILED"
	ErrCodeSelection           = "SELECTION_FAILED"
	ErrCodeMissingArgument     = "MISSING_ARGUMENT"
	ErrCodeUnknownFunctionCall = "UNKNOWN_FUNCTION_CALL"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeConfig              = "CONFIG_INVALID"
	ErrCodeEncoding            = "ENCODING_FAILED"
	ErrCodeAuthFailed          = "AUTH_FAILED"
)

package platform

import (
	"errors"
	"fmt"

	"github.com/publora/publora/internal/models"
)

type ErrorCode string

const (
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeFeatureNotSupported ErrorCode = "FEATURE_NOT_SUPPORTED"
	ErrCodeTokenExpired        ErrorCode = "TOKEN_EXPIRED"
	ErrCodeAPI                 ErrorCode = "API_ERROR"
	ErrCodeNetwork             ErrorCode = "NETWORK_ERROR"
	ErrCodeUnknown             ErrorCode = "UNKNOWN_ERROR"
)

// ErrStillProcessing marks a polling timeout where the vendor never reported
// a terminal state. Distinct from a definitive vendor rejection so callers
// can retry later instead of failing the calendar entry.
var ErrStillProcessing = errors.New("media may still be processing")

// ErrUnknownPlatform is returned by the factory for platforms it cannot build.
var ErrUnknownPlatform = errors.New("unknown platform")

// Error is the taxonomy error every driver operation raises.
type Error struct {
	Code     ErrorCode
	Platform models.Platform
	Message  string
	Details  string
	Err      error
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s [%s]: %s (%s)", e.Platform, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Platform, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(code ErrorCode, p models.Platform, message string) *Error {
	return &Error{Code: code, Platform: p, Message: message}
}

func NewAPIError(p models.Platform, status int, body string) *Error {
	return &Error{
		Code:     ErrCodeAPI,
		Platform: p,
		Message:  fmt.Sprintf("request failed with status %d", status),
		Details:  body,
	}
}

func NewNetworkError(p models.Platform, err error) *Error {
	return &Error{Code: ErrCodeNetwork, Platform: p, Message: "network request failed", Err: err}
}

func NewNotSupportedError(p models.Platform, operation string) *Error {
	return &Error{
		Code:     ErrCodeFeatureNotSupported,
		Platform: p,
		Message:  fmt.Sprintf("%s is not supported on %s", operation, p),
	}
}

func NewTokenExpiredError(p models.Platform, err error) *Error {
	return &Error{
		Code:     ErrCodeTokenExpired,
		Platform: p,
		Message:  "access token expired and could not be refreshed, please reconnect the account",
		Err:      err,
	}
}

func NewValidationError(p models.Platform, details string) *Error {
	return &Error{Code: ErrCodeValidation, Platform: p, Message: "content validation failed", Details: details}
}

// CodeOf extracts the taxonomy code from any error, defaulting to UNKNOWN.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrCodeUnknown
}

func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

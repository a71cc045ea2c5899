package azapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is the error payload returned by the management APIs.
type APIError struct {
	Code    string     `json:"code"              yaml:"code"`
	Message string     `json:"message"           yaml:"message"`
	Target  string     `json:"target,omitempty"  yaml:"target,omitempty"`
	Details []APIError `json:"details,omitempty" yaml:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ResponseError wraps an API error payload with the HTTP status it arrived on.
type ResponseError struct {
	StatusCode int       `json:"statusCode" yaml:"statusCode"`
	ErrorInfo  *APIError `json:"error"      yaml:"error"`
}

// Error implements the error interface for ResponseError.
func (e *ResponseError) Error() string {
	if e.ErrorInfo == nil {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}

	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.ErrorInfo.Error())
}

// Code returns the service error code or an empty string.
func (e *ResponseError) Code() string {
	if e.ErrorInfo == nil {
		return ""
	}

	return e.ErrorInfo.Code
}

// Well-known service error codes.
const (
	ErrorCodeFeatureNotFound     = "FeatureNotFound"
	ErrorCodeDeviceNotFound      = "DeviceNotFound"
	ErrorCodeModuleNotFound      = "ModuleNotFound"
	ErrorCodeDeviceAlreadyExists = "DeviceAlreadyExists"
	ErrorCodePreconditionFailed  = "PreconditionFailed"
	ErrorCodeThrottlingBacklog   = "ThrottlingBacklogTimeout"
)

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired           = errors.New("config is required")
	ErrSubscriptionIDRequired   = errors.New("subscription ID is required")
	ErrTenantIDRequired         = errors.New("tenant ID is required to derive the token endpoint")
	ErrHubNotConfigured         = errors.New("IoT hub endpoint is not configured")
	ErrManagementNotConfigured  = errors.New("management endpoint is not configured")
	ErrConnectionStringInvalid  = errors.New("invalid connection string")
	ErrETagRequired             = errors.New("ETag is required unless force is set")
	ErrNoMoreItems              = errors.New("no more items")
	ErrEmptyBulkOperation       = errors.New("bulk operation contains no devices")
	ErrDeviceIDMissing          = errors.New("device has no device ID")
	ErrStaticTokenCannotRefresh = errors.New("static token cannot be refreshed")
)

// hubErrorPayload is the error shape used by the IoT hub service API.
type hubErrorPayload struct {
	Message          string `json:"Message"`
	ExceptionMessage string `json:"ExceptionMessage"`
}

// ParseResponseError maps an error response body to a ResponseError. Both the
// ARM envelope ({"error":{"code","message"}}) and the hub payload
// ({"Message":"ErrorCode:...;..."}) are recognized; anything else is kept as a
// bare message.
func ParseResponseError(statusCode int, body []byte) *ResponseError {
	respErr := &ResponseError{StatusCode: statusCode}

	if len(body) == 0 {
		return respErr
	}

	var envelope struct {
		Error *APIError `json:"error"`
	}

	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Code != "" {
		respErr.ErrorInfo = envelope.Error

		return respErr
	}

	var bare APIError
	if err := json.Unmarshal(body, &bare); err == nil && bare.Code != "" {
		respErr.ErrorInfo = &bare

		return respErr
	}

	var hubErr hubErrorPayload
	if err := json.Unmarshal(body, &hubErr); err == nil && hubErr.Message != "" {
		respErr.ErrorInfo = parseHubMessage(hubErr)

		return respErr
	}

	respErr.ErrorInfo = &APIError{Message: strings.TrimSpace(string(body))}

	return respErr
}

// parseHubMessage splits the hub's "ErrorCode:DeviceNotFound;..." convention.
func parseHubMessage(payload hubErrorPayload) *APIError {
	apiErr := &APIError{Message: payload.Message}

	if payload.ExceptionMessage != "" {
		apiErr.Message = payload.ExceptionMessage
	}

	if rest, ok := strings.CutPrefix(payload.Message, "ErrorCode:"); ok {
		code, detail, found := strings.Cut(rest, ";")

		apiErr.Code = strings.TrimSpace(code)
		if found && apiErr.Message == payload.Message {
			apiErr.Message = strings.TrimSpace(detail)
		}
	}

	return apiErr
}

// statusOrCode reports whether err is a ResponseError with the given HTTP
// status or one of the given service error codes.
func statusOrCode(err error, status int, codes ...string) bool {
	respErr := &ResponseError{}
	if !errors.As(err, &respErr) {
		return false
	}

	if respErr.StatusCode == status {
		return true
	}

	for _, code := range codes {
		if respErr.Code() == code {
			return true
		}
	}

	return false
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return statusOrCode(err, http.StatusNotFound, ErrorCodeFeatureNotFound, ErrorCodeDeviceNotFound, ErrorCodeModuleNotFound)
}

// IsConflict checks if the error is a conflict error.
func IsConflict(err error) bool {
	return statusOrCode(err, http.StatusConflict, ErrorCodeDeviceAlreadyExists)
}

// IsPreconditionFailed checks if the error is an ETag mismatch.
func IsPreconditionFailed(err error) bool {
	return statusOrCode(err, http.StatusPreconditionFailed, ErrorCodePreconditionFailed)
}

// IsUnauthorized checks if the error is an authentication error.
func IsUnauthorized(err error) bool {
	return statusOrCode(err, http.StatusUnauthorized)
}

// IsForbidden checks if the error is an authorization error.
func IsForbidden(err error) bool {
	return statusOrCode(err, http.StatusForbidden)
}

// IsThrottled checks if the error is a rate limiting error.
func IsThrottled(err error) bool {
	return statusOrCode(err, http.StatusTooManyRequests, ErrorCodeThrottlingBacklog)
}

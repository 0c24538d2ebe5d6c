package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorTag is the closed set of machine-readable error classes the core can
// produce. Transport layers map a Tag to an HTTP status; nothing outside
// this file should need to know the mapping.
type ErrorTag string

const (
	ErrPayloadMismatch      ErrorTag = "PayloadMismatch"
	ErrUnsupportedNetwork   ErrorTag = "UnsupportedNetwork"
	ErrUnsupportedScheme    ErrorTag = "UnsupportedScheme"
	ErrUnsupportedExtension ErrorTag = "UnsupportedExtension"
	ErrInvalidTiming        ErrorTag = "InvalidTiming"
	ErrInvalidSignature     ErrorTag = "InvalidSignature"
	ErrBlockedAddress       ErrorTag = "BlockedAddress"
	ErrAuthorizationUsed    ErrorTag = "AuthorizationUsed"
	ErrAuthorizationExpired ErrorTag = "AuthorizationExpired"
	ErrInsufficientFunds    ErrorTag = "InsufficientFunds"
	ErrSettlementFailed     ErrorTag = "SettlementFailed"
	ErrRpcError             ErrorTag = "RpcError"
	ErrConfigError          ErrorTag = "ConfigError"
)

var httpStatus = map[ErrorTag]int{
	ErrPayloadMismatch:      http.StatusBadRequest,
	ErrUnsupportedNetwork:   http.StatusBadRequest,
	ErrUnsupportedScheme:    http.StatusBadRequest,
	ErrUnsupportedExtension: http.StatusBadRequest,
	ErrInvalidTiming:        http.StatusBadRequest,
	ErrInvalidSignature:     http.StatusBadRequest,
	ErrBlockedAddress:       http.StatusForbidden,
	ErrAuthorizationUsed:    http.StatusConflict,
	ErrAuthorizationExpired: http.StatusBadRequest,
	ErrInsufficientFunds:    http.StatusBadRequest,
	ErrSettlementFailed:     http.StatusInternalServerError,
	ErrRpcError:             http.StatusServiceUnavailable,
	ErrConfigError:          http.StatusInternalServerError,
}

// FacilitatorError is the error type the providers use for every
// verify/settle failure once a request has passed JSON decoding; any other
// error reaching the facilitator dispatch (for example a cancelled context or
// an open circuit breaker in the provider cache) is wrapped as RpcError
// there. It carries a closed Tag, a human Message, and an optional wrapped
// cause for logging (never serialized to the caller).
type FacilitatorError struct {
	Tag     ErrorTag
	Message string
	Err     error

	// TxHash is set on SettlementFailed when a transaction was already
	// broadcast before the failure was detected, so the caller can
	// reconcile instead of assuming nothing happened on-chain.
	TxHash string
}

func (e *FacilitatorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Tag, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Tag, e.Message)
}

func (e *FacilitatorError) Unwrap() error { return e.Err }

// HTTPStatus maps the error's Tag to the status code the HTTP transport
// collaborator should return. ConfigError has no meaningful HTTP mapping
// (it is always a startup-fatal condition) but maps to 500 defensively.
func (e *FacilitatorError) HTTPStatus() int {
	if s, ok := httpStatus[e.Tag]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// NewError constructs a FacilitatorError with no wrapped cause.
func NewError(tag ErrorTag, format string, args ...interface{}) *FacilitatorError {
	return &FacilitatorError{Tag: tag, Message: fmt.Sprintf(format, args...)}
}

// WrapError constructs a FacilitatorError wrapping an underlying cause.
func WrapError(tag ErrorTag, err error, format string, args ...interface{}) *FacilitatorError {
	return &FacilitatorError{Tag: tag, Message: fmt.Sprintf(format, args...), Err: err}
}

// AsFacilitatorError extracts a *FacilitatorError from an error chain.
func AsFacilitatorError(err error) (*FacilitatorError, bool) {
	var fe *FacilitatorError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"chathello/internal/integrations/openai"
)

type ErrorCode string

const (
	ErrorInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrorUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrorRateLimited       ErrorCode = "RATE_LIMITED"
	ErrorUpstream          ErrorCode = "UPSTREAM_ERROR"
	ErrorTransport         ErrorCode = "TRANSPORT_ERROR"
	ErrorMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrorInternal          ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf returns the code carried by err, or ErrorInternal.
func CodeOf(err error) ErrorCode {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Code
	}
	return ErrorInternal
}

// classify maps a chat client failure onto the usecase taxonomy.
func classify(err error) *Error {
	var (
		authErr      *openai.AuthenticationError
		apiErr       *openai.APIError
		transportErr *openai.TransportError
		malformedErr *openai.MalformedResponseError
	)
	switch {
	case errors.Is(err, openai.ErrInvalidRequest):
		return newError(ErrorInvalidInput, "invalid_request", err)
	case errors.As(err, &authErr):
		return newError(ErrorUnauthorized, "credential_rejected", err)
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return newError(ErrorRateLimited, "provider_rate_limited", err)
		}
		return newError(ErrorUpstream, "provider_error", err)
	case errors.As(err, &transportErr):
		if transportErr.Timeout() {
			return newError(ErrorTransport, "timeout", err)
		}
		return newError(ErrorTransport, "network", err)
	case errors.As(err, &malformedErr):
		return newError(ErrorMalformedResponse, "undecodable_body", err)
	default:
		return newError(ErrorInternal, "unexpected", err)
	}
}

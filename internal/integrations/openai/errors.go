package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrInvalidRequest is returned before any network call when the model or
// messages cannot form a valid completion request.
var ErrInvalidRequest = errors.New("openai: invalid request")

// TransportError reports a failure to complete the HTTP exchange: DNS, TLS,
// connection refused, timeout, cancellation or a truncated body.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("openai: transport error calling %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the exchange failed because a deadline expired.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(e.Err, &te) && te.Timeout()
}

// AuthenticationError is returned when the provider rejects the credential.
type AuthenticationError struct {
	StatusCode int
	URL        string
	Message    string
	Body       string
}

func (e *AuthenticationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("openai: authentication failed (status %d) at %s: %s", e.StatusCode, e.URL, msg)
}

func (e *AuthenticationError) HTTPStatusCode() int {
	return e.StatusCode
}

// APIError captures non-2xx upstream responses other than credential rejection.
type APIError struct {
	StatusCode int
	URL        string
	Code       string
	Type       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "openai: unexpected status %d from %s", e.StatusCode, e.URL)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	if e.Code != "" {
		b.WriteString(" (")
		b.WriteString(e.Code)
		b.WriteString(")")
	}
	return b.String()
}

func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

// MalformedResponseError reports a 2xx body that does not decode into a
// completion with at least one choice.
type MalformedResponseError struct {
	URL  string
	Body string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("openai: malformed response from %s: %v", e.URL, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// errorEnvelope is the {"error": {...}} body OpenAI-compatible backends send.
type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func parseErrorEnvelope(raw []byte) (message, errType, code string) {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Error == nil {
		return "", "", ""
	}
	switch c := env.Error.Code.(type) {
	case nil:
	case string:
		code = c
	default:
		b, _ := json.Marshal(c)
		code = string(b)
	}
	return env.Error.Message, env.Error.Type, code
}

func statusError(status int, url string, body []byte) error {
	msg, errType, code := parseErrorEnvelope(body)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &AuthenticationError{
			StatusCode: status,
			URL:        url,
			Message:    msg,
			Body:       string(body),
		}
	}
	return &APIError{
		StatusCode: status,
		URL:        url,
		Code:       code,
		Type:       errType,
		Message:    msg,
		Body:       string(body),
	}
}

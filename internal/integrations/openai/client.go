package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"chathello/internal/domain"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultTimeout = 30 * time.Second

	defaultUserAgent = "chathello/1.0"
	maxErrorBody     = 4096
	maxResponseBody  = 1 << 20
)

// Client is a focused OpenAI-compatible client for chat completions. It is
// immutable after construction.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	requestID  func() string
	userAgent  string
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout bounds the whole exchange, connect through body read.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			return
		}
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

func WithRequestID(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a Client for apiKey against baseURL. An empty apiKey is
// allowed; requests are then sent without an Authorization header.
func NewClient(apiKey, baseURL string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    normalizeBaseURL(baseURL),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		requestID:  uuid.NewString,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized endpoint root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func normalizeBaseURL(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return DefaultBaseURL
	}
	return base
}

func chatURL(baseURL string) string {
	return normalizeBaseURL(baseURL) + "/chat/completions"
}

func validateRequest(model string, messages []domain.ChatMessage) error {
	if strings.TrimSpace(model) == "" {
		return fmt.Errorf("%w: model must not be empty", ErrInvalidRequest)
	}
	if len(messages) == 0 {
		return fmt.Errorf("%w: messages must not be empty", ErrInvalidRequest)
	}
	for i, m := range messages {
		if !domain.ValidRole(m.Role) {
			return fmt.Errorf("%w: message %d has unsupported role %q", ErrInvalidRequest, i, m.Role)
		}
	}
	return nil
}

// SendChatCompletion performs exactly one POST to <baseURL>/chat/completions
// and returns the decoded completion. Errors are *TransportError,
// *AuthenticationError, *APIError or *MalformedResponseError; a nil response
// accompanies every error.
func (c *Client) SendChatCompletion(ctx context.Context, model string, messages []domain.ChatMessage) (*domain.ChatResponse, error) {
	if err := validateRequest(model, messages); err != nil {
		return nil, err
	}

	body, err := json.Marshal(domain.ChatRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	url := chatURL(c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if id := c.requestID(); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return nil, err
	}

	var payload domain.ChatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &MalformedResponseError{URL: url, Body: truncate(raw, maxErrorBody), Err: err}
	}
	if len(payload.Choices) == 0 {
		return nil, &MalformedResponseError{URL: url, Body: truncate(raw, maxErrorBody), Err: errors.New("no choices in response")}
	}

	return &payload, nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, statusError(res.StatusCode, url, buf)
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("read response body: %w", err)}
	}
	return buf, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chathello/internal/domain"
	"chathello/internal/integrations/openai"
)

type mockClient struct {
	resp     *domain.ChatResponse
	err      error
	model    string
	messages []domain.ChatMessage
	calls    int
}

func (m *mockClient) SendChatCompletion(_ context.Context, model string, messages []domain.ChatMessage) (*domain.ChatResponse, error) {
	m.calls++
	m.model = model
	m.messages = messages
	return m.resp, m.err
}

type mockRecorder struct {
	recorded []domain.Activity
	err      error
}

func (m *mockRecorder) Record(_ context.Context, a domain.Activity) error {
	m.recorded = append(m.recorded, a)
	return m.err
}

var hello = []domain.ChatMessage{
	{Role: "system", Content: "You are a helpful assistant."},
	{Role: "user", Content: "Hello!"},
}

func hiResponse() *domain.ChatResponse {
	return &domain.ChatResponse{
		Choices: []domain.ChatChoice{{Message: domain.ChatMessage{Role: "assistant", Content: "Hi!"}}},
		Usage:   &domain.Usage{PromptTokens: 19, CompletionTokens: 2, TotalTokens: 21},
	}
}

func newTestService(t *testing.T, c ChatClient, r ActivityRecorder) *CompletionService {
	t.Helper()
	s, err := NewCompletionService(c, r, "https://api.promptguard.co/api/v1", "gpt-3.5-turbo")
	require.NoError(t, err)
	s.log = slog.New(slog.NewTextHandler(io.Discard, nil))

	tick := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		tick = tick.Add(250 * time.Millisecond)
		return tick
	}
	return s
}

func stubUUID(t *testing.T) {
	t.Helper()
	orig := newUUID
	newUUID = func() string { return "act-1" }
	t.Cleanup(func() { newUUID = orig })
}

func TestNewCompletionService_NilClient(t *testing.T) {
	_, err := NewCompletionService(nil, nil, "", "")
	require.Error(t, err)
}

func TestProviderHost(t *testing.T) {
	require.Equal(t, "api.promptguard.co", providerHost("https://api.promptguard.co/api/v1"))
	require.Equal(t, "localhost:8080", providerHost("http://localhost:8080"))
	require.Equal(t, "not a url", providerHost("not a url"))
}

func TestComplete_HappyPath(t *testing.T) {
	stubUUID(t)
	c := &mockClient{resp: hiResponse()}
	r := &mockRecorder{}
	s := newTestService(t, c, r)

	out, err := s.Complete(context.Background(), CompleteInput{Messages: hello})
	require.NoError(t, err)
	require.Equal(t, domain.ChatMessage{Role: "assistant", Content: "Hi!"}, out.Message)
	require.Equal(t, 250*time.Millisecond, out.Latency)
	require.Equal(t, "gpt-3.5-turbo", c.model, "default model applies")
	require.Equal(t, hello, c.messages)

	require.Len(t, r.recorded, 1)
	a := r.recorded[0]
	require.Equal(t, "act-1", a.ID)
	require.Equal(t, "api.promptguard.co", a.Provider)
	require.Equal(t, domain.ActivitySuccess, a.Status)
	require.Equal(t, 21, a.TotalTokens)
	require.InDelta(t, 250.0, a.ResponseTimeMs, 0.001)
}

func TestComplete_ExplicitModel(t *testing.T) {
	c := &mockClient{resp: hiResponse()}
	s := newTestService(t, c, nil)
	_, err := s.Complete(context.Background(), CompleteInput{Model: " gpt-4o ", Messages: hello})
	require.NoError(t, err)
	require.Equal(t, "gpt-4o", c.model)
}

func TestComplete_RecorderFailureDoesNotFailCall(t *testing.T) {
	r := &mockRecorder{err: errors.New("table missing")}
	s := newTestService(t, &mockClient{resp: hiResponse()}, r)
	out, err := s.Complete(context.Background(), CompleteInput{Messages: hello})
	require.NoError(t, err)
	require.Equal(t, "Hi!", out.Message.Content)
	require.Len(t, r.recorded, 1)
}

func TestComplete_MapsClientErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		want     ErrorCode
		reason   string
		recorded bool
	}{
		{"invalid", fmt.Errorf("%w: model must not be empty", openai.ErrInvalidRequest), ErrorInvalidInput, "invalid_request", false},
		{"auth", &openai.AuthenticationError{StatusCode: http.StatusUnauthorized}, ErrorUnauthorized, "credential_rejected", true},
		{"rate", &openai.APIError{StatusCode: http.StatusTooManyRequests}, ErrorRateLimited, "provider_rate_limited", true},
		{"upstream", &openai.APIError{StatusCode: http.StatusInternalServerError}, ErrorUpstream, "provider_error", true},
		{"timeout", &openai.TransportError{Err: context.DeadlineExceeded}, ErrorTransport, "timeout", true},
		{"network", &openai.TransportError{Err: errors.New("connection refused")}, ErrorTransport, "network", true},
		{"malformed", &openai.MalformedResponseError{Err: errors.New("bad json")}, ErrorMalformedResponse, "undecodable_body", true},
		{"other", errors.New("mystery"), ErrorInternal, "unexpected", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &mockRecorder{}
			s := newTestService(t, &mockClient{err: tc.err}, r)

			out, err := s.Complete(context.Background(), CompleteInput{Messages: hello})
			require.Nil(t, out.Response)

			var ue *Error
			require.ErrorAs(t, err, &ue)
			require.Equal(t, tc.want, ue.Code)
			require.Equal(t, tc.reason, ue.Reason)
			require.Equal(t, tc.want, CodeOf(err))
			require.ErrorIs(t, err, tc.err)

			if tc.recorded {
				require.Len(t, r.recorded, 1)
				require.Equal(t, domain.ActivityError, r.recorded[0].Status)
				require.Equal(t, string(tc.want), r.recorded[0].ErrorCode)
			} else {
				require.Empty(t, r.recorded)
			}
		})
	}
}

func TestComplete_ClientErrorTypesStayReachable(t *testing.T) {
	s := newTestService(t, &mockClient{err: &openai.AuthenticationError{StatusCode: 401}}, nil)
	_, err := s.Complete(context.Background(), CompleteInput{Messages: hello})
	var authErr *openai.AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestCodeOf_Plain(t *testing.T) {
	require.Equal(t, ErrorInternal, CodeOf(errors.New("x")))
}

func TestError_Format(t *testing.T) {
	require.Equal(t, "usecase: INVALID_INPUT (empty)", newError(ErrorInvalidInput, "empty", nil).Error())
	require.Equal(t, "usecase: UPSTREAM_ERROR (x): boom", newError(ErrorUpstream, "x", errors.New("boom")).Error())
	var nilErr *Error
	require.Equal(t, "", nilErr.Error())
	require.Nil(t, nilErr.Unwrap())
}

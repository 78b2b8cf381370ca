package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"chathello/internal/domain"
	"chathello/internal/logger"
)

type ChatClient interface {
	SendChatCompletion(ctx context.Context, model string, messages []domain.ChatMessage) (*domain.ChatResponse, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, a domain.Activity) error
}

// CompletionService sends one chat completion per Complete call and, when a
// recorder is configured, logs the exchange to the activity store.
type CompletionService struct {
	client       ChatClient
	recorder     ActivityRecorder
	provider     string
	defaultModel string
	log          *slog.Logger
	now          func() time.Time
}

type CompleteInput struct {
	Model    string
	Messages []domain.ChatMessage
}

type CompleteOutput struct {
	Response *domain.ChatResponse
	Message  domain.ChatMessage
	Latency  time.Duration
}

// NewCompletionService builds a service around client. recorder may be nil.
// baseURL only labels activity entries with the backend host.
func NewCompletionService(client ChatClient, recorder ActivityRecorder, baseURL, defaultModel string) (*CompletionService, error) {
	if client == nil {
		return nil, errors.New("usecase: chat client must not be nil")
	}
	return &CompletionService{
		client:       client,
		recorder:     recorder,
		provider:     providerHost(baseURL),
		defaultModel: strings.TrimSpace(defaultModel),
		log:          logger.L,
		now:          time.Now,
	}, nil
}

func providerHost(baseURL string) string {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(baseURL)
	}
	return u.Host
}

func (s *CompletionService) Complete(ctx context.Context, in CompleteInput) (CompleteOutput, error) {
	model := strings.TrimSpace(in.Model)
	if model == "" {
		model = s.defaultModel
	}

	start := s.now()
	resp, err := s.client.SendChatCompletion(ctx, model, in.Messages)
	latency := s.now().Sub(start)

	if err != nil {
		uerr := classify(err)
		s.log.Error("chat completion failed", "model", model, "code", uerr.Code, "reason", uerr.Reason, "err", err)
		if uerr.Code != ErrorInvalidInput {
			s.record(ctx, s.activity(start, model, latency, nil, uerr.Code))
		}
		return CompleteOutput{}, uerr
	}

	s.log.Debug("chat completion received", "model", model, "choices", len(resp.Choices), "latency_ms", latency.Milliseconds())
	s.record(ctx, s.activity(start, model, latency, resp.Usage, ""))

	return CompleteOutput{
		Response: resp,
		Message:  resp.FirstMessage(),
		Latency:  latency,
	}, nil
}

func (s *CompletionService) activity(start time.Time, model string, latency time.Duration, usage *domain.Usage, code ErrorCode) domain.Activity {
	a := domain.Activity{
		ID:             newUUID(),
		Timestamp:      start.UTC(),
		Provider:       s.provider,
		Model:          model,
		ResponseTimeMs: float64(latency.Microseconds()) / 1000,
		Status:         domain.ActivitySuccess,
	}
	if code != "" {
		a.Status = domain.ActivityError
		a.ErrorCode = string(code)
	}
	if usage != nil {
		a.PromptTokens = usage.PromptTokens
		a.CompletionTokens = usage.CompletionTokens
		a.TotalTokens = usage.TotalTokens
	}
	return a
}

// record never fails the call; the exchange already happened.
func (s *CompletionService) record(ctx context.Context, a domain.Activity) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, a); err != nil {
		s.log.Warn("failed to record activity", "id", a.ID, "err", err)
	}
}

var newUUID = func() string {
	return uuid.NewString()
}

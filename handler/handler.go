package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"chathello/internal/domain"
	"chathello/internal/logger"
	"chathello/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type Completer interface {
	Complete(ctx context.Context, in usecase.CompleteInput) (usecase.CompleteOutput, error)
}

type completionRequest struct {
	Model    string               `json:"model"`
	Messages []domain.ChatMessage `json:"messages"`
}

type errorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlationId"`
}

// Handler serves chat completions behind API Gateway.
type Handler struct {
	completer Completer
	log       *slog.Logger
}

func NewHandler(c Completer) (*Handler, error) {
	if c == nil {
		return nil, errors.New("handler: completer must not be nil")
	}
	return &Handler{completer: c, log: logger.L}, nil
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := h.log.With("correlation_id", correlationID)

	if req.HTTPMethod != "" && req.HTTPMethod != http.MethodPost {
		return errorResult(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", correlationID), nil
	}

	var body completionRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		log.Warn("invalid request body", "err", err)
		return errorResult(http.StatusBadRequest, string(usecase.ErrorInvalidInput), correlationID), nil
	}

	out, err := h.completer.Complete(ctx, usecase.CompleteInput{
		Model:    body.Model,
		Messages: body.Messages,
	})
	if err != nil {
		code := usecase.CodeOf(err)
		log.Error("completion failed", "code", code, "err", err)
		return errorResult(statusFor(code), string(code), correlationID), nil
	}

	return jsonResult(http.StatusOK, out.Response, correlationID), nil
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorUnauthorized:
		return http.StatusUnauthorized
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests
	case usecase.ErrorUpstream, usecase.ErrorMalformedResponse:
		return http.StatusBadGateway
	case usecase.ErrorTransport:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func errorResult(status int, code, correlationID string) events.APIGatewayProxyResponse {
	return jsonResult(status, errorResponse{Error: code, CorrelationID: correlationID}, correlationID)
}

func jsonResult(status int, v any, correlationID string) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(body),
	}
}

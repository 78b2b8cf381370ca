package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chathello/internal/config"
	"chathello/internal/domain"
	"chathello/internal/integrations/openai"
	"chathello/internal/repository"
)

func testConfig(baseURL, apiKey string) *config.Config {
	return &config.Config{
		APIKey:   apiKey,
		BaseURL:  baseURL,
		Model:    config.DefaultModel,
		Timeout:  2 * time.Second,
		LogLevel: "error",
	}
}

func echoServer(t *testing.T, onRequest func(r *http.Request, body domain.ChatRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body domain.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if onRequest != nil {
			onRequest(r, body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hi!"}}],"usage":{"prompt_tokens":19,"completion_tokens":2,"total_tokens":21}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_PrintsFirstMessage(t *testing.T) {
	srv := echoServer(t, func(r *http.Request, body domain.ChatRequest) {
		require.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.Equal(t, "gpt-3.5-turbo", body.Model)
		require.Equal(t, conversation, body.Messages)
	})

	var stdout bytes.Buffer
	err := run(context.Background(), testConfig(srv.URL+"/api/v1", "sk-test"), &stdout)
	require.NoError(t, err)
	require.Equal(t, "ChatMessage(role=\"assistant\", content=\"Hi!\")\n", stdout.String())
}

func TestRun_WithoutKeyStillSends(t *testing.T) {
	calls := 0
	srv := echoServer(t, func(r *http.Request, _ domain.ChatRequest) {
		calls++
		require.Empty(t, r.Header.Get("Authorization"))
	})

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), testConfig(srv.URL, ""), &stdout))
	require.Equal(t, 1, calls)
	require.Contains(t, stdout.String(), `"Hi!"`)
}

func TestRun_UnauthorizedPrintsNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	err := run(context.Background(), testConfig(srv.URL, "sk-bad"), &stdout)
	var authErr *openai.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Empty(t, stdout.String())
}

func TestRun_RecordsActivityInSQLite(t *testing.T) {
	srv := echoServer(t, nil)
	dbPath := filepath.Join(t.TempDir(), "activity.db")

	cfg := testConfig(srv.URL, "sk-test")
	cfg.ActivityDB = dbPath

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &stdout))

	store, err := repository.OpenSQLite(context.Background(), dbPath)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, domain.ActivitySuccess, got[0].Status)
	require.Equal(t, 21, got[0].TotalTokens)
	require.Equal(t, "gpt-3.5-turbo", got[0].Model)
}

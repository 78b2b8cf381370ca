package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"chathello/internal/app"
	"chathello/internal/config"
	"chathello/internal/domain"
	"chathello/internal/logger"
	"chathello/internal/usecase"
)

var conversation = []domain.ChatMessage{
	{Role: domain.RoleSystem, Content: "You are a helpful assistant."},
	{Role: domain.RoleUser, Content: "Hello!"},
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	if err := run(ctx, cfg, os.Stdout); err != nil {
		logger.L.Error("chat completion failed", "err", err)
		os.Exit(1)
	}
}

// run sends the fixed conversation once and prints choices[0].message.
func run(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	svc, cleanup, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := svc.Complete(ctx, usecase.CompleteInput{
		Model:    cfg.Model,
		Messages: conversation,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(stdout, out.Message)
	return err
}

package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"chathello/handler"
	"chathello/internal/app"
	"chathello/internal/config"
	"chathello/internal/logger"
)

func main() {
	ctx := context.Background()

	// ---- Configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	// ---- Service ----
	svc, cleanup, err := app.Build(ctx, cfg)
	if err != nil {
		logger.L.Error("failed to build completion service", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	// ---- Handler ----
	h, err := handler.NewHandler(svc)
	if err != nil {
		logger.L.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

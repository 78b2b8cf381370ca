// Package app wires configuration into a ready CompletionService.
package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"chathello/internal/config"
	"chathello/internal/integrations/openai"
	"chathello/internal/integrations/paramstore"
	"chathello/internal/repository"
	"chathello/internal/usecase"
)

// Build resolves the API key, constructs the chat client and the optional
// activity store. The returned cleanup func is never nil.
func Build(ctx context.Context, cfg *config.Config, opts ...openai.Option) (*usecase.CompletionService, func(), error) {
	cleanup := func() {}

	var awsCfg aws.Config
	if cfg.NeedsAWS() {
		var err error
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, cleanup, fmt.Errorf("app: load AWS config: %w", err)
		}
	}

	var secrets usecase.SecretGetter
	if cfg.APIKey == "" && cfg.APIKeyParam != "" {
		ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, cleanup, fmt.Errorf("app: create SSM client: %w", err)
		}
		secrets = ps
	}
	apiKey, err := usecase.ResolveAPIKey(ctx, cfg.APIKey, cfg.APIKeyParam, secrets)
	if err != nil {
		return nil, cleanup, err
	}

	opts = append([]openai.Option{openai.WithTimeout(cfg.Timeout)}, opts...)
	client := openai.NewClient(apiKey, cfg.BaseURL, opts...)

	var recorder usecase.ActivityRecorder
	switch {
	case cfg.ActivityTable != "":
		store, err := repository.NewDynamoStore(awsdynamodb.NewFromConfig(awsCfg), cfg.ActivityTable)
		if err != nil {
			return nil, cleanup, fmt.Errorf("app: create activity store: %w", err)
		}
		recorder = store
	case cfg.ActivityDB != "":
		store, err := repository.OpenSQLite(ctx, cfg.ActivityDB)
		if err != nil {
			return nil, cleanup, fmt.Errorf("app: open activity db: %w", err)
		}
		recorder = store
		cleanup = func() { _ = store.Close() }
	}

	svc, err := usecase.NewCompletionService(client, recorder, client.BaseURL(), cfg.Model)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return svc, cleanup, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// ResolveAPIKey returns envKey when set. Otherwise, when paramName is set, the
// key is read from the parameter store. With neither, the key is empty and
// callers still send the request unauthenticated.
func ResolveAPIKey(ctx context.Context, envKey, paramName string, getter SecretGetter) (string, error) {
	if envKey != "" {
		return envKey, nil
	}
	paramName = strings.TrimSpace(paramName)
	if paramName == "" {
		return "", nil
	}
	if getter == nil {
		return "", errors.New("usecase: secret getter must not be nil when a key parameter is configured")
	}
	key, err := getter.GetSecret(ctx, paramName)
	if err != nil {
		return "", fmt.Errorf("usecase: load api key: %w", err)
	}
	return key, nil
}

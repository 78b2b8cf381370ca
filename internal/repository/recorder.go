// Package repository persists the activity log of chat completion exchanges.
package repository

import (
	"context"

	"chathello/internal/domain"
)

// ActivityRecorder stores one entry per completed exchange.
type ActivityRecorder interface {
	Record(ctx context.Context, a domain.Activity) error
}

var (
	_ ActivityRecorder = (*DynamoStore)(nil)
	_ ActivityRecorder = (*SQLiteStore)(nil)
)

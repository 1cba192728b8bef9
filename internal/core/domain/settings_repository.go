package domain

import (
	"context"
	"time"
)

// SettingsRepository persists the non-secret wallet settings.
type SettingsRepository interface {
	GetSessionTimeout(ctx context.Context) (time.Duration, error)
	SetSessionTimeout(ctx context.Context, timeout time.Duration) error

	GetLocked(ctx context.Context) (bool, error)
	SetLocked(ctx context.Context, locked bool) error

	GetCurrentChainID(ctx context.Context) (string, error)
	SetCurrentChainID(ctx context.Context, chainID string) error
}

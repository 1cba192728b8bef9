package ports

import (
	"context"

	"github.com/tidewallet/tide-daemon/internal/core/domain"
)

// RepoManager gives access to all the repositories of the daemon's storage
// and to the operations spanning all of them.
type RepoManager interface {
	SecretRepository() domain.SecretRepository
	AccountRepository() domain.AccountRepository
	SettingsRepository() domain.SettingsRepository

	// Reset clears every namespace of the store. Invoked when the last
	// account is removed: secrets must never outlive the accounts that
	// reference them.
	Reset(ctx context.Context) error
	Close() error
}

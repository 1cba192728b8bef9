package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidewallet/tide-daemon/internal/core/application"
	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/tidewallet/tide-daemon/internal/core/ports"
	"github.com/tidewallet/tide-daemon/internal/infrastructure/secretholder"
	"github.com/tidewallet/tide-daemon/internal/infrastructure/storage/db/inmemory"
	"github.com/tidewallet/tide-daemon/pkg/hdwallet"
	"github.com/tidewallet/tide-daemon/pkg/vault"
)

const (
	testPassword    = "Str0ng&Secret1"
	testNewPassword = "An0ther&Secret2"
)

func newTestUnlocker(t *testing.T) (ports.RepoManager, application.UnlockerService) {
	t.Helper()
	holder := secretholder.New()
	t.Cleanup(holder.Shutdown)
	repoManager := inmemory.NewRepoManager()
	return repoManager, application.NewUnlockerService(repoManager, holder)
}

func TestInitUnlockLockCycle(t *testing.T) {
	ctx := context.Background()
	_, unlocker := newTestUnlocker(t)

	status, err := unlocker.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StatusUninitialized, status)

	err = unlocker.InitWallet(ctx, "weak")
	require.ErrorIs(t, err, vault.ErrWeakPassword)

	err = unlocker.Unlock(ctx, testPassword)
	require.ErrorIs(t, err, domain.ErrWalletNotInitialized)

	require.NoError(t, unlocker.InitWallet(ctx, testPassword))

	status, err = unlocker.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StatusUnlocked, status)

	session, err := unlocker.GetSession(ctx)
	require.NoError(t, err)
	require.Equal(t, testPassword, session.Password)
	require.True(t, session.ExpiresAt.After(time.Now()))

	err = unlocker.InitWallet(ctx, testPassword)
	require.ErrorIs(t, err, domain.ErrWalletAlreadyInitialized)

	require.NoError(t, unlocker.Lock(ctx))

	status, err = unlocker.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StatusLocked, status)

	_, err = unlocker.GetSession(ctx)
	require.ErrorIs(t, err, domain.ErrMustBeUnlocked)

	err = unlocker.Unlock(ctx, "Wr0ng&Password9")
	require.ErrorIs(t, err, domain.ErrInvalidPassword)

	require.NoError(t, unlocker.Unlock(ctx, testPassword))
	status, err = unlocker.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StatusUnlocked, status)
}

func TestLockIsIdempotent(t *testing.T) {
	ctx := context.Background()
	_, unlocker := newTestUnlocker(t)

	require.NoError(t, unlocker.InitWallet(ctx, testPassword))
	require.NoError(t, unlocker.Lock(ctx))
	require.NoError(t, unlocker.Lock(ctx))
}

func TestExpiredSessionPersistsLockedFlag(t *testing.T) {
	ctx := context.Background()
	holder := secretholder.New()
	t.Cleanup(holder.Shutdown)
	repoManager := inmemory.NewRepoManager()
	unlocker := application.NewUnlockerService(repoManager, holder)

	require.NoError(t, unlocker.InitWallet(ctx, testPassword))
	locked, err := repoManager.SettingsRepository().GetLocked(ctx)
	require.NoError(t, err)
	require.False(t, locked)

	// shrink the live session's lifetime so it expires without waiting
	session, err := holder.GetSession(ctx)
	require.NoError(t, err)
	session.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, holder.SetSession(ctx, session))

	_, err = unlocker.GetSession(ctx)
	require.ErrorIs(t, err, domain.ErrMustBeUnlocked)

	locked, err = repoManager.SettingsRepository().GetLocked(ctx)
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestSessionTimeoutBounds(t *testing.T) {
	ctx := context.Background()
	repoManager, unlocker := newTestUnlocker(t)
	require.NoError(t, unlocker.InitWallet(ctx, testPassword))

	tests := []struct {
		name    string
		timeout time.Duration
		err     error
	}{
		{"below lower bound", time.Minute, domain.ErrInvalidTimeout},
		{"above upper bound", 25 * time.Hour, domain.ErrInvalidTimeout},
		{"lower bound", domain.MinSessionTimeout, nil},
		{"upper bound", domain.MaxSessionTimeout, nil},
		{"in range", 45 * time.Minute, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := unlocker.SetSessionTimeout(ctx, tt.timeout)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			stored, err := repoManager.SettingsRepository().GetSessionTimeout(ctx)
			require.NoError(t, err)
			require.Equal(t, tt.timeout, stored)
		})
	}
}

func TestSetSessionTimeoutExtendsLiveSession(t *testing.T) {
	ctx := context.Background()
	_, unlocker := newTestUnlocker(t)
	require.NoError(t, unlocker.InitWallet(ctx, testPassword))

	require.NoError(t, unlocker.SetSessionTimeout(ctx, 2*time.Hour))

	session, err := unlocker.GetSession(ctx)
	require.NoError(t, err)
	assert.True(t, session.ExpiresAt.After(time.Now().Add(time.Hour)))
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	repoManager, unlocker := newTestUnlocker(t)
	wallet := application.NewWalletService(repoManager, unlocker, hdwallet.NewEngine())

	mnemonic, _, err := wallet.CreateWallet(ctx, testPassword, "Main")
	require.NoError(t, err)

	err = unlocker.ChangePassword(ctx, "Wr0ng&Password9", testNewPassword)
	require.ErrorIs(t, err, domain.ErrInvalidPassword)

	err = unlocker.ChangePassword(ctx, testPassword, "weak")
	require.ErrorIs(t, err, vault.ErrWeakPassword)

	require.NoError(t, unlocker.ChangePassword(ctx, testPassword, testNewPassword))

	// the session stays open under the new password
	session, err := unlocker.GetSession(ctx)
	require.NoError(t, err)
	require.Equal(t, testNewPassword, session.Password)

	require.NoError(t, unlocker.Lock(ctx))
	err = unlocker.Unlock(ctx, testPassword)
	require.ErrorIs(t, err, domain.ErrInvalidPassword)
	require.NoError(t, unlocker.Unlock(ctx, testNewPassword))

	// every stored secret must now decrypt under the new password
	seedPhrases, err := repoManager.SecretRepository().ListSeedPhrases(ctx)
	require.NoError(t, err)
	require.Len(t, seedPhrases, 1)
	decrypted, err := vault.Decrypt(vault.DecryptOpts{
		Blob:     seedPhrases[0].EncryptedMnemonic,
		Password: testNewPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, mnemonic, decrypted)
}

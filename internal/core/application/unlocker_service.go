package application

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/tidewallet/tide-daemon/internal/core/ports"
	"github.com/tidewallet/tide-daemon/pkg/vault"
)

// UnlockerService owns the wallet's lock lifecycle: it creates the password
// record, opens and tears down sessions, schedules the auto-lock and runs
// the change-password re-encryption pass.
type UnlockerService interface {
	Status(ctx context.Context) (domain.WalletStatus, error)
	// InitWallet creates the password record and opens the first session.
	// Only valid while the wallet is uninitialized.
	InitWallet(ctx context.Context, password string) error
	Unlock(ctx context.Context, password string) error
	// Lock is idempotent.
	Lock(ctx context.Context) error
	// GetSession returns the active session or ErrMustBeUnlocked, flipping
	// the persisted locked flag when the session turns out to be gone.
	GetSession(ctx context.Context) (*domain.Session, error)
	GetSessionTimeout(ctx context.Context) (time.Duration, error)
	SetSessionTimeout(ctx context.Context, timeout time.Duration) error
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
}

type unlockerService struct {
	repoManager ports.RepoManager
	holder      ports.SecretHolder

	locker   sync.Mutex
	autoLock *time.Timer
}

// NewUnlockerService ...
func NewUnlockerService(
	repoManager ports.RepoManager, holder ports.SecretHolder,
) UnlockerService {
	return &unlockerService{
		repoManager: repoManager,
		holder:      holder,
	}
}

func (s *unlockerService) Status(ctx context.Context) (domain.WalletStatus, error) {
	if _, err := s.repoManager.SecretRepository().GetPassword(ctx); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.StatusUninitialized, nil
		}
		return "", err
	}
	if _, err := s.GetSession(ctx); err != nil {
		return domain.StatusLocked, nil
	}
	return domain.StatusUnlocked, nil
}

func (s *unlockerService) InitWallet(ctx context.Context, password string) error {
	if report := vault.ValidatePasswordStrength(password); !report.IsValid {
		return vault.ErrWeakPassword
	}
	if _, err := s.repoManager.SecretRepository().GetPassword(ctx); err == nil {
		return domain.ErrWalletAlreadyInitialized
	}

	hash, err := vault.HashPassword(vault.HashPasswordOpts{Password: password})
	if err != nil {
		return err
	}
	if err := s.repoManager.SecretRepository().SavePassword(ctx, &domain.PasswordRecord{
		Hash: hash.Hash,
		Salt: hash.Salt,
	}); err != nil {
		return err
	}

	return s.openSession(ctx, password)
}

func (s *unlockerService) Unlock(ctx context.Context, password string) error {
	record, err := s.repoManager.SecretRepository().GetPassword(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrWalletNotInitialized
		}
		return err
	}

	ok, err := vault.VerifyPassword(password, &vault.PasswordHash{
		Hash: record.Hash,
		Salt: record.Salt,
	})
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidPassword
	}

	return s.openSession(ctx, password)
}

func (s *unlockerService) Lock(ctx context.Context) error {
	s.stopAutoLock()

	if err := s.withHolderRetry(ctx, func(ctx context.Context) error {
		return s.holder.ClearSession(ctx)
	}); err != nil {
		// the holder being unreachable is already the locked outcome
		log.WithError(err).Warn("unlocker: could not clear session on holder")
	}

	return s.repoManager.SettingsRepository().SetLocked(ctx, true)
}

func (s *unlockerService) GetSession(ctx context.Context) (*domain.Session, error) {
	var session *domain.Session
	err := s.withHolderRetry(ctx, func(ctx context.Context) error {
		got, err := s.holder.GetSession(ctx)
		if err != nil {
			return err
		}
		session = got
		return nil
	})
	if err != nil {
		if setErr := s.repoManager.SettingsRepository().SetLocked(ctx, true); setErr != nil {
			log.WithError(setErr).Warn("unlocker: could not persist locked flag")
		}
		if errors.Is(err, domain.ErrUnavailable) {
			return nil, domain.ErrUnavailable
		}
		return nil, domain.ErrMustBeUnlocked
	}
	return session, nil
}

func (s *unlockerService) GetSessionTimeout(ctx context.Context) (time.Duration, error) {
	return s.repoManager.SettingsRepository().GetSessionTimeout(ctx)
}

func (s *unlockerService) SetSessionTimeout(
	ctx context.Context, timeout time.Duration,
) error {
	if err := domain.ValidateSessionTimeout(timeout); err != nil {
		return err
	}
	if err := s.repoManager.SettingsRepository().SetSessionTimeout(ctx, timeout); err != nil {
		return err
	}

	// apply the new policy to the live session without requiring re-unlock
	session, err := s.GetSession(ctx)
	if err != nil {
		return nil
	}
	session.ExpiresAt = time.Now().Add(timeout)
	if err := s.withHolderRetry(ctx, func(ctx context.Context) error {
		return s.holder.SetSession(ctx, session)
	}); err != nil {
		return err
	}
	s.scheduleAutoLock(timeout)
	return nil
}

func (s *unlockerService) ChangePassword(
	ctx context.Context, currentPassword, newPassword string,
) error {
	if report := vault.ValidatePasswordStrength(newPassword); !report.IsValid {
		return vault.ErrWeakPassword
	}

	record, err := s.repoManager.SecretRepository().GetPassword(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrWalletNotInitialized
		}
		return err
	}
	ok, err := vault.VerifyPassword(currentPassword, &vault.PasswordHash{
		Hash: record.Hash,
		Salt: record.Salt,
	})
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidPassword
	}

	sessionWasActive := false
	if _, err := s.GetSession(ctx); err == nil {
		sessionWasActive = true
	}

	// decrypt everything first so a wrong blob aborts before any write
	secretRepo := s.repoManager.SecretRepository()
	seedPhrases, err := secretRepo.ListSeedPhrases(ctx)
	if err != nil {
		return err
	}
	privateKeys, err := secretRepo.ListPrivateKeys(ctx)
	if err != nil {
		return err
	}

	reencryptedSeeds := make([]*domain.SeedPhraseRecord, 0, len(seedPhrases))
	for _, sp := range seedPhrases {
		plain, err := vault.Decrypt(vault.DecryptOpts{
			Blob: sp.EncryptedMnemonic, Password: currentPassword,
		})
		if err != nil {
			return err
		}
		blob, err := vault.Encrypt(vault.EncryptOpts{
			PlainText: plain, Password: newPassword,
		})
		if err != nil {
			return err
		}
		updated := *sp
		updated.EncryptedMnemonic = blob
		reencryptedSeeds = append(reencryptedSeeds, &updated)
	}

	reencryptedKeys := make([]*domain.PrivateKeyRecord, 0, len(privateKeys))
	for _, pk := range privateKeys {
		plain, err := vault.Decrypt(vault.DecryptOpts{
			Blob: pk.EncryptedKey, Password: currentPassword,
		})
		if err != nil {
			return err
		}
		blob, err := vault.Encrypt(vault.EncryptOpts{
			PlainText: plain, Password: newPassword,
		})
		if err != nil {
			return err
		}
		updated := *pk
		updated.EncryptedKey = blob
		reencryptedKeys = append(reencryptedKeys, &updated)
	}

	hash, err := vault.HashPassword(vault.HashPasswordOpts{Password: newPassword})
	if err != nil {
		return err
	}

	for _, sp := range reencryptedSeeds {
		if err := secretRepo.ReplaceSeedPhrase(ctx, sp); err != nil {
			return err
		}
	}
	for _, pk := range reencryptedKeys {
		if err := secretRepo.ReplacePrivateKey(ctx, pk); err != nil {
			return err
		}
	}
	if err := secretRepo.ReplacePassword(ctx, &domain.PasswordRecord{
		Hash: hash.Hash,
		Salt: hash.Salt,
	}); err != nil {
		return err
	}

	// reopen the session under the new password so the user stays unlocked
	if sessionWasActive {
		return s.openSession(ctx, newPassword)
	}
	return nil
}

func (s *unlockerService) openSession(ctx context.Context, password string) error {
	timeout, err := s.GetSessionTimeout(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	session := &domain.Session{
		Password:  password,
		CreatedAt: now,
		ExpiresAt: now.Add(timeout),
	}
	if err := s.withHolderRetry(ctx, func(ctx context.Context) error {
		return s.holder.SetSession(ctx, session)
	}); err != nil {
		return err
	}
	if err := s.repoManager.SettingsRepository().SetLocked(ctx, false); err != nil {
		return err
	}
	s.scheduleAutoLock(timeout)
	return nil
}

// withHolderRetry runs fn and, on an unavailable holder, recreates it and
// retries exactly once. The recreated holder is empty, so reads after a
// retry still resolve to "locked".
func (s *unlockerService) withHolderRetry(
	ctx context.Context, fn func(context.Context) error,
) error {
	err := fn(ctx)
	if !errors.Is(err, domain.ErrUnavailable) {
		return err
	}

	log.Warn("unlocker: secret holder unreachable, recreating it")
	if err := s.holder.Recreate(ctx); err != nil {
		return domain.ErrUnavailable
	}
	if err := fn(ctx); err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			return domain.ErrUnavailable
		}
		return err
	}
	return nil
}

func (s *unlockerService) scheduleAutoLock(timeout time.Duration) {
	s.locker.Lock()
	defer s.locker.Unlock()

	if s.autoLock != nil {
		s.autoLock.Stop()
	}
	s.autoLock = time.AfterFunc(timeout, func() {
		log.Debug("unlocker: auto-lock fired")
		if err := s.Lock(context.Background()); err != nil {
			log.WithError(err).Warn("unlocker: auto-lock failed")
		}
	})
}

func (s *unlockerService) stopAutoLock() {
	s.locker.Lock()
	defer s.locker.Unlock()

	if s.autoLock != nil {
		s.autoLock.Stop()
		s.autoLock = nil
	}
}

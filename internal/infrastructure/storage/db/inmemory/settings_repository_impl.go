package inmemory

import (
	"context"
	"time"

	"github.com/tidewallet/tide-daemon/internal/core/domain"
)

// SettingsRepositoryImpl represents an in memory storage
type SettingsRepositoryImpl struct {
	db *DbManager
}

func newSettingsRepositoryImpl(db *DbManager) domain.SettingsRepository {
	return &SettingsRepositoryImpl{db: db}
}

func (r SettingsRepositoryImpl) GetSessionTimeout(
	_ context.Context,
) (time.Duration, error) {
	r.db.settingsStore.locker.Lock()
	defer r.db.settingsStore.locker.Unlock()

	if r.db.settingsStore.sessionTimeout == 0 {
		return domain.DefaultSessionTimeout, nil
	}
	return r.db.settingsStore.sessionTimeout, nil
}

func (r SettingsRepositoryImpl) SetSessionTimeout(
	_ context.Context, timeout time.Duration,
) error {
	r.db.settingsStore.locker.Lock()
	defer r.db.settingsStore.locker.Unlock()

	r.db.settingsStore.sessionTimeout = timeout
	return nil
}

func (r SettingsRepositoryImpl) GetLocked(_ context.Context) (bool, error) {
	r.db.settingsStore.locker.Lock()
	defer r.db.settingsStore.locker.Unlock()

	return r.db.settingsStore.locked, nil
}

func (r SettingsRepositoryImpl) SetLocked(_ context.Context, locked bool) error {
	r.db.settingsStore.locker.Lock()
	defer r.db.settingsStore.locker.Unlock()

	r.db.settingsStore.locked = locked
	return nil
}

func (r SettingsRepositoryImpl) GetCurrentChainID(_ context.Context) (string, error) {
	r.db.settingsStore.locker.Lock()
	defer r.db.settingsStore.locker.Unlock()

	if r.db.settingsStore.chainID == "" {
		return "0x1", nil
	}
	return r.db.settingsStore.chainID, nil
}

func (r SettingsRepositoryImpl) SetCurrentChainID(
	_ context.Context, chainID string,
) error {
	r.db.settingsStore.locker.Lock()
	defer r.db.settingsStore.locker.Unlock()

	r.db.settingsStore.chainID = chainID
	return nil
}

package dbbadger

import (
	"context"
	"errors"
	"time"

	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const (
	sessionTimeoutKey = "sessionTimeout"
	lockedKey         = "locked"
	currentChainIDKey = "currentChainId"
)

type settingEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SettingsRepositoryImpl is the badger implementation of the
// SettingsRepository.
type SettingsRepositoryImpl struct {
	db *DbManager
}

func newSettingsRepositoryImpl(db *DbManager) domain.SettingsRepository {
	return &SettingsRepositoryImpl{db: db}
}

func (r *SettingsRepositoryImpl) GetSessionTimeout(
	ctx context.Context,
) (time.Duration, error) {
	value, err := r.get(sessionTimeoutKey)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return domain.DefaultSessionTimeout, nil
	}
	return time.ParseDuration(value)
}

func (r *SettingsRepositoryImpl) SetSessionTimeout(
	_ context.Context, timeout time.Duration,
) error {
	return r.set(sessionTimeoutKey, timeout.String())
}

func (r *SettingsRepositoryImpl) GetLocked(_ context.Context) (bool, error) {
	value, err := r.get(lockedKey)
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

func (r *SettingsRepositoryImpl) SetLocked(_ context.Context, locked bool) error {
	value := "false"
	if locked {
		value = "true"
	}
	return r.set(lockedKey, value)
}

func (r *SettingsRepositoryImpl) GetCurrentChainID(_ context.Context) (string, error) {
	value, err := r.get(currentChainIDKey)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "0x1", nil
	}
	return value, nil
}

func (r *SettingsRepositoryImpl) SetCurrentChainID(
	_ context.Context, chainID string,
) error {
	return r.set(currentChainIDKey, chainID)
}

func (r *SettingsRepositoryImpl) get(key string) (string, error) {
	var entry settingEntry
	if err := r.db.SettingsStore.Get(key, &entry); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return entry.Value, nil
}

func (r *SettingsRepositoryImpl) set(key, value string) error {
	return r.db.SettingsStore.Upsert(key, settingEntry{Key: key, Value: value})
}

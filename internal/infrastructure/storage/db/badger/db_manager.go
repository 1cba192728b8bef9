package dbbadger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/tidewallet/tide-daemon/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

// DbManager holds the badgerhold stores in a single data structure.
type DbManager struct {
	Store         *badgerhold.Store
	SettingsStore *badgerhold.Store

	secretRepository   domain.SecretRepository
	accountRepository  domain.AccountRepository
	settingsRepository domain.SettingsRepository
}

// NewRepoManager opens (or creates if not exists) the badger stores on disk.
// It expects a base data dir and an optional logger. Secrets and settings
// live in dedicated directories so resetting one never touches the other's
// value log.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	mainDb, err := createDb(baseDbDir+"/main", logger)
	if err != nil {
		return nil, fmt.Errorf("opening main db: %w", err)
	}

	settingsDb, err := createDb(baseDbDir+"/settings", logger)
	if err != nil {
		return nil, fmt.Errorf("opening settings db: %w", err)
	}

	db := &DbManager{
		Store:         mainDb,
		SettingsStore: settingsDb,
	}
	db.secretRepository = newSecretRepositoryImpl(db)
	db.accountRepository = newAccountRepositoryImpl(db)
	db.settingsRepository = newSettingsRepositoryImpl(db)
	return db, nil
}

func (d *DbManager) SecretRepository() domain.SecretRepository {
	return d.secretRepository
}

func (d *DbManager) AccountRepository() domain.AccountRepository {
	return d.accountRepository
}

func (d *DbManager) SettingsRepository() domain.SettingsRepository {
	return d.settingsRepository
}

// Reset drops every key of both stores.
func (d *DbManager) Reset(_ context.Context) error {
	if err := d.Store.Badger().DropAll(); err != nil {
		return err
	}
	return d.SettingsStore.Badger().DropAll()
}

func (d *DbManager) Close() error {
	if err := d.Store.Close(); err != nil {
		return err
	}
	return d.SettingsStore.Close()
}

// JSONEncode is a custom JSON based encoder for badger
func JSONEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer

	en := json.NewEncoder(&buff)

	err := en.Encode(value)
	if err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

// JSONDecode is a custom JSON based decoder for badger
func JSONDecode(data []byte, value interface{}) error {
	var buff bytes.Buffer
	de := json.NewDecoder(&buff)

	_, err := buff.Write(data)
	if err != nil {
		return err
	}

	return de.Decode(value)
}

func createDb(dbDir string, logger badger.Logger) (db *badgerhold.Store, err error) {
	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	db, err = badgerhold.Open(badgerhold.Options{
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})

	return
}

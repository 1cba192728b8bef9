package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/tidewallet/tide-daemon/internal/core/ports"
)

type secretStore struct {
	locker      sync.Mutex
	seedPhrases map[string]*domain.SeedPhraseRecord
	privateKeys map[string]*domain.PrivateKeyRecord
	password    *domain.PasswordRecord
}

type accountStore struct {
	locker         sync.Mutex
	accounts       map[string]*domain.Account
	wallets        map[string]*domain.Wallet
	activeID       string
	connectedSites map[string][]string
}

type settingsStore struct {
	locker         sync.Mutex
	sessionTimeout time.Duration
	locked         bool
	chainID        string
}

// DbManager is the in-memory implementation of the RepoManager, used by
// tests and by the daemon in ephemeral mode.
type DbManager struct {
	secretStore   *secretStore
	accountStore  *accountStore
	settingsStore *settingsStore

	secretRepository   domain.SecretRepository
	accountRepository  domain.AccountRepository
	settingsRepository domain.SettingsRepository
}

// NewRepoManager returns a new empty DbManager.
func NewRepoManager() ports.RepoManager {
	db := &DbManager{
		secretStore:   newSecretStore(),
		accountStore:  newAccountStore(),
		settingsStore: &settingsStore{},
	}
	db.secretRepository = newSecretRepositoryImpl(db)
	db.accountRepository = newAccountRepositoryImpl(db)
	db.settingsRepository = newSettingsRepositoryImpl(db)
	return db
}

func newSecretStore() *secretStore {
	return &secretStore{
		seedPhrases: map[string]*domain.SeedPhraseRecord{},
		privateKeys: map[string]*domain.PrivateKeyRecord{},
	}
}

func newAccountStore() *accountStore {
	return &accountStore{
		accounts:       map[string]*domain.Account{},
		wallets:        map[string]*domain.Wallet{},
		connectedSites: map[string][]string{},
	}
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

// Reset clears every store.
func (d *DbManager) Reset(_ context.Context) error {
	d.secretStore.locker.Lock()
	d.secretStore.seedPhrases = map[string]*domain.SeedPhraseRecord{}
	d.secretStore.privateKeys = map[string]*domain.PrivateKeyRecord{}
	d.secretStore.password = nil
	d.secretStore.locker.Unlock()

	d.accountStore.locker.Lock()
	d.accountStore.accounts = map[string]*domain.Account{}
	d.accountStore.wallets = map[string]*domain.Wallet{}
	d.accountStore.activeID = ""
	d.accountStore.connectedSites = map[string][]string{}
	d.accountStore.locker.Unlock()

	d.settingsStore.locker.Lock()
	d.settingsStore.sessionTimeout = 0
	d.settingsStore.locked = false
	d.settingsStore.chainID = ""
	d.settingsStore.locker.Unlock()
	return nil
}

func (d *DbManager) Close() error {
	return nil
}

package inmemory

import (
	"context"

	"github.com/tidewallet/tide-daemon/internal/core/domain"
)

// AccountRepositoryImpl represents an in memory storage
type AccountRepositoryImpl struct {
	db *DbManager
}

func newAccountRepositoryImpl(db *DbManager) domain.AccountRepository {
	return &AccountRepositoryImpl{db: db}
}

func (r AccountRepositoryImpl) SaveAccount(
	_ context.Context, account *domain.Account, wallet *domain.Wallet,
) error {
	r.db.accountStore.locker.Lock()
	defer r.db.accountStore.locker.Unlock()

	if _, ok := r.db.accountStore.accounts[account.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.db.accountStore.accounts[account.ID] = account
	r.db.accountStore.wallets[account.ID] = wallet
	return nil
}

func (r AccountRepositoryImpl) GetAccount(
	_ context.Context, id string,
) (*domain.Account, error) {
	r.db.accountStore.locker.Lock()
	defer r.db.accountStore.locker.Unlock()

	account, ok := r.db.accountStore.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (r AccountRepositoryImpl) GetWallet(
	_ context.Context, accountID string,
) (*domain.Wallet, error) {
	r.db.accountStore.locker.Lock()
	defer r.db.accountStore.locker.Unlock()

	wallet, ok := r.db.accountStore.wallets[accountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return wallet, nil
}

func (r AccountRepositoryImpl) ListAccounts(
	_ context.Context,
) ([]*domain.Account, error) {
	r.db.accountStore.locker.Lock()
	defer r.db.accountStore.locker.Unlock()

	accounts := make([]*domain.Account, 0, len(r.db.accountStore.accounts))
	for _, account := range r.db.accountStore.accounts {
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (r AccountRepositoryImpl) UpdateAccount(
	_ context.Context, id string,
	updateFn func(*domain.Account) (*domain.Account, error),
) error {
	r.db.accountStore.locker.Lock()
	defer r.db.accountStore.locker.Unlock()

	account, ok := r.db.accountStore.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	updated, err := updateFn(account)
	if err != nil {
		return err
	}
	r.db.accountStore.accounts[id] = updated
	return nil
}

func (r AccountRepositoryImpl) RemoveAccount(_ context.Context, id string) error {
	r.db.accountStore.locker.Lock()
	defer r.db.accountStore.locker.Unlock()

	delete(r.db.accountStore.accounts, id)
	delete(r.db.accountStore.wallets, id)
	delete(r.db.accountStore.connectedSites, id)
	if r.db.accountStore.activeID == id {
		r.db.accountStore.activeID = ""
	}
	return nil
}

func (r AccountRepositoryImpl) SetActiveAccount(_ context.Context, id string) error {
	r.db.accountStore.locker.Lock()
	defer r.db.accountStore.locker.Unlock()

	if _, ok := r.db.accountStore.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	r.db.accountStore.activeID = id
	return nil
}

func (r AccountRepositoryImpl) GetActiveAccount(
	_ context.Context,
) (*domain.Account, error) {
	r.db.accountStore.locker.Lock()
	defer r.db.accountStore.locker.Unlock()

	if r.db.accountStore.activeID == "" {
		return nil, domain.ErrAccountNotFound
	}
	account, ok := r.db.accountStore.accounts[r.db.accountStore.activeID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (r AccountRepositoryImpl) GetConnectedSites(
	_ context.Context, accountID string,
) ([]string, error) {
	r.db.accountStore.locker.Lock()
	defer r.db.accountStore.locker.Unlock()

	return r.db.accountStore.connectedSites[accountID], nil
}

func (r AccountRepositoryImpl) AddConnectedSite(
	_ context.Context, accountID, origin string,
) error {
	r.db.accountStore.locker.Lock()
	defer r.db.accountStore.locker.Unlock()

	sites := r.db.accountStore.connectedSites[accountID]
	for _, site := range sites {
		if site == origin {
			return nil
		}
	}
	r.db.accountStore.connectedSites[accountID] = append(sites, origin)
	return nil
}

func (r AccountRepositoryImpl) RemoveConnectedSite(
	_ context.Context, accountID, origin string,
) error {
	r.db.accountStore.locker.Lock()
	defer r.db.accountStore.locker.Unlock()

	sites := r.db.accountStore.connectedSites[accountID]
	filtered := make([]string, 0, len(sites))
	for _, site := range sites {
		if site != origin {
			filtered = append(filtered, site)
		}
	}
	r.db.accountStore.connectedSites[accountID] = filtered
	return nil
}

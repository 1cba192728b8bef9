package dbbadger

import (
	"context"
	"errors"
	"sync"

	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const activeAccountKey = "activeAccount"

type activeAccountPointer struct {
	AccountID string `json:"accountId"`
}

type connectedSiteList struct {
	AccountID string   `json:"accountId"`
	Origins   []string `json:"origins"`
}

// AccountRepositoryImpl is the badger implementation of the AccountRepository.
type AccountRepositoryImpl struct {
	db     *DbManager
	locker sync.Mutex
}

func newAccountRepositoryImpl(db *DbManager) domain.AccountRepository {
	return &AccountRepositoryImpl{db: db}
}

func (r *AccountRepositoryImpl) SaveAccount(
	_ context.Context, account *domain.Account, wallet *domain.Wallet,
) error {
	if err := r.db.Store.Insert(accountKey(account.ID), *account); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return r.db.Store.Upsert(walletKey(account.ID), *wallet)
}

func (r *AccountRepositoryImpl) GetAccount(
	_ context.Context, id string,
) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.Store.Get(accountKey(id), &account); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepositoryImpl) GetWallet(
	_ context.Context, accountID string,
) (*domain.Wallet, error) {
	var wallet domain.Wallet
	if err := r.db.Store.Get(walletKey(accountID), &wallet); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *AccountRepositoryImpl) ListAccounts(
	_ context.Context,
) ([]*domain.Account, error) {
	var accounts []domain.Account
	if err := r.db.Store.Find(&accounts, nil); err != nil {
		return nil, err
	}
	list := make([]*domain.Account, 0, len(accounts))
	for i := range accounts {
		list = append(list, &accounts[i])
	}
	return list, nil
}

func (r *AccountRepositoryImpl) UpdateAccount(
	ctx context.Context, id string,
	updateFn func(*domain.Account) (*domain.Account, error),
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	account, err := r.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	updated, err := updateFn(account)
	if err != nil {
		return err
	}
	return r.db.Store.Update(accountKey(id), *updated)
}

func (r *AccountRepositoryImpl) RemoveAccount(ctx context.Context, id string) error {
	if err := ignoreNotFound(r.db.Store.Delete(accountKey(id), domain.Account{})); err != nil {
		return err
	}
	if err := ignoreNotFound(r.db.Store.Delete(walletKey(id), domain.Wallet{})); err != nil {
		return err
	}
	if err := ignoreNotFound(
		r.db.Store.Delete(id, connectedSiteList{}),
	); err != nil {
		return err
	}

	active, err := r.GetActiveAccount(ctx)
	if err == nil && active.ID == id {
		return ignoreNotFound(
			r.db.Store.Delete(activeAccountKey, activeAccountPointer{}),
		)
	}
	return nil
}

func (r *AccountRepositoryImpl) SetActiveAccount(ctx context.Context, id string) error {
	if _, err := r.GetAccount(ctx, id); err != nil {
		return err
	}
	return r.db.Store.Upsert(activeAccountKey, activeAccountPointer{AccountID: id})
}

func (r *AccountRepositoryImpl) GetActiveAccount(
	ctx context.Context,
) (*domain.Account, error) {
	var pointer activeAccountPointer
	if err := r.db.Store.Get(activeAccountKey, &pointer); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return r.GetAccount(ctx, pointer.AccountID)
}

func (r *AccountRepositoryImpl) GetConnectedSites(
	_ context.Context, accountID string,
) ([]string, error) {
	var list connectedSiteList
	if err := r.db.Store.Get(accountID, &list); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return list.Origins, nil
}

func (r *AccountRepositoryImpl) AddConnectedSite(
	ctx context.Context, accountID, origin string,
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	origins, err := r.GetConnectedSites(ctx, accountID)
	if err != nil {
		return err
	}
	for _, site := range origins {
		if site == origin {
			return nil
		}
	}
	return r.db.Store.Upsert(accountID, connectedSiteList{
		AccountID: accountID,
		Origins:   append(origins, origin),
	})
}

func (r *AccountRepositoryImpl) RemoveConnectedSite(
	ctx context.Context, accountID, origin string,
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	origins, err := r.GetConnectedSites(ctx, accountID)
	if err != nil {
		return err
	}
	filtered := make([]string, 0, len(origins))
	for _, site := range origins {
		if site != origin {
			filtered = append(filtered, site)
		}
	}
	return r.db.Store.Upsert(accountID, connectedSiteList{
		AccountID: accountID,
		Origins:   filtered,
	})
}

func accountKey(id string) string {
	return "account:" + id
}

func walletKey(accountID string) string {
	return "wallet:" + accountID
}

func ignoreNotFound(err error) error {
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return err
	}
	return nil
}

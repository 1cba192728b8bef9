package domain

import "context"

// AccountRepository persists accounts and their wallets. An account and its
// wallet are created and removed together.
type AccountRepository interface {
	// SaveAccount stores the account and its wallet atomically.
	SaveAccount(ctx context.Context, account *Account, wallet *Wallet) error
	GetAccount(ctx context.Context, id string) (*Account, error)
	GetWallet(ctx context.Context, accountID string) (*Wallet, error)
	ListAccounts(ctx context.Context) ([]*Account, error)
	UpdateAccount(
		ctx context.Context, id string,
		updateFn func(*Account) (*Account, error),
	) error
	// RemoveAccount removes the account and its wallet.
	RemoveAccount(ctx context.Context, id string) error

	SetActiveAccount(ctx context.Context, id string) error
	GetActiveAccount(ctx context.Context) (*Account, error)

	GetConnectedSites(ctx context.Context, accountID string) ([]string, error)
	AddConnectedSite(ctx context.Context, accountID, origin string) error
	RemoveConnectedSite(ctx context.Context, accountID, origin string) error
}

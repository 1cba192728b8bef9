package domain

import "github.com/tidewallet/tide-daemon/pkg/hdwallet"

// AccountSource tags how an account's keys entered the wallet.
type AccountSource string

const (
	// SourceSeedPhrase marks accounts derived from a stored seed phrase.
	SourceSeedPhrase AccountSource = "seedPhrase"
	// SourcePrivateKey marks accounts backed by an imported raw key.
	SourcePrivateKey AccountSource = "privateKey"
	// SourceWatchOnly marks address-only accounts that cannot sign.
	SourceWatchOnly AccountSource = "watchOnly"
)

// Account is the user-facing identity of a keypair set. Exactly one of
// SeedPhraseID/PrivateKeyID is set unless the account is watch-only.
type Account struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Icon            string        `json:"icon"`
	Source          AccountSource `json:"source"`
	DerivationIndex uint32        `json:"derivationIndex"`
	SeedPhraseID    string        `json:"seedPhraseId,omitempty"`
	PrivateKeyID    string        `json:"privateKeyId,omitempty"`
}

// WalletAddress is the per-chain address material of an account.
type WalletAddress struct {
	Address   string `json:"address"`
	PublicKey string `json:"publicKey"`
	PathType  string `json:"pathType"`
}

// Wallet maps every supported chain to the account's address on it, nil when
// the account has no key for that chain (e.g. an EVM-only private key
// import). A Wallet is created atomically with its Account and its addresses
// never change afterwards: the derivation index is fixed at creation.
type Wallet struct {
	AccountID string                            `json:"accountId"`
	Addresses map[hdwallet.Chain]*WalletAddress `json:"addresses"`
}

// AddressFor returns the account's address on the given chain, empty when
// the chain is not covered.
func (w *Wallet) AddressFor(chain hdwallet.Chain) string {
	if w == nil {
		return ""
	}
	if addr, ok := w.Addresses[chain]; ok && addr != nil {
		return addr.Address
	}
	return ""
}

// CanSign returns whether the account holds key material.
func (a *Account) CanSign() bool {
	return a.Source != SourceWatchOnly
}

package application

import (
	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/tidewallet/tide-daemon/pkg/hdwallet"
)

// AccountInfo is the account view handed to the UI and provider layers. It
// never carries key material.
type AccountInfo struct {
	ID              string                          `json:"id"`
	Name            string                          `json:"name"`
	Icon            string                          `json:"icon,omitempty"`
	Source          domain.AccountSource            `json:"source"`
	DerivationIndex uint32                          `json:"derivationIndex"`
	SeedPhraseID    string                          `json:"seedPhraseId,omitempty"`
	Addresses       map[hdwallet.Chain]*AddressInfo `json:"addresses"`
}

// AddressInfo ...
type AddressInfo struct {
	Address   string `json:"address"`
	PublicKey string `json:"publicKey"`
	PathType  string `json:"pathType"`
}

// StatusReply summarizes the wallet for the UI home screen.
type StatusReply struct {
	Status          domain.WalletStatus `json:"status"`
	AccountCount    int                 `json:"accountCount"`
	ActiveAccountID string              `json:"activeAccountId,omitempty"`
	CurrentChainID  string              `json:"currentChainId"`
}

// Outcome is the terminal result of a pending authorization request.
// Exactly one Outcome is delivered per request: approval result, rejection,
// or timeout.
type Outcome struct {
	Result interface{}
	Err    error
}

func accountInfo(account *domain.Account, wallet *domain.Wallet) *AccountInfo {
	info := &AccountInfo{
		ID:              account.ID,
		Name:            account.Name,
		Icon:            account.Icon,
		Source:          account.Source,
		DerivationIndex: account.DerivationIndex,
		SeedPhraseID:    account.SeedPhraseID,
		Addresses:       map[hdwallet.Chain]*AddressInfo{},
	}
	if wallet != nil {
		for chain, addr := range wallet.Addresses {
			if addr == nil {
				continue
			}
			info.Addresses[chain] = &AddressInfo{
				Address:   addr.Address,
				PublicKey: addr.PublicKey,
				PathType:  addr.PathType,
			}
		}
	}
	return info
}

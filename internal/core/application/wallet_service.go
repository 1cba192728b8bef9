package application

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/tidewallet/tide-daemon/internal/core/ports"
	"github.com/tidewallet/tide-daemon/pkg/hdwallet"
	"github.com/tidewallet/tide-daemon/pkg/vault"
)

const defaultPathType = "bip44"

// WalletService manages accounts and the secrets backing them.
type WalletService interface {
	// GenSeed returns a fresh mnemonic that is not stored anywhere yet.
	GenSeed(ctx context.Context) (string, error)
	// CreateWallet initializes the wallet with the given password when
	// needed, generates a mnemonic, imports it and derives the first
	// account. The mnemonic is returned once for the user's backup.
	CreateWallet(ctx context.Context, password, accountName string) (string, *AccountInfo, error)
	// ImportSeedPhrase stores the mnemonic encrypted under the session
	// password and derives the next account from it. Re-importing a known
	// mnemonic reuses the existing record.
	ImportSeedPhrase(ctx context.Context, mnemonic, accountName string) (string, *AccountInfo, error)
	// DeriveNextAccount derives one more account from a stored seed phrase.
	DeriveNextAccount(ctx context.Context, seedPhraseID, accountName string) (*AccountInfo, error)
	// ImportPrivateKey detects the chain of the raw key and creates the
	// backing account. Re-importing the same key fails with ErrAlreadyExists.
	ImportPrivateKey(ctx context.Context, rawKey, accountName string) (*AccountInfo, error)
	// ImportWatchOnly creates a signless account for an address.
	ImportWatchOnly(ctx context.Context, chain hdwallet.Chain, address, accountName string) (*AccountInfo, error)

	GetStatus(ctx context.Context) (*StatusReply, error)
	ListAccounts(ctx context.Context) ([]*AccountInfo, error)
	GetActiveAccount(ctx context.Context) (*AccountInfo, error)
	SetActiveAccount(ctx context.Context, accountID string) error
	RenameAccount(ctx context.Context, accountID, name string) error
	SetAccountIcon(ctx context.Context, accountID, icon string) error

	// RemoveAccount removes the account, its wallet and, for private-key
	// accounts, the backing key record.
	RemoveAccount(ctx context.Context, accountID string) error
	// RemoveSeedPhrase removes the record and every account derived from it.
	RemoveSeedPhrase(ctx context.Context, seedPhraseID string) error

	// ExportSeedPhrase returns the plaintext mnemonic after re-verifying the
	// password.
	ExportSeedPhrase(ctx context.Context, seedPhraseID, password string) (string, error)
	// ExportPrivateKey returns the hex private key of the account's EVM key
	// (or the chain key for single-chain imports) after re-verifying the
	// password.
	ExportPrivateKey(ctx context.Context, accountID, password string) (string, error)
}

type walletService struct {
	repoManager ports.RepoManager
	unlocker    UnlockerService
	engine      *hdwallet.Engine
}

// NewWalletService ...
func NewWalletService(
	repoManager ports.RepoManager,
	unlocker UnlockerService,
	engine *hdwallet.Engine,
) WalletService {
	return &walletService{
		repoManager: repoManager,
		unlocker:    unlocker,
		engine:      engine,
	}
}

func (s *walletService) GenSeed(_ context.Context) (string, error) {
	return hdwallet.NewMnemonic(hdwallet.NewMnemonicOpts{})
}

func (s *walletService) CreateWallet(
	ctx context.Context, password, accountName string,
) (string, *AccountInfo, error) {
	status, err := s.unlocker.Status(ctx)
	if err != nil {
		return "", nil, err
	}
	switch status {
	case domain.StatusUninitialized:
		if err := s.unlocker.InitWallet(ctx, password); err != nil {
			return "", nil, err
		}
	case domain.StatusLocked:
		if err := s.unlocker.Unlock(ctx, password); err != nil {
			return "", nil, err
		}
	}

	mnemonic, err := s.GenSeed(ctx)
	if err != nil {
		return "", nil, err
	}
	_, info, err := s.ImportSeedPhrase(ctx, mnemonic, accountName)
	if err != nil {
		return "", nil, err
	}
	return mnemonic, info, nil
}

func (s *walletService) ImportSeedPhrase(
	ctx context.Context, mnemonic, accountName string,
) (string, *AccountInfo, error) {
	if !hdwallet.IsMnemonicValid(mnemonic) {
		return "", nil, hdwallet.ErrInvalidMnemonic
	}
	session, err := s.unlocker.GetSession(ctx)
	if err != nil {
		return "", nil, err
	}

	id := hdwallet.FingerprintMnemonic(mnemonic)
	secretRepo := s.repoManager.SecretRepository()

	if _, err := secretRepo.GetSeedPhrase(ctx, id); err == nil {
		// known mnemonic: reuse the record, just derive one more account
		info, err := s.DeriveNextAccount(ctx, id, accountName)
		if err != nil {
			return "", nil, err
		}
		return id, info, nil
	}

	blob, err := vault.Encrypt(vault.EncryptOpts{
		PlainText: mnemonic, Password: session.Password,
	})
	if err != nil {
		return "", nil, err
	}
	record := &domain.SeedPhraseRecord{
		ID:                     id,
		Name:                   accountName,
		EncryptedMnemonic:      blob,
		CurrentDerivationIndex: 0,
		AccountIDs:             []string{},
	}
	if err := secretRepo.SaveSeedPhrase(ctx, record); err != nil {
		return "", nil, err
	}

	info, err := s.DeriveNextAccount(ctx, id, accountName)
	if err != nil {
		return "", nil, err
	}
	return id, info, nil
}

func (s *walletService) DeriveNextAccount(
	ctx context.Context, seedPhraseID, accountName string,
) (*AccountInfo, error) {
	session, err := s.unlocker.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	accountID := uuid.NewString()
	var index uint32
	var mnemonic string

	// reserve the index and link the account atomically with the record
	if err := s.repoManager.SecretRepository().UpdateSeedPhrase(
		ctx, seedPhraseID,
		func(record *domain.SeedPhraseRecord) (*domain.SeedPhraseRecord, error) {
			plain, err := vault.Decrypt(vault.DecryptOpts{
				Blob: record.EncryptedMnemonic, Password: session.Password,
			})
			if err != nil {
				return nil, err
			}
			mnemonic = plain
			index = record.NextIndex(accountID)
			return record, nil
		},
	); err != nil {
		return nil, err
	}

	derived, err := s.engine.DeriveAll(mnemonic, index)
	if err != nil {
		return nil, err
	}

	if accountName == "" {
		accountName = fmt.Sprintf("Account %d", index+1)
	}
	account := &domain.Account{
		ID:              accountID,
		Name:            accountName,
		Source:          domain.SourceSeedPhrase,
		DerivationIndex: index,
		SeedPhraseID:    seedPhraseID,
	}
	wallet := walletFromKeys(accountID, derived.Keys)

	if err := s.repoManager.AccountRepository().SaveAccount(ctx, account, wallet); err != nil {
		return nil, err
	}
	if err := s.ensureActiveAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return accountInfo(account, wallet), nil
}

func (s *walletService) ImportPrivateKey(
	ctx context.Context, rawKey, accountName string,
) (*AccountInfo, error) {
	session, err := s.unlocker.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	chain, key, err := s.engine.DetectChain(rawKey)
	if err != nil {
		return nil, err
	}

	id := hdwallet.FingerprintKey(key.PrivateKey)
	blob, err := vault.Encrypt(vault.EncryptOpts{
		PlainText: hex.EncodeToString(key.PrivateKey),
		Password:  session.Password,
	})
	if err != nil {
		return nil, err
	}

	// content-hash id makes re-importing the same key collide here, which
	// enforces the one-account-per-key rule
	if err := s.repoManager.SecretRepository().SavePrivateKey(ctx, &domain.PrivateKeyRecord{
		ID:           id,
		EncryptedKey: blob,
	}); err != nil {
		return nil, err
	}

	if accountName == "" {
		accountName = "Imported Account"
	}
	account := &domain.Account{
		ID:           uuid.NewString(),
		Name:         accountName,
		Source:       domain.SourcePrivateKey,
		PrivateKeyID: id,
	}
	wallet := &domain.Wallet{
		AccountID: account.ID,
		Addresses: map[hdwallet.Chain]*domain.WalletAddress{
			hdwallet.ChainEVM:    nil,
			hdwallet.ChainSolana: nil,
			hdwallet.ChainSui:    nil,
		},
	}
	wallet.Addresses[chain] = &domain.WalletAddress{
		Address:   key.Address,
		PublicKey: hex.EncodeToString(key.PublicKey),
		PathType:  "imported",
	}

	if err := s.repoManager.AccountRepository().SaveAccount(ctx, account, wallet); err != nil {
		return nil, err
	}
	if err := s.ensureActiveAccount(ctx, account.ID); err != nil {
		return nil, err
	}
	return accountInfo(account, wallet), nil
}

func (s *walletService) ImportWatchOnly(
	ctx context.Context, chain hdwallet.Chain, address, accountName string,
) (*AccountInfo, error) {
	if _, err := s.engine.Deriver(chain); err != nil {
		return nil, err
	}
	if address == "" {
		return nil, domain.NewProviderError(
			domain.CodeInvalidParams, "address must not be empty",
		)
	}
	if accountName == "" {
		accountName = "Watched Account"
	}

	account := &domain.Account{
		ID:     uuid.NewString(),
		Name:   accountName,
		Source: domain.SourceWatchOnly,
	}
	wallet := &domain.Wallet{
		AccountID: account.ID,
		Addresses: map[hdwallet.Chain]*domain.WalletAddress{
			chain: {Address: address, PathType: "watchOnly"},
		},
	}
	if err := s.repoManager.AccountRepository().SaveAccount(ctx, account, wallet); err != nil {
		return nil, err
	}
	return accountInfo(account, wallet), nil
}

func (s *walletService) GetStatus(ctx context.Context) (*StatusReply, error) {
	status, err := s.unlocker.Status(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := s.repoManager.AccountRepository().ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	chainID, err := s.repoManager.SettingsRepository().GetCurrentChainID(ctx)
	if err != nil {
		return nil, err
	}

	reply := &StatusReply{
		Status:         status,
		AccountCount:   len(accounts),
		CurrentChainID: chainID,
	}
	if active, err := s.repoManager.AccountRepository().GetActiveAccount(ctx); err == nil {
		reply.ActiveAccountID = active.ID
	}
	return reply, nil
}

func (s *walletService) ListAccounts(ctx context.Context) ([]*AccountInfo, error) {
	accounts, err := s.repoManager.AccountRepository().ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]*AccountInfo, 0, len(accounts))
	for _, account := range accounts {
		wallet, err := s.repoManager.AccountRepository().GetWallet(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		infos = append(infos, accountInfo(account, wallet))
	}
	return infos, nil
}

func (s *walletService) GetActiveAccount(ctx context.Context) (*AccountInfo, error) {
	account, err := s.repoManager.AccountRepository().GetActiveAccount(ctx)
	if err != nil {
		return nil, err
	}
	wallet, err := s.repoManager.AccountRepository().GetWallet(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	return accountInfo(account, wallet), nil
}

func (s *walletService) SetActiveAccount(ctx context.Context, accountID string) error {
	return s.repoManager.AccountRepository().SetActiveAccount(ctx, accountID)
}

func (s *walletService) RenameAccount(ctx context.Context, accountID, name string) error {
	return s.repoManager.AccountRepository().UpdateAccount(
		ctx, accountID,
		func(account *domain.Account) (*domain.Account, error) {
			account.Name = name
			return account, nil
		},
	)
}

func (s *walletService) SetAccountIcon(ctx context.Context, accountID, icon string) error {
	return s.repoManager.AccountRepository().UpdateAccount(
		ctx, accountID,
		func(account *domain.Account) (*domain.Account, error) {
			account.Icon = icon
			return account, nil
		},
	)
}

func (s *walletService) RemoveAccount(ctx context.Context, accountID string) error {
	account, err := s.repoManager.AccountRepository().GetAccount(ctx, accountID)
	if err != nil {
		return err
	}

	switch account.Source {
	case domain.SourceSeedPhrase:
		if err := s.repoManager.SecretRepository().UpdateSeedPhrase(
			ctx, account.SeedPhraseID,
			func(record *domain.SeedPhraseRecord) (*domain.SeedPhraseRecord, error) {
				record.Unlink(accountID)
				return record, nil
			},
		); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	case domain.SourcePrivateKey:
		if err := s.repoManager.SecretRepository().RemovePrivateKey(
			ctx, account.PrivateKeyID,
		); err != nil {
			return err
		}
	}

	if err := s.repoManager.AccountRepository().RemoveAccount(ctx, accountID); err != nil {
		return err
	}
	return s.resetIfEmpty(ctx)
}

func (s *walletService) RemoveSeedPhrase(ctx context.Context, seedPhraseID string) error {
	record, err := s.repoManager.SecretRepository().GetSeedPhrase(ctx, seedPhraseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	for _, accountID := range record.AccountIDs {
		if err := s.repoManager.AccountRepository().RemoveAccount(ctx, accountID); err != nil {
			return err
		}
	}
	if err := s.repoManager.SecretRepository().RemoveSeedPhrase(ctx, seedPhraseID); err != nil {
		return err
	}
	return s.resetIfEmpty(ctx)
}

func (s *walletService) ExportSeedPhrase(
	ctx context.Context, seedPhraseID, password string,
) (string, error) {
	if err := s.reverifyPassword(ctx, password); err != nil {
		return "", err
	}
	record, err := s.repoManager.SecretRepository().GetSeedPhrase(ctx, seedPhraseID)
	if err != nil {
		return "", err
	}
	return vault.Decrypt(vault.DecryptOpts{
		Blob: record.EncryptedMnemonic, Password: password,
	})
}

func (s *walletService) ExportPrivateKey(
	ctx context.Context, accountID, password string,
) (string, error) {
	if err := s.reverifyPassword(ctx, password); err != nil {
		return "", err
	}
	account, err := s.repoManager.AccountRepository().GetAccount(ctx, accountID)
	if err != nil {
		return "", err
	}

	switch account.Source {
	case domain.SourcePrivateKey:
		record, err := s.repoManager.SecretRepository().GetPrivateKey(ctx, account.PrivateKeyID)
		if err != nil {
			return "", err
		}
		return vault.Decrypt(vault.DecryptOpts{
			Blob: record.EncryptedKey, Password: password,
		})
	case domain.SourceSeedPhrase:
		record, err := s.repoManager.SecretRepository().GetSeedPhrase(ctx, account.SeedPhraseID)
		if err != nil {
			return "", err
		}
		mnemonic, err := vault.Decrypt(vault.DecryptOpts{
			Blob: record.EncryptedMnemonic, Password: password,
		})
		if err != nil {
			return "", err
		}
		deriver, err := s.engine.Deriver(hdwallet.ChainEVM)
		if err != nil {
			return "", err
		}
		key, err := deriver.DeriveFromMnemonic(mnemonic, account.DerivationIndex)
		if err != nil {
			return "", err
		}
		return hex.EncodeToString(key.PrivateKey), nil
	default:
		return "", domain.ErrAccountNotFound
	}
}

// resetIfEmpty clears the whole store when the last account is gone so no
// secret can outlive the accounts referencing it.
func (s *walletService) resetIfEmpty(ctx context.Context) error {
	accounts, err := s.repoManager.AccountRepository().ListAccounts(ctx)
	if err != nil {
		return err
	}
	if len(accounts) > 0 {
		return nil
	}

	log.Info("wallet: last account removed, resetting vault")
	if err := s.unlocker.Lock(ctx); err != nil {
		log.WithError(err).Warn("wallet: could not lock before reset")
	}
	return s.repoManager.Reset(ctx)
}

func (s *walletService) ensureActiveAccount(ctx context.Context, accountID string) error {
	if _, err := s.repoManager.AccountRepository().GetActiveAccount(ctx); err == nil {
		return nil
	}
	return s.repoManager.AccountRepository().SetActiveAccount(ctx, accountID)
}

func (s *walletService) reverifyPassword(ctx context.Context, password string) error {
	record, err := s.repoManager.SecretRepository().GetPassword(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrWalletNotInitialized
		}
		return err
	}
	ok, err := vault.VerifyPassword(password, &vault.PasswordHash{
		Hash: record.Hash, Salt: record.Salt,
	})
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidPassword
	}
	return nil
}

func walletFromKeys(
	accountID string, keys map[hdwallet.Chain]*hdwallet.ChainKey,
) *domain.Wallet {
	addresses := map[hdwallet.Chain]*domain.WalletAddress{}
	for chain, key := range keys {
		addresses[chain] = &domain.WalletAddress{
			Address:   key.Address,
			PublicKey: hex.EncodeToString(key.PublicKey),
			PathType:  defaultPathType,
		}
	}
	return &domain.Wallet{AccountID: accountID, Addresses: addresses}
}

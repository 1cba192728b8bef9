package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidewallet/tide-daemon/internal/core/application"
	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/tidewallet/tide-daemon/internal/core/ports"
	"github.com/tidewallet/tide-daemon/internal/infrastructure/secretholder"
	"github.com/tidewallet/tide-daemon/internal/infrastructure/storage/db/inmemory"
	"github.com/tidewallet/tide-daemon/pkg/hdwallet"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon about"
	testMnemonicAddr0 = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
	testMnemonicAddr1 = "0x6Fac4D18c912343BF86fa7049364Dd4E424Ab9C0"

	testEVMKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
)

func newTestWallet(t *testing.T) (
	ports.RepoManager, application.UnlockerService, application.WalletService,
) {
	t.Helper()
	holder := secretholder.New()
	t.Cleanup(holder.Shutdown)
	repoManager := inmemory.NewRepoManager()
	unlocker := application.NewUnlockerService(repoManager, holder)
	wallet := application.NewWalletService(repoManager, unlocker, hdwallet.NewEngine())
	return repoManager, unlocker, wallet
}

func TestCreateWallet(t *testing.T) {
	ctx := context.Background()
	repoManager, unlocker, wallet := newTestWallet(t)

	mnemonic, info, err := wallet.CreateWallet(ctx, testPassword, "Main")
	require.NoError(t, err)
	require.True(t, hdwallet.IsMnemonicValid(mnemonic))
	require.NotNil(t, info)
	require.Equal(t, "Main", info.Name)
	require.Equal(t, domain.SourceSeedPhrase, info.Source)
	require.Len(t, info.Addresses, 3)
	for _, chain := range []hdwallet.Chain{
		hdwallet.ChainEVM, hdwallet.ChainSolana, hdwallet.ChainSui,
	} {
		require.Contains(t, info.Addresses, chain)
		assert.NotEmpty(t, info.Addresses[chain].Address)
	}

	status, err := unlocker.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StatusUnlocked, status)

	active, err := repoManager.AccountRepository().GetActiveAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, info.ID, active.ID)
}

func TestImportSeedPhraseReusesRecord(t *testing.T) {
	ctx := context.Background()
	repoManager, unlocker, wallet := newTestWallet(t)
	require.NoError(t, unlocker.InitWallet(ctx, testPassword))

	firstID, first, err := wallet.ImportSeedPhrase(ctx, testMnemonic, "First")
	require.NoError(t, err)
	require.Equal(t, uint32(0), first.DerivationIndex)
	require.Equal(t, testMnemonicAddr0, first.Addresses[hdwallet.ChainEVM].Address)

	// importing the same phrase again derives the next account on the same
	// record instead of duplicating the secret
	secondID, second, err := wallet.ImportSeedPhrase(ctx, testMnemonic, "Second")
	require.NoError(t, err)
	require.Equal(t, firstID, secondID)
	require.Equal(t, uint32(1), second.DerivationIndex)
	require.Equal(t, testMnemonicAddr1, second.Addresses[hdwallet.ChainEVM].Address)

	seedPhrases, err := repoManager.SecretRepository().ListSeedPhrases(ctx)
	require.NoError(t, err)
	require.Len(t, seedPhrases, 1)
	assert.Len(t, seedPhrases[0].AccountIDs, 2)
}

func TestImportSeedPhraseRequiresUnlock(t *testing.T) {
	ctx := context.Background()
	_, unlocker, wallet := newTestWallet(t)
	require.NoError(t, unlocker.InitWallet(ctx, testPassword))
	require.NoError(t, unlocker.Lock(ctx))

	_, _, err := wallet.ImportSeedPhrase(ctx, testMnemonic, "First")
	require.ErrorIs(t, err, domain.ErrMustBeUnlocked)
}

func TestDerivationIndexNeverReused(t *testing.T) {
	ctx := context.Background()
	_, unlocker, wallet := newTestWallet(t)
	require.NoError(t, unlocker.InitWallet(ctx, testPassword))

	seedID, _, err := wallet.ImportSeedPhrase(ctx, testMnemonic, "First")
	require.NoError(t, err)
	second, err := wallet.DeriveNextAccount(ctx, seedID, "Second")
	require.NoError(t, err)
	require.Equal(t, uint32(1), second.DerivationIndex)

	require.NoError(t, wallet.RemoveAccount(ctx, second.ID))

	third, err := wallet.DeriveNextAccount(ctx, seedID, "Third")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), third.DerivationIndex)
}

func TestImportPrivateKey(t *testing.T) {
	ctx := context.Background()
	_, unlocker, wallet := newTestWallet(t)
	require.NoError(t, unlocker.InitWallet(ctx, testPassword))

	info, err := wallet.ImportPrivateKey(ctx, testEVMKey, "Imported")
	require.NoError(t, err)
	require.Equal(t, domain.SourcePrivateKey, info.Source)
	require.Contains(t, info.Addresses, hdwallet.ChainEVM)
	require.NotContains(t, info.Addresses, hdwallet.ChainSolana)

	// same key again, with or without the 0x prefix
	_, err = wallet.ImportPrivateKey(ctx, "0x"+testEVMKey, "Again")
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestImportWatchOnly(t *testing.T) {
	ctx := context.Background()
	_, unlocker, wallet := newTestWallet(t)
	require.NoError(t, unlocker.InitWallet(ctx, testPassword))

	info, err := wallet.ImportWatchOnly(
		ctx, hdwallet.ChainEVM, testMnemonicAddr0, "Watched",
	)
	require.NoError(t, err)
	require.Equal(t, domain.SourceWatchOnly, info.Source)
	require.Equal(t, testMnemonicAddr0, info.Addresses[hdwallet.ChainEVM].Address)

	_, err = wallet.ExportPrivateKey(ctx, info.ID, testPassword)
	require.Error(t, err)
}

func TestRemoveSeedPhraseCascades(t *testing.T) {
	ctx := context.Background()
	repoManager, unlocker, wallet := newTestWallet(t)
	require.NoError(t, unlocker.InitWallet(ctx, testPassword))

	seedID, _, err := wallet.ImportSeedPhrase(ctx, testMnemonic, "First")
	require.NoError(t, err)
	_, err = wallet.DeriveNextAccount(ctx, seedID, "Second")
	require.NoError(t, err)

	require.NoError(t, wallet.RemoveSeedPhrase(ctx, seedID))

	accounts, err := repoManager.AccountRepository().ListAccounts(ctx)
	require.NoError(t, err)
	require.Empty(t, accounts)

	// removing the last account wipes the whole vault
	status, err := unlocker.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUninitialized, status)
}

func TestRemoveLastPrivateKeyAccountResetsVault(t *testing.T) {
	ctx := context.Background()
	repoManager, unlocker, wallet := newTestWallet(t)
	require.NoError(t, unlocker.InitWallet(ctx, testPassword))

	info, err := wallet.ImportPrivateKey(ctx, testEVMKey, "Imported")
	require.NoError(t, err)

	require.NoError(t, wallet.RemoveAccount(ctx, info.ID))

	keys, err := repoManager.SecretRepository().ListPrivateKeys(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)

	status, err := unlocker.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUninitialized, status)
}

func TestExportSeedPhrase(t *testing.T) {
	ctx := context.Background()
	_, unlocker, wallet := newTestWallet(t)
	require.NoError(t, unlocker.InitWallet(ctx, testPassword))

	seedID, _, err := wallet.ImportSeedPhrase(ctx, testMnemonic, "First")
	require.NoError(t, err)

	_, err = wallet.ExportSeedPhrase(ctx, seedID, "Wr0ng&Password9")
	require.ErrorIs(t, err, domain.ErrInvalidPassword)

	exported, err := wallet.ExportSeedPhrase(ctx, seedID, testPassword)
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, exported)
}

func TestExportPrivateKeyOfDerivedAccount(t *testing.T) {
	ctx := context.Background()
	_, unlocker, wallet := newTestWallet(t)
	require.NoError(t, unlocker.InitWallet(ctx, testPassword))

	_, info, err := wallet.ImportSeedPhrase(ctx, testMnemonic, "First")
	require.NoError(t, err)

	keyHex, err := wallet.ExportPrivateKey(ctx, info.ID, testPassword)
	require.NoError(t, err)

	// the exported key must re-import to the same address
	deriver, err := hdwallet.NewEngine().Deriver(hdwallet.ChainEVM)
	require.NoError(t, err)
	key, err := deriver.FromPrivateKey(keyHex)
	require.NoError(t, err)
	assert.Equal(t, testMnemonicAddr0, key.Address)
}

func TestAccountManagement(t *testing.T) {
	ctx := context.Background()
	_, unlocker, wallet := newTestWallet(t)
	require.NoError(t, unlocker.InitWallet(ctx, testPassword))

	seedID, first, err := wallet.ImportSeedPhrase(ctx, testMnemonic, "First")
	require.NoError(t, err)
	second, err := wallet.DeriveNextAccount(ctx, seedID, "")
	require.NoError(t, err)
	require.Equal(t, "Account 2", second.Name)

	// the first account became active on creation
	active0, err := wallet.GetActiveAccount(ctx)
	require.NoError(t, err)
	require.Equal(t, first.ID, active0.ID)

	require.NoError(t, wallet.RenameAccount(ctx, second.ID, "Savings"))
	require.NoError(t, wallet.SetAccountIcon(ctx, second.ID, "piggy-bank"))
	require.NoError(t, wallet.SetActiveAccount(ctx, second.ID))

	active, err := wallet.GetActiveAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Savings", active.Name)
	assert.Equal(t, "piggy-bank", active.Icon)

	infos, err := wallet.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	reply, err := wallet.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnlocked, reply.Status)
	assert.Equal(t, 2, reply.AccountCount)
	assert.Equal(t, second.ID, reply.ActiveAccountID)
	assert.Equal(t, "0x1", reply.CurrentChainID)
}

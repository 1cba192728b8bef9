package application_test

import (
	"context"
	"encoding/json"
	"errors"
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

const providerOrigin = "https://dapp.example"

type autoApproveSurface struct {
	broker application.BrokerService
}

func (s *autoApproveSurface) Open(
	_ context.Context, request *domain.PendingRequest,
) error {
	go s.broker.Approve(context.Background(), request.ID)
	return nil
}

func (s *autoApproveSurface) Close(_ context.Context, _ string) error {
	return nil
}

type offlineChainSource struct{}

func (offlineChainSource) IsSupported(chainID string) bool {
	return chainID == "0x1" || chainID == "0x89"
}

func (offlineChainSource) ClientFor(
	_ context.Context, _ string,
) (ports.ChainClient, error) {
	return nil, errors.New("no endpoint in tests")
}

func newTestProvider(t *testing.T) (ports.RepoManager, application.ProviderService) {
	t.Helper()
	holder := secretholder.New()
	t.Cleanup(holder.Shutdown)

	repoManager := inmemory.NewRepoManager()
	engine := hdwallet.NewEngine()
	unlocker := application.NewUnlockerService(repoManager, holder)
	wallet := application.NewWalletService(repoManager, unlocker, engine)
	surface := &autoApproveSurface{}
	broker := application.NewBrokerService(
		repoManager, unlocker, surface, offlineChainSource{}, engine,
	)
	surface.broker = broker
	t.Cleanup(broker.Shutdown)

	ctx := context.Background()
	require.NoError(t, unlocker.InitWallet(ctx, testPassword))
	_, _, err := wallet.ImportSeedPhrase(ctx, testMnemonic, "Main")
	require.NoError(t, err)

	provider := application.NewProviderService(
		repoManager, broker, offlineChainSource{},
		"Tide Wallet", "data:image/svg+xml;base64,", "com.tidewallet",
	)
	return repoManager, provider
}

func requireProviderCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, code, perr.Code)
}

func TestProviderUnknownMethod(t *testing.T) {
	ctx := context.Background()
	_, provider := newTestProvider(t)

	_, err := provider.HandleRequest(ctx, providerOrigin, "eth_coinbase", nil)
	requireProviderCode(t, err, domain.CodeMethodNotFound)
}

func TestProviderChainInfo(t *testing.T) {
	ctx := context.Background()
	_, provider := newTestProvider(t)

	chainID, err := provider.HandleRequest(ctx, providerOrigin, "eth_chainId", nil)
	require.NoError(t, err)
	assert.Equal(t, "0x1", chainID)

	version, err := provider.HandleRequest(ctx, providerOrigin, "net_version", nil)
	require.NoError(t, err)
	assert.Equal(t, "1", version)
}

func TestProviderAccountsBeforeConnect(t *testing.T) {
	ctx := context.Background()
	_, provider := newTestProvider(t)

	accounts, err := provider.HandleRequest(ctx, providerOrigin, "eth_accounts", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, accounts)

	permissions, err := provider.HandleRequest(
		ctx, providerOrigin, "wallet_getPermissions", nil,
	)
	require.NoError(t, err)
	assert.Empty(t, permissions)
}

func TestProviderRequestAccountsFlow(t *testing.T) {
	ctx := context.Background()
	_, provider := newTestProvider(t)

	events := provider.Subscribe(providerOrigin)
	defer provider.Unsubscribe(providerOrigin, events)

	result, err := provider.HandleRequest(
		ctx, providerOrigin, "eth_requestAccounts", nil,
	)
	require.NoError(t, err)
	require.Equal(t, []string{testMnemonicAddr0}, result)

	select {
	case event := <-events:
		assert.Equal(t, application.EventConnect, event.Name)
	default:
		t.Fatal("expected a connect event")
	}

	// the origin is now connected, accounts come back without approval
	accounts, err := provider.HandleRequest(ctx, providerOrigin, "eth_accounts", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{testMnemonicAddr0}, accounts)

	permissions, err := provider.HandleRequest(
		ctx, providerOrigin, "wallet_getPermissions", nil,
	)
	require.NoError(t, err)
	assert.NotEmpty(t, permissions)

	// requesting again resolves immediately with the same list
	again, err := provider.HandleRequest(
		ctx, providerOrigin, "eth_requestAccounts", nil,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{testMnemonicAddr0}, again)
}

func TestProviderSignRequiresConnection(t *testing.T) {
	ctx := context.Background()
	_, provider := newTestProvider(t)

	params := json.RawMessage(`["hello", "` + testMnemonicAddr0 + `"]`)
	_, err := provider.HandleRequest(ctx, providerOrigin, "personal_sign", params)
	requireProviderCode(t, err, domain.CodeUnauthorized)
}

func TestProviderPersonalSign(t *testing.T) {
	ctx := context.Background()
	_, provider := newTestProvider(t)

	_, err := provider.HandleRequest(ctx, providerOrigin, "eth_requestAccounts", nil)
	require.NoError(t, err)

	params := json.RawMessage(`["hello", "` + testMnemonicAddr0 + `"]`)
	result, err := provider.HandleRequest(ctx, providerOrigin, "personal_sign", params)
	require.NoError(t, err)

	signature, ok := result.(string)
	require.True(t, ok)
	assert.Len(t, signature, 2+65*2)
}

func TestProviderSwitchChain(t *testing.T) {
	ctx := context.Background()
	repoManager, provider := newTestProvider(t)

	events := provider.Subscribe(providerOrigin)
	defer provider.Unsubscribe(providerOrigin, events)

	// unknown chains are refused and leave the settings untouched
	params := json.RawMessage(`[{"chainId": "0xdead"}]`)
	_, err := provider.HandleRequest(
		ctx, providerOrigin, "wallet_switchEthereumChain", params,
	)
	requireProviderCode(t, err, domain.CodeUnrecognizedChain)

	stored, err := repoManager.SettingsRepository().GetCurrentChainID(ctx)
	require.NoError(t, err)
	require.Equal(t, "0x1", stored)

	params = json.RawMessage(`[{"chainId": "0x89"}]`)
	_, err = provider.HandleRequest(
		ctx, providerOrigin, "wallet_switchEthereumChain", params,
	)
	require.NoError(t, err)

	stored, err = repoManager.SettingsRepository().GetCurrentChainID(ctx)
	require.NoError(t, err)
	require.Equal(t, "0x89", stored)

	select {
	case event := <-events:
		require.Equal(t, application.EventChainChanged, event.Name)
		assert.Equal(t, "0x89", event.Payload)
	default:
		t.Fatal("expected a chainChanged event")
	}
}

func TestProviderAddChain(t *testing.T) {
	ctx := context.Background()
	_, provider := newTestProvider(t)

	params := json.RawMessage(`[{"chainId": "0xdead"}]`)
	_, err := provider.HandleRequest(
		ctx, providerOrigin, "wallet_addEthereumChain", params,
	)
	requireProviderCode(t, err, domain.CodeUnrecognizedChain)

	params = json.RawMessage(`[{"chainId": "0x89"}]`)
	_, err = provider.HandleRequest(
		ctx, providerOrigin, "wallet_addEthereumChain", params,
	)
	require.NoError(t, err)
}

func TestProviderDisconnect(t *testing.T) {
	ctx := context.Background()
	_, provider := newTestProvider(t)

	_, err := provider.HandleRequest(ctx, providerOrigin, "eth_requestAccounts", nil)
	require.NoError(t, err)

	events := provider.Subscribe(providerOrigin)
	defer provider.Unsubscribe(providerOrigin, events)

	require.NoError(t, provider.Disconnect(ctx, providerOrigin))

	accounts, err := provider.HandleRequest(ctx, providerOrigin, "eth_accounts", nil)
	require.NoError(t, err)
	require.Equal(t, []string{}, accounts)

	select {
	case event := <-events:
		assert.Equal(t, application.EventDisconnect, event.Name)
	default:
		t.Fatal("expected a disconnect event")
	}
}

func TestProviderAnnounce(t *testing.T) {
	_, provider := newTestProvider(t)

	info := provider.Announce()
	require.NotNil(t, info)
	assert.NotEmpty(t, info.UUID)
	assert.Equal(t, "Tide Wallet", info.Name)
	assert.Equal(t, "com.tidewallet", info.RDNS)

	// the identity is stable across announcements
	assert.Equal(t, info.UUID, provider.Announce().UUID)
}

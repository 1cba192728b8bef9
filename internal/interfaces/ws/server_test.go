package ws_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidewallet/tide-daemon/internal/core/application"
	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/tidewallet/tide-daemon/internal/core/ports"
	"github.com/tidewallet/tide-daemon/internal/infrastructure/secretholder"
	"github.com/tidewallet/tide-daemon/internal/infrastructure/storage/db/inmemory"
	"github.com/tidewallet/tide-daemon/internal/interfaces/ws"
	"github.com/tidewallet/tide-daemon/pkg/hdwallet"
)

const (
	wsPassword = "Str0ng&Secret1"
	wsOrigin   = "https://dapp.example"
)

type noopChainSource struct{}

func (noopChainSource) IsSupported(chainID string) bool { return chainID == "0x1" }

func (noopChainSource) ClientFor(
	_ context.Context, _ string,
) (ports.ChainClient, error) {
	return nil, domain.ErrNotFound
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	holder := secretholder.New()
	t.Cleanup(holder.Shutdown)

	repoManager := inmemory.NewRepoManager()
	engine := hdwallet.NewEngine()
	unlocker := application.NewUnlockerService(repoManager, holder)
	wallet := application.NewWalletService(repoManager, unlocker, engine)

	server := ws.NewServer("localhost:0")
	broker := application.NewBrokerService(
		repoManager, unlocker, server, noopChainSource{}, engine,
	)
	t.Cleanup(broker.Shutdown)
	provider := application.NewProviderService(
		repoManager, broker, noopChainSource{},
		"Tide Wallet", "", "com.tidewallet",
	)
	server.UseServices(unlocker, wallet, broker, provider)

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := map[string][]string{"Origin": {wsOrigin}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType, id string, data interface{}) {
	t.Helper()
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		require.NoError(t, err)
		raw = encoded
	}
	require.NoError(t, conn.WriteJSON(&ws.Request{Type: msgType, Data: raw, ID: id}))
}

// awaitType reads messages until one of the wanted type arrives, dropping
// unrelated pushes.
func awaitType(t *testing.T, conn *websocket.Conn, msgType string) *ws.Response {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var res ws.Response
		require.NoError(t, conn.ReadJSON(&res))
		if res.Type == msgType {
			return &res
		}
	}
}

func TestServerWalletLifecycle(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, ws.TypeGetStatus, "1", nil)
	res := awaitType(t, conn, ws.TypeGetStatus)
	require.True(t, res.Success)
	require.Equal(t, "1", res.ID)
	status := res.Data.(map[string]interface{})
	require.Equal(t, string(domain.StatusUninitialized), status["status"])

	send(t, conn, ws.TypeCreateWallet, "2", map[string]string{
		"password": wsPassword, "accountName": "Main",
	})
	res = awaitType(t, conn, ws.TypeCreateWallet)
	require.True(t, res.Success)
	created := res.Data.(map[string]interface{})
	mnemonic := created["mnemonic"].(string)
	require.True(t, hdwallet.IsMnemonicValid(mnemonic))

	send(t, conn, ws.TypeLockWallet, "3", nil)
	res = awaitType(t, conn, ws.TypeLockWallet)
	require.True(t, res.Success)

	send(t, conn, ws.TypeUnlockWallet, "4", map[string]string{"password": "Wr0ng&Pass1"})
	res = awaitType(t, conn, ws.TypeUnlockWallet)
	require.False(t, res.Success)
	require.Equal(t, domain.CodeUnauthorized, res.Error.Code)

	send(t, conn, ws.TypeUnlockWallet, "5", map[string]string{"password": wsPassword})
	res = awaitType(t, conn, ws.TypeUnlockWallet)
	require.True(t, res.Success)

	send(t, conn, ws.TypeGetAccounts, "6", nil)
	res = awaitType(t, conn, ws.TypeGetAccounts)
	require.True(t, res.Success)
	accounts := res.Data.([]interface{})
	assert.Len(t, accounts, 1)
}

func TestServerUnknownMessageType(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, "NO_SUCH_TYPE", "1", nil)
	res := awaitType(t, conn, "NO_SUCH_TYPE")
	require.False(t, res.Success)
	assert.Equal(t, domain.CodeMethodNotFound, res.Error.Code)
}

func TestServerProviderDiscovery(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, ws.TypeGetProviderInfo, "1", nil)
	res := awaitType(t, conn, ws.TypeGetProviderInfo)
	require.True(t, res.Success)
	info := res.Data.(map[string]interface{})
	require.NotEmpty(t, info["uuid"])
	require.Equal(t, "Tide Wallet", info["name"])
	require.Equal(t, "com.tidewallet", info["rdns"])

	// the identity is stable across the daemon's lifetime
	send(t, conn, ws.TypeGetProviderInfo, "2", nil)
	res = awaitType(t, conn, ws.TypeGetProviderInfo)
	require.True(t, res.Success)
	assert.Equal(t, info["uuid"], res.Data.(map[string]interface{})["uuid"])
}

func TestServerConnectApprovalFlow(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, ws.TypeCreateWallet, "1", map[string]string{
		"password": wsPassword, "accountName": "Main",
	})
	require.True(t, awaitType(t, conn, ws.TypeCreateWallet).Success)

	// the request blocks server side until the approval below resolves it
	send(t, conn, ws.TypeRequestAccounts, "2", nil)

	pending := awaitType(t, conn, ws.TypeRequestPending)
	payload := pending.Data.(map[string]interface{})
	requestID := payload["id"].(string)
	require.Equal(t, wsOrigin, payload["origin"])
	require.Equal(t, string(domain.RequestConnect), payload["kind"])

	send(t, conn, ws.TypeApproveConnection, "3", map[string]string{
		"requestId": requestID,
	})
	require.True(t, awaitType(t, conn, ws.TypeApproveConnection).Success)

	res := awaitType(t, conn, ws.TypeRequestAccounts)
	require.True(t, res.Success)
	addresses := res.Data.([]interface{})
	require.Len(t, addresses, 1)
	assert.True(t, strings.HasPrefix(addresses[0].(string), "0x"))
}

func TestServerRejectionMapsToUserRejected(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, ws.TypeCreateWallet, "1", map[string]string{
		"password": wsPassword, "accountName": "Main",
	})
	require.True(t, awaitType(t, conn, ws.TypeCreateWallet).Success)

	send(t, conn, ws.TypeRequestAccounts, "2", nil)
	pending := awaitType(t, conn, ws.TypeRequestPending)
	requestID := pending.Data.(map[string]interface{})["id"].(string)

	send(t, conn, ws.TypeRejectConnection, "3", map[string]string{
		"requestId": requestID,
	})

	res := awaitType(t, conn, ws.TypeRequestAccounts)
	require.False(t, res.Success)
	assert.Equal(t, domain.CodeUserRejected, res.Error.Code)
}

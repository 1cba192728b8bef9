package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/tidewallet/tide-daemon/pkg/hdwallet"
)

func (s *Server) registerHandlers() {
	s.handlers = map[string]handlerFunc{
		TypeCreateWallet:       s.handleCreateWallet,
		TypeGenerateSeedPhrase: s.handleGenerateSeedPhrase,
		TypeImportSeedPhrase:   s.handleImportSeedPhrase,
		TypeImportPrivateKey:   s.handleImportPrivateKey,
		TypeImportWatchOnly:    s.handleImportWatchOnly,
		TypeUnlockWallet:       s.handleUnlockWallet,
		TypeLockWallet:         s.handleLockWallet,
		TypeGetStatus:          s.handleGetStatus,
		TypeGetAccounts:        s.handleGetAccounts,
		TypeSetActiveAccount:   s.handleSetActiveAccount,
		TypeRenameAccount:      s.handleRenameAccount,
		TypeGetSessionTimeout:  s.handleGetSessionTimeout,
		TypeSetSessionTimeout:  s.handleSetSessionTimeout,
		TypeExportSeedPhrase:   s.handleExportSeedPhrase,
		TypeExportPrivateKey:   s.handleExportPrivateKey,
		TypeChangePassword:     s.handleChangePassword,
		TypeRemoveAccount:      s.handleRemoveAccount,
		TypeRemoveSeedPhrase:   s.handleRemoveSeedPhrase,
		TypeGetPendingRequests: s.handleGetPendingRequests,

		TypeGetProviderInfo:     s.handleGetProviderInfo,
		TypeRequestAccounts:     s.providerHandler("eth_requestAccounts", nil),
		TypePersonalSign:        s.handlePersonalSign,
		TypeSignTypedData:       s.handleSignTypedData,
		TypeSendTransaction:     s.handleSendTransaction,
		TypeSwitchEthereumChain: s.handleSwitchChain,

		TypeApproveConnection:  s.handleApprove,
		TypeApproveSign:        s.handleApprove,
		TypeApproveTransaction: s.handleApprove,
		TypeRejectConnection:   s.handleReject,
		TypeRejectSign:         s.handleReject,
		TypeRejectTransaction:  s.handleReject,
	}
}

func decode(data json.RawMessage, target interface{}) error {
	if len(data) == 0 {
		return domain.NewProviderError(
			domain.CodeInvalidParams, "missing message data",
		)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return domain.NewProviderError(
			domain.CodeInvalidParams, "malformed message data",
		)
	}
	return nil
}

func (s *Server) handleCreateWallet(
	ctx context.Context, _ string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		Password    string `json:"password"`
		AccountName string `json:"accountName"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	mnemonic, account, err := s.wallet.CreateWallet(
		ctx, payload.Password, payload.AccountName,
	)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"mnemonic": mnemonic,
		"account":  account,
	}, nil
}

func (s *Server) handleGenerateSeedPhrase(
	ctx context.Context, _ string, _ json.RawMessage,
) (interface{}, error) {
	mnemonic, err := s.wallet.GenSeed(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"mnemonic": mnemonic}, nil
}

func (s *Server) handleImportSeedPhrase(
	ctx context.Context, _ string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		Mnemonic    string `json:"mnemonic"`
		AccountName string `json:"accountName"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	seedPhraseID, account, err := s.wallet.ImportSeedPhrase(
		ctx, payload.Mnemonic, payload.AccountName,
	)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"seedPhraseId": seedPhraseID,
		"account":      account,
	}, nil
}

func (s *Server) handleImportPrivateKey(
	ctx context.Context, _ string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		PrivateKey  string `json:"privateKey"`
		AccountName string `json:"accountName"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	return s.wallet.ImportPrivateKey(ctx, payload.PrivateKey, payload.AccountName)
}

func (s *Server) handleImportWatchOnly(
	ctx context.Context, _ string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		Chain       string `json:"chain"`
		Address     string `json:"address"`
		AccountName string `json:"accountName"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	return s.wallet.ImportWatchOnly(
		ctx, hdwallet.Chain(payload.Chain), payload.Address, payload.AccountName,
	)
}

func (s *Server) handleUnlockWallet(
	ctx context.Context, _ string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		Password string `json:"password"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	return nil, s.unlocker.Unlock(ctx, payload.Password)
}

func (s *Server) handleLockWallet(
	ctx context.Context, _ string, _ json.RawMessage,
) (interface{}, error) {
	return nil, s.unlocker.Lock(ctx)
}

func (s *Server) handleGetStatus(
	ctx context.Context, _ string, _ json.RawMessage,
) (interface{}, error) {
	return s.wallet.GetStatus(ctx)
}

func (s *Server) handleGetAccounts(
	ctx context.Context, _ string, _ json.RawMessage,
) (interface{}, error) {
	return s.wallet.ListAccounts(ctx)
}

func (s *Server) handleSetActiveAccount(
	ctx context.Context, _ string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		AccountID string `json:"accountId"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	if err := s.wallet.SetActiveAccount(ctx, payload.AccountID); err != nil {
		return nil, err
	}
	s.provider.EmitAccountsChanged(ctx)
	return nil, nil
}

func (s *Server) handleRenameAccount(
	ctx context.Context, _ string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		AccountID string `json:"accountId"`
		Name      string `json:"name"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	return nil, s.wallet.RenameAccount(ctx, payload.AccountID, payload.Name)
}

func (s *Server) handleGetSessionTimeout(
	ctx context.Context, _ string, _ json.RawMessage,
) (interface{}, error) {
	timeout, err := s.unlocker.GetSessionTimeout(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]int64{"timeoutSeconds": int64(timeout.Seconds())}, nil
}

func (s *Server) handleSetSessionTimeout(
	ctx context.Context, _ string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		TimeoutSeconds int64 `json:"timeoutSeconds"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	return nil, s.unlocker.SetSessionTimeout(
		ctx, time.Duration(payload.TimeoutSeconds)*time.Second,
	)
}

func (s *Server) handleExportSeedPhrase(
	ctx context.Context, _ string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		SeedPhraseID string `json:"seedPhraseId"`
		Password     string `json:"password"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	mnemonic, err := s.wallet.ExportSeedPhrase(
		ctx, payload.SeedPhraseID, payload.Password,
	)
	if err != nil {
		return nil, err
	}
	return map[string]string{"mnemonic": mnemonic}, nil
}

func (s *Server) handleExportPrivateKey(
	ctx context.Context, _ string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		AccountID string `json:"accountId"`
		Password  string `json:"password"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	key, err := s.wallet.ExportPrivateKey(ctx, payload.AccountID, payload.Password)
	if err != nil {
		return nil, err
	}
	return map[string]string{"privateKey": key}, nil
}

func (s *Server) handleChangePassword(
	ctx context.Context, _ string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	return nil, s.unlocker.ChangePassword(
		ctx, payload.CurrentPassword, payload.NewPassword,
	)
}

func (s *Server) handleRemoveAccount(
	ctx context.Context, _ string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		AccountID string `json:"accountId"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	if err := s.wallet.RemoveAccount(ctx, payload.AccountID); err != nil {
		return nil, err
	}
	s.provider.EmitAccountsChanged(ctx)
	return nil, nil
}

func (s *Server) handleRemoveSeedPhrase(
	ctx context.Context, _ string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		SeedPhraseID string `json:"seedPhraseId"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	if err := s.wallet.RemoveSeedPhrase(ctx, payload.SeedPhraseID); err != nil {
		return nil, err
	}
	s.provider.EmitAccountsChanged(ctx)
	return nil, nil
}

func (s *Server) handleGetPendingRequests(
	ctx context.Context, _ string, _ json.RawMessage,
) (interface{}, error) {
	return s.broker.ListPending(ctx), nil
}

// handleGetProviderInfo answers the discovery handshake with the wallet's
// provider identity.
func (s *Server) handleGetProviderInfo(
	_ context.Context, _ string, _ json.RawMessage,
) (interface{}, error) {
	return s.provider.Announce(), nil
}

// providerHandler forwards a fixed provider method with no parameters.
func (s *Server) providerHandler(method string, params json.RawMessage) handlerFunc {
	return func(ctx context.Context, origin string, _ json.RawMessage) (interface{}, error) {
		return s.provider.HandleRequest(ctx, origin, method, params)
	}
}

func (s *Server) handlePersonalSign(
	ctx context.Context, origin string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		Address string `json:"address"`
		Message string `json:"message"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	params, _ := json.Marshal([]string{payload.Message, payload.Address})
	return s.provider.HandleRequest(ctx, origin, "personal_sign", params)
}

func (s *Server) handleSignTypedData(
	ctx context.Context, origin string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		Address   string `json:"address"`
		TypedData string `json:"typedData"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	params, _ := json.Marshal([]string{payload.Address, payload.TypedData})
	return s.provider.HandleRequest(ctx, origin, "eth_signTypedData_v4", params)
}

func (s *Server) handleSendTransaction(
	ctx context.Context, origin string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		Transaction *domain.TransactionPayload `json:"transaction"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	params, _ := json.Marshal([]*domain.TransactionPayload{payload.Transaction})
	return s.provider.HandleRequest(ctx, origin, "eth_sendTransaction", params)
}

func (s *Server) handleSwitchChain(
	ctx context.Context, origin string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		ChainID string `json:"chainId"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	params, _ := json.Marshal([]map[string]string{{"chainId": payload.ChainID}})
	return s.provider.HandleRequest(
		ctx, origin, "wallet_switchEthereumChain", params,
	)
}

func (s *Server) handleApprove(
	ctx context.Context, _ string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		RequestID string `json:"requestId"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	return nil, s.broker.Approve(ctx, payload.RequestID)
}

func (s *Server) handleReject(
	ctx context.Context, _ string, data json.RawMessage,
) (interface{}, error) {
	var payload struct {
		RequestID string `json:"requestId"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	return nil, s.broker.Reject(ctx, payload.RequestID)
}

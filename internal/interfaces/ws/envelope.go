package ws

import (
	"encoding/json"

	"github.com/tidewallet/tide-daemon/internal/core/domain"
)

// Message type constants of the envelope surface. Requests not listed here
// are answered with a method-not-found error.
const (
	TypeCreateWallet        = "CREATE_WALLET"
	TypeGenerateSeedPhrase  = "GENERATE_SEED_PHRASE"
	TypeImportSeedPhrase    = "IMPORT_SEED_PHRASE"
	TypeImportPrivateKey    = "IMPORT_PRIVATE_KEY"
	TypeImportWatchOnly     = "IMPORT_WATCH_ONLY"
	TypeUnlockWallet        = "UNLOCK_WALLET"
	TypeLockWallet          = "LOCK_WALLET"
	TypeGetStatus           = "GET_STATUS"
	TypeGetAccounts         = "GET_ACCOUNTS"
	TypeSetActiveAccount    = "SET_ACTIVE_ACCOUNT"
	TypeRenameAccount       = "RENAME_ACCOUNT"
	TypeGetSessionTimeout   = "GET_SESSION_TIMEOUT"
	TypeSetSessionTimeout   = "SET_SESSION_TIMEOUT"
	TypeExportSeedPhrase    = "EXPORT_SEED_PHRASE"
	TypeExportPrivateKey    = "EXPORT_PRIVATE_KEY"
	TypeChangePassword      = "CHANGE_PASSWORD"
	TypeRemoveAccount       = "REMOVE_ACCOUNT"
	TypeRemoveSeedPhrase    = "REMOVE_SEED_PHRASE"
	TypeGetPendingRequests  = "GET_PENDING_REQUESTS"
	TypeGetProviderInfo     = "GET_PROVIDER_INFO"
	TypeRequestAccounts     = "ETH_REQUEST_ACCOUNTS"
	TypeApproveConnection   = "ETH_APPROVE_CONNECTION"
	TypeRejectConnection    = "ETH_REJECT_CONNECTION"
	TypePersonalSign        = "EVM_PERSONAL_SIGN"
	TypeSignTypedData       = "EVM_SIGN_TYPED_DATA"
	TypeApproveSign         = "ETH_APPROVE_SIGN"
	TypeRejectSign          = "ETH_REJECT_SIGN"
	TypeSendTransaction     = "EVM_SEND_TRANSACTION"
	TypeApproveTransaction  = "ETH_APPROVE_TRANSACTION"
	TypeRejectTransaction   = "ETH_REJECT_TRANSACTION"
	TypeSwitchEthereumChain = "SWITCH_ETHEREUM_CHAIN"
)

// Push message types, daemon to client.
const (
	TypeRequestPending  = "REQUEST_PENDING"
	TypeRequestResolved = "REQUEST_RESOLVED"
	TypeProviderEvent   = "PROVIDER_EVENT"
)

// Request is the client-to-daemon envelope.
type Request struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	ID   string          `json:"id,omitempty"`
}

// Response is the daemon-to-client envelope. ID echoes the request's, push
// messages leave it empty.
type Response struct {
	Type    string        `json:"type"`
	Success bool          `json:"success"`
	Data    interface{}   `json:"data,omitempty"`
	Error   *ErrorPayload `json:"error,omitempty"`
	ID      string        `json:"id,omitempty"`
}

// ErrorPayload carries the provider error code alongside the message.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func okResponse(req *Request, data interface{}) *Response {
	return &Response{Type: req.Type, Success: true, Data: data, ID: req.ID}
}

func errResponse(req *Request, err error) *Response {
	return &Response{
		Type:    req.Type,
		Success: false,
		Error:   &ErrorPayload{Code: domain.ProviderCode(err), Message: err.Error()},
		ID:      req.ID,
	}
}

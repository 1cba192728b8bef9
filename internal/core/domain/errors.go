package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrWalletNotInitialized is returned for any operation requiring a
	// password record before one was created.
	ErrWalletNotInitialized = errors.New("wallet is not initialized")
	// ErrWalletAlreadyInitialized ...
	ErrWalletAlreadyInitialized = errors.New("wallet is already initialized")
	// ErrMustBeUnlocked is thrown when trying to make an operation that
	// requires the wallet to be unlocked
	ErrMustBeUnlocked = errors.New("wallet must be unlocked to perform this operation")
	// ErrInvalidPassword ...
	ErrInvalidPassword = errors.New("password is not valid")

	// ErrAlreadyExists is returned when saving a secret over an occupied key.
	// Secrets are never silently overwritten.
	ErrAlreadyExists = errors.New("a record with this id already exists")
	// ErrNotFound ...
	ErrNotFound = errors.New("record not found")
	// ErrAccountNotFound ...
	ErrAccountNotFound = errors.New("account not found")

	// ErrRequestTimeout is the rejection of a pending request that exceeded
	// its deadline.
	ErrRequestTimeout = errors.New("request timed out without a user decision")
	// ErrUserRejected is the rejection of a pending request explicitly
	// declined by the user.
	ErrUserRejected = errors.New("user rejected the request")
	// ErrRequestPending is returned when an origin already has an active
	// request of the same kind.
	ErrRequestPending = errors.New("a request of this kind is already pending for this origin")
	// ErrAddressMismatch is returned when a signing request names an address
	// other than the active account's.
	ErrAddressMismatch = errors.New("requested address does not match the active account")

	// ErrUnavailable is returned when the ephemeral secret holder cannot be
	// reached. Callers must treat this as a locked wallet.
	ErrUnavailable = errors.New("secret holder is unreachable")

	// ErrSessionExpired ...
	ErrSessionExpired = errors.New("session has expired")
	// ErrInvalidTimeout ...
	ErrInvalidTimeout = errors.New("session timeout is out of the allowed bounds")
)

// Provider error codes per the EIP-1193/EIP-1474 conventions.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeUnrecognizedChain = 4902
	CodeMethodNotFound    = -32601
	CodeInvalidParams     = -32602
	CodeInternal          = -32603
)

// ProviderError carries the numeric code a dApp consumes alongside the
// human-readable message.
type ProviderError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// NewProviderError ...
func NewProviderError(code int, message string) *ProviderError {
	return &ProviderError{Code: code, Message: message}
}

// ProviderCode maps any error to the numeric code to put on the wire.
func ProviderCode(err error) int {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Code
	}
	switch {
	case errors.Is(err, ErrUserRejected), errors.Is(err, ErrRequestTimeout):
		return CodeUserRejected
	case errors.Is(err, ErrMustBeUnlocked), errors.Is(err, ErrInvalidPassword):
		return CodeUnauthorized
	case errors.Is(err, ErrUnavailable):
		return CodeDisconnected
	default:
		return CodeInternal
	}
}

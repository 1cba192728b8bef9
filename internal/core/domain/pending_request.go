package domain

import "time"

// RequestKind partitions pending authorization requests. Each origin may
// have at most one active request per kind.
type RequestKind string

const (
	// RequestConnect ...
	RequestConnect RequestKind = "connect"
	// RequestSign covers both personal and typed-data signatures.
	RequestSign RequestKind = "sign"
	// RequestTransaction ...
	RequestTransaction RequestKind = "transaction"
)

// Timeouts per request kind.
const (
	ConnectRequestTimeout     = time.Minute
	SignRequestTimeout        = time.Minute
	TransactionRequestTimeout = 5 * time.Minute
)

// Timeout returns the deadline policy of the kind.
func (k RequestKind) Timeout() time.Duration {
	if k == RequestTransaction {
		return TransactionRequestTimeout
	}
	return ConnectRequestTimeout
}

// SignKind tags the two signature flavors at the protocol boundary. The
// caller decides which one it wants, the broker never guesses from the
// payload shape.
type SignKind string

const (
	// SignPersonalMessage ...
	SignPersonalMessage SignKind = "personalMessage"
	// SignTypedData ...
	SignTypedData SignKind = "typedData"
)

// SignPayload is the payload of a sign request.
type SignPayload struct {
	Kind    SignKind `json:"kind"`
	Address string   `json:"address"`
	Message string   `json:"message"`
}

// TransactionPayload is the payload of a send-transaction request. Optional
// fields left empty are filled in by the broker before signing.
type TransactionPayload struct {
	From                 string `json:"from"`
	To                   string `json:"to"`
	Value                string `json:"value,omitempty"`
	Data                 string `json:"data,omitempty"`
	Gas                  string `json:"gas,omitempty"`
	GasPrice             string `json:"gasPrice,omitempty"`
	MaxFeePerGas         string `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas,omitempty"`
	Nonce                string `json:"nonce,omitempty"`
	ChainID              string `json:"chainId,omitempty"`
}

// PendingRequest is an in-flight authorization awaiting a user decision. It
// lives only in process memory and is resolved or rejected exactly once,
// timeout included.
type PendingRequest struct {
	ID       string
	Origin   string
	Kind     RequestKind
	Payload  interface{}
	Deadline time.Time
}

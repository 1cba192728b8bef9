package ports

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainClient is the EVM RPC boundary used to fill in and broadcast
// transactions. Implementations wrap a real RPC endpoint and are expected
// to guard it with a circuit breaker.
type ChainClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// ChainSource resolves a chain id in 0x-prefixed hex form to a client for
// that chain. IsSupported answers without dialing anything.
type ChainSource interface {
	ClientFor(ctx context.Context, chainID string) (ChainClient, error)
	IsSupported(chainID string) bool
}

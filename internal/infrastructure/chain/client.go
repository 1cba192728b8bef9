// Package chain implements the EVM RPC boundary on top of go-ethereum's
// ethclient, with every call routed through a circuit breaker so a failing
// endpoint trips fast instead of hanging every pending transaction.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sony/gobreaker"
	"github.com/tidewallet/tide-daemon/internal/core/ports"
	"github.com/tidewallet/tide-daemon/pkg/circuitbreaker"
)

// Client wraps an ethclient connection behind the ChainClient port.
type Client struct {
	eth     *ethclient.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient dials the RPC endpoint.
func NewClient(rpcURL string) (*Client, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		eth:     eth,
		breaker: circuitbreaker.NewCircuitBreaker("evm-rpc"),
	}, nil
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.eth.ChainID(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.(*big.Int), nil
}

func (c *Client) PendingNonceAt(
	ctx context.Context, account common.Address,
) (uint64, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.eth.PendingNonceAt(ctx, account)
	})
	if err != nil {
		return 0, err
	}
	return res.(uint64), nil
}

func (c *Client) EstimateGas(
	ctx context.Context, call ethereum.CallMsg,
) (uint64, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.eth.EstimateGas(ctx, call)
	})
	if err != nil {
		return 0, err
	}
	return res.(uint64), nil
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.eth.SuggestGasPrice(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.(*big.Int), nil
}

func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.eth.SuggestGasTipCap(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.(*big.Int), nil
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.eth.SendTransaction(ctx, tx)
	})
	return err
}

// Close tears down the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

var _ ports.ChainClient = (*Client)(nil)

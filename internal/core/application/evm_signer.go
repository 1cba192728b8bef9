package application

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/tidewallet/tide-daemon/internal/core/ports"
)

var gasLimitBuffer = decimal.NewFromFloat(1.2)

// signPersonalMessage signs with the EIP-191 personal-message prefix and
// returns the 65-byte signature hex encoded, v in {27, 28}.
func signPersonalMessage(key *ecdsa.PrivateKey, message string) (string, error) {
	data := decodeSignMessage(message)
	hash := accounts.TextHash(data)
	return signHash(key, hash)
}

// signTypedData signs an EIP-712 payload given as its JSON encoding.
func signTypedData(key *ecdsa.PrivateKey, payload string) (string, error) {
	var typedData apitypes.TypedData
	if err := json.Unmarshal([]byte(payload), &typedData); err != nil {
		return "", domain.NewProviderError(
			domain.CodeInvalidParams, "malformed typed data payload",
		)
	}
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return "", domain.NewProviderError(
			domain.CodeInvalidParams, err.Error(),
		)
	}
	return signHash(key, hash)
}

func signHash(key *ecdsa.PrivateKey, hash []byte) (string, error) {
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return "", err
	}

	// recovery self-check, run before shifting v
	recovered, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return "", err
	}
	if crypto.PubkeyToAddress(*recovered) != crypto.PubkeyToAddress(key.PublicKey) {
		log.Warn("signer: recovered address does not match the signing key")
	}

	sig[64] += 27
	return hexutil.Encode(sig), nil
}

// decodeSignMessage accepts both the hex form dApps send for personal_sign
// and a plain UTF-8 string.
func decodeSignMessage(message string) []byte {
	if strings.HasPrefix(message, "0x") {
		if data, err := hexutil.Decode(message); err == nil {
			return data
		}
	}
	return []byte(message)
}

// detectSignKind is the fallback for payloads that reached the broker
// without an explicit kind tag.
func detectSignKind(message string) domain.SignKind {
	trimmed := strings.TrimSpace(message)
	if strings.HasPrefix(trimmed, "{") {
		var probe struct {
			Types  json.RawMessage `json:"types"`
			Domain json.RawMessage `json:"domain"`
		}
		if err := json.Unmarshal([]byte(trimmed), &probe); err == nil &&
			probe.Types != nil && probe.Domain != nil {
			return domain.SignTypedData
		}
	}
	return domain.SignPersonalMessage
}

// fillAndSendTransaction completes the missing fields of the payload,
// signs it and broadcasts it, returning the transaction hash.
func fillAndSendTransaction(
	ctx context.Context,
	client ports.ChainClient,
	key *ecdsa.PrivateKey,
	payload *domain.TransactionPayload,
	chainID *big.Int,
) (string, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)

	var to *common.Address
	if payload.To != "" {
		addr := common.HexToAddress(payload.To)
		to = &addr
	}
	value, err := parseQuantity(payload.Value)
	if err != nil {
		return "", err
	}
	var data []byte
	if payload.Data != "" {
		if data, err = hexutil.Decode(payload.Data); err != nil {
			return "", domain.NewProviderError(
				domain.CodeInvalidParams, "malformed transaction data",
			)
		}
	}

	var nonce uint64
	if payload.Nonce != "" {
		if nonce, err = hexutil.DecodeUint64(payload.Nonce); err != nil {
			return "", domain.NewProviderError(
				domain.CodeInvalidParams, "malformed nonce",
			)
		}
	} else if nonce, err = client.PendingNonceAt(ctx, from); err != nil {
		return "", err
	}

	var gasLimit uint64
	if payload.Gas != "" {
		if gasLimit, err = hexutil.DecodeUint64(payload.Gas); err != nil {
			return "", domain.NewProviderError(
				domain.CodeInvalidParams, "malformed gas limit",
			)
		}
	} else {
		estimate, err := client.EstimateGas(ctx, ethereum.CallMsg{
			From: from, To: to, Value: value, Data: data,
		})
		if err != nil {
			return "", err
		}
		gasLimit = bufferGasLimit(estimate)
	}

	txData, err := buildTxData(
		ctx, client, payload, chainID, to, value, data, nonce, gasLimit,
	)
	if err != nil {
		return "", err
	}

	tx, err := types.SignNewTx(key, types.LatestSignerForChainID(chainID), txData)
	if err != nil {
		return "", err
	}
	if err := client.SendTransaction(ctx, tx); err != nil {
		return "", err
	}
	return tx.Hash().Hex(), nil
}

// buildTxData prefers a dynamic-fee transaction and falls back to a legacy
// one when the endpoint has no tip suggestion or the caller pinned gasPrice.
func buildTxData(
	ctx context.Context,
	client ports.ChainClient,
	payload *domain.TransactionPayload,
	chainID *big.Int,
	to *common.Address,
	value *big.Int,
	data []byte,
	nonce, gasLimit uint64,
) (types.TxData, error) {
	if payload.GasPrice != "" {
		gasPrice, err := parseQuantity(payload.GasPrice)
		if err != nil {
			return nil, err
		}
		return &types.LegacyTx{
			Nonce: nonce, To: to, Value: value, Data: data,
			Gas: gasLimit, GasPrice: gasPrice,
		}, nil
	}

	tipCap, err := parseQuantity(payload.MaxPriorityFeePerGas)
	if err != nil {
		return nil, err
	}
	feeCap, err := parseQuantity(payload.MaxFeePerGas)
	if err != nil {
		return nil, err
	}

	if tipCap == nil {
		if tipCap, err = client.SuggestGasTipCap(ctx); err != nil {
			gasPrice, gpErr := client.SuggestGasPrice(ctx)
			if gpErr != nil {
				return nil, gpErr
			}
			return &types.LegacyTx{
				Nonce: nonce, To: to, Value: value, Data: data,
				Gas: gasLimit, GasPrice: gasPrice,
			}, nil
		}
	}
	if feeCap == nil {
		gasPrice, err := client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, err
		}
		feeCap = new(big.Int).Add(tipCap, new(big.Int).Mul(gasPrice, big.NewInt(2)))
	}

	return &types.DynamicFeeTx{
		ChainID: chainID, Nonce: nonce, To: to, Value: value, Data: data,
		Gas: gasLimit, GasTipCap: tipCap, GasFeeCap: feeCap,
	}, nil
}

func bufferGasLimit(estimate uint64) uint64 {
	buffered := decimal.NewFromInt(int64(estimate)).Mul(gasLimitBuffer).Ceil()
	return uint64(buffered.IntPart())
}

func parseQuantity(raw string) (*big.Int, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := hexutil.DecodeBig(raw)
	if err != nil {
		return nil, domain.NewProviderError(
			domain.CodeInvalidParams, "malformed hex quantity",
		)
	}
	return value, nil
}

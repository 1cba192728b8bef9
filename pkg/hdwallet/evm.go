package hdwallet

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// evmPathTemplate is the standard Ethereum derivation path.
const evmPathTemplate = "m/44'/60'/0'/0/%d"

// evmDeriver derives secp256k1 keypairs on evmPathTemplate.
type evmDeriver struct{}

// NewEVMDeriver returns the Deriver for EVM chains.
func NewEVMDeriver() Deriver {
	return evmDeriver{}
}

func (evmDeriver) Chain() Chain {
	return ChainEVM
}

func (d evmDeriver) DeriveFromMnemonic(mnemonic string, index uint32) (*ChainKey, error) {
	seed, err := SeedFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	return d.DeriveFromSeed(seed, index)
}

func (d evmDeriver) DeriveFromSeed(seed []byte, index uint32) (*ChainKey, error) {
	path, err := pathForIndex(evmPathTemplate, index)
	if err != nil {
		return nil, err
	}
	privBytes, err := derivePrivateKeyBytes(seed, path)
	if err != nil {
		return nil, err
	}
	return d.fromBytes(privBytes)
}

func (d evmDeriver) FromPrivateKey(raw string) (*ChainKey, error) {
	privBytes, err := decodeEVMKey(raw)
	if err != nil {
		return nil, err
	}
	return d.fromBytes(privBytes)
}

func (d evmDeriver) IsValidPrivateKey(raw string) bool {
	_, err := d.FromPrivateKey(raw)
	return err == nil
}

func (evmDeriver) fromBytes(privBytes []byte) (*ChainKey, error) {
	privKey, err := crypto.ToECDSA(privBytes)
	if err != nil {
		return nil, ErrInvalidKeyFormat
	}
	return &ChainKey{
		PrivateKey: crypto.FromECDSA(privKey),
		PublicKey:  crypto.FromECDSAPub(&privKey.PublicKey),
		Address:    crypto.PubkeyToAddress(privKey.PublicKey).Hex(),
	}, nil
}

// decodeEVMKey accepts a 32-byte hex encoded key with an optional 0x prefix.
func decodeEVMKey(raw string) ([]byte, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	privBytes, err := hex.DecodeString(s)
	if err != nil || len(privBytes) != 32 {
		return nil, ErrInvalidKeyFormat
	}
	return privBytes, nil
}

package hdwallet

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// solanaPathTemplate is the all-hardened Solana derivation path.
const solanaPathTemplate = "m/44'/501'/%d'/0'"

// solanaDeriver derives Ed25519 keypairs on solanaPathTemplate. The 32-byte
// private key of the BIP32 leaf seeds the Ed25519 keypair.
type solanaDeriver struct{}

// NewSolanaDeriver returns the Deriver for Solana.
func NewSolanaDeriver() Deriver {
	return solanaDeriver{}
}

func (solanaDeriver) Chain() Chain {
	return ChainSolana
}

func (d solanaDeriver) DeriveFromMnemonic(mnemonic string, index uint32) (*ChainKey, error) {
	seed, err := SeedFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	return d.DeriveFromSeed(seed, index)
}

func (d solanaDeriver) DeriveFromSeed(seed []byte, index uint32) (*ChainKey, error) {
	path, err := pathForIndex(solanaPathTemplate, index)
	if err != nil {
		return nil, err
	}
	privBytes, err := derivePrivateKeyBytes(seed, path)
	if err != nil {
		return nil, err
	}
	return d.fromSeed(privBytes), nil
}

func (d solanaDeriver) FromPrivateKey(raw string) (*ChainKey, error) {
	keyBytes, err := decodeSolanaKey(raw)
	if err != nil {
		return nil, err
	}

	switch len(keyBytes) {
	case ed25519.SeedSize:
		return d.fromSeed(keyBytes), nil
	case ed25519.PrivateKeySize:
		// 64-byte keypairs embed the public key, which must be consistent
		// with the one recomputed from the seed half.
		key := d.fromSeed(keyBytes[:ed25519.SeedSize])
		if !bytes.Equal(keyBytes[ed25519.SeedSize:], key.PublicKey) {
			return nil, ErrInvalidKeyFormat
		}
		return key, nil
	default:
		return nil, ErrInvalidKeyFormat
	}
}

func (d solanaDeriver) IsValidPrivateKey(raw string) bool {
	_, err := d.FromPrivateKey(raw)
	return err == nil
}

func (solanaDeriver) fromSeed(seed []byte) *ChainKey {
	privKey := ed25519.NewKeyFromSeed(seed)
	pubKey := privKey.Public().(ed25519.PublicKey)
	return &ChainKey{
		PrivateKey: []byte(privKey),
		PublicKey:  []byte(pubKey),
		Address:    base58.Encode(pubKey),
	}
}

// decodeSolanaKey accepts hex, base58 and bracketed numeric-array encodings
// of a 32-byte seed or a 64-byte keypair.
func decodeSolanaKey(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	if len(s) <= 0 {
		return nil, ErrInvalidKeyFormat
	}

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return decodeNumericArray(s)
	}

	if decoded, err := hex.DecodeString(strings.TrimPrefix(s, "0x")); err == nil {
		if len(decoded) == ed25519.SeedSize || len(decoded) == ed25519.PrivateKeySize {
			return decoded, nil
		}
	}

	if decoded := base58.Decode(s); len(decoded) == ed25519.SeedSize ||
		len(decoded) == ed25519.PrivateKeySize {
		return decoded, nil
	}

	return nil, ErrInvalidKeyFormat
}

func decodeNumericArray(s string) ([]byte, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	elems := strings.Split(trimmed, ",")
	buf := make([]byte, 0, len(elems))
	for _, elem := range elems {
		v, err := strconv.Atoi(strings.TrimSpace(elem))
		if err != nil || v < 0 || v > 255 {
			return nil, ErrInvalidKeyFormat
		}
		buf = append(buf, byte(v))
	}
	if len(buf) != ed25519.SeedSize && len(buf) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKeyFormat
	}
	return buf, nil
}

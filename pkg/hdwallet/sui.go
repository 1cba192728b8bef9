package hdwallet

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// suiSignatureFlagEd25519 prefixes the public key when hashing it into a Sui
// address.
const suiSignatureFlagEd25519 = 0x00

// suiPathTemplate is the all-hardened Sui derivation path.
const suiPathTemplate = "m/44'/784'/0'/0'/%d'"

// suiDeriver derives Ed25519 keypairs on suiPathTemplate.
type suiDeriver struct{}

// NewSuiDeriver returns the Deriver for Sui.
func NewSuiDeriver() Deriver {
	return suiDeriver{}
}

func (suiDeriver) Chain() Chain {
	return ChainSui
}

func (d suiDeriver) DeriveFromMnemonic(mnemonic string, index uint32) (*ChainKey, error) {
	seed, err := SeedFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	return d.DeriveFromSeed(seed, index)
}

func (d suiDeriver) DeriveFromSeed(seed []byte, index uint32) (*ChainKey, error) {
	path, err := pathForIndex(suiPathTemplate, index)
	if err != nil {
		return nil, err
	}
	privBytes, err := derivePrivateKeyBytes(seed, path)
	if err != nil {
		return nil, err
	}
	return d.fromSeed(privBytes), nil
}

func (d suiDeriver) FromPrivateKey(raw string) (*ChainKey, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	seed, err := hex.DecodeString(s)
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidKeyFormat
	}
	return d.fromSeed(seed), nil
}

func (d suiDeriver) IsValidPrivateKey(raw string) bool {
	_, err := d.FromPrivateKey(raw)
	return err == nil
}

func (suiDeriver) fromSeed(seed []byte) *ChainKey {
	privKey := ed25519.NewKeyFromSeed(seed)
	pubKey := privKey.Public().(ed25519.PublicKey)

	payload := append([]byte{suiSignatureFlagEd25519}, pubKey...)
	digest := blake2b.Sum256(payload)

	return &ChainKey{
		PrivateKey: seed,
		PublicKey:  []byte(pubKey),
		Address:    "0x" + hex.EncodeToString(digest[:]),
	}
}

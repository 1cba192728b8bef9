package hdwallet

import (
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// Chain tags the supported chain families.
type Chain string

const (
	// ChainEVM covers every EVM network (chain selection happens at the
	// provider layer, derivation is identical across them).
	ChainEVM Chain = "eip155"
	// ChainSolana ...
	ChainSolana Chain = "solana"
	// ChainSui ...
	ChainSui Chain = "sui"
)

// ChainKey is the outcome of any derivation or import: the raw private key in
// the chain's canonical byte representation, the public key, and the
// human-facing address.
type ChainKey struct {
	PrivateKey []byte
	PublicKey  []byte
	Address    string
}

// Deriver is the per-chain derivation contract.
type Deriver interface {
	// Chain returns the chain tag the deriver serves.
	Chain() Chain
	// DeriveFromMnemonic derives the keypair at the chain's path for the
	// given account index.
	DeriveFromMnemonic(mnemonic string, index uint32) (*ChainKey, error)
	// DeriveFromSeed is DeriveFromMnemonic on an already computed BIP39 seed.
	DeriveFromSeed(seed []byte, index uint32) (*ChainKey, error)
	// FromPrivateKey builds a keypair from a raw encoded private key.
	FromPrivateKey(raw string) (*ChainKey, error)
	// IsValidPrivateKey reports whether FromPrivateKey would accept raw.
	IsValidPrivateKey(raw string) bool
}

// derivePrivateKeyBytes walks the BIP32 path over the seed and returns the
// 32-byte private key of the leaf node.
func derivePrivateKeyBytes(seed []byte, path DerivationPath) ([]byte, error) {
	if len(seed) <= 0 {
		return nil, ErrNullSeed
	}
	hdNode, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	for _, step := range path {
		hdNode, err = hdNode.Derive(step)
		if err != nil {
			return nil, err
		}
	}
	privKey, err := hdNode.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return privKey.Serialize(), nil
}

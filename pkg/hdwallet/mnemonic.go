package hdwallet

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/vulpemventures/go-bip39"
)

// NewMnemonicOpts is the struct given to NewMnemonic method
type NewMnemonicOpts struct {
	EntropySize int
}

func (o NewMnemonicOpts) validate() error {
	if o.EntropySize > 0 {
		if o.EntropySize < 128 || o.EntropySize > 256 || o.EntropySize%32 != 0 {
			return ErrInvalidEntropySize
		}
	}
	if o.EntropySize < 0 {
		return ErrInvalidEntropySize
	}
	return nil
}

// NewMnemonic returns a fresh BIP39 mnemonic, 12 words by default.
func NewMnemonic(opts NewMnemonicOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	if opts.EntropySize == 0 {
		opts.EntropySize = 128
	}

	entropy, err := bip39.NewEntropy(opts.EntropySize)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// IsMnemonicValid returns whether the given phrase is a valid BIP39 mnemonic.
func IsMnemonicValid(mnemonic string) bool {
	return bip39.IsMnemonicValid(normalizeMnemonic(mnemonic))
}

// SeedFromMnemonic returns the BIP39 seed of the mnemonic with an empty
// passphrase.
func SeedFromMnemonic(mnemonic string) ([]byte, error) {
	m := normalizeMnemonic(mnemonic)
	if len(m) <= 0 {
		return nil, ErrNullMnemonic
	}
	if !bip39.IsMnemonicValid(m) {
		return nil, ErrInvalidMnemonic
	}
	return bip39.NewSeed(m, ""), nil
}

// FingerprintMnemonic returns the hex-encoded SHA-256 of the normalized
// mnemonic, used as the stable id of a seed-phrase record so re-importing
// the same phrase resolves to the same record.
func FingerprintMnemonic(mnemonic string) string {
	digest := sha256.Sum256([]byte(normalizeMnemonic(mnemonic)))
	return hex.EncodeToString(digest[:])
}

// FingerprintKey returns the hex-encoded SHA-256 of a canonical private key
// byte representation, used as the stable id of a private-key record.
func FingerprintKey(key []byte) string {
	digest := sha256.Sum256(key)
	return hex.EncodeToString(digest[:])
}

func normalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
}

package hdwallet

import "errors"

var (
	// ErrNullMnemonic ...
	ErrNullMnemonic = errors.New("mnemonic must not be null")
	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrNullSeed ...
	ErrNullSeed = errors.New("seed must not be null")
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New(
		"path must not start or end with a '/' and " +
			"can optionally start with 'm/' for absolute paths",
	)
	// ErrInvalidKeyFormat is returned when a raw private key does not match
	// the expected encoding or length for the chain, or does not produce a
	// working keypair.
	ErrInvalidKeyFormat = errors.New("private key format is invalid for this chain")
	// ErrUnsupportedChain ...
	ErrUnsupportedChain = errors.New("chain is not supported")
)

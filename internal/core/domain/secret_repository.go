package domain

import "context"

// SecretRepository persists encrypted seed-phrase and private-key records and
// the singleton password record. Save methods fail with ErrAlreadyExists when
// the target key is occupied: callers must never silently overwrite secrets.
// Removals are idempotent no-ops when the key is absent.
type SecretRepository interface {
	SaveSeedPhrase(ctx context.Context, record *SeedPhraseRecord) error
	GetSeedPhrase(ctx context.Context, id string) (*SeedPhraseRecord, error)
	// UpdateSeedPhrase applies updateFn atomically, persisting the new
	// derivation index together with the extended account list.
	UpdateSeedPhrase(
		ctx context.Context, id string,
		updateFn func(*SeedPhraseRecord) (*SeedPhraseRecord, error),
	) error
	ListSeedPhrases(ctx context.Context) ([]*SeedPhraseRecord, error)
	RemoveSeedPhrase(ctx context.Context, id string) error

	SavePrivateKey(ctx context.Context, record *PrivateKeyRecord) error
	GetPrivateKey(ctx context.Context, id string) (*PrivateKeyRecord, error)
	ListPrivateKeys(ctx context.Context) ([]*PrivateKeyRecord, error)
	RemovePrivateKey(ctx context.Context, id string) error

	SavePassword(ctx context.Context, record *PasswordRecord) error
	GetPassword(ctx context.Context) (*PasswordRecord, error)
	// ReplacePassword overwrites the password record. Only the
	// change-password flow may call it, after re-encrypting every secret.
	ReplacePassword(ctx context.Context, record *PasswordRecord) error
	// ReplaceSeedPhrase and ReplacePrivateKey overwrite existing records,
	// used by the change-password re-encryption pass.
	ReplaceSeedPhrase(ctx context.Context, record *SeedPhraseRecord) error
	ReplacePrivateKey(ctx context.Context, record *PrivateKeyRecord) error
}

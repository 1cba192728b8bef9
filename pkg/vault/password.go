package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/pbkdf2"
)

// passwordHashIterations is deliberately higher than the encryption KDF
// count since password records are verified far less often than secrets
// are decrypted.
const passwordHashIterations = 1_200_000

// PasswordHash is the persistable outcome of HashPassword.
type PasswordHash struct {
	Hash string `json:"hash"`
	Salt string `json:"salt"`
}

// HashPasswordOpts is the struct given to HashPassword method
type HashPasswordOpts struct {
	Password string
	// Salt is optional, a fresh random one is generated when empty.
	Salt string
}

func (o HashPasswordOpts) validate() error {
	if len(o.Password) <= 0 {
		return ErrNullPassword
	}
	if len(o.Salt) > 0 {
		if _, err := base64.StdEncoding.DecodeString(o.Salt); err != nil {
			return ErrMalformedBlob
		}
	}
	return nil
}

// HashPassword derives a PBKDF2-SHA256 hash of the password suitable for
// persisting as the vault's password record.
func HashPassword(opts HashPasswordOpts) (*PasswordHash, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	var salt []byte
	if len(opts.Salt) > 0 {
		salt, _ = base64.StdEncoding.DecodeString(opts.Salt)
	} else {
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, err
		}
	}

	hash := pbkdf2.Key([]byte(opts.Password), salt, passwordHashIterations, keySize, sha256.New)
	defer zero(hash)

	return &PasswordHash{
		Hash: base64.StdEncoding.EncodeToString(hash),
		Salt: base64.StdEncoding.EncodeToString(salt),
	}, nil
}

// VerifyPassword re-derives the hash with the stored salt and compares it to
// the stored hash in constant time.
func VerifyPassword(password string, stored *PasswordHash) (bool, error) {
	if len(password) <= 0 {
		return false, ErrNullPassword
	}
	if stored == nil {
		return false, ErrNullCipherText
	}
	salt, err := base64.StdEncoding.DecodeString(stored.Salt)
	if err != nil {
		return false, ErrMalformedBlob
	}
	expected, err := base64.StdEncoding.DecodeString(stored.Hash)
	if err != nil {
		return false, ErrMalformedBlob
	}

	hash := pbkdf2.Key([]byte(password), salt, passwordHashIterations, keySize, sha256.New)
	defer zero(hash)

	return SecureCompare(hash, expected), nil
}

// SecureCompare compares two byte slices in constant time. Unequal lengths
// short-circuit to false, leaking only the length difference.
func SecureCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KdfPbkdf2Sha256 is the only KDF identifier accepted in encrypted blobs.
	KdfPbkdf2Sha256 = "pbkdf2-sha256"

	// MinIterations is the lowest KDF iteration count accepted on decrypt.
	MinIterations = 500_000
	// MaxIterations is the highest KDF iteration count accepted on decrypt.
	MaxIterations = 2_000_000
	// DefaultIterations is the KDF iteration count used on encrypt.
	DefaultIterations = 600_000

	// MaxPayloadSize caps the size of an encryptable plaintext.
	MaxPayloadSize = 10 * 1024 * 1024

	minPasswordLen = 8
	saltSize       = 32
	nonceSize      = 16
	keySize        = 32
)

// EncryptedBlob is the envelope produced by Encrypt. All byte fields are
// base64 encoded so the blob can be stored as JSON.
type EncryptedBlob struct {
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
	Digest     string `json:"digest"`
	Iterations int    `json:"iterations"`
	KdfID      string `json:"kdfId"`
}

// EncryptOpts is the struct given to Encrypt method
type EncryptOpts struct {
	PlainText string
	Password  string
}

func (o EncryptOpts) validate() error {
	if len(o.PlainText) <= 0 {
		return ErrNullPlainText
	}
	if len(o.PlainText) > MaxPayloadSize {
		return ErrPayloadTooLarge
	}
	if len(o.Password) <= 0 {
		return ErrNullPassword
	}
	if len(o.Password) < minPasswordLen {
		return ErrWeakPassword
	}
	return nil
}

// Encrypt encrypts a plaintext with AES-256-GCM under a key derived from the
// provided password with PBKDF2-SHA256 and a fresh random salt. A SHA-256
// digest of the plaintext is stored alongside the ciphertext as an integrity
// check independent of the AEAD tag.
func Encrypt(opts EncryptOpts) (*EncryptedBlob, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	key := pbkdf2.Key([]byte(opts.Password), salt, DefaultIterations, keySize, sha256.New)
	defer zero(key)

	blockCipher, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCMWithNonceSize(blockCipher, nonceSize)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	cipherText := gcm.Seal(nil, nonce, []byte(opts.PlainText), nil)
	digest := sha256.Sum256([]byte(opts.PlainText))

	return &EncryptedBlob{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(cipherText),
		Digest:     base64.StdEncoding.EncodeToString(digest[:]),
		Iterations: DefaultIterations,
		KdfID:      KdfPbkdf2Sha256,
	}, nil
}

// DecryptOpts is the struct given to Decrypt method
type DecryptOpts struct {
	Blob     *EncryptedBlob
	Password string
}

func (o DecryptOpts) validate() error {
	if o.Blob == nil || len(o.Blob.CipherText) <= 0 {
		return ErrNullCipherText
	}
	if len(o.Password) <= 0 {
		return ErrNullPassword
	}
	if o.Blob.KdfID != KdfPbkdf2Sha256 {
		return ErrUnknownKdf
	}
	if o.Blob.Iterations < MinIterations {
		return ErrInsufficientIterations
	}
	if o.Blob.Iterations > MaxIterations {
		return ErrExcessiveIterations
	}
	for _, field := range []string{o.Blob.Salt, o.Blob.Nonce, o.Blob.CipherText, o.Blob.Digest} {
		if _, err := base64.StdEncoding.DecodeString(field); err != nil {
			return ErrMalformedBlob
		}
	}
	return nil
}

// Decrypt reverses Encrypt. A failing AEAD open surfaces as ErrAuth (wrong
// password and ciphertext tampering are indistinguishable at this layer),
// while a digest mismatch after a successful open surfaces as ErrIntegrity.
func Decrypt(opts DecryptOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	salt, _ := base64.StdEncoding.DecodeString(opts.Blob.Salt)
	nonce, _ := base64.StdEncoding.DecodeString(opts.Blob.Nonce)
	cipherText, _ := base64.StdEncoding.DecodeString(opts.Blob.CipherText)
	storedDigest, _ := base64.StdEncoding.DecodeString(opts.Blob.Digest)

	key := pbkdf2.Key([]byte(opts.Password), salt, opts.Blob.Iterations, keySize, sha256.New)
	defer zero(key)

	blockCipher, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCMWithNonceSize(blockCipher, len(nonce))
	if err != nil {
		return "", ErrMalformedBlob
	}

	plainText, err := gcm.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return "", ErrAuth
	}

	digest := sha256.Sum256(plainText)
	if !SecureCompare(digest[:], storedDigest) {
		return "", ErrIntegrity
	}

	return string(plainText), nil
}

// zero overwrites a secret buffer with random bytes before it goes out of
// scope. Best effort, the GC may have copied it already.
func zero(b []byte) {
	rand.Read(b)
}

package vault

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	plaintext := "abandon abandon abandon abandon ability"
	password := "Str0ngP@ss!"

	blob, err := Encrypt(EncryptOpts{PlainText: plaintext, Password: password})
	require.NoError(t, err)
	assert.Equal(t, KdfPbkdf2Sha256, blob.KdfID)
	assert.Equal(t, DefaultIterations, blob.Iterations)

	revealed, err := Decrypt(DecryptOpts{Blob: blob, Password: password})
	require.NoError(t, err)
	assert.Equal(t, plaintext, revealed)
}

func TestEncryptProducesFreshSaltAndNonce(t *testing.T) {
	opts := EncryptOpts{PlainText: "same secret", Password: "Str0ngP@ss!"}

	first, err := Encrypt(opts)
	require.NoError(t, err)
	second, err := Encrypt(opts)
	require.NoError(t, err)

	assert.NotEqual(t, first.Salt, second.Salt)
	assert.NotEqual(t, first.Nonce, second.Nonce)
	assert.NotEqual(t, first.CipherText, second.CipherText)
}

func TestFailingEncrypt(t *testing.T) {
	tests := []struct {
		opts EncryptOpts
		err  error
	}{
		{
			opts: EncryptOpts{PlainText: "", Password: "Str0ngP@ss!"},
			err:  ErrNullPlainText,
		},
		{
			opts: EncryptOpts{PlainText: "secret", Password: ""},
			err:  ErrNullPassword,
		},
		{
			opts: EncryptOpts{PlainText: "secret", Password: "short"},
			err:  ErrWeakPassword,
		},
		{
			opts: EncryptOpts{
				PlainText: strings.Repeat("a", MaxPayloadSize+1),
				Password:  "Str0ngP@ss!",
			},
			err: ErrPayloadTooLarge,
		},
	}
	for _, tt := range tests {
		_, err := Encrypt(tt.opts)
		assert.Equal(t, tt.err, err)
	}
}

func TestDecryptWithWrongPassword(t *testing.T) {
	blob, err := Encrypt(EncryptOpts{PlainText: "secret", Password: "Str0ngP@ss!"})
	require.NoError(t, err)

	_, err = Decrypt(DecryptOpts{Blob: blob, Password: "Wr0ngP@ss!!"})
	assert.Equal(t, ErrAuth, err)
}

func TestDecryptDetectsTampering(t *testing.T) {
	blob, err := Encrypt(EncryptOpts{PlainText: "secret", Password: "Str0ngP@ss!"})
	require.NoError(t, err)

	t.Run("flipped ciphertext byte", func(t *testing.T) {
		tampered := *blob
		raw, _ := base64.StdEncoding.DecodeString(tampered.CipherText)
		raw[0] ^= 0xff
		tampered.CipherText = base64.StdEncoding.EncodeToString(raw)

		_, err := Decrypt(DecryptOpts{Blob: &tampered, Password: "Str0ngP@ss!"})
		assert.Equal(t, ErrAuth, err)
	})

	t.Run("flipped digest byte", func(t *testing.T) {
		tampered := *blob
		raw, _ := base64.StdEncoding.DecodeString(tampered.Digest)
		raw[0] ^= 0xff
		tampered.Digest = base64.StdEncoding.EncodeToString(raw)

		_, err := Decrypt(DecryptOpts{Blob: &tampered, Password: "Str0ngP@ss!"})
		assert.Equal(t, ErrIntegrity, err)
	})
}

func TestFailingDecrypt(t *testing.T) {
	valid, err := Encrypt(EncryptOpts{PlainText: "secret", Password: "Str0ngP@ss!"})
	require.NoError(t, err)

	lowIters := *valid
	lowIters.Iterations = MinIterations - 1
	highIters := *valid
	highIters.Iterations = MaxIterations + 1
	badKdf := *valid
	badKdf.KdfID = "scrypt"
	badSalt := *valid
	badSalt.Salt = "not base64!"

	tests := []struct {
		name string
		opts DecryptOpts
		err  error
	}{
		{
			name: "null blob",
			opts: DecryptOpts{Blob: nil, Password: "Str0ngP@ss!"},
			err:  ErrNullCipherText,
		},
		{
			name: "null password",
			opts: DecryptOpts{Blob: valid, Password: ""},
			err:  ErrNullPassword,
		},
		{
			name: "insufficient iterations",
			opts: DecryptOpts{Blob: &lowIters, Password: "Str0ngP@ss!"},
			err:  ErrInsufficientIterations,
		},
		{
			name: "excessive iterations",
			opts: DecryptOpts{Blob: &highIters, Password: "Str0ngP@ss!"},
			err:  ErrExcessiveIterations,
		},
		{
			name: "unknown kdf",
			opts: DecryptOpts{Blob: &badKdf, Password: "Str0ngP@ss!"},
			err:  ErrUnknownKdf,
		},
		{
			name: "malformed salt",
			opts: DecryptOpts{Blob: &badSalt, Password: "Str0ngP@ss!"},
			err:  ErrMalformedBlob,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decrypt(tt.opts)
			assert.Equal(t, tt.err, err)
		})
	}
}

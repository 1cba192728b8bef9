package vault

import "errors"

var (
	// ErrNullPlainText ...
	ErrNullPlainText = errors.New("text to encrypt must not be null")
	// ErrNullCipherText ...
	ErrNullCipherText = errors.New("cipher to decrypt must not be null")
	// ErrNullPassword ...
	ErrNullPassword = errors.New("password must not be null")
	// ErrWeakPassword ...
	ErrWeakPassword = errors.New("password must be at least 8 characters long")
	// ErrPayloadTooLarge ...
	ErrPayloadTooLarge = errors.New("payload exceeds the maximum allowed size")

	// ErrInsufficientIterations is returned when decrypting a blob whose KDF
	// iteration count falls below the accepted minimum.
	ErrInsufficientIterations = errors.New("blob iteration count is below the accepted minimum")
	// ErrExcessiveIterations is returned when decrypting a blob whose KDF
	// iteration count exceeds the accepted maximum.
	ErrExcessiveIterations = errors.New("blob iteration count exceeds the accepted maximum")
	// ErrUnknownKdf ...
	ErrUnknownKdf = errors.New("blob kdf identifier is not recognized")
	// ErrMalformedBlob is returned when any field of a blob is not valid base64.
	ErrMalformedBlob = errors.New("blob fields must be in base64 format")

	// ErrAuth is returned when the AEAD fails to authenticate, which is the
	// expected outcome of decrypting with a wrong password.
	ErrAuth = errors.New("authentication failed, wrong password or corrupted data")
	// ErrIntegrity is returned when the AEAD opens correctly but the plaintext
	// digest does not match the one stored in the blob. This means the blob
	// was tampered with and its content must be treated as lost.
	ErrIntegrity = errors.New("plaintext digest mismatch, data is corrupted")
)

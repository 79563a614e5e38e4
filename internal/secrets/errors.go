package secrets

import "errors"

// Callers outside this package should report every one of these as a generic
// credential failure; the distinctions exist for logs and tests.
var (
	ErrConfiguration       = errors.New("secrets: encryption key misconfigured")
	ErrEncryptionFailure   = errors.New("secrets: encryption failed")
	ErrDecryptionFailure   = errors.New("secrets: decryption failed")
	ErrMalformedCredential = errors.New("secrets: malformed credential format")
	ErrUnknownCredential   = errors.New("secrets: unknown credential name")
	ErrInvalidInput        = errors.New("secrets: invalid input")
	ErrStoreUnavailable    = errors.New("secrets: credential store unavailable")
)

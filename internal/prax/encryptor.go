package prax

import "io"

// Encryptor seals snapshots before they leave the host.
// Sealing needs only the public key; opening needs the passphrase.
type Encryptor interface {
	// Setup generates the key pair, protecting the private key with passphrase.
	Setup(passphrase string) error

	// Encrypt writes the sealed form of r to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock opens the private key and returns a context that can decrypt.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether keys exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}

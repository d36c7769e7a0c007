package testutil

import (
	"prax-go/internal/encryption"
)

// NewTestEncryptor creates a deterministic encryptor that needs no keys.
func NewTestEncryptor() *encryption.PlainEncryptor {
	return encryption.NewPlainEncryptor()
}

package encryption

import (
	"fmt"

	"prax-go/internal/config"
	"prax-go/internal/prax"
)

// Encryption types accepted in the [encryption] config section.
const (
	TypeAge   = "age"
	TypePlain = "plain"
	TypeNone  = "none"
)

// NewEncryptorFromConfig creates the Encryptor that seals store snapshots.
// An empty type means age. TypeNone returns nil, and snapshots are pushed as
// raw database files.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (prax.Encryptor, error) {
	switch cfg.Type {
	case TypeAge, "":
		if cfg.PublicKeyPath == "" || cfg.PrivateKeyPath == "" {
			return nil, fmt.Errorf("age encryption needs public_key_path and private_key_path")
		}
		return NewAgeEncryptor(cfg), nil
	case TypePlain:
		return NewPlainEncryptor(), nil
	case TypeNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}

package vault

import (
	"context"
	"fmt"

	"prax-go/internal/config"
	"prax-go/internal/prax"
)

// Vault types accepted in [[vaults]] entries.
const (
	TypeMemory     = "memory"
	TypeS3         = "s3"
	TypeFilesystem = "filesystem"
)

// NewVaultFromConfig opens the vault described by one [[vaults]] entry.
func NewVaultFromConfig(ctx context.Context, cfg config.VaultConfig) (prax.Vault, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%s vault needs a name", cfg.Type)
	}
	switch cfg.Type {
	case TypeMemory:
		return NewMemoryVault(cfg.Name), nil
	case TypeS3:
		return NewS3Vault(ctx, cfg)
	case TypeFilesystem:
		if cfg.FSVaultRoot == "" {
			return nil, fmt.Errorf("filesystem vault %q requires fs_vault_root to be set", cfg.Name)
		}
		return NewFileSystemVault(cfg.Name, cfg.FSVaultRoot)
	default:
		return nil, fmt.Errorf("unknown vault type: %s", cfg.Type)
	}
}

// SnapshotVault opens the vault store snapshots are pushed to and pulled
// from: the entry called name, or the first entry when name is empty. It
// returns nil when no vault is configured and none is named.
func SnapshotVault(ctx context.Context, vaults []config.VaultConfig, name string) (prax.Vault, error) {
	if name == "" {
		if len(vaults) == 0 {
			return nil, nil
		}
		return NewVaultFromConfig(ctx, vaults[0])
	}
	for _, v := range vaults {
		if v.Name == name {
			return NewVaultFromConfig(ctx, v)
		}
	}
	return nil, fmt.Errorf("snapshot vault %q is not configured", name)
}

package app

import (
	"fmt"
	"os"
	"path/filepath"

	"prax-go/internal/config"
)

// Paths are the locations prax needs before any config has been read.
type Paths struct {
	ConfigPath string // the TOML config file
	BaseDir    string // holds the store, catalog, keys and logs
}

// DefaultPaths resolves Paths from the environment. PRAX_CONFIG_PATH and
// PRAX_HOME win; otherwise the XDG config and data homes are used, falling
// back to ~/.config and ~/.local/share.
func DefaultPaths() (Paths, error) {
	configHome, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return Paths{}, err
	}
	dataHome, err := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	if err != nil {
		return Paths{}, err
	}

	p := Paths{
		ConfigPath: filepath.Join(configHome, "prax.toml"),
		BaseDir:    filepath.Join(dataHome, "prax"),
	}
	if v := os.Getenv("PRAX_CONFIG_PATH"); v != "" {
		p.ConfigPath = v
	}
	if v := os.Getenv("PRAX_HOME"); v != "" {
		p.BaseDir = v
	}
	return p, nil
}

// NewConfig returns the default config for a new host rooted at p.BaseDir.
func (p Paths) NewConfig(hostID string) *config.Config {
	return config.NewConfig(hostID, p.BaseDir)
}

// InitConfig writes cfg to p.ConfigPath, refusing to replace an existing file.
func (p Paths) InitConfig(cfg *config.Config) error {
	return config.Init(p.ConfigPath, cfg)
}

// ReadConfig reads the config file at p.ConfigPath.
func (p Paths) ReadConfig() (*config.Config, error) {
	return config.ReadFromFile(p.ConfigPath)
}

// xdgDir returns $env when it is an absolute path, else ~/fallback.
func xdgDir(env, fallback string) (string, error) {
	if v := os.Getenv(env); filepath.IsAbs(v) {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, fallback), nil
}

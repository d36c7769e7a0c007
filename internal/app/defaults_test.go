package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name string
		env  map[string]string
		want Paths
	}{
		{
			name: "home fallbacks",
			want: Paths{
				ConfigPath: filepath.Join(home, ".config", "prax.toml"),
				BaseDir:    filepath.Join(home, ".local", "share", "prax"),
			},
		},
		{
			name: "xdg homes",
			env:  map[string]string{"XDG_CONFIG_HOME": "/xdg/config", "XDG_DATA_HOME": "/xdg/data"},
			want: Paths{ConfigPath: "/xdg/config/prax.toml", BaseDir: "/xdg/data/prax"},
		},
		{
			name: "relative xdg home ignored",
			env:  map[string]string{"XDG_DATA_HOME": "data"},
			want: Paths{
				ConfigPath: filepath.Join(home, ".config", "prax.toml"),
				BaseDir:    filepath.Join(home, ".local", "share", "prax"),
			},
		},
		{
			name: "prax overrides win",
			env: map[string]string{
				"XDG_CONFIG_HOME":  "/xdg/config",
				"PRAX_CONFIG_PATH": "/custom/prax.toml",
				"PRAX_HOME":        "/custom/prax",
			},
			want: Paths{ConfigPath: "/custom/prax.toml", BaseDir: "/custom/prax"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"XDG_CONFIG_HOME", "XDG_DATA_HOME", "PRAX_CONFIG_PATH", "PRAX_HOME"} {
				t.Setenv(k, tt.env[k])
			}
			got, err := DefaultPaths()
			if err != nil {
				t.Fatalf("DefaultPaths() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DefaultPaths() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPaths_ConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := Paths{ConfigPath: filepath.Join(dir, "etc", "prax.toml"), BaseDir: filepath.Join(dir, "data")}

	if _, err := p.ReadConfig(); err == nil {
		t.Error("ReadConfig() before InitConfig() expected error")
	}

	cfg := p.NewConfig("host-1")
	if cfg.Source.CatalogPath != filepath.Join(p.BaseDir, "catalog.yaml") {
		t.Errorf("CatalogPath = %q, want under %s", cfg.Source.CatalogPath, p.BaseDir)
	}
	if err := p.InitConfig(cfg); err != nil {
		t.Fatalf("InitConfig() error = %v", err)
	}
	if err := p.InitConfig(cfg); err == nil {
		t.Error("second InitConfig() expected error")
	}

	got, err := p.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	if got.HostID != "host-1" || got.BaseDir != p.BaseDir {
		t.Errorf("ReadConfig() = %+v", got)
	}
}

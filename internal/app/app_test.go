package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"prax-go/internal/config"
	"prax-go/internal/model"
	"prax-go/internal/prax"
)

const tripCatalog = `
items:
  - id: I1
    created: 2024-01-01T09:00:00Z
  - id: I2
    kind: video
    created: 2024-01-02T09:00:00Z
  - id: I3
    created: 2024-01-03T09:00:00Z
albums:
  - id: A
    title: Rome
    items: [I1, I2]
  - id: S
    title: Favorites
    smart: true
    items: [I3]
folders:
  - id: F
    title: Trips
    albums: [A]
`

func newTestConfig(t *testing.T, catalog string) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.NewConfig("host-1", base)
	cfg.Database.Type = "memory"
	cfg.Resolver.DebounceMS = 20
	cfg.Encryption = config.EncryptionConfig{Type: "plain"}
	cfg.Vaults = []config.VaultConfig{{Type: "memory", Name: "test"}}
	writeCatalog(t, cfg.Source.CatalogPath, catalog)
	return cfg
}

func writeCatalog(t *testing.T, path, catalog string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(catalog), 0644); err != nil {
		t.Fatalf("writing catalog: %v", err)
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *PraxApp {
	t.Helper()
	a, err := NewPraxApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewPraxApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestPraxApp_ImportAndQuery(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, newTestConfig(t, tripCatalog))

	results, err := a.Import(ctx, "all")
	if err != nil {
		t.Fatalf("Import(all) error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Import(all) returned %d results, want 3", len(results))
	}

	st, err := a.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	want := model.Stats{Assets: 3, Albums: 2, Folders: 1, AssetAlbums: 2}
	if st.Stats != want {
		t.Errorf("Stats = %+v, want %+v", st.Stats, want)
	}
	if a.Reporter().Status().LastCompletedAt == nil {
		t.Error("LastCompletedAt not set after a full import")
	}

	albums, err := a.ListAlbums(ctx, "title", false)
	if err != nil {
		t.Fatalf("ListAlbums() error = %v", err)
	}
	if len(albums) != 2 || albums[0].Identifier != "S" || albums[1].Identifier != "A" {
		t.Errorf("ListAlbums(title) = %v, want S then A", albums)
	}
	if albums[1].FolderID != "F" {
		t.Errorf("album A folder = %q, want F", albums[1].FolderID)
	}

	assets, err := a.ListAssets(ctx, "created", true)
	if err != nil {
		t.Fatalf("ListAssets() error = %v", err)
	}
	if len(assets) != 3 || assets[0].Identifier != "I3" {
		t.Errorf("ListAssets(created desc) first = %v, want I3", assets)
	}

	if _, err := a.ListFolders(ctx, "nope", false); err == nil {
		t.Error("ListFolders() with unknown column expected error")
	}

	runs, err := a.History(ctx, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(runs) != 3 || runs[0].Pass != model.PassAssets {
		t.Errorf("History() = %v, want 3 runs, assets newest", runs)
	}
}

func TestPraxApp_ImportSinglePass(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, newTestConfig(t, tripCatalog))

	results, err := a.Import(ctx, "folders")
	if err != nil {
		t.Fatalf("Import(folders) error = %v", err)
	}
	if len(results) != 1 || results[0].Records != 1 {
		t.Errorf("Import(folders) = %+v, want one folder", results)
	}

	if _, err := a.Import(ctx, "everything"); err == nil {
		t.Error("Import() with unknown pass expected error")
	}
}

func TestPraxApp_AccessDenied(t *testing.T) {
	a := newTestApp(t, newTestConfig(t, "access: denied\n"+tripCatalog))

	if _, err := a.Import(context.Background(), "all"); !errors.Is(err, prax.ErrAuthorizationDenied) {
		t.Errorf("Import() error = %v, want ErrAuthorizationDenied", err)
	}
	if got := a.Reporter().Status().State; got != prax.StateAuthorizationDenied {
		t.Errorf("State = %v, want AuthorizationDenied", got)
	}
}

func TestPraxApp_Select(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, newTestConfig(t, tripCatalog))

	tests := []struct {
		payload string
		want    []string
	}{
		{"album:A", []string{"I2", "I1"}},
		{"album:S,album:A", []string{"I3", "I2", "I1"}},
		{"none", []string{"I3"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			items, err := a.Select(ctx, tt.payload)
			if err != nil {
				t.Fatalf("Select(%q) error = %v", tt.payload, err)
			}
			var got []string
			for _, it := range items {
				got = append(got, it.ID)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Select(%q) = %v, want %v", tt.payload, got, tt.want)
			}
		})
	}
}

func TestPraxApp_Counts(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, newTestConfig(t, tripCatalog))
	if _, err := a.Import(ctx, "all"); err != nil {
		t.Fatalf("Import(all) error = %v", err)
	}

	for _, live := range []bool{false, true} {
		counts, err := a.Counts(ctx, live, nil)
		if err != nil {
			t.Fatalf("Counts(live=%v) error = %v", live, err)
		}
		if counts.Total != 3 || counts.Unassigned != 1 || counts.PerAlbum["A"] != 2 || counts.PerAlbum["S"] != 1 {
			t.Errorf("Counts(live=%v) = %+v", live, counts)
		}
	}
}

func TestPraxApp_Snapshot(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, newTestConfig(t, tripCatalog))
	if _, err := a.Import(ctx, "all"); err != nil {
		t.Fatalf("Import(all) error = %v", err)
	}

	version, err := a.PushSnapshot(ctx)
	if err != nil {
		t.Fatalf("PushSnapshot() error = %v", err)
	}
	if version != 3 {
		t.Errorf("PushSnapshot() version = %d, want 3", version)
	}

	dest := filepath.Join(t.TempDir(), "pulled.db")
	if err := a.PullSnapshot(ctx, dest, func() (string, error) { return "pw", nil }); err != nil {
		t.Fatalf("PullSnapshot() error = %v", err)
	}
	if info, err := os.Stat(dest); err != nil || info.Size() == 0 {
		t.Errorf("pulled snapshot stat = %v, %v", info, err)
	}
}

func TestPraxApp_SetupKeys(t *testing.T) {
	cfg := newTestConfig(t, tripCatalog)
	cfg.Encryption = config.EncryptionConfig{Type: "none"}
	a := newTestApp(t, cfg)

	if err := a.SetupKeys("pw"); err == nil {
		t.Error("SetupKeys() with encryption disabled expected error")
	}
}

func TestPraxApp_LoadsLastCompletedAtStartup(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t, tripCatalog)
	cfg.Database.Type = "sqlite"

	first, err := NewPraxApp(ctx, cfg)
	if err != nil {
		t.Fatalf("NewPraxApp() error = %v", err)
	}
	if first.Reporter().Status().LastCompletedAt != nil {
		t.Error("LastCompletedAt set on an empty store")
	}
	if _, err := first.Import(ctx, "all"); err != nil {
		t.Fatalf("Import(all) error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second := newTestApp(t, cfg)
	if second.Reporter().Status().LastCompletedAt == nil {
		t.Error("LastCompletedAt not loaded from import history")
	}
}

func TestPraxApp_Watch(t *testing.T) {
	cfg := newTestConfig(t, tripCatalog)
	a := newTestApp(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type outcome struct {
		results []*prax.PassResult
		err     error
	}
	outcomes := make(chan outcome, 1)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- a.Watch(ctx, func(results []*prax.PassResult, err error) {
			if ctx.Err() != nil {
				return
			}
			select {
			case outcomes <- outcome{results, err}:
			default:
			}
		})
	}()

	updated := tripCatalog + "  - id: G\n    title: Empty\n"
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for done := false; !done; {
		select {
		case o := <-outcomes:
			if o.err != nil {
				t.Fatalf("re-import error = %v", o.err)
			}
			if len(o.results) == 3 && o.results[0].Records == 2 {
				done = true
			}
		case <-tick.C:
			// The watcher may not be registered yet; keep replacing the file.
			replaceCatalog(t, cfg.Source.CatalogPath, updated)
		case <-ctx.Done():
			t.Fatal("no re-import after catalog change")
		}
	}

	cancel()
	if err := <-watchErr; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

// replaceCatalog swaps the file in with a rename so a reload never sees a
// partial write.
func replaceCatalog(t *testing.T, path, catalog string) {
	t.Helper()
	tmp := path + ".tmp"
	writeCatalog(t, tmp, catalog)
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("replacing catalog: %v", err)
	}
}

func TestPraxApp_WatchNeedsCatalog(t *testing.T) {
	cfg := newTestConfig(t, tripCatalog)
	cfg.Source = config.SourceConfig{Type: "memory"}
	a := newTestApp(t, cfg)

	if err := a.Watch(context.Background(), func([]*prax.PassResult, error) {}); err == nil {
		t.Error("Watch() on a memory source expected error")
	}
}

func TestNewPraxApp_BadConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"unknown database", func(c *config.Config) { c.Database.Type = "postgres" }},
		{"unknown source", func(c *config.Config) { c.Source.Type = "cloud" }},
		{"missing catalog", func(c *config.Config) { c.Source.CatalogPath = filepath.Join(c.BaseDir, "missing.yaml") }},
		{"unknown vault", func(c *config.Config) { c.Vaults[0].Type = "ftp" }},
		{"unknown encryption", func(c *config.Config) { c.Encryption.Type = "rot13" }},
		{"unknown snapshot vault", func(c *config.Config) { c.SnapshotVault = "attic" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(t, tripCatalog)
			tt.modify(cfg)
			a, err := NewPraxApp(context.Background(), cfg)
			if err == nil {
				a.Close()
				t.Fatal("NewPraxApp() expected error")
			}
		})
	}
}

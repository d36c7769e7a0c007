package database

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"prax-go/internal/model"
	"prax-go/internal/prax"
)

// stepClock advances by one minute on every reading.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
}

// newTestStore creates an in-memory store with the schema applied.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:", newStepClock())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if _, err := s.db.Exec(Schema); err != nil {
		s.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newFileStore creates a migrated file-backed store, which allows reads
// alongside an open transaction.
func newFileStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "prax.db"), newStepClock())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.MigrateUp(); err != nil {
		s.Close()
		t.Fatalf("MigrateUp() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// write runs fn in a committed transaction.
func write(t *testing.T, s *SQLiteStore, fn func(ctx context.Context, tx prax.StoreTx) error) {
	t.Helper()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		t.Fatalf("transaction body error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
}

func ptr(t time.Time) *time.Time { return &t }

var (
	jan1 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	feb1 = time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
)

func TestSQLiteStore_FindMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	asset, err := s.FindAsset(ctx, "nope")
	if err != nil || asset != nil {
		t.Errorf("FindAsset() = %v, %v, want nil, nil", asset, err)
	}
	album, err := s.FindAlbum(ctx, "nope")
	if err != nil || album != nil {
		t.Errorf("FindAlbum() = %v, %v, want nil, nil", album, err)
	}
	folder, err := s.FindFolder(ctx, "nope")
	if err != nil || folder != nil {
		t.Errorf("FindFolder() = %v, %v, want nil, nil", folder, err)
	}
}

func TestSQLiteStore_SaveAndFind(t *testing.T) {
	t.Run("asset", func(t *testing.T) {
		s := newTestStore(t)
		write(t, s, func(ctx context.Context, tx prax.StoreTx) error {
			return tx.SaveAsset(ctx, &model.Asset{Identifier: "p1", Kind: model.MediaVideo, CreatedAt: ptr(jan1)})
		})

		got, err := s.FindAsset(context.Background(), "p1")
		if err != nil {
			t.Fatalf("FindAsset() error = %v", err)
		}
		if got == nil {
			t.Fatal("FindAsset() = nil, want asset")
		}
		if got.Kind != model.MediaVideo {
			t.Errorf("Kind = %v, want %v", got.Kind, model.MediaVideo)
		}
		if got.CreatedAt == nil || !got.CreatedAt.Equal(jan1) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, jan1)
		}
		if got.ModifiedAt != nil {
			t.Errorf("ModifiedAt = %v, want nil", got.ModifiedAt)
		}
	})

	t.Run("upsert overwrites attributes", func(t *testing.T) {
		s := newTestStore(t)
		write(t, s, func(ctx context.Context, tx prax.StoreTx) error {
			return tx.SaveFolder(ctx, &model.Folder{Identifier: "f1", Title: "Old", Kind: model.GroupFolder})
		})
		write(t, s, func(ctx context.Context, tx prax.StoreTx) error {
			return tx.SaveFolder(ctx, &model.Folder{Identifier: "f1", Title: "New", Kind: model.GroupFolder, ChildCount: 4})
		})

		folders, err := s.ListFolders(context.Background(), model.Sort[model.FolderColumn]{})
		if err != nil {
			t.Fatalf("ListFolders() error = %v", err)
		}
		if len(folders) != 1 {
			t.Fatalf("len(folders) = %d, want 1", len(folders))
		}
		if folders[0].Title != "New" || folders[0].ChildCount != 4 {
			t.Errorf("folder = %+v, want title New with 4 children", folders[0])
		}
	})

	t.Run("album save keeps folder link", func(t *testing.T) {
		s := newTestStore(t)
		write(t, s, func(ctx context.Context, tx prax.StoreTx) error {
			if err := tx.SaveFolder(ctx, &model.Folder{Identifier: "f1", Kind: model.GroupFolder}); err != nil {
				return err
			}
			if err := tx.SaveAlbum(ctx, &model.Album{Identifier: "a1", Title: "Rome", Kind: model.CollectionAlbum}); err != nil {
				return err
			}
			return tx.AddEdge(ctx, model.RelationAlbumFolder, "a1", "f1")
		})
		write(t, s, func(ctx context.Context, tx prax.StoreTx) error {
			return tx.SaveAlbum(ctx, &model.Album{Identifier: "a1", Title: "Roma", Kind: model.CollectionAlbum, ItemCount: 3})
		})

		got, err := s.FindAlbum(context.Background(), "a1")
		if err != nil {
			t.Fatalf("FindAlbum() error = %v", err)
		}
		if got.FolderID != "f1" {
			t.Errorf("FolderID = %q, want f1", got.FolderID)
		}
		if got.Title != "Roma" || got.ItemCount != 3 {
			t.Errorf("album = %+v, want title Roma with 3 items", got)
		}
	})
}

func TestSQLiteStore_Edges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	write(t, s, func(ctx context.Context, tx prax.StoreTx) error {
		for _, id := range []string{"p1", "p2"} {
			if err := tx.SaveAsset(ctx, &model.Asset{Identifier: id, Kind: model.MediaImage}); err != nil {
				return err
			}
		}
		for _, id := range []string{"a1", "a2"} {
			if err := tx.SaveAlbum(ctx, &model.Album{Identifier: id, Kind: model.CollectionAlbum}); err != nil {
				return err
			}
		}
		edges := [][2]string{{"p1", "a1"}, {"p1", "a2"}, {"p2", "a1"}, {"p1", "a1"}}
		for _, e := range edges {
			if err := tx.AddEdge(ctx, model.RelationAssetAlbum, e[0], e[1]); err != nil {
				return err
			}
		}

		n, err := tx.CountEdges(ctx, model.RelationAssetAlbum, "p1")
		if err != nil {
			return err
		}
		if n != 2 {
			t.Errorf("CountEdges(p1) = %d, want 2", n)
		}
		return nil
	})

	targets, err := s.EdgeTargets(ctx, model.RelationAssetAlbum, "p1")
	if err != nil {
		t.Fatalf("EdgeTargets() error = %v", err)
	}
	if !slices.Equal(targets, []string{"a1", "a2"}) {
		t.Errorf("EdgeTargets(p1) = %v, want [a1 a2]", targets)
	}

	sources, err := s.EdgeSources(ctx, model.RelationAssetAlbum, "a1")
	if err != nil {
		t.Fatalf("EdgeSources() error = %v", err)
	}
	if !slices.Equal(sources, []string{"p1", "p2"}) {
		t.Errorf("EdgeSources(a1) = %v, want [p1 p2]", sources)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.AssetAlbums != 3 {
		t.Errorf("Stats().AssetAlbums = %d, want 3", stats.AssetAlbums)
	}
}

func TestSQLiteStore_AddEdgeRequiresRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	defer tx.Rollback()

	if err := tx.AddEdge(ctx, model.RelationAssetAlbum, "ghost", "also-ghost"); err == nil {
		t.Error("AddEdge() between missing records expected error")
	}
}

func TestSQLiteStore_DeferredLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// The album exists, the asset does not yet.
	write(t, s, func(ctx context.Context, tx prax.StoreTx) error {
		if err := tx.SaveAlbum(ctx, &model.Album{Identifier: "a1", Kind: model.CollectionAlbum}); err != nil {
			return err
		}
		if err := tx.DeferEdge(ctx, model.RelationAssetAlbum, "p1", "a1"); err != nil {
			return err
		}
		if err := tx.DeferEdge(ctx, model.RelationAssetAlbum, "p1", "a1"); err != nil {
			return err
		}
		return tx.DeferEdge(ctx, model.RelationAssetAlbum, "p1", "gone")
	})

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.DeferredLinks != 2 {
		t.Fatalf("DeferredLinks = %d, want 2", stats.DeferredLinks)
	}

	write(t, s, func(ctx context.Context, tx prax.StoreTx) error {
		if err := tx.SaveAsset(ctx, &model.Asset{Identifier: "p1", Kind: model.MediaImage}); err != nil {
			return err
		}
		n, err := tx.ResolveDeferred(ctx, model.RelationAssetAlbum, "p1")
		if err != nil {
			return err
		}
		if n != 1 {
			t.Errorf("ResolveDeferred() = %d, want 1", n)
		}
		return nil
	})

	targets, err := s.EdgeTargets(ctx, model.RelationAssetAlbum, "p1")
	if err != nil {
		t.Fatalf("EdgeTargets() error = %v", err)
	}
	if !slices.Equal(targets, []string{"a1"}) {
		t.Errorf("EdgeTargets(p1) = %v, want [a1]", targets)
	}

	stats, err = s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.DeferredLinks != 0 {
		t.Errorf("DeferredLinks after resolve = %d, want 0", stats.DeferredLinks)
	}
}

func TestSQLiteStore_DeferredFolderLink(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	write(t, s, func(ctx context.Context, tx prax.StoreTx) error {
		if err := tx.SaveFolder(ctx, &model.Folder{Identifier: "f1", Kind: model.GroupFolder}); err != nil {
			return err
		}
		return tx.DeferEdge(ctx, model.RelationAlbumFolder, "a1", "f1")
	})
	write(t, s, func(ctx context.Context, tx prax.StoreTx) error {
		if err := tx.SaveAlbum(ctx, &model.Album{Identifier: "a1", Kind: model.CollectionAlbum}); err != nil {
			return err
		}
		_, err := tx.ResolveDeferred(ctx, model.RelationAlbumFolder, "a1")
		return err
	})

	sources, err := s.EdgeSources(ctx, model.RelationAlbumFolder, "f1")
	if err != nil {
		t.Fatalf("EdgeSources() error = %v", err)
	}
	if !slices.Equal(sources, []string{"a1"}) {
		t.Errorf("EdgeSources(f1) = %v, want [a1]", sources)
	}
}

func TestSQLiteStore_ClearDeferredTo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	write(t, s, func(ctx context.Context, tx prax.StoreTx) error {
		for _, to := range []string{"a1", "a2"} {
			if err := tx.DeferEdge(ctx, model.RelationAssetAlbum, "p1", to); err != nil {
				return err
			}
		}
		if err := tx.DeferEdge(ctx, model.RelationAlbumFolder, "x", "a1"); err != nil {
			return err
		}
		return tx.ClearDeferredTo(ctx, model.RelationAssetAlbum, "a1")
	})

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.DeferredLinks != 2 {
		t.Errorf("DeferredLinks = %d, want 2 (other target and other relation kept)", stats.DeferredLinks)
	}

	write(t, s, func(ctx context.Context, tx prax.StoreTx) error {
		for _, a := range []string{"a1", "a2"} {
			if err := tx.SaveAlbum(ctx, &model.Album{Identifier: a, Kind: model.CollectionAlbum}); err != nil {
				return err
			}
		}
		if err := tx.SaveAsset(ctx, &model.Asset{Identifier: "p1", Kind: model.MediaImage}); err != nil {
			return err
		}
		n, err := tx.ResolveDeferred(ctx, model.RelationAssetAlbum, "p1")
		if err != nil {
			return err
		}
		if n != 1 {
			t.Errorf("ResolveDeferred() = %d, want 1", n)
		}
		return nil
	})

	targets, err := s.EdgeTargets(ctx, model.RelationAssetAlbum, "p1")
	if err != nil {
		t.Fatalf("EdgeTargets() error = %v", err)
	}
	if !slices.Equal(targets, []string{"a2"}) {
		t.Errorf("EdgeTargets(p1) = %v, want [a2]", targets)
	}
}

func TestSQLiteStore_Isolation(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := tx.SaveAsset(ctx, &model.Asset{Identifier: "p1", Kind: model.MediaImage}); err != nil {
		t.Fatalf("SaveAsset() error = %v", err)
	}

	before, err := s.FindAsset(ctx, "p1")
	if err != nil {
		t.Fatalf("FindAsset() error = %v", err)
	}
	if before != nil {
		t.Error("uncommitted asset visible to readers")
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}
	after, err := s.FindAsset(ctx, "p1")
	if err != nil {
		t.Fatalf("FindAsset() error = %v", err)
	}
	if after != nil {
		t.Error("rolled back asset persisted")
	}
}

func TestSQLiteStore_RollbackAfterCommit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := tx.SaveAsset(ctx, &model.Asset{Identifier: "p1"}); err != nil {
		t.Fatalf("SaveAsset() error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Errorf("Rollback() after Commit error = %v, want nil", err)
	}

	got, err := s.FindAsset(ctx, "p1")
	if err != nil || got == nil {
		t.Errorf("FindAsset() = %v, %v, want committed asset", got, err)
	}
}

func TestSQLiteStore_CommitFailureWrapsSentinel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}
	// The underlying transaction is already finished, so Commit must fail.
	if err := tx.Commit(); !errors.Is(err, prax.ErrStorageCommit) {
		t.Errorf("Commit() error = %v, want ErrStorageCommit", err)
	}
}

func TestSQLiteStore_ListSorted(t *testing.T) {
	s := newTestStore(t)
	write(t, s, func(ctx context.Context, tx prax.StoreTx) error {
		assets := []*model.Asset{
			{Identifier: "p1", Kind: model.MediaImage, CreatedAt: ptr(feb1)},
			{Identifier: "p2", Kind: model.MediaImage, CreatedAt: ptr(jan1)},
			{Identifier: "p3", Kind: model.MediaImage},
		}
		for _, a := range assets {
			if err := tx.SaveAsset(ctx, a); err != nil {
				return err
			}
		}
		return nil
	})

	got, err := s.ListAssets(context.Background(), model.Sort[model.AssetColumn]{Column: model.AssetByCreated, Descending: true})
	if err != nil {
		t.Fatalf("ListAssets() error = %v", err)
	}
	var ids []string
	for _, a := range got {
		ids = append(ids, a.Identifier)
	}
	if want := []string{"p1", "p2", "p3"}; !slices.Equal(ids, want) {
		t.Errorf("ListAssets(created desc) = %v, want %v", ids, want)
	}
}

func TestSQLiteStore_AlbumCounts(t *testing.T) {
	s := newTestStore(t)
	write(t, s, func(ctx context.Context, tx prax.StoreTx) error {
		for _, id := range []string{"p1", "p2", "p3"} {
			if err := tx.SaveAsset(ctx, &model.Asset{Identifier: id, Kind: model.MediaImage}); err != nil {
				return err
			}
		}
		if err := tx.SaveAlbum(ctx, &model.Album{Identifier: "a1", Kind: model.CollectionAlbum, ItemCount: 9}); err != nil {
			return err
		}
		if err := tx.SaveAlbum(ctx, &model.Album{Identifier: "smart", Kind: model.CollectionSmartAlbum, ItemCount: 5}); err != nil {
			return err
		}
		if err := tx.AddEdge(ctx, model.RelationAssetAlbum, "p1", "a1"); err != nil {
			return err
		}
		return tx.AddEdge(ctx, model.RelationAssetAlbum, "p2", "a1")
	})

	counts, err := s.AlbumCounts(context.Background())
	if err != nil {
		t.Fatalf("AlbumCounts() error = %v", err)
	}
	if counts.Total != 3 {
		t.Errorf("Total = %d, want 3", counts.Total)
	}
	if counts.Unassigned != 1 {
		t.Errorf("Unassigned = %d, want 1", counts.Unassigned)
	}
	if counts.PerAlbum["a1"] != 2 {
		t.Errorf("PerAlbum[a1] = %d, want 2 linked", counts.PerAlbum["a1"])
	}
	if counts.PerAlbum["smart"] != 5 {
		t.Errorf("PerAlbum[smart] = %d, want source count 5", counts.PerAlbum["smart"])
	}
}

func TestSQLiteStore_ImportRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	steps := []struct {
		id     string
		pass   model.Pass
		status string
	}{
		{"run-1", model.PassFolders, model.RunCompleted},
		{"run-2", model.PassAssets, model.RunFailed},
		{"run-3", model.PassAssets, model.RunCompleted},
		{"run-4", model.PassAssets, model.RunFailed},
	}
	for i, st := range steps {
		run, err := s.CreateImportRun(ctx, st.id, st.pass)
		if err != nil {
			t.Fatalf("CreateImportRun(%s) error = %v", st.id, err)
		}
		if run.Status != model.RunRunning {
			t.Errorf("new run status = %q, want %q", run.Status, model.RunRunning)
		}
		if err := s.FinishImportRun(ctx, st.id, st.status, i*10); err != nil {
			t.Fatalf("FinishImportRun(%s) error = %v", st.id, err)
		}
	}

	runs, err := s.ListImportRuns(ctx, 3)
	if err != nil {
		t.Fatalf("ListImportRuns() error = %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if want := []string{"run-4", "run-3", "run-2"}; !slices.Equal(ids, want) {
		t.Errorf("ListImportRuns(3) = %v, want %v", ids, want)
	}
	if runs[0].FinishedAt == nil {
		t.Error("finished run has nil FinishedAt")
	}

	last, err := s.LastCompletedRun(ctx, model.PassAssets)
	if err != nil {
		t.Fatalf("LastCompletedRun() error = %v", err)
	}
	if last == nil || last.ID != "run-3" || last.Records != 20 {
		t.Errorf("LastCompletedRun(assets) = %+v, want run-3 with 20 records", last)
	}

	none, err := s.LastCompletedRun(ctx, model.PassAlbums)
	if err != nil {
		t.Fatalf("LastCompletedRun() error = %v", err)
	}
	if none != nil {
		t.Errorf("LastCompletedRun(albums) = %+v, want nil", none)
	}

	n, err := s.CountCompletedRuns(ctx)
	if err != nil {
		t.Fatalf("CountCompletedRuns() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountCompletedRuns() = %d, want 2", n)
	}
}

func TestSQLiteStore_Reset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateImportRun(ctx, "run-1", model.PassAssets); err != nil {
		t.Fatalf("CreateImportRun() error = %v", err)
	}
	write(t, s, func(ctx context.Context, tx prax.StoreTx) error {
		if err := tx.SaveFolder(ctx, &model.Folder{Identifier: "f1", Kind: model.GroupFolder}); err != nil {
			return err
		}
		if err := tx.SaveAlbum(ctx, &model.Album{Identifier: "a1", Kind: model.CollectionAlbum}); err != nil {
			return err
		}
		if err := tx.SaveAsset(ctx, &model.Asset{Identifier: "p1"}); err != nil {
			return err
		}
		if err := tx.AddEdge(ctx, model.RelationAssetAlbum, "p1", "a1"); err != nil {
			return err
		}
		return tx.DeferEdge(ctx, model.RelationAssetAlbum, "p9", "a1")
	})

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if *stats != (model.Stats{}) {
		t.Errorf("Stats() after Reset = %+v, want all zero", stats)
	}

	runs, err := s.ListImportRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListImportRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("len(runs) after Reset = %d, want history kept", len(runs))
	}
}

func TestSQLiteStore_BackupTo(t *testing.T) {
	s := newTestStore(t)
	write(t, s, func(ctx context.Context, tx prax.StoreTx) error {
		return tx.SaveAsset(ctx, &model.Asset{Identifier: "p1", Kind: model.MediaImage})
	})

	destPath := filepath.Join(t.TempDir(), "backup.db")
	if err := s.BackupTo(destPath); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	backup, err := NewSQLiteStore(destPath, nil)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer backup.Close()

	got, err := backup.FindAsset(context.Background(), "p1")
	if err != nil {
		t.Fatalf("FindAsset() error = %v", err)
	}
	if got == nil {
		t.Error("backup does not contain the asset")
	}
}

func TestSQLiteStore_CheckMigrations(t *testing.T) {
	t.Run("fails on store without migrations applied", func(t *testing.T) {
		s, err := NewSQLiteStore(":memory:", nil)
		if err != nil {
			t.Fatalf("NewSQLiteStore() error = %v", err)
		}
		defer s.Close()

		if err := s.CheckMigrations(); err == nil {
			t.Error("CheckMigrations() expected error for missing schema")
		}
	})

	t.Run("passes after MigrateUp", func(t *testing.T) {
		s := newFileStore(t)
		if err := s.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
	})
}

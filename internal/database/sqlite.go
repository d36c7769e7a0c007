package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"prax-go/internal/database/migrations"
	"prax-go/internal/database/sqlc"
	"prax-go/internal/model"
	"prax-go/internal/prax"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const memoryPath = ":memory:"

// SQLiteStore implements prax.RecordStore on SQLite.
type SQLiteStore struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
	clock   prax.Clock
}

// NewSQLiteStore opens the store at path, or an in-memory store for ":memory:".
// The schema is not migrated; call MigrateUp or CheckMigrations.
func NewSQLiteStore(path string, clock prax.Clock) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	s := NewSQLiteStoreFromDB(db, clock)
	s.path = path
	return s, nil
}

// NewSQLiteStoreFromDB wraps an existing connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB, clock prax.Clock) *SQLiteStore {
	if clock == nil {
		clock = prax.RealClock{}
	}
	return &SQLiteStore{
		db:      db,
		queries: sqlc.New(db),
		clock:   clock,
	}
}

// OpenConnection opens a SQLite connection with foreign keys enforced.
// File-backed stores use WAL with a busy timeout so readers never see a pass
// in progress. In-memory stores are limited to one connection, since every
// new connection would open a fresh empty database.
func OpenConnection(path string) (*sql.DB, error) {
	dsn := path
	if path != memoryPath {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		dsn = path + sep + "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == memoryPath {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return db, nil
}

// DB exposes the underlying connection for migrations and tools.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Path returns the database file path (or ":memory:" for in-memory stores).
func (s *SQLiteStore) Path() string {
	return s.path
}

// MigrateUp applies pending schema migrations.
func (s *SQLiteStore) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Begin opens the write transaction for one import pass.
func (s *SQLiteStore) Begin(ctx context.Context) (prax.StoreTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return &sqliteTx{tx: tx, q: s.queries.WithTx(tx)}, nil
}

// Record reads

func (s *SQLiteStore) ListAssets(ctx context.Context, sort model.Sort[model.AssetColumn]) ([]*model.Asset, error) {
	rows, err := s.queries.ListAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	out := make([]*model.Asset, len(rows))
	for i := range rows {
		out[i] = assetFromRow(rows[i])
	}
	model.SortAssets(out, sort)
	return out, nil
}

func (s *SQLiteStore) ListAlbums(ctx context.Context, sort model.Sort[model.AlbumColumn]) ([]*model.Album, error) {
	rows, err := s.queries.ListAlbums(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	out := make([]*model.Album, len(rows))
	for i := range rows {
		out[i] = albumFromRow(rows[i])
	}
	model.SortAlbums(out, sort)
	return out, nil
}

func (s *SQLiteStore) ListFolders(ctx context.Context, sort model.Sort[model.FolderColumn]) ([]*model.Folder, error) {
	rows, err := s.queries.ListFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	out := make([]*model.Folder, len(rows))
	for i := range rows {
		out[i] = folderFromRow(rows[i])
	}
	model.SortFolders(out, sort)
	return out, nil
}

func (s *SQLiteStore) FindAsset(ctx context.Context, id string) (*model.Asset, error) {
	return findAsset(ctx, s.queries, id)
}

func (s *SQLiteStore) FindAlbum(ctx context.Context, id string) (*model.Album, error) {
	return findAlbum(ctx, s.queries, id)
}

func (s *SQLiteStore) FindFolder(ctx context.Context, id string) (*model.Folder, error) {
	return findFolder(ctx, s.queries, id)
}

func (s *SQLiteStore) EdgeTargets(ctx context.Context, rel model.Relation, fromID string) ([]string, error) {
	switch rel {
	case model.RelationAssetAlbum:
		ids, err := s.queries.ListAlbumIDsForAsset(ctx, fromID)
		if err != nil {
			return nil, fmt.Errorf("listing albums of asset %s: %w", fromID, err)
		}
		return ids, nil
	case model.RelationAlbumFolder:
		album, err := s.FindAlbum(ctx, fromID)
		if err != nil {
			return nil, err
		}
		if album == nil || album.FolderID == "" {
			return []string{}, nil
		}
		return []string{album.FolderID}, nil
	default:
		return nil, fmt.Errorf("unknown relation: %s", rel)
	}
}

func (s *SQLiteStore) EdgeSources(ctx context.Context, rel model.Relation, toID string) ([]string, error) {
	switch rel {
	case model.RelationAssetAlbum:
		ids, err := s.queries.ListAssetIDsForAlbum(ctx, toID)
		if err != nil {
			return nil, fmt.Errorf("listing assets of album %s: %w", toID, err)
		}
		return ids, nil
	case model.RelationAlbumFolder:
		ids, err := s.queries.ListAlbumIDsByFolder(ctx, nullString(toID))
		if err != nil {
			return nil, fmt.Errorf("listing albums of folder %s: %w", toID, err)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("unknown relation: %s", rel)
	}
}

// Aggregates

func (s *SQLiteStore) Stats(ctx context.Context) (*model.Stats, error) {
	type count struct {
		name  string
		query func(context.Context) (int64, error)
		dst   *int
	}
	var stats model.Stats
	counts := []count{
		{"assets", s.queries.CountAssets, &stats.Assets},
		{"albums", s.queries.CountAlbums, &stats.Albums},
		{"folders", s.queries.CountFolders, &stats.Folders},
		{"asset albums", s.queries.CountAssetAlbums, &stats.AssetAlbums},
		{"deferred links", s.queries.CountDeferredLinks, &stats.DeferredLinks},
	}
	for _, c := range counts {
		n, err := c.query(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", c.name, err)
		}
		*c.dst = int(n)
	}
	return &stats, nil
}

func (s *SQLiteStore) AlbumCounts(ctx context.Context) (*model.AlbumCounts, error) {
	total, err := s.queries.CountAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting assets: %w", err)
	}
	unassigned, err := s.queries.CountUnassignedAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting unassigned assets: %w", err)
	}
	rows, err := s.queries.ListAlbumMemberCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting album members: %w", err)
	}

	counts := &model.AlbumCounts{
		Total:      int(total),
		Unassigned: int(unassigned),
		PerAlbum:   make(map[string]int, len(rows)),
	}
	for _, r := range rows {
		// Smart album membership is not mirrored, so only the source count is known.
		if model.CollectionKind(r.Kind) == model.CollectionAlbum {
			counts.PerAlbum[r.Identifier] = int(r.Linked)
		} else {
			counts.PerAlbum[r.Identifier] = int(r.ItemCount)
		}
	}
	return counts, nil
}

// Import run history

func (s *SQLiteStore) CreateImportRun(ctx context.Context, id string, pass model.Pass) (*model.ImportRun, error) {
	run := &model.ImportRun{
		ID:        id,
		Pass:      pass,
		StartedAt: s.clock.Now(),
		Status:    model.RunRunning,
	}
	err := s.queries.InsertImportRun(ctx, sqlc.InsertImportRunParams{
		ID:        run.ID,
		Pass:      string(run.Pass),
		StartedAt: run.StartedAt,
		Status:    run.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("creating import run: %w", err)
	}
	return run, nil
}

func (s *SQLiteStore) FinishImportRun(ctx context.Context, id string, status string, records int) error {
	err := s.queries.FinishImportRun(ctx, sqlc.FinishImportRunParams{
		FinishedAt: sql.NullTime{Time: s.clock.Now(), Valid: true},
		Status:     status,
		Records:    int64(records),
		ID:         id,
	})
	if err != nil {
		return fmt.Errorf("finishing import run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListImportRuns(ctx context.Context, limit int) ([]*model.ImportRun, error) {
	rows, err := s.queries.ListImportRuns(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing import runs: %w", err)
	}
	out := make([]*model.ImportRun, len(rows))
	for i := range rows {
		out[i] = importRunFromRow(rows[i])
	}
	return out, nil
}

func (s *SQLiteStore) LastCompletedRun(ctx context.Context, pass model.Pass) (*model.ImportRun, error) {
	row, err := s.queries.GetLastCompletedRun(ctx, string(pass))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding last completed run: %w", err)
	}
	return importRunFromRow(row), nil
}

func (s *SQLiteStore) CountCompletedRuns(ctx context.Context) (int64, error) {
	n, err := s.queries.CountCompletedRuns(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting completed runs: %w", err)
	}
	return n, nil
}

// Reset removes every mirrored record in one transaction. Import history is kept.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"asset albums", qtx.DeleteAllAssetAlbums},
		{"deferred links", qtx.DeleteAllDeferredLinks},
		{"assets", qtx.DeleteAllAssets},
		{"albums", qtx.DeleteAllAlbums},
		{"folders", qtx.DeleteAllFolders},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("deleting %s: %w", step.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// BackupTo creates a complete copy of the store at destPath using VACUUM INTO.
// destPath must not exist or must be empty.
func (s *SQLiteStore) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// sqliteTx is one import pass. Every query runs on the transaction.
type sqliteTx struct {
	tx   *sql.Tx
	q    *sqlc.Queries
	done bool
}

func (t *sqliteTx) FindAsset(ctx context.Context, id string) (*model.Asset, error) {
	return findAsset(ctx, t.q, id)
}

func (t *sqliteTx) FindAlbum(ctx context.Context, id string) (*model.Album, error) {
	return findAlbum(ctx, t.q, id)
}

func (t *sqliteTx) FindFolder(ctx context.Context, id string) (*model.Folder, error) {
	return findFolder(ctx, t.q, id)
}

func (t *sqliteTx) SaveAsset(ctx context.Context, a *model.Asset) error {
	err := t.q.UpsertAsset(ctx, sqlc.UpsertAssetParams{
		Identifier: a.Identifier,
		Kind:       int64(a.Kind),
		CreatedAt:  nullTime(a.CreatedAt),
		ModifiedAt: nullTime(a.ModifiedAt),
		AlbumCount: int64(a.AlbumCount),
	})
	if err != nil {
		return fmt.Errorf("saving asset %s: %w", a.Identifier, err)
	}
	return nil
}

func (t *sqliteTx) SaveAlbum(ctx context.Context, a *model.Album) error {
	err := t.q.UpsertAlbum(ctx, sqlc.UpsertAlbumParams{
		Identifier: a.Identifier,
		Title:      nullString(a.Title),
		Kind:       int64(a.Kind),
		SubKind:    int64(a.SubKind),
		StartDate:  nullTime(a.StartDate),
		EndDate:    nullTime(a.EndDate),
		ItemCount:  int64(a.ItemCount),
	})
	if err != nil {
		return fmt.Errorf("saving album %s: %w", a.Identifier, err)
	}
	return nil
}

func (t *sqliteTx) SaveFolder(ctx context.Context, f *model.Folder) error {
	err := t.q.UpsertFolder(ctx, sqlc.UpsertFolderParams{
		Identifier: f.Identifier,
		Title:      nullString(f.Title),
		Kind:       int64(f.Kind),
		SubKind:    int64(f.SubKind),
		StartDate:  nullTime(f.StartDate),
		EndDate:    nullTime(f.EndDate),
		ChildCount: int64(f.ChildCount),
	})
	if err != nil {
		return fmt.Errorf("saving folder %s: %w", f.Identifier, err)
	}
	return nil
}

func (t *sqliteTx) AddEdge(ctx context.Context, rel model.Relation, fromID, toID string) error {
	var err error
	switch rel {
	case model.RelationAssetAlbum:
		err = t.q.InsertAssetAlbum(ctx, sqlc.InsertAssetAlbumParams{AssetID: fromID, AlbumID: toID})
	case model.RelationAlbumFolder:
		err = t.q.SetAlbumFolder(ctx, sqlc.SetAlbumFolderParams{FolderID: nullString(toID), Identifier: fromID})
	default:
		return fmt.Errorf("unknown relation: %s", rel)
	}
	if err != nil {
		return fmt.Errorf("adding %s edge %s -> %s: %w", rel, fromID, toID, err)
	}
	return nil
}

func (t *sqliteTx) CountEdges(ctx context.Context, rel model.Relation, fromID string) (int, error) {
	var n int64
	var err error
	switch rel {
	case model.RelationAssetAlbum:
		n, err = t.q.CountAlbumsForAsset(ctx, fromID)
	case model.RelationAlbumFolder:
		n, err = t.q.CountAlbumFolder(ctx, fromID)
	default:
		return 0, fmt.Errorf("unknown relation: %s", rel)
	}
	if err != nil {
		return 0, fmt.Errorf("counting %s edges of %s: %w", rel, fromID, err)
	}
	return int(n), nil
}

func (t *sqliteTx) DeferEdge(ctx context.Context, rel model.Relation, fromID, toID string) error {
	err := t.q.InsertDeferredLink(ctx, sqlc.InsertDeferredLinkParams{
		Relation: rel.String(),
		FromID:   fromID,
		ToID:     toID,
	})
	if err != nil {
		return fmt.Errorf("deferring %s edge %s -> %s: %w", rel, fromID, toID, err)
	}
	return nil
}

func (t *sqliteTx) ResolveDeferred(ctx context.Context, rel model.Relation, fromID string) (int, error) {
	targets, err := t.q.ListDeferredTargets(ctx, sqlc.ListDeferredTargetsParams{
		Relation: rel.String(),
		FromID:   fromID,
	})
	if err != nil {
		return 0, fmt.Errorf("listing deferred %s edges of %s: %w", rel, fromID, err)
	}

	linked := 0
	for _, toID := range targets {
		found, err := targetExists(ctx, t.q, rel.To(), toID)
		if err != nil {
			return linked, err
		}
		if found {
			if err := t.AddEdge(ctx, rel, fromID, toID); err != nil {
				return linked, err
			}
			linked++
		}
		// A target that has disappeared since the link was deferred is dropped.
		err = t.q.DeleteDeferredLink(ctx, sqlc.DeleteDeferredLinkParams{
			Relation: rel.String(),
			FromID:   fromID,
			ToID:     toID,
		})
		if err != nil {
			return linked, fmt.Errorf("clearing deferred %s edge %s -> %s: %w", rel, fromID, toID, err)
		}
	}
	return linked, nil
}

func (t *sqliteTx) ClearDeferredTo(ctx context.Context, rel model.Relation, toID string) error {
	err := t.q.DeleteDeferredLinksTo(ctx, sqlc.DeleteDeferredLinksToParams{
		Relation: rel.String(),
		ToID:     toID,
	})
	if err != nil {
		return fmt.Errorf("clearing deferred %s edges to %s: %w", rel, toID, err)
	}
	return nil
}

func (t *sqliteTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", prax.ErrStorageCommit, err)
	}
	t.done = true
	return nil
}

func (t *sqliteTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return nil
}

// Shared lookups and row conversion

func findAsset(ctx context.Context, q *sqlc.Queries, id string) (*model.Asset, error) {
	row, err := q.GetAsset(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding asset: %w", err)
	}
	return assetFromRow(row), nil
}

func findAlbum(ctx context.Context, q *sqlc.Queries, id string) (*model.Album, error) {
	row, err := q.GetAlbum(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding album: %w", err)
	}
	return albumFromRow(row), nil
}

func findFolder(ctx context.Context, q *sqlc.Queries, id string) (*model.Folder, error) {
	row, err := q.GetFolder(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding folder: %w", err)
	}
	return folderFromRow(row), nil
}

func targetExists(ctx context.Context, q *sqlc.Queries, kind model.Kind, id string) (bool, error) {
	switch kind {
	case model.KindAlbum:
		a, err := findAlbum(ctx, q, id)
		return a != nil, err
	case model.KindFolder:
		f, err := findFolder(ctx, q, id)
		return f != nil, err
	case model.KindAsset:
		a, err := findAsset(ctx, q, id)
		return a != nil, err
	default:
		return false, fmt.Errorf("unknown record kind: %s", kind)
	}
}

func assetFromRow(r sqlc.Asset) *model.Asset {
	return &model.Asset{
		Identifier: r.Identifier,
		Kind:       model.MediaKind(r.Kind),
		CreatedAt:  timePtr(r.CreatedAt),
		ModifiedAt: timePtr(r.ModifiedAt),
		AlbumCount: int(r.AlbumCount),
	}
}

func albumFromRow(r sqlc.Album) *model.Album {
	return &model.Album{
		Identifier: r.Identifier,
		Title:      r.Title.String,
		Kind:       model.CollectionKind(r.Kind),
		SubKind:    model.SubKind(r.SubKind),
		StartDate:  timePtr(r.StartDate),
		EndDate:    timePtr(r.EndDate),
		ItemCount:  int(r.ItemCount),
		FolderID:   r.FolderID.String,
	}
}

func folderFromRow(r sqlc.Folder) *model.Folder {
	return &model.Folder{
		Identifier: r.Identifier,
		Title:      r.Title.String,
		Kind:       model.GroupKind(r.Kind),
		SubKind:    model.SubKind(r.SubKind),
		StartDate:  timePtr(r.StartDate),
		EndDate:    timePtr(r.EndDate),
		ChildCount: int(r.ChildCount),
	}
}

func importRunFromRow(r sqlc.ImportRun) *model.ImportRun {
	return &model.ImportRun{
		ID:         r.ID,
		Pass:       model.Pass(r.Pass),
		StartedAt:  r.StartedAt,
		FinishedAt: timePtr(r.FinishedAt),
		Status:     r.Status,
		Records:    int(r.Records),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// Compile-time check that SQLiteStore implements prax.RecordStore
var _ prax.RecordStore = (*SQLiteStore)(nil)

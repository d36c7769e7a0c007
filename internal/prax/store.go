package prax

import (
	"context"

	"prax-go/internal/model"
)

// RecordStore is the local mirror of the source catalog.
// Reads observe only committed state. All writes happen inside a StoreTx.
type RecordStore interface {
	// Begin opens the write transaction for one import pass.
	Begin(ctx context.Context) (StoreTx, error)

	// ListAssets returns every asset in the requested order.
	ListAssets(ctx context.Context, sort model.Sort[model.AssetColumn]) ([]*model.Asset, error)

	// ListAlbums returns every album in the requested order.
	ListAlbums(ctx context.Context, sort model.Sort[model.AlbumColumn]) ([]*model.Album, error)

	// ListFolders returns every folder in the requested order.
	ListFolders(ctx context.Context, sort model.Sort[model.FolderColumn]) ([]*model.Folder, error)

	// FindAsset returns the asset with the identifier, or nil if absent.
	FindAsset(ctx context.Context, id string) (*model.Asset, error)

	// FindAlbum returns the album with the identifier, or nil if absent.
	FindAlbum(ctx context.Context, id string) (*model.Album, error)

	// FindFolder returns the folder with the identifier, or nil if absent.
	FindFolder(ctx context.Context, id string) (*model.Folder, error)

	// EdgeTargets returns the identifiers linked from fromID, sorted.
	EdgeTargets(ctx context.Context, rel model.Relation, fromID string) ([]string, error)

	// EdgeSources returns the identifiers linking to toID, sorted.
	EdgeSources(ctx context.Context, rel model.Relation, toID string) ([]string, error)

	// Stats returns record and edge totals.
	Stats(ctx context.Context) (*model.Stats, error)

	// AlbumCounts returns linked asset totals per album plus the overall and unassigned totals.
	AlbumCounts(ctx context.Context) (*model.AlbumCounts, error)

	// CreateImportRun records the start of a pass.
	CreateImportRun(ctx context.Context, id string, pass model.Pass) (*model.ImportRun, error)

	// FinishImportRun records the outcome of a pass.
	FinishImportRun(ctx context.Context, id string, status string, records int) error

	// ListImportRuns returns the most recent runs, newest first.
	ListImportRuns(ctx context.Context, limit int) ([]*model.ImportRun, error)

	// LastCompletedRun returns the newest completed run of a pass, or nil.
	LastCompletedRun(ctx context.Context, pass model.Pass) (*model.ImportRun, error)

	// CountCompletedRuns returns how many runs have completed.
	CountCompletedRuns(ctx context.Context) (int64, error)

	// Reset removes every mirrored record, edge and deferred link. History is kept.
	Reset(ctx context.Context) error

	// BackupTo writes a consistent copy of the store to destPath.
	BackupTo(destPath string) error

	// Close releases the store.
	Close() error
}

// StoreTx is the single atomic unit of work of an import pass.
// Nothing written through it is visible to readers until Commit.
type StoreTx interface {
	FindAsset(ctx context.Context, id string) (*model.Asset, error)
	FindAlbum(ctx context.Context, id string) (*model.Album, error)
	FindFolder(ctx context.Context, id string) (*model.Folder, error)

	// SaveAsset inserts or updates the asset's scalar attributes by identifier.
	SaveAsset(ctx context.Context, a *model.Asset) error

	// SaveAlbum inserts or updates the album's scalar attributes by identifier.
	// The folder back-reference is left untouched.
	SaveAlbum(ctx context.Context, a *model.Album) error

	// SaveFolder inserts or updates the folder's scalar attributes by identifier.
	SaveFolder(ctx context.Context, f *model.Folder) error

	// AddEdge links two existing records. Adding an existing edge is a no-op.
	AddEdge(ctx context.Context, rel model.Relation, fromID, toID string) error

	// CountEdges counts the edges leaving fromID.
	CountEdges(ctx context.Context, rel model.Relation, fromID string) (int, error)

	// DeferEdge remembers an edge whose source record does not exist yet.
	DeferEdge(ctx context.Context, rel model.Relation, fromID, toID string) error

	// ResolveDeferred turns the deferred edges leaving fromID into real edges
	// where the target exists and returns how many were linked.
	ResolveDeferred(ctx context.Context, rel model.Relation, fromID string) (int, error)

	// ClearDeferredTo drops the deferred edges pointing at toID.
	ClearDeferredTo(ctx context.Context, rel model.Relation, toID string) error

	// Commit makes the pass visible atomically.
	Commit() error

	// Rollback discards the pass. It is a no-op after Commit.
	Rollback() error
}

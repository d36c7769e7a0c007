package prax

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"prax-go/internal/model"
)

// ImportOptions tunes import behavior.
type ImportOptions struct {
	// DeferLinks records links whose counterpart is not mirrored yet and
	// completes them when a later pass creates it. When false, such links
	// are dropped and only a re-run of the earlier pass restores them.
	DeferLinks bool
}

// PassResult summarizes one import pass.
type PassResult struct {
	Pass     model.Pass
	RunID    string
	Records  int // records upserted
	Skipped  int // records skipped after a fetch or storage error
	Linked   int // edges established, including resolved deferred edges
	Deferred int // edges whose counterpart was missing
}

// Outcome is delivered by Start when a background pass ends.
type Outcome struct {
	Result *PassResult
	Err    error
}

// Importer reconciles the RecordStore against the Source, one record kind per pass.
// Each pass runs in a single store transaction.
type Importer struct {
	source   Source
	store    RecordStore
	reporter *Reporter
	opts     ImportOptions
	logger   Logger
	clock    Clock
	ids      IDGenerator
	metrics  Metrics
	flight   singleflight.Group
}

// NewImporter wires an Importer. Nil logger, clock, ids or metrics fall back to
// no-op or real implementations.
func NewImporter(source Source, store RecordStore, reporter *Reporter, opts ImportOptions, logger Logger, clock Clock, ids IDGenerator, metrics Metrics) *Importer {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Importer{
		source:   source,
		store:    store,
		reporter: reporter,
		opts:     opts,
		logger:   logger,
		clock:    clock,
		ids:      ids,
		metrics:  metrics,
	}
}

// ImportFolders runs the folder pass.
func (im *Importer) ImportFolders(ctx context.Context) (*PassResult, error) {
	return im.Run(ctx, model.PassFolders)
}

// ImportAlbums runs the album pass.
func (im *Importer) ImportAlbums(ctx context.Context) (*PassResult, error) {
	return im.Run(ctx, model.PassAlbums)
}

// ImportAssets runs the asset pass.
func (im *Importer) ImportAssets(ctx context.Context) (*PassResult, error) {
	return im.Run(ctx, model.PassAssets)
}

// ImportAll runs the folder, album and asset passes in order, stopping at the
// first failure. Each pass commits on its own.
func (im *Importer) ImportAll(ctx context.Context) ([]*PassResult, error) {
	var results []*PassResult
	for _, pass := range []model.Pass{model.PassFolders, model.PassAlbums, model.PassAssets} {
		res, err := im.Run(ctx, pass)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Start runs a pass on a new goroutine and delivers its outcome on the returned channel.
func (im *Importer) Start(ctx context.Context, pass model.Pass) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		res, err := im.Run(ctx, pass)
		ch <- Outcome{Result: res, Err: err}
		close(ch)
	}()
	return ch
}

// Run executes one pass and waits for it. A concurrent Run of the same pass
// joins the running one and shares its result; a different pass is rejected
// with ErrImportInProgress while one is running.
func (im *Importer) Run(ctx context.Context, pass model.Pass) (*PassResult, error) {
	body, err := im.passBody(pass)
	if err != nil {
		return nil, err
	}
	v, err, _ := im.flight.Do(string(pass), func() (any, error) {
		return im.run(ctx, pass, body)
	})
	res, _ := v.(*PassResult)
	return res, err
}

type passFunc func(ctx context.Context, tx StoreTx, res *PassResult) error

func (im *Importer) passBody(pass model.Pass) (passFunc, error) {
	switch pass {
	case model.PassFolders:
		return im.importFolders, nil
	case model.PassAlbums:
		return im.importAlbums, nil
	case model.PassAssets:
		return im.importAssets, nil
	default:
		return nil, fmt.Errorf("unknown import pass: %q", pass)
	}
}

func (im *Importer) run(ctx context.Context, pass model.Pass, body passFunc) (*PassResult, error) {
	if err := im.reporter.Begin(); err != nil {
		return nil, err
	}

	started := im.clock.Now()
	res := &PassResult{Pass: pass, RunID: im.ids.New()}
	im.logger.Info("import pass started", "pass", pass, "run", res.RunID)
	if _, err := im.store.CreateImportRun(ctx, res.RunID, pass); err != nil {
		im.logger.Warn("failed to record import run", "pass", pass, "error", err)
	}

	if err := im.transact(ctx, res, body); err != nil {
		im.logger.Error("import pass failed", "pass", pass, "error", err)
		im.reporter.Fail(err)
		im.finish(ctx, res, model.RunFailed, started)
		return res, err
	}

	completedAt := im.clock.Now()
	var stamp *time.Time
	if pass == model.PassAssets {
		stamp = &completedAt
	}
	im.reporter.Complete(completeMessage(pass), stamp)
	im.finish(ctx, res, model.RunCompleted, started)
	im.logger.Info("import pass completed",
		"pass", pass, "records", res.Records, "skipped", res.Skipped,
		"linked", res.Linked, "deferred", res.Deferred)
	return res, nil
}

func (im *Importer) transact(ctx context.Context, res *PassResult, body passFunc) error {
	tx, err := im.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting import transaction: %w", err)
	}
	defer tx.Rollback()

	if err := body(ctx, tx, res); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (im *Importer) finish(ctx context.Context, res *PassResult, status string, started time.Time) {
	if err := im.store.FinishImportRun(ctx, res.RunID, status, res.Records); err != nil {
		im.logger.Warn("failed to finish import run", "pass", res.Pass, "error", err)
	}
	im.metrics.RecordPass(ctx, PassSummary{
		Pass:     res.Pass,
		Status:   status,
		Records:  res.Records,
		Skipped:  res.Skipped,
		Linked:   res.Linked,
		Deferred: res.Deferred,
		Duration: im.clock.Now().Sub(started),
	})
}

func completeMessage(pass model.Pass) string {
	switch pass {
	case model.PassFolders:
		return "Folder import complete."
	case model.PassAlbums:
		return "Album import complete."
	default:
		return "Photo import complete."
	}
}

func (im *Importer) importFolders(ctx context.Context, tx StoreTx, res *PassResult) error {
	var groups []*CollectionGroup
	for _, kind := range []model.GroupKind{model.GroupFolder, model.GroupSmartFolder} {
		g, err := im.source.FetchCollectionGroups(ctx, kind, model.SubKindAny)
		if err != nil {
			return fmt.Errorf("%w: listing %s groups: %w", ErrSourceFetch, kind, err)
		}
		groups = append(groups, g...)
	}

	total := len(groups)
	im.reporter.SetTotal(total)
	im.reporter.SetMessage(fmt.Sprintf("Fetched %d Folders.", total))

	for i, g := range groups {
		im.reporter.Progress(fraction(i+1, total), 0, fmt.Sprintf("Importing Folder %d of %d.", i+1, total))

		children, err := im.source.FetchCollectionsInGroup(ctx, g.ID)
		if err != nil {
			im.skip(res, "failed to fetch albums in folder", "folder", g.ID, "error", err)
			continue
		}

		folder, err := tx.FindFolder(ctx, g.ID)
		if err != nil {
			im.skip(res, "failed to look up folder", "folder", g.ID, "error", err)
			continue
		}
		if folder == nil {
			folder = &model.Folder{Identifier: g.ID}
		}
		folder.Title = g.Title
		folder.Kind = g.Kind
		folder.SubKind = g.SubKind
		folder.StartDate = g.StartDate
		folder.EndDate = g.EndDate
		folder.ChildCount = len(children)

		if err := tx.SaveFolder(ctx, folder); err != nil {
			im.skip(res, "failed to save folder", "folder", g.ID, "error", err)
			continue
		}
		res.Records++

		im.clearDeferred(ctx, tx, model.RelationAlbumFolder, folder.Identifier)
		for _, child := range children {
			im.link(ctx, tx, res, model.RelationAlbumFolder, child.ID, folder.Identifier)
		}
	}
	return nil
}

func (im *Importer) importAlbums(ctx context.Context, tx StoreTx, res *PassResult) error {
	regular, err := im.source.FetchCollections(ctx, model.CollectionAlbum, model.SubKindAny)
	if err != nil {
		return fmt.Errorf("%w: listing albums: %w", ErrSourceFetch, err)
	}
	smart, err := im.source.FetchCollections(ctx, model.CollectionSmartAlbum, model.SubKindAny)
	if err != nil {
		return fmt.Errorf("%w: listing smart albums: %w", ErrSourceFetch, err)
	}

	collections := make([]*Collection, 0, len(regular)+len(smart))
	collections = append(collections, regular...)
	collections = append(collections, smart...)

	total := len(collections)
	im.reporter.SetTotal(total)
	im.reporter.SetMessage(fmt.Sprintf("Fetched %d Albums.", total))

	for i, c := range collections {
		outer := fraction(i+1, total)
		im.reporter.Progress(outer, 0, fmt.Sprintf("Importing Album %d of %d.", i+1, total))

		items, err := im.source.FetchItems(ctx, c.ID, AllItemsQuery)
		if err != nil {
			im.skip(res, "failed to fetch album items", "album", c.ID, "error", err)
			continue
		}

		album, err := tx.FindAlbum(ctx, c.ID)
		if err != nil {
			im.skip(res, "failed to look up album", "album", c.ID, "error", err)
			continue
		}
		if album == nil {
			album = &model.Album{Identifier: c.ID}
		}
		album.Title = c.Title
		album.Kind = c.Kind
		album.SubKind = c.SubKind
		album.StartDate = c.StartDate
		album.EndDate = c.EndDate
		album.ItemCount = len(items)

		if err := tx.SaveAlbum(ctx, album); err != nil {
			im.skip(res, "failed to save album", "album", c.ID, "error", err)
			continue
		}
		res.Records++
		im.resolveDeferred(ctx, tx, res, model.RelationAlbumFolder, album.Identifier)

		if !album.IsRegular() {
			continue
		}
		im.clearDeferred(ctx, tx, model.RelationAssetAlbum, album.Identifier)
		for j, it := range items {
			im.reporter.Progress(outer, fraction(j+1, len(items)), fmt.Sprintf("Importing Photo: %d of %d.", j+1, len(items)))
			im.link(ctx, tx, res, model.RelationAssetAlbum, it.ID, album.Identifier)
		}
	}
	return nil
}

func (im *Importer) importAssets(ctx context.Context, tx StoreTx, res *PassResult) error {
	items, err := im.source.FetchAllItems(ctx, AllItemsQuery)
	if err != nil {
		return fmt.Errorf("%w: listing items: %w", ErrSourceFetch, err)
	}

	total := len(items)
	im.reporter.SetTotal(total)
	im.reporter.SetMessage(fmt.Sprintf("Fetched %d Photos.", total))

	for i, it := range items {
		im.reporter.Progress(fraction(i+1, total), 0, fmt.Sprintf("Importing photo %d of %d.", i+1, total))

		asset, err := tx.FindAsset(ctx, it.ID)
		if err != nil {
			im.skip(res, "failed to look up asset", "asset", it.ID, "error", err)
			continue
		}
		if asset == nil {
			asset = &model.Asset{Identifier: it.ID}
		}
		asset.Kind = it.Kind
		asset.CreatedAt = it.CreatedAt
		asset.ModifiedAt = it.ModifiedAt

		if err := tx.SaveAsset(ctx, asset); err != nil {
			im.skip(res, "failed to save asset", "asset", it.ID, "error", err)
			continue
		}
		res.Records++
		im.resolveDeferred(ctx, tx, res, model.RelationAssetAlbum, asset.Identifier)

		count, err := tx.CountEdges(ctx, model.RelationAssetAlbum, asset.Identifier)
		if err != nil {
			im.logger.Warn("failed to count asset albums", "asset", it.ID, "error", err)
			continue
		}
		if count != asset.AlbumCount {
			asset.AlbumCount = count
			if err := tx.SaveAsset(ctx, asset); err != nil {
				im.logger.Warn("failed to save asset album count", "asset", it.ID, "error", err)
			}
		}
	}
	return nil
}

// link adds an edge if its source record is mirrored. Otherwise the edge is
// deferred or dropped depending on ImportOptions.DeferLinks.
func (im *Importer) link(ctx context.Context, tx StoreTx, res *PassResult, rel model.Relation, fromID, toID string) {
	found, err := exists(ctx, tx, rel.From(), fromID)
	if err != nil {
		im.logger.Warn("failed to look up link source", "relation", rel, "from", fromID, "error", err)
		return
	}
	if !found {
		if !im.opts.DeferLinks {
			im.logger.Debug("skipping link to unmirrored record", "relation", rel, "from", fromID, "to", toID)
			return
		}
		if err := tx.DeferEdge(ctx, rel, fromID, toID); err != nil {
			im.logger.Warn("failed to defer link", "relation", rel, "from", fromID, "to", toID, "error", err)
			return
		}
		res.Deferred++
		return
	}
	if err := tx.AddEdge(ctx, rel, fromID, toID); err != nil {
		im.logger.Warn("failed to add link", "relation", rel, "from", fromID, "to", toID, "error", err)
		return
	}
	res.Linked++
}

func (im *Importer) resolveDeferred(ctx context.Context, tx StoreTx, res *PassResult, rel model.Relation, fromID string) {
	if !im.opts.DeferLinks {
		return
	}
	n, err := tx.ResolveDeferred(ctx, rel, fromID)
	if err != nil {
		im.logger.Warn("failed to resolve deferred links", "relation", rel, "from", fromID, "error", err)
		return
	}
	res.Linked += n
}

// clearDeferred forgets what earlier runs deferred into toID; the current
// membership is deferred again by the links that follow.
func (im *Importer) clearDeferred(ctx context.Context, tx StoreTx, rel model.Relation, toID string) {
	if !im.opts.DeferLinks {
		return
	}
	if err := tx.ClearDeferredTo(ctx, rel, toID); err != nil {
		im.logger.Warn("failed to clear deferred links", "relation", rel, "to", toID, "error", err)
	}
}

func (im *Importer) skip(res *PassResult, msg string, args ...any) {
	res.Skipped++
	im.logger.Warn(msg, args...)
}

func exists(ctx context.Context, tx StoreTx, kind model.Kind, id string) (bool, error) {
	switch kind {
	case model.KindAsset:
		a, err := tx.FindAsset(ctx, id)
		return a != nil, err
	case model.KindAlbum:
		a, err := tx.FindAlbum(ctx, id)
		return a != nil, err
	case model.KindFolder:
		f, err := tx.FindFolder(ctx, id)
		return f != nil, err
	default:
		return false, fmt.Errorf("unknown record kind: %s", kind)
	}
}

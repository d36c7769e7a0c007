package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"prax-go/internal/config"
	"prax-go/internal/database"
	"prax-go/internal/encryption"
	"prax-go/internal/model"
	"prax-go/internal/photos"
	"prax-go/internal/prax"
	"prax-go/internal/telemetry"
	"prax-go/internal/vault"
)

// PraxApp is the application layer between the CLI and the prax package.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw CLI arguments, and releases resources on Close.
type PraxApp struct {
	cfg        *config.Config
	store      *database.SQLiteStore
	source     prax.Source
	dispatcher *prax.Dispatcher
	reporter   *prax.Reporter
	importer   *prax.Importer
	resolver   *prax.Resolver
	service    *prax.Service
	encryptor  prax.Encryptor
	telemetry  *telemetry.Provider
	logger     prax.Logger
	logFile    io.Closer
}

// NewPraxApp creates a fully wired PraxApp from the given config.
// The caller must call Close when done.
func NewPraxApp(ctx context.Context, cfg *config.Config) (*PraxApp, error) {
	opID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, cfg.Logging, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	a := &PraxApp{cfg: cfg, logger: logger, logFile: logFile}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *PraxApp) wire(ctx context.Context) error {
	cfg := a.cfg

	v, err := vault.SnapshotVault(ctx, cfg.Vaults, cfg.SnapshotVault)
	if err != nil {
		return fmt.Errorf("creating vault: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	a.encryptor = enc

	source, err := photos.NewSourceFromConfig(cfg.Source)
	if err != nil {
		return fmt.Errorf("creating source: %w", err)
	}
	a.source = source

	store, err := database.NewStoreFromConfig(cfg.Database, cfg.HostID, prax.RealClock{})
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	a.store = store

	tel, err := telemetry.Init(ctx, cfg.Telemetry, "prax")
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	a.telemetry = tel
	metrics, err := telemetry.NewPassMetrics(tel.Meter())
	if err != nil {
		return fmt.Errorf("creating pass metrics: %w", err)
	}

	a.dispatcher = prax.NewDispatcher()
	a.reporter = prax.NewReporter(a.dispatcher)

	last, err := store.LastCompletedRun(ctx, model.PassAssets)
	if err != nil {
		return fmt.Errorf("loading last completed import: %w", err)
	}
	if last != nil && last.FinishedAt != nil {
		a.reporter.SetLastCompleted(*last.FinishedAt)
	}

	a.importer = prax.NewImporter(source, store, a.reporter,
		prax.ImportOptions{DeferLinks: cfg.Import.DeferLinks},
		a.logger, prax.RealClock{}, prax.UUIDGenerator{}, metrics)
	a.resolver = prax.NewResolver(source, a.dispatcher, cfg.Resolver.Debounce(), a.logger)

	// Snapshots are sealed only once a key pair exists.
	var sealer prax.Encryptor
	if enc != nil && enc.IsConfigured() {
		sealer = enc
	}
	a.service = prax.NewService(store, v, sealer, cfg.HostID, a.logger)
	return nil
}

// Reporter exposes the import status for progress display.
func (a *PraxApp) Reporter() *prax.Reporter {
	return a.reporter
}

// Authorize requests library access and waits for the answer. The request is
// made once per app; later calls return the recorded answer.
func (a *PraxApp) Authorize(ctx context.Context) error {
	switch a.reporter.Status().State {
	case prax.StateWaitingForAuthorization:
	case prax.StateAuthorizationDenied:
		return prax.ErrAuthorizationDenied
	default:
		return nil
	}

	select {
	case status := <-prax.RequestAuthorization(ctx, a.source, a.reporter, a.logger):
		if status == prax.AccessDenied {
			return prax.ErrAuthorizationDenied
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Import runs the named pass ("folders", "albums", "assets") or all of them
// in order for "all".
func (a *PraxApp) Import(ctx context.Context, pass string) ([]*prax.PassResult, error) {
	if err := a.Authorize(ctx); err != nil {
		return nil, err
	}
	if pass == "all" {
		return a.importer.ImportAll(ctx)
	}
	res, err := a.importer.Run(ctx, model.Pass(pass))
	if err != nil {
		return nil, err
	}
	return []*prax.PassResult{res}, nil
}

// Status returns record totals and the last completed run per pass.
func (a *PraxApp) Status(ctx context.Context) (*prax.MirrorStatus, error) {
	return a.service.Status(ctx)
}

// History returns the most recent import runs.
func (a *PraxApp) History(ctx context.Context, limit int) ([]*model.ImportRun, error) {
	return a.service.History(ctx, limit)
}

// Reset clears every mirrored record.
func (a *PraxApp) Reset(ctx context.Context) error {
	return a.service.Reset(ctx)
}

// ListAssets returns mirrored assets sorted by the named column.
func (a *PraxApp) ListAssets(ctx context.Context, column string, desc bool) ([]*model.Asset, error) {
	col, err := model.ParseAssetColumn(column)
	if err != nil {
		return nil, err
	}
	return a.store.ListAssets(ctx, model.Sort[model.AssetColumn]{Column: col, Descending: desc})
}

// ListAlbums returns mirrored albums sorted by the named column.
func (a *PraxApp) ListAlbums(ctx context.Context, column string, desc bool) ([]*model.Album, error) {
	col, err := model.ParseAlbumColumn(column)
	if err != nil {
		return nil, err
	}
	return a.store.ListAlbums(ctx, model.Sort[model.AlbumColumn]{Column: col, Descending: desc})
}

// ListFolders returns mirrored folders sorted by the named column.
func (a *PraxApp) ListFolders(ctx context.Context, column string, desc bool) ([]*model.Folder, error) {
	col, err := model.ParseFolderColumn(column)
	if err != nil {
		return nil, err
	}
	return a.store.ListFolders(ctx, model.Sort[model.FolderColumn]{Column: col, Descending: desc})
}

// Collections lists the albums and smart albums a selection can name.
func (a *PraxApp) Collections(ctx context.Context) ([]*prax.Collection, error) {
	if err := a.Authorize(ctx); err != nil {
		return nil, err
	}
	return a.resolver.LoadCollections(ctx)
}

// Select resolves a selection payload such as "album:A1,none" to its items.
func (a *PraxApp) Select(ctx context.Context, payload string) ([]*prax.Item, error) {
	if err := a.Authorize(ctx); err != nil {
		return nil, err
	}
	if _, err := a.resolver.LoadCollections(ctx); err != nil {
		return nil, err
	}
	return a.resolver.Resolve(ctx, prax.DecodeSelection(payload))
}

// Counts computes the sidebar counts from the store, or from the source when live is set.
func (a *PraxApp) Counts(ctx context.Context, live bool, onUpdate func(model.AlbumCounts)) (*model.AlbumCounts, error) {
	if !live {
		return prax.NewStoreCounter(a.store, a.logger).Refresh(ctx, true, onUpdate)
	}
	if err := a.Authorize(ctx); err != nil {
		return nil, err
	}
	return prax.NewLiveCounter(a.source, a.logger).Refresh(ctx, true, onUpdate)
}

// SetupKeys generates the snapshot encryption key pair.
func (a *PraxApp) SetupKeys(passphrase string) error {
	if a.encryptor == nil {
		return fmt.Errorf("encryption is disabled in config")
	}
	if err := a.encryptor.Setup(passphrase); err != nil {
		return fmt.Errorf("setting up encryption keys: %w", err)
	}
	return nil
}

// PushSnapshot uploads the store to the configured vault.
func (a *PraxApp) PushSnapshot(ctx context.Context) (int64, error) {
	return a.service.PushSnapshot(ctx)
}

// PullSnapshot downloads the newest snapshot into destPath.
func (a *PraxApp) PullSnapshot(ctx context.Context, destPath string, passphrase func() (string, error)) error {
	return a.service.PullSnapshot(ctx, destPath, passphrase)
}

// Watch re-imports everything after the catalog file changes, until ctx is
// done. onImport receives the outcome of each re-import. A change seen while
// a re-import runs is imported again once it finishes.
func (a *PraxApp) Watch(ctx context.Context, onImport func([]*prax.PassResult, error)) error {
	catalog, ok := a.source.(*photos.CatalogSource)
	if !ok {
		return fmt.Errorf("watch needs a catalog source, have %q", a.cfg.Source.Type)
	}
	if err := a.Authorize(ctx); err != nil {
		return err
	}

	delay := a.cfg.Resolver.Debounce()
	if delay == 0 {
		delay = prax.DefaultDebounce
	}
	runner := newSerialRunner(func() {
		if err := catalog.Reload(); err != nil {
			a.logger.Error("failed to reload catalog", "error", err)
			onImport(nil, err)
			return
		}
		for {
			results, err := a.importer.ImportAll(ctx)
			if !errors.Is(err, prax.ErrImportInProgress) {
				onImport(results, err)
				return
			}
			// Started elsewhere, possibly from the old catalog.
			a.logger.Debug("import already running, retrying after it", "delay", delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	})

	a.logger.Info("watching catalog", "path", catalog.Path())
	return catalog.Watch(ctx, delay, runner.Trigger)
}

// Close releases all resources. It is safe to call on a partially wired app.
func (a *PraxApp) Close() error {
	var errs []error

	if a.resolver != nil {
		a.resolver.Cancel()
	}
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if a.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down telemetry: %w", err))
		}
		cancel()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing store: %w", err))
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return errors.Join(errs...)
}

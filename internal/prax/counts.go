package prax

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"golang.org/x/sync/singleflight"

	"prax-go/internal/model"
)

// Counter computes the item counts shown beside sidebar entries.
// Results are cached until a forced refresh; concurrent refreshes share one
// computation.
type Counter struct {
	count  func(ctx context.Context, onUpdate func(model.AlbumCounts)) (*model.AlbumCounts, error)
	logger Logger

	flight singleflight.Group
	mu     sync.Mutex
	cached *model.AlbumCounts
}

// NewStoreCounter counts from the mirrored store's aggregates.
func NewStoreCounter(store RecordStore, logger Logger) *Counter {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Counter{
		logger: logger,
		count: func(ctx context.Context, onUpdate func(model.AlbumCounts)) (*model.AlbumCounts, error) {
			counts, err := store.AlbumCounts(ctx)
			if err != nil {
				return nil, fmt.Errorf("reading album counts: %w", err)
			}
			onUpdate(*counts)
			return counts, nil
		},
	}
}

// NewLiveCounter counts by querying the source directly.
func NewLiveCounter(source Source, logger Logger) *Counter {
	if logger == nil {
		logger = NewNopLogger()
	}
	c := &Counter{logger: logger}
	c.count = func(ctx context.Context, onUpdate func(model.AlbumCounts)) (*model.AlbumCounts, error) {
		return c.countLive(ctx, source, onUpdate)
	}
	return c
}

// Refresh returns the counts, computing them if nothing is cached or force is
// set. onUpdate, if non-nil, receives partial results as they become known:
// the total first, then per-album counts, then the unassigned count. A caller
// that joins a refresh already in flight receives only the final counts.
func (c *Counter) Refresh(ctx context.Context, force bool, onUpdate func(model.AlbumCounts)) (*model.AlbumCounts, error) {
	if onUpdate == nil {
		onUpdate = func(model.AlbumCounts) {}
	}
	if !force {
		c.mu.Lock()
		cached := c.cached
		c.mu.Unlock()
		if cached != nil {
			onUpdate(*cached)
			return cached, nil
		}
	}

	ran := false
	v, err, _ := c.flight.Do("counts", func() (any, error) {
		ran = true
		counts, err := c.count(ctx, onUpdate)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cached = counts
		c.mu.Unlock()
		return counts, nil
	})
	if err != nil {
		c.logger.Error("failed to count items", "error", err)
		return nil, err
	}
	counts := v.(*model.AlbumCounts)
	if !ran {
		onUpdate(*counts)
	}
	return counts, nil
}

func (c *Counter) countLive(ctx context.Context, source Source, onUpdate func(model.AlbumCounts)) (*model.AlbumCounts, error) {
	counts := &model.AlbumCounts{PerAlbum: make(map[string]int)}
	publish := func() {
		snap := *counts
		snap.PerAlbum = maps.Clone(counts.PerAlbum)
		onUpdate(snap)
	}

	all, err := source.FetchAllItems(ctx, MediaQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching all items: %w", ErrSourceFetch, err)
	}
	counts.Total = len(all)
	publish()

	for _, kind := range []model.CollectionKind{model.CollectionAlbum, model.CollectionSmartAlbum} {
		cols, err := source.FetchCollections(ctx, kind, model.SubKindAny)
		if err != nil {
			return nil, fmt.Errorf("%w: listing %s collections: %w", ErrSourceFetch, kind, err)
		}
		for _, col := range cols {
			items, err := source.FetchItems(ctx, col.ID, MediaQuery)
			if err != nil {
				c.logger.Warn("failed to count album items", "album", col.ID, "error", err)
				continue
			}
			counts.PerAlbum[col.ID] = len(items)
		}
	}
	publish()

	for _, it := range all {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		albums, err := source.FindCollectionsContaining(ctx, it.ID, model.CollectionAlbum)
		if err != nil {
			c.logger.Warn("failed to check album membership", "item", it.ID, "error", err)
			continue
		}
		if len(albums) == 0 {
			counts.Unassigned++
		}
	}
	publish()
	return counts, nil
}

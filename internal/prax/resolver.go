package prax

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"prax-go/internal/model"
)

// DefaultDebounce is how long Select waits for further selection changes
// before resolving.
const DefaultDebounce = 150 * time.Millisecond

// ResolverState is what Resolver observers receive.
type ResolverState struct {
	Key     string
	Items   []*Item
	Loading bool
	Err     error
}

// Resolver turns selection sets into item lists, querying the source directly.
type Resolver struct {
	source     Source
	dispatcher *Dispatcher
	delay      time.Duration
	logger     Logger

	mu          sync.Mutex
	collections map[string]*Collection
	ordered     []*Collection
	lastKey     string
	items       []*Item
	itemsKey    string // selection items was computed for
	timer       *time.Timer
	cancel      context.CancelFunc
	generation  uint64

	nextID    atomic.Int64
	observers map[int64]func(ResolverState) // dispatcher goroutine only
}

// NewResolver creates a Resolver delivering results on d. A non-positive delay
// uses DefaultDebounce.
func NewResolver(source Source, d *Dispatcher, delay time.Duration, logger Logger) *Resolver {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Resolver{
		source:      source,
		dispatcher:  d,
		delay:       delay,
		logger:      logger,
		collections: make(map[string]*Collection),
		observers:   make(map[int64]func(ResolverState)),
	}
}

// LoadCollections refreshes the in-memory album snapshot: regular albums
// first, then smart albums, each group ordered by title.
func (r *Resolver) LoadCollections(ctx context.Context) ([]*Collection, error) {
	var all []*Collection
	for _, kind := range []model.CollectionKind{model.CollectionAlbum, model.CollectionSmartAlbum} {
		cols, err := r.source.FetchCollections(ctx, kind, model.SubKindAny)
		if err != nil {
			return nil, fmt.Errorf("%w: listing %s collections: %w", ErrSourceFetch, kind, err)
		}
		cols = slices.Clone(cols)
		slices.SortStableFunc(cols, byTitle)
		all = append(all, cols...)
	}

	byID := make(map[string]*Collection, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}

	r.mu.Lock()
	r.collections = byID
	r.ordered = all
	r.mu.Unlock()
	return all, nil
}

func byTitle(a, b *Collection) int {
	if c := strings.Compare(a.Title, b.Title); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// Collections returns the current album snapshot.
func (r *Resolver) Collections() []*Collection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.ordered)
}

// Items returns the last published result.
func (r *Resolver) Items() []*Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items
}

// Subscribe registers fn for resolver updates, delivered on the dispatcher.
func (r *Resolver) Subscribe(fn func(ResolverState)) (unsubscribe func()) {
	id := r.nextID.Add(1)
	r.dispatcher.Dispatch(func() { r.observers[id] = fn })

	var once sync.Once
	return func() {
		once.Do(func() {
			r.dispatcher.Dispatch(func() { delete(r.observers, id) })
		})
	}
}

// Select schedules resolution of set after the debounce delay, superseding any
// pending or running resolution. It returns false when the held non-empty
// result was computed for set, in which case nothing is scheduled and any
// resolution still pending for another selection is dropped.
func (r *Resolver) Select(set SelectionSet) bool {
	set = NewSelectionSet(set...)
	key := set.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if key == r.itemsKey && len(r.items) > 0 {
		if r.lastKey != key {
			r.stopLocked()
			r.generation++
			r.lastKey = key
			r.publishLocked(ResolverState{Key: key, Items: r.items})
		}
		return false
	}

	r.stopLocked()
	r.generation++
	r.lastKey = key

	if set.IsEmpty() {
		r.items = nil
		r.itemsKey = key
		r.publishLocked(ResolverState{Key: key})
		return true
	}

	gen := r.generation
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.publishLocked(ResolverState{Key: key, Items: r.items, Loading: true})
	r.timer = time.AfterFunc(r.delay, func() {
		r.compute(ctx, gen, key, set)
	})
	return true
}

// Cancel stops any pending or running resolution.
func (r *Resolver) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
	r.generation++
	r.lastKey = ""
}

func (r *Resolver) stopLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Resolver) compute(ctx context.Context, gen uint64, key string, set SelectionSet) {
	items, err := r.Resolve(ctx, set)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return
	}
	r.timer = nil
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if err != nil {
		r.logger.Error("failed to resolve selection", "selection", key, "error", err)
		r.publishLocked(ResolverState{Key: key, Items: r.items, Err: err})
		return
	}
	r.items = items
	r.itemsKey = key
	r.publishLocked(ResolverState{Key: key, Items: items})
}

func (r *Resolver) publishLocked(s ResolverState) {
	r.dispatcher.Dispatch(func() {
		for _, fn := range r.observers {
			fn(s)
		}
	})
}

// Resolve computes the items for set without debouncing: the union of every
// member's items, deduplicated by identifier, newest first.
func (r *Resolver) Resolve(ctx context.Context, set SelectionSet) ([]*Item, error) {
	set = NewSelectionSet(set...)
	if set.IsEmpty() {
		return nil, nil
	}
	if set.HasAllItems() {
		items, err := r.source.FetchAllItems(ctx, MediaQuery)
		if err != nil {
			return nil, fmt.Errorf("%w: fetching all items: %w", ErrSourceFetch, err)
		}
		return items, nil
	}

	union := make(map[string]*Item)
	for _, sel := range set {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var items []*Item
		var err error
		switch sel.Kind {
		case SelectUnassigned:
			items, err = r.unassigned(ctx)
		case SelectCollection:
			items, err = r.collectionItems(ctx, sel.ID)
		}
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			union[it.ID] = it
		}
	}

	out := slices.Collect(maps.Values(union))
	SortNewestFirst(out)
	return out, nil
}

func (r *Resolver) unassigned(ctx context.Context) ([]*Item, error) {
	all, err := r.source.FetchAllItems(ctx, MediaQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching all items: %w", ErrSourceFetch, err)
	}

	var out []*Item
	for _, it := range all {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		albums, err := r.source.FindCollectionsContaining(ctx, it.ID, model.CollectionAlbum)
		if err != nil {
			r.logger.Warn("failed to check album membership", "item", it.ID, "error", err)
			continue
		}
		if len(albums) == 0 {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *Resolver) collectionItems(ctx context.Context, id string) ([]*Item, error) {
	c, err := r.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	items, err := r.source.FetchItems(ctx, c.ID, MediaQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching items of %s: %w", ErrSourceFetch, id, err)
	}
	return items, nil
}

// lookup finds a collection in the snapshot, falling back to the source when
// the snapshot predates the selection.
func (r *Resolver) lookup(ctx context.Context, id string) (*Collection, error) {
	r.mu.Lock()
	c, ok := r.collections[id]
	r.mu.Unlock()
	if ok {
		return c, nil
	}

	found, err := r.source.FetchCollectionsByID(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("%w: fetching collection %s: %w", ErrSourceFetch, id, err)
	}
	switch len(found) {
	case 0:
		r.logger.Warn("selected album not found", "album", id)
		return nil, nil
	case 1:
		return found[0], nil
	default:
		r.logger.Warn("skipping ambiguous album", "album", id, "matches", len(found), "error", ErrLookupAmbiguity)
		return nil, nil
	}
}

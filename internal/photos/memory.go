// Package photos provides prax.Source implementations: an in-process catalog
// built in code, and a YAML catalog file backed by the same structure.
package photos

import (
	"context"
	"slices"
	"sync"
	"time"

	"prax-go/internal/model"
	"prax-go/internal/prax"
)

// Op names a Source method, for error injection and call counting.
type Op string

const (
	OpFetchAllItems             Op = "FetchAllItems"
	OpFetchItems                Op = "FetchItems"
	OpFetchCollections          Op = "FetchCollections"
	OpFetchCollectionGroups     Op = "FetchCollectionGroups"
	OpFetchCollectionsInGroup   Op = "FetchCollectionsInGroup"
	OpFindCollectionsContaining Op = "FindCollectionsContaining"
	OpFetchCollectionsByID      Op = "FetchCollectionsByID"
)

type album struct {
	col     prax.Collection
	members []string
}

type folder struct {
	group    prax.CollectionGroup
	children []string
}

type failure struct {
	op  Op
	key string
}

// MemorySource is an in-memory photo catalog.
// Collections are kept in insertion order and identifiers are not checked for
// uniqueness, so a test can model a source that reports one album twice.
type MemorySource struct {
	mu      sync.RWMutex
	access  prax.AccessStatus
	items   []*prax.Item
	byID    map[string]*prax.Item
	albums  []*album
	folders []*folder
	fail    map[failure]error
	calls   map[Op]int
}

// NewMemorySource returns an empty catalog that grants access.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		access: prax.AccessGranted,
		byID:   make(map[string]*prax.Item),
		fail:   make(map[failure]error),
		calls:  make(map[Op]int),
	}
}

// SetAccess sets the answer RequestAccess delivers.
func (s *MemorySource) SetAccess(status prax.AccessStatus) *MemorySource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = status
	return s
}

// AddItem adds an item. A zero created time is reported as unknown.
func (s *MemorySource) AddItem(id string, kind model.MediaKind, created time.Time) *MemorySource {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := &prax.Item{ID: id, Kind: kind}
	if !created.IsZero() {
		c := created
		it.CreatedAt = &c
		it.ModifiedAt = &c
	}
	s.items = append(s.items, it)
	s.byID[id] = it
	return s
}

// AddAlbum adds a regular album holding the given items.
func (s *MemorySource) AddAlbum(id, title string, itemIDs ...string) *MemorySource {
	return s.addCollection(prax.Collection{
		ID:      id,
		Title:   title,
		Kind:    model.CollectionAlbum,
		SubKind: model.SubKindRegular,
	}, itemIDs)
}

// AddSmartAlbum adds a computed album holding the given items.
func (s *MemorySource) AddSmartAlbum(id, title string, itemIDs ...string) *MemorySource {
	return s.addCollection(prax.Collection{
		ID:      id,
		Title:   title,
		Kind:    model.CollectionSmartAlbum,
		SubKind: model.SubKindGeneric,
	}, itemIDs)
}

func (s *MemorySource) addCollection(c prax.Collection, itemIDs []string) *MemorySource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.albums = append(s.albums, &album{col: c, members: slices.Clone(itemIDs)})
	return s
}

// AddFolder adds a folder holding the given albums.
func (s *MemorySource) AddFolder(id, title string, albumIDs ...string) *MemorySource {
	return s.addGroup(model.GroupFolder, model.SubKindRegular, id, title, albumIDs)
}

// AddSmartFolder adds a smart folder holding the given albums.
func (s *MemorySource) AddSmartFolder(id, title string, albumIDs ...string) *MemorySource {
	return s.addGroup(model.GroupSmartFolder, model.SubKindGeneric, id, title, albumIDs)
}

func (s *MemorySource) addGroup(kind model.GroupKind, sub model.SubKind, id, title string, albumIDs []string) *MemorySource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders = append(s.folders, &folder{
		group:    prax.CollectionGroup{ID: id, Title: title, Kind: kind, SubKind: sub},
		children: slices.Clone(albumIDs),
	})
	return s
}

// FailWith makes op return err. A non-empty key restricts the failure to calls
// about that identifier (collection, group or item); an empty key fails every call.
// A nil err clears the failure.
func (s *MemorySource) FailWith(op Op, key string, err error) *MemorySource {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := failure{op: op, key: key}
	if err == nil {
		delete(s.fail, f)
	} else {
		s.fail[f] = err
	}
	return s
}

// Calls returns how many times op has been called.
func (s *MemorySource) Calls(op Op) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

// begin counts the call and returns any injected failure. Callers hold mu.
func (s *MemorySource) begin(ctx context.Context, op Op, key string) error {
	s.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := s.fail[failure{op: op}]; ok {
		return err
	}
	if key != "" {
		if err, ok := s.fail[failure{op: op, key: key}]; ok {
			return err
		}
	}
	return nil
}

func (s *MemorySource) RequestAccess(ctx context.Context, done func(prax.AccessStatus)) {
	s.mu.RLock()
	status := s.access
	s.mu.RUnlock()
	go done(status)
}

func (s *MemorySource) FetchAllItems(ctx context.Context, q prax.ItemQuery) ([]*prax.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpFetchAllItems, ""); err != nil {
		return nil, err
	}
	return q.Apply(cloneItems(s.items)), nil
}

func (s *MemorySource) FetchItems(ctx context.Context, collectionID string, q prax.ItemQuery) ([]*prax.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpFetchItems, collectionID); err != nil {
		return nil, err
	}
	a := s.findAlbum(collectionID)
	if a == nil {
		return []*prax.Item{}, nil
	}
	return q.Apply(s.members(a)), nil
}

func (s *MemorySource) FetchCollections(ctx context.Context, kind model.CollectionKind, sub model.SubKind) ([]*prax.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpFetchCollections, ""); err != nil {
		return nil, err
	}
	out := []*prax.Collection{}
	for _, a := range s.albums {
		if a.col.Kind == kind && (sub == model.SubKindAny || a.col.SubKind == sub) {
			out = append(out, s.collection(a))
		}
	}
	return out, nil
}

func (s *MemorySource) FetchCollectionGroups(ctx context.Context, kind model.GroupKind, sub model.SubKind) ([]*prax.CollectionGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpFetchCollectionGroups, ""); err != nil {
		return nil, err
	}
	out := []*prax.CollectionGroup{}
	for _, f := range s.folders {
		if f.group.Kind == kind && (sub == model.SubKindAny || f.group.SubKind == sub) {
			g := f.group
			out = append(out, &g)
		}
	}
	return out, nil
}

func (s *MemorySource) FetchCollectionsInGroup(ctx context.Context, groupID string) ([]*prax.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpFetchCollectionsInGroup, groupID); err != nil {
		return nil, err
	}
	out := []*prax.Collection{}
	for _, f := range s.folders {
		if f.group.ID != groupID {
			continue
		}
		for _, id := range f.children {
			if a := s.findAlbum(id); a != nil {
				out = append(out, s.collection(a))
			}
		}
		break
	}
	return out, nil
}

func (s *MemorySource) FindCollectionsContaining(ctx context.Context, itemID string, kind model.CollectionKind) ([]*prax.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpFindCollectionsContaining, itemID); err != nil {
		return nil, err
	}
	out := []*prax.Collection{}
	for _, a := range s.albums {
		if a.col.Kind == kind && slices.Contains(a.members, itemID) {
			out = append(out, s.collection(a))
		}
	}
	return out, nil
}

func (s *MemorySource) FetchCollectionsByID(ctx context.Context, ids []string) ([]*prax.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpFetchCollectionsByID, ""); err != nil {
		return nil, err
	}
	out := []*prax.Collection{}
	for _, a := range s.albums {
		if slices.Contains(ids, a.col.ID) {
			out = append(out, s.collection(a))
		}
	}
	return out, nil
}

func (s *MemorySource) findAlbum(id string) *album {
	for _, a := range s.albums {
		if a.col.ID == id {
			return a
		}
	}
	return nil
}

// members returns copies of the album's items that exist in the catalog.
func (s *MemorySource) members(a *album) []*prax.Item {
	out := make([]*prax.Item, 0, len(a.members))
	for _, id := range a.members {
		if it, ok := s.byID[id]; ok {
			c := *it
			out = append(out, &c)
		}
	}
	return out
}

// collection returns a copy of the album with its date range derived from
// its members.
func (s *MemorySource) collection(a *album) *prax.Collection {
	c := a.col
	for _, it := range s.members(a) {
		if it.CreatedAt == nil {
			continue
		}
		if c.StartDate == nil || it.CreatedAt.Before(*c.StartDate) {
			c.StartDate = it.CreatedAt
		}
		if c.EndDate == nil || it.CreatedAt.After(*c.EndDate) {
			c.EndDate = it.CreatedAt
		}
	}
	return &c
}

func cloneItems(items []*prax.Item) []*prax.Item {
	out := make([]*prax.Item, len(items))
	for i, it := range items {
		c := *it
		out[i] = &c
	}
	return out
}

var _ prax.Source = (*MemorySource)(nil)

package prax

import (
	"context"
	"slices"
	"strings"
	"time"

	"prax-go/internal/model"
)

// Item is an asset as enumerated by the source.
type Item struct {
	ID         string
	Kind       model.MediaKind
	CreatedAt  *time.Time
	ModifiedAt *time.Time
}

// Collection is an album or smart album as enumerated by the source.
type Collection struct {
	ID        string
	Title     string
	Kind      model.CollectionKind
	SubKind   model.SubKind
	StartDate *time.Time
	EndDate   *time.Time
}

// CollectionGroup is a folder or smart folder as enumerated by the source.
type CollectionGroup struct {
	ID        string
	Title     string
	Kind      model.GroupKind
	SubKind   model.SubKind
	StartDate *time.Time
	EndDate   *time.Time
}

// ItemQuery filters and orders item fetches.
type ItemQuery struct {
	// MediaKinds restricts results to these kinds. Empty matches every kind.
	MediaKinds []model.MediaKind
	// NewestFirst orders by creation time descending. Otherwise source order is kept.
	NewestFirst bool
}

// AllItemsQuery matches every item in source order.
var AllItemsQuery = ItemQuery{}

// MediaQuery matches photos and videos, newest first.
var MediaQuery = ItemQuery{
	MediaKinds:  []model.MediaKind{model.MediaImage, model.MediaVideo},
	NewestFirst: true,
}

// Matches reports whether the item passes the media kind filter.
func (q ItemQuery) Matches(it *Item) bool {
	return len(q.MediaKinds) == 0 || slices.Contains(q.MediaKinds, it.Kind)
}

// Apply filters items and orders them as the query asks. The input is not modified.
func (q ItemQuery) Apply(items []*Item) []*Item {
	out := make([]*Item, 0, len(items))
	for _, it := range items {
		if q.Matches(it) {
			out = append(out, it)
		}
	}
	if q.NewestFirst {
		SortNewestFirst(out)
	}
	return out
}

// SortNewestFirst orders items by creation time descending. Items without a
// creation time sort last; ties fall back to identifier.
func SortNewestFirst(items []*Item) {
	slices.SortStableFunc(items, func(a, b *Item) int {
		if c := model.CompareTimes(b.CreatedAt, a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// AccessStatus is the outcome of a source access request.
type AccessStatus int

const (
	AccessDenied AccessStatus = iota
	AccessGranted
)

// Source is the external, read-only photo catalog being mirrored.
// Fetches block; callers run them from background goroutines.
type Source interface {
	// RequestAccess asks for permission to read the catalog. The result is
	// delivered to done later, possibly on another goroutine.
	RequestAccess(ctx context.Context, done func(AccessStatus))

	// FetchAllItems returns every item matching q.
	FetchAllItems(ctx context.Context, q ItemQuery) ([]*Item, error)

	// FetchItems returns the items inside a collection matching q.
	FetchItems(ctx context.Context, collectionID string, q ItemQuery) ([]*Item, error)

	// FetchCollections returns collections of a kind. SubKindAny matches every subtype.
	FetchCollections(ctx context.Context, kind model.CollectionKind, sub model.SubKind) ([]*Collection, error)

	// FetchCollectionGroups returns folders of a kind. SubKindAny matches every subtype.
	FetchCollectionGroups(ctx context.Context, kind model.GroupKind, sub model.SubKind) ([]*CollectionGroup, error)

	// FetchCollectionsInGroup returns the albums directly inside a folder.
	FetchCollectionsInGroup(ctx context.Context, groupID string) ([]*Collection, error)

	// FindCollectionsContaining returns the collections of a kind containing an item.
	FindCollectionsContaining(ctx context.Context, itemID string, kind model.CollectionKind) ([]*Collection, error)

	// FetchCollectionsByID returns the collections with the given identifiers.
	FetchCollectionsByID(ctx context.Context, ids []string) ([]*Collection, error)
}

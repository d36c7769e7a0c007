package model

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Kind enumerates the mirrored record types.
type Kind int

const (
	KindAsset Kind = iota
	KindAlbum
	KindFolder
)

func (k Kind) String() string {
	switch k {
	case KindAsset:
		return "asset"
	case KindAlbum:
		return "album"
	case KindFolder:
		return "folder"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Relation enumerates the edges between records.
type Relation int

const (
	// RelationAssetAlbum links an asset (from) to a regular album (to).
	RelationAssetAlbum Relation = iota
	// RelationAlbumFolder links an album (from) to its folder (to).
	RelationAlbumFolder
)

func (r Relation) String() string {
	switch r {
	case RelationAssetAlbum:
		return "asset_album"
	case RelationAlbumFolder:
		return "album_folder"
	default:
		return fmt.Sprintf("relation(%d)", int(r))
	}
}

// From returns the kind of record on the source side of the edge.
func (r Relation) From() Kind {
	if r == RelationAlbumFolder {
		return KindAlbum
	}
	return KindAsset
}

// To returns the kind of record on the target side of the edge.
func (r Relation) To() Kind {
	if r == RelationAlbumFolder {
		return KindFolder
	}
	return KindAlbum
}

// Sort selects a column and direction for listing records of one kind.
// The zero value sorts by identifier ascending.
type Sort[C ~int] struct {
	Column     C
	Descending bool
}

type column[T any] struct {
	name    string
	compare func(a, b *T) int
}

// AssetColumn is a sortable asset attribute.
type AssetColumn int

const (
	AssetByIdentifier AssetColumn = iota
	AssetByKind
	AssetByCreated
	AssetByModified
	AssetByAlbumCount
)

var assetColumns = [...]column[Asset]{
	AssetByIdentifier: {"identifier", func(a, b *Asset) int { return strings.Compare(a.Identifier, b.Identifier) }},
	AssetByKind:       {"kind", func(a, b *Asset) int { return cmp.Compare(a.Kind, b.Kind) }},
	AssetByCreated:    {"created", func(a, b *Asset) int { return CompareTimes(a.CreatedAt, b.CreatedAt) }},
	AssetByModified:   {"modified", func(a, b *Asset) int { return CompareTimes(a.ModifiedAt, b.ModifiedAt) }},
	AssetByAlbumCount: {"album_count", func(a, b *Asset) int { return cmp.Compare(a.AlbumCount, b.AlbumCount) }},
}

func (c AssetColumn) String() string { return assetColumns[c].name }

// AlbumColumn is a sortable album attribute.
type AlbumColumn int

const (
	AlbumByIdentifier AlbumColumn = iota
	AlbumByTitle
	AlbumByKind
	AlbumBySubKind
	AlbumByStartDate
	AlbumByEndDate
	AlbumByItemCount
)

var albumColumns = [...]column[Album]{
	AlbumByIdentifier: {"identifier", func(a, b *Album) int { return strings.Compare(a.Identifier, b.Identifier) }},
	AlbumByTitle:      {"title", func(a, b *Album) int { return strings.Compare(a.Title, b.Title) }},
	AlbumByKind:       {"kind", func(a, b *Album) int { return cmp.Compare(a.Kind, b.Kind) }},
	AlbumBySubKind:    {"sub_kind", func(a, b *Album) int { return cmp.Compare(a.SubKind, b.SubKind) }},
	AlbumByStartDate:  {"start_date", func(a, b *Album) int { return CompareTimes(a.StartDate, b.StartDate) }},
	AlbumByEndDate:    {"end_date", func(a, b *Album) int { return CompareTimes(a.EndDate, b.EndDate) }},
	AlbumByItemCount:  {"item_count", func(a, b *Album) int { return cmp.Compare(a.ItemCount, b.ItemCount) }},
}

func (c AlbumColumn) String() string { return albumColumns[c].name }

// FolderColumn is a sortable folder attribute.
type FolderColumn int

const (
	FolderByIdentifier FolderColumn = iota
	FolderByTitle
	FolderByKind
	FolderBySubKind
	FolderByStartDate
	FolderByEndDate
	FolderByChildCount
)

var folderColumns = [...]column[Folder]{
	FolderByIdentifier: {"identifier", func(a, b *Folder) int { return strings.Compare(a.Identifier, b.Identifier) }},
	FolderByTitle:      {"title", func(a, b *Folder) int { return strings.Compare(a.Title, b.Title) }},
	FolderByKind:       {"kind", func(a, b *Folder) int { return cmp.Compare(a.Kind, b.Kind) }},
	FolderBySubKind:    {"sub_kind", func(a, b *Folder) int { return cmp.Compare(a.SubKind, b.SubKind) }},
	FolderByStartDate:  {"start_date", func(a, b *Folder) int { return CompareTimes(a.StartDate, b.StartDate) }},
	FolderByEndDate:    {"end_date", func(a, b *Folder) int { return CompareTimes(a.EndDate, b.EndDate) }},
	FolderByChildCount: {"child_count", func(a, b *Folder) int { return cmp.Compare(a.ChildCount, b.ChildCount) }},
}

func (c FolderColumn) String() string { return folderColumns[c].name }

// ParseAssetColumn looks up an asset column by name.
func ParseAssetColumn(name string) (AssetColumn, error) {
	return parseColumn[AssetColumn](assetColumns[:], name, KindAsset)
}

// ParseAlbumColumn looks up an album column by name.
func ParseAlbumColumn(name string) (AlbumColumn, error) {
	return parseColumn[AlbumColumn](albumColumns[:], name, KindAlbum)
}

// ParseFolderColumn looks up a folder column by name.
func ParseFolderColumn(name string) (FolderColumn, error) {
	return parseColumn[FolderColumn](folderColumns[:], name, KindFolder)
}

func parseColumn[C ~int, T any](cols []column[T], name string, kind Kind) (C, error) {
	if name == "" {
		return 0, nil
	}
	for i, c := range cols {
		if c.name == name {
			return C(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s column: %q", kind, name)
}

// ColumnNames returns the column names available for a kind, in declaration order.
func ColumnNames(kind Kind) []string {
	switch kind {
	case KindAsset:
		return names(assetColumns[:])
	case KindAlbum:
		return names(albumColumns[:])
	default:
		return names(folderColumns[:])
	}
}

func names[T any](cols []column[T]) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out
}

// SortAssets orders assets in place. Ties fall back to identifier ascending.
func SortAssets(assets []*Asset, s Sort[AssetColumn]) {
	sortRecords(assets, assetColumns[s.Column], s.Descending, func(a *Asset) string { return a.Identifier })
}

// SortAlbums orders albums in place. Ties fall back to identifier ascending.
func SortAlbums(albums []*Album, s Sort[AlbumColumn]) {
	sortRecords(albums, albumColumns[s.Column], s.Descending, func(a *Album) string { return a.Identifier })
}

// SortFolders orders folders in place. Ties fall back to identifier ascending.
func SortFolders(folders []*Folder, s Sort[FolderColumn]) {
	sortRecords(folders, folderColumns[s.Column], s.Descending, func(f *Folder) string { return f.Identifier })
}

func sortRecords[T any](records []*T, col column[T], desc bool, id func(*T) string) {
	slices.SortStableFunc(records, func(a, b *T) int {
		c := col.compare(a, b)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(id(a), id(b))
	})
}

// CompareTimes orders optional timestamps with nil as the minimum.
func CompareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}

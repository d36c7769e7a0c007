package model

import (
	"testing"
	"time"
)

func ptime(t time.Time) *time.Time { return &t }

func TestSortAssets(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	newAssets := func() []*Asset {
		return []*Asset{
			{Identifier: "c", CreatedAt: ptime(day), AlbumCount: 1},
			{Identifier: "a", CreatedAt: nil, AlbumCount: 2},
			{Identifier: "b", CreatedAt: ptime(day.Add(time.Hour)), AlbumCount: 1},
		}
	}

	tests := []struct {
		name string
		sort Sort[AssetColumn]
		want []string
	}{
		{name: "zero value sorts by identifier", sort: Sort[AssetColumn]{}, want: []string{"a", "b", "c"}},
		{name: "created ascending puts nil first", sort: Sort[AssetColumn]{Column: AssetByCreated}, want: []string{"a", "c", "b"}},
		{name: "created descending puts nil last", sort: Sort[AssetColumn]{Column: AssetByCreated, Descending: true}, want: []string{"b", "c", "a"}},
		{name: "ties break by identifier", sort: Sort[AssetColumn]{Column: AssetByAlbumCount}, want: []string{"b", "c", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assets := newAssets()
			SortAssets(assets, tt.sort)
			for i, id := range tt.want {
				if assets[i].Identifier != id {
					t.Fatalf("position %d = %q, want %q", i, assets[i].Identifier, id)
				}
			}
		})
	}
}

func TestSortAlbums_ByTitle(t *testing.T) {
	albums := []*Album{
		{Identifier: "2", Title: "Zoo"},
		{Identifier: "1", Title: "Beach"},
		{Identifier: "3", Title: "Beach"},
	}
	SortAlbums(albums, Sort[AlbumColumn]{Column: AlbumByTitle})

	want := []string{"1", "3", "2"}
	for i, id := range want {
		if albums[i].Identifier != id {
			t.Errorf("position %d = %q, want %q", i, albums[i].Identifier, id)
		}
	}
}

func TestParseColumns(t *testing.T) {
	t.Run("known asset column", func(t *testing.T) {
		c, err := ParseAssetColumn("created")
		if err != nil {
			t.Fatalf("ParseAssetColumn() error = %v", err)
		}
		if c != AssetByCreated {
			t.Errorf("ParseAssetColumn() = %v, want %v", c, AssetByCreated)
		}
	})

	t.Run("empty name is identifier", func(t *testing.T) {
		c, err := ParseFolderColumn("")
		if err != nil {
			t.Fatalf("ParseFolderColumn() error = %v", err)
		}
		if c != FolderByIdentifier {
			t.Errorf("ParseFolderColumn() = %v, want identifier", c)
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		if _, err := ParseAlbumColumn("color"); err == nil {
			t.Error("ParseAlbumColumn() expected error, got nil")
		}
	})

	t.Run("names round trip", func(t *testing.T) {
		for _, kind := range []Kind{KindAsset, KindAlbum, KindFolder} {
			for _, name := range ColumnNames(kind) {
				var err error
				switch kind {
				case KindAsset:
					_, err = ParseAssetColumn(name)
				case KindAlbum:
					_, err = ParseAlbumColumn(name)
				case KindFolder:
					_, err = ParseFolderColumn(name)
				}
				if err != nil {
					t.Errorf("%s column %q did not parse: %v", kind, name, err)
				}
			}
		}
	})
}

func TestRelationEnds(t *testing.T) {
	if RelationAssetAlbum.From() != KindAsset || RelationAssetAlbum.To() != KindAlbum {
		t.Error("RelationAssetAlbum ends are wrong")
	}
	if RelationAlbumFolder.From() != KindAlbum || RelationAlbumFolder.To() != KindFolder {
		t.Error("RelationAlbumFolder ends are wrong")
	}
}

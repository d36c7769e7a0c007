package model

import "time"

// MediaKind is the media type of an asset as reported by the source.
type MediaKind int

const (
	MediaUnknown MediaKind = iota
	MediaImage
	MediaVideo
	MediaAudio
)

func (k MediaKind) String() string {
	switch k {
	case MediaImage:
		return "image"
	case MediaVideo:
		return "video"
	case MediaAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// ParseMediaKind maps a media kind name back to its value.
// Unrecognized names map to MediaUnknown.
func ParseMediaKind(s string) MediaKind {
	switch s {
	case "image":
		return MediaImage
	case "video":
		return MediaVideo
	case "audio":
		return MediaAudio
	default:
		return MediaUnknown
	}
}

// CollectionKind distinguishes user albums from computed smart albums.
type CollectionKind int

const (
	CollectionAlbum CollectionKind = iota + 1
	CollectionSmartAlbum
)

func (k CollectionKind) String() string {
	switch k {
	case CollectionAlbum:
		return "album"
	case CollectionSmartAlbum:
		return "smart_album"
	default:
		return "unknown"
	}
}

// GroupKind distinguishes plain folders from smart folders.
type GroupKind int

const (
	GroupFolder GroupKind = iota + 1
	GroupSmartFolder
)

func (k GroupKind) String() string {
	switch k {
	case GroupFolder:
		return "folder"
	case GroupSmartFolder:
		return "smart_folder"
	default:
		return "unknown"
	}
}

// SubKind is the source-defined subtype of a collection or folder.
// Values other than SubKindAny are stored verbatim.
type SubKind int

const (
	// SubKindAny matches every subtype in source queries. It is never stored.
	SubKindAny     SubKind = -1
	SubKindGeneric SubKind = 0
	SubKindRegular SubKind = 2
)

// Asset is a mirrored photo or video.
type Asset struct {
	Identifier string
	Kind       MediaKind
	CreatedAt  *time.Time
	ModifiedAt *time.Time
	AlbumCount int // snapshot of linked albums taken by the asset pass
}

// Album is a mirrored album or smart album.
type Album struct {
	Identifier string
	Title      string
	Kind       CollectionKind
	SubKind    SubKind
	StartDate  *time.Time
	EndDate    *time.Time
	ItemCount  int    // source-reported count at import time
	FolderID   string // empty when the album has no folder
}

// IsRegular reports whether asset edges are tracked for this album.
func (a *Album) IsRegular() bool {
	return a.Kind == CollectionAlbum
}

// Folder is a mirrored folder of albums.
type Folder struct {
	Identifier string
	Title      string
	Kind       GroupKind
	SubKind    SubKind
	StartDate  *time.Time
	EndDate    *time.Time
	ChildCount int
}

// Pass names one of the import passes.
type Pass string

const (
	PassFolders Pass = "folders"
	PassAlbums  Pass = "albums"
	PassAssets  Pass = "assets"
)

// Run statuses recorded for import runs.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// ImportRun is one recorded execution of an import pass.
type ImportRun struct {
	ID         string
	Pass       Pass
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
	Records    int
}

// Stats summarizes the mirrored store.
type Stats struct {
	Assets        int
	Albums        int
	Folders       int
	AssetAlbums   int
	DeferredLinks int
}

// AlbumCounts holds the aggregate counts shown next to sidebar entries.
type AlbumCounts struct {
	Total      int
	Unassigned int
	PerAlbum   map[string]int
}

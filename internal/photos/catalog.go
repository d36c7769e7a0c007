package photos

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"prax-go/internal/model"
	"prax-go/internal/prax"
)

// catalogFile is the YAML layout of a catalog:
//
//	access: granted
//	items:
//	  - id: I1
//	    kind: image
//	    created: 2024-01-01T09:00:00Z
//	albums:
//	  - id: A
//	    title: Rome
//	    items: [I1]
//	  - id: S
//	    title: Favorites
//	    smart: true
//	    items: [I1]
//	folders:
//	  - id: F
//	    title: Trips
//	    albums: [A]
type catalogFile struct {
	Access  string          `yaml:"access"`
	Items   []catalogItem   `yaml:"items"`
	Albums  []catalogAlbum  `yaml:"albums"`
	Folders []catalogFolder `yaml:"folders"`
}

type catalogItem struct {
	ID      string     `yaml:"id"`
	Kind    string     `yaml:"kind"`
	Created *time.Time `yaml:"created"`
}

type catalogAlbum struct {
	ID    string   `yaml:"id"`
	Title string   `yaml:"title"`
	Smart bool     `yaml:"smart"`
	Items []string `yaml:"items"`
}

type catalogFolder struct {
	ID     string   `yaml:"id"`
	Title  string   `yaml:"title"`
	Smart  bool     `yaml:"smart"`
	Albums []string `yaml:"albums"`
}

// ParseCatalog builds a MemorySource from a YAML catalog.
func ParseCatalog(r io.Reader) (*MemorySource, error) {
	var f catalogFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	src := NewMemorySource()
	switch f.Access {
	case "", "granted":
	case "denied":
		src.SetAccess(prax.AccessDenied)
	default:
		return nil, fmt.Errorf("unknown access value %q", f.Access)
	}

	for _, it := range f.Items {
		if it.ID == "" {
			return nil, fmt.Errorf("catalog item without id")
		}
		kind := model.MediaImage
		if it.Kind != "" {
			kind = model.ParseMediaKind(it.Kind)
		}
		var created time.Time
		if it.Created != nil {
			created = *it.Created
		}
		src.AddItem(it.ID, kind, created)
	}
	for _, a := range f.Albums {
		if a.Smart {
			src.AddSmartAlbum(a.ID, a.Title, a.Items...)
		} else {
			src.AddAlbum(a.ID, a.Title, a.Items...)
		}
	}
	for _, fo := range f.Folders {
		if fo.Smart {
			src.AddSmartFolder(fo.ID, fo.Title, fo.Albums...)
		} else {
			src.AddFolder(fo.ID, fo.Title, fo.Albums...)
		}
	}
	return src, nil
}

// CatalogSource serves a catalog file. Reload swaps in the file's current
// contents; calls already running finish against the previous contents.
type CatalogSource struct {
	path string

	mu      sync.RWMutex
	current *MemorySource
}

// LoadCatalog reads the catalog at path.
func LoadCatalog(path string) (*CatalogSource, error) {
	c := &CatalogSource{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the catalog file path.
func (c *CatalogSource) Path() string { return c.path }

// Reload re-reads the catalog file. On error the previous contents stay in use.
func (c *CatalogSource) Reload() error {
	f, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	src, err := ParseCatalog(f)
	if err != nil {
		return fmt.Errorf("reading catalog %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.current = src
	c.mu.Unlock()
	return nil
}

// Watch calls onChange, at most once per delay, after the catalog file is
// written, created or renamed. It blocks until ctx is done. The parent
// directory is watched so editors that replace the file are seen.
func (c *CatalogSource) Watch(ctx context.Context, delay time.Duration, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(c.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(c.path)
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(delay, onChange)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching catalog: %w", err)
		}
	}
}

func (c *CatalogSource) source() *MemorySource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *CatalogSource) RequestAccess(ctx context.Context, done func(prax.AccessStatus)) {
	c.source().RequestAccess(ctx, done)
}

func (c *CatalogSource) FetchAllItems(ctx context.Context, q prax.ItemQuery) ([]*prax.Item, error) {
	return c.source().FetchAllItems(ctx, q)
}

func (c *CatalogSource) FetchItems(ctx context.Context, collectionID string, q prax.ItemQuery) ([]*prax.Item, error) {
	return c.source().FetchItems(ctx, collectionID, q)
}

func (c *CatalogSource) FetchCollections(ctx context.Context, kind model.CollectionKind, sub model.SubKind) ([]*prax.Collection, error) {
	return c.source().FetchCollections(ctx, kind, sub)
}

func (c *CatalogSource) FetchCollectionGroups(ctx context.Context, kind model.GroupKind, sub model.SubKind) ([]*prax.CollectionGroup, error) {
	return c.source().FetchCollectionGroups(ctx, kind, sub)
}

func (c *CatalogSource) FetchCollectionsInGroup(ctx context.Context, groupID string) ([]*prax.Collection, error) {
	return c.source().FetchCollectionsInGroup(ctx, groupID)
}

func (c *CatalogSource) FindCollectionsContaining(ctx context.Context, itemID string, kind model.CollectionKind) ([]*prax.Collection, error) {
	return c.source().FindCollectionsContaining(ctx, itemID, kind)
}

func (c *CatalogSource) FetchCollectionsByID(ctx context.Context, ids []string) ([]*prax.Collection, error) {
	return c.source().FetchCollectionsByID(ctx, ids)
}

var _ prax.Source = (*CatalogSource)(nil)

package photos

import (
	"fmt"

	"prax-go/internal/config"
	"prax-go/internal/prax"
)

// NewSourceFromConfig creates the Source described by cfg.
func NewSourceFromConfig(cfg config.SourceConfig) (prax.Source, error) {
	switch cfg.Type {
	case "catalog":
		if cfg.CatalogPath == "" {
			return nil, fmt.Errorf("catalog_path required for catalog source")
		}
		return LoadCatalog(cfg.CatalogPath)
	case "memory":
		return NewMemorySource(), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", cfg.Type)
	}
}

// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

//go:embed scenarios.json
var embeddedCatalog []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in scenario catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embeddedCatalog)
		if err != nil {
			panic(fmt.Sprintf("embedded scenario catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadRegistry reads a catalog from disk.
func LoadRegistry(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a catalog and rejects empty or duplicate scenario ids.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse scenario catalog: %w", err)
	}

	seen := make(map[string]bool, len(c.Scenarios))
	for _, s := range c.Scenarios {
		if s.ID == "" {
			return nil, fmt.Errorf("scenario catalog: entry without id")
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("scenario catalog: duplicate id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return &c, nil
}

// IDs lists scenario ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Scenarios))
	for i, s := range c.Scenarios {
		ids[i] = s.ID
	}
	return ids
}

func (c *Catalog) Find(id string) (Scenario, bool) {
	for _, s := range c.Scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

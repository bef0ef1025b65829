package seeder

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// CatalogEntry is one essential of a seed catalog
type CatalogEntry struct {
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Unit        string `yaml:"unit"`
	Icon        string `yaml:"icon"`
	SamplePrice string `yaml:"sample_price"`
}

// samplePrice parses the optional sample price; an empty value means none
func (e CatalogEntry) samplePrice() (decimal.Decimal, bool, error) {
	if e.SamplePrice == "" {
		return decimal.Zero, false, nil
	}
	price, err := decimal.NewFromString(e.SamplePrice)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("essential %q: invalid sample_price: %w", e.Name, err)
	}
	return price, true, nil
}

// Catalog is the list of essentials the seeder guarantees to exist
type Catalog struct {
	Essentials []CatalogEntry `yaml:"essentials"`
}

// DefaultCatalog returns the catalog compiled into the binary
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file, falling back to the default catalog when path is empty
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog and rejects duplicate names
func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(catalog.Essentials))
	for _, entry := range catalog.Essentials {
		if _, dup := seen[entry.Name]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate essential %q", entry.Name)
		}
		seen[entry.Name] = struct{}{}

		if _, _, err := entry.samplePrice(); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
	}

	return &catalog, nil
}

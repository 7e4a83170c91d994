// Package feature defines the catalog of marketing features the portal
// offers. The catalog is embedded at build time; each new book gets one
// feature row per catalog entry.
package feature

import (
	_ "embed"
	"fmt"

	"github.com/inkpress/inkpress/internal/core/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Definition describes one marketing feature offered by the portal.
type Definition struct {
	Name          string               `yaml:"name"`
	Title         string               `yaml:"title"`
	Description   string               `yaml:"description"`
	DefaultStatus domain.FeatureStatus `yaml:"default_status"`
}

type catalogFile struct {
	Features []Definition `yaml:"features"`
}

var catalog []Definition

func init() {
	parsed, err := parseCatalog(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("feature: embedded catalog is invalid: %v", err))
	}
	catalog = parsed
}

func parseCatalog(raw []byte) ([]Definition, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	if len(file.Features) == 0 {
		return nil, fmt.Errorf("catalog has no features")
	}
	seen := make(map[string]bool, len(file.Features))
	for _, def := range file.Features {
		if def.Name == "" {
			return nil, fmt.Errorf("catalog entry with empty name")
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("duplicate catalog entry %q", def.Name)
		}
		if !def.DefaultStatus.IsValid() {
			return nil, fmt.Errorf("catalog entry %q has invalid default status %q", def.Name, def.DefaultStatus)
		}
		seen[def.Name] = true
	}
	return file.Features, nil
}

// Catalog returns the full feature catalog.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog definition for a feature name.
func Lookup(name string) (Definition, bool) {
	for _, def := range catalog {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}

// SeedFeatures builds the initial feature rows for a new book, one per
// catalog entry at its default status.
func SeedFeatures(bookID string) ([]domain.BookFeature, error) {
	features := make([]domain.BookFeature, 0, len(catalog))
	for _, def := range catalog {
		f, err := domain.NewBookFeature(bookID, def.Name, def.DefaultStatus)
		if err != nil {
			return nil, err
		}
		features = append(features, *f)
	}
	return features, nil
}

// Package catalog holds the seed board used for first loads and resets.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/fekuna/speakeasy-board-service/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

type document struct {
	Categories []categoryDoc `yaml:"categories"`
}

type categoryDoc struct {
	Key   string    `yaml:"key"`
	Label string    `yaml:"label"`
	Icon  string    `yaml:"icon"`
	Items []itemDoc `yaml:"items"`
}

type itemDoc struct {
	Key      string `yaml:"key"`
	Label    string `yaml:"label"`
	Icon     string `yaml:"icon"`
	ImageRef string `yaml:"image"`
}

// Catalog is an immutable seed hierarchy. Hierarchy hands out fresh copies.
type Catalog struct {
	h model.Hierarchy
}

// Default returns the built-in catalog. It panics if the embedded document is
// broken, which only a bad build can cause.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default: %v", err))
	}
	return c
}

// Load reads a catalog file, or the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	h := make(model.Hierarchy, 0, len(doc.Categories))
	for _, cd := range doc.Categories {
		cat := model.Category{
			Key:   cd.Key,
			Label: cd.Label,
			Icon:  cd.Icon,
			Items: make([]model.Item, 0, len(cd.Items)),
		}
		for _, id := range cd.Items {
			cat.Items = append(cat.Items, model.Item{
				Key:      id.Key,
				Label:    id.Label,
				Icon:     id.Icon,
				ImageRef: id.ImageRef,
			})
		}
		h = append(h, cat)
	}
	h.Reindex()

	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &Catalog{h: h}, nil
}

func (c *Catalog) Hierarchy() model.Hierarchy {
	return c.h.Clone()
}

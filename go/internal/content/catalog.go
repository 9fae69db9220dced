package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/impostor/go/internal/models"
)

//go:embed words.yaml
var defaultCatalog []byte

// Entry is one secret word and the weaker clue that may be shown to impostors.
type Entry struct {
	Word string `yaml:"word"`
	Hint string `yaml:"hint"`
}

// Catalog maps a category name to its pool of entries.
type Catalog struct {
	categories map[string][]Entry
	all        []Entry
}

var ErrEmptyCatalog = errors.New("word catalog is empty")

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a YAML catalog from path. An empty path yields the default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read word catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML document of the form
//
//	categories:
//	  animals:
//	    - word: Elephant
//	      hint: Big
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Categories map[string][]Entry `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse word catalog: %w", err)
	}
	return NewCatalog(doc.Categories)
}

// NewCatalog validates categories and builds the union pool used for "all".
func NewCatalog(categories map[string][]Entry) (*Catalog, error) {
	c := &Catalog{categories: make(map[string][]Entry, len(categories))}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || key == models.CategoryAll {
			return nil, fmt.Errorf("invalid category name %q", name)
		}
		for _, e := range categories[name] {
			if err := e.validate(); err != nil {
				return nil, fmt.Errorf("category %s: %w", name, err)
			}
		}
		c.categories[key] = append(c.categories[key], categories[name]...)
		c.all = append(c.all, categories[name]...)
	}

	if len(c.all) == 0 {
		return nil, ErrEmptyCatalog
	}
	return c, nil
}

func (e Entry) validate() error {
	if strings.TrimSpace(e.Word) == "" {
		return errors.New("entry with empty word")
	}
	if e.Hint == "" {
		return fmt.Errorf("word %q has no hint", e.Word)
	}
	// the hint must never give the word away
	if strings.Contains(strings.ToLower(e.Hint), strings.ToLower(e.Word)) {
		return fmt.Errorf("hint %q reveals word %q", e.Hint, e.Word)
	}
	return nil
}

// Categories returns the category names in sorted order.
func (c *Catalog) Categories() []string {
	names := make([]string, 0, len(c.categories))
	for name := range c.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether category is known. "all" is always known.
func (c *Catalog) Has(category string) bool {
	key := strings.ToLower(category)
	if key == models.CategoryAll {
		return true
	}
	_, ok := c.categories[key]
	return ok
}

// Pick returns a uniformly chosen entry from category, or from the union of
// every pool for "all". Unknown categories fall back to "all".
func (c *Catalog) Pick(category string, rng Rand) Entry {
	pool, ok := c.categories[strings.ToLower(category)]
	if !ok || len(pool) == 0 {
		pool = c.all
	}
	return pool[rng.IntN(len(pool))]
}

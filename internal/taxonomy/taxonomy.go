// Package taxonomy holds the category → subcategory → measurement-field tree
// shared by the intake form and the admin filters.
package taxonomy

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"tailor-app/internal/models"
)

//go:embed data/measurements.json
var embedded []byte

var ErrUnknownCategory = errors.New("unknown category")
var ErrUnknownSubcategory = errors.New("unknown subcategory")

// Taxonomy is immutable once loaded; lookups never mutate it.
type Taxonomy struct {
	Version    string            `json:"version"`
	Categories []models.Category `json:"categories"`
}

// Default returns the taxonomy shipped with the binary.
func Default() (*Taxonomy, error) {
	return Parse(embedded)
}

// Load reads a taxonomy file, falling back to the embedded one when path is empty.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Taxonomy, error) {
	t := new(Taxonomy)
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Taxonomy) validate() error {
	if len(t.Categories) == 0 {
		return errors.New("taxonomy has no categories")
	}
	categoryIDs := make(map[string]struct{}, len(t.Categories))
	for _, c := range t.Categories {
		if strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.Name) == "" {
			return errors.New("category id and name are required")
		}
		if _, dup := categoryIDs[c.ID]; dup {
			return fmt.Errorf("duplicate category id %q", c.ID)
		}
		categoryIDs[c.ID] = struct{}{}

		subIDs := make(map[string]struct{}, len(c.Subcategories))
		for _, s := range c.Subcategories {
			if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Name) == "" {
				return fmt.Errorf("category %q: subcategory id and name are required", c.ID)
			}
			if _, dup := subIDs[s.ID]; dup {
				return fmt.Errorf("category %q: duplicate subcategory id %q", c.ID, s.ID)
			}
			subIDs[s.ID] = struct{}{}

			keys := make(map[string]struct{}, len(s.Measurements))
			for _, m := range s.Measurements {
				if strings.TrimSpace(m.Key) == "" {
					return fmt.Errorf("%s/%s: measurement key is required", c.ID, s.ID)
				}
				if _, dup := keys[m.Key]; dup {
					return fmt.Errorf("%s/%s: duplicate measurement key %q", c.ID, s.ID, m.Key)
				}
				keys[m.Key] = struct{}{}
			}
		}
	}
	return nil
}

func (t *Taxonomy) Category(id string) (models.Category, error) {
	for _, c := range t.Categories {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Category{}, fmt.Errorf("%w: %q", ErrUnknownCategory, id)
}

func (t *Taxonomy) Subcategory(categoryID, subcategoryID string) (models.Subcategory, error) {
	c, err := t.Category(categoryID)
	if err != nil {
		return models.Subcategory{}, err
	}
	for _, s := range c.Subcategories {
		if s.ID == subcategoryID {
			return s, nil
		}
	}
	return models.Subcategory{}, fmt.Errorf("%w: %q in %q", ErrUnknownSubcategory, subcategoryID, categoryID)
}

// ResolveSubcategory finds a subcategory by display name first, then by id.
// Stored orders carry the display name.
func (t *Taxonomy) ResolveSubcategory(categoryID, nameOrID string) (models.Subcategory, error) {
	c, err := t.Category(categoryID)
	if err != nil {
		return models.Subcategory{}, err
	}
	for _, s := range c.Subcategories {
		if s.Name == nameOrID {
			return s, nil
		}
	}
	return t.Subcategory(categoryID, nameOrID)
}

// SubcategoryName maps a subcategory id to its display name. ok is false when
// the pair is not in the taxonomy.
func (t *Taxonomy) SubcategoryName(categoryID, subcategoryID string) (string, bool) {
	s, err := t.Subcategory(categoryID, subcategoryID)
	if err != nil {
		return "", false
	}
	return s.Name, true
}

// Package seed loads items from YAML files into a store.
//
// A seed file looks like:
//
//	items:
//	  - name: Impreza
//	    year: 2023
//	    price: 120000.00
//	    description: Sedan 2.0 CVT
//	    image_url: https://example.com/impreza.jpg
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/N474NR4/UCHI-Subaru/internal/model"
	"github.com/N474NR4/UCHI-Subaru/internal/store"
)

type file struct {
	Items []entry `yaml:"items"`
}

type entry struct {
	Name        string  `yaml:"name"`
	Year        int     `yaml:"year"`
	Price       float64 `yaml:"price"`
	Description string  `yaml:"description"`
	ImageURL    string  `yaml:"image_url"`
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(r io.Reader) ([]model.Item, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}

	items := make([]model.Item, 0, len(f.Items))
	for i, e := range f.Items {
		item := model.Item{
			Name:        e.Name,
			Year:        e.Year,
			Price:       e.Price,
			Description: model.OptionalText(e.Description),
			ImageRef:    model.OptionalText(e.ImageURL),
		}
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// LoadFile parses the seed file at path.
func LoadFile(path string) ([]model.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Apply creates the items in order and returns their ids. It stops at the
// first failure; items created before it remain.
func Apply(ctx context.Context, s *store.Store, items []model.Item) ([]int64, error) {
	ids := make([]int64, 0, len(items))
	for i, item := range items {
		id, err := s.Create(ctx, item)
		if err != nil {
			return ids, fmt.Errorf("creating item %d (%s): %w", i+1, item.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

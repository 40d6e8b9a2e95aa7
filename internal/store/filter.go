package store

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/N474NR4/UCHI-Subaru/internal/model"
)

// Filter returns the items whose name contains query, comparing case-folded
// text. An empty query returns items unchanged. The input is never modified.
func Filter(items []model.Item, query string) []model.Item {
	if query == "" {
		return items
	}

	fold := cases.Fold()
	needle := fold.String(query)

	matched := make([]model.Item, 0, len(items))
	for _, item := range items {
		if strings.Contains(fold.String(item.Name), needle) {
			matched = append(matched, item)
		}
	}
	return matched
}

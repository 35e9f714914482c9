package search

import (
	"strings"

	"github.com/ecofinds/ecofinds-core/pkg/db/models"
)

// Match returns the products whose title, description or category contains
// query, ignoring case, in catalog order. A blank query matches nothing.
func Match(products []models.Product, query string) []models.Product {
	needle := strings.ToLower(strings.TrimSpace(query))
	out := []models.Product{}
	if needle == "" {
		return out
	}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) ||
			strings.Contains(strings.ToLower(string(p.Category)), needle) {
			out = append(out, p)
		}
	}
	return out
}

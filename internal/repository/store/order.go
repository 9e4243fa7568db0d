package store

import (
	"sort"
	"strings"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

// SortProducts orders products the way the SQL backends do: category,
// subcategory, dimension, name, with missing values last.
func SortProducts(products []models.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if c := compareOptional(a.Subcategory, b.Subcategory); c != 0 {
			return c < 0
		}
		if c := compareOptional(a.Dimension, b.Dimension); c != 0 {
			return c < 0
		}
		return a.Name < b.Name
	})
}

// MatchesQuery applies a ProductQuery to a single product in memory.
func MatchesQuery(p models.Product, query models.ProductQuery) bool {
	if query.Category != "" && p.Category != query.Category {
		return false
	}
	if !query.Subcategory.Matches(p.Subcategory) || !query.Dimension.Matches(p.Dimension) {
		return false
	}
	if query.NameLike != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(query.NameLike)) {
		return false
	}
	return true
}

func compareOptional(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return strings.Compare(*a, *b)
}

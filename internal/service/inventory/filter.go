package inventory

import (
	"strconv"
	"strings"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

// Result is the presentation derived from a product collection and a query.
// AutoExpand is set when a non-empty query matched exactly one product.
type Result struct {
	Query      string           `json:"query"`
	Searching  bool             `json:"searching"`
	Filtered   []models.Product `json:"filtered"`
	Grouped    Grouping         `json:"grouped"`
	AutoExpand *Expansion       `json:"auto_expand,omitempty"`
}

// Expansion names the group a caller should open for a single match.
type Expansion struct {
	ProductID   int64  `json:"product_id"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Dimension   string `json:"dimension"`
}

// Grouping is category -> subcategory -> dimension -> products, each level in
// first-seen order of the input.
type Grouping struct {
	Categories []CategoryGroup `json:"categories"`
}

// CategoryGroup is one category bucket.
type CategoryGroup struct {
	Name          string             `json:"name"`
	Subcategories []SubcategoryGroup `json:"subcategories"`
}

// SubcategoryGroup is one subcategory bucket inside a category.
type SubcategoryGroup struct {
	Name       string           `json:"name"`
	Dimensions []DimensionGroup `json:"dimensions"`
}

// DimensionGroup holds the products sharing a dimension tag.
type DimensionGroup struct {
	Name     string           `json:"name"`
	Products []models.Product `json:"products"`
}

// Len counts the grouped products.
func (g Grouping) Len() int {
	n := 0
	for _, c := range g.Categories {
		for _, s := range c.Subcategories {
			for _, d := range s.Dimensions {
				n += len(d.Products)
			}
		}
	}
	return n
}

// Category returns the named category group.
func (g Grouping) Category(name string) (CategoryGroup, bool) {
	for _, c := range g.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryGroup{}, false
}

// FilterAndGroup filters products by query and groups the matches.
//
// A query made only of digits is an exact product-id lookup, which is what a
// scanned QR label carries. Any other query is split into keywords that must
// all occur in the product's search text. An empty query keeps everything.
func FilterAndGroup(products []models.Product, query string) Result {
	term := strings.TrimSpace(query)
	match := matcher(term)

	filtered := make([]models.Product, 0, len(products))
	for _, p := range products {
		if match(p) {
			filtered = append(filtered, p)
		}
	}

	res := Result{
		Query:     term,
		Searching: term != "",
		Filtered:  filtered,
		Grouped:   Group(filtered),
	}
	if res.Searching && len(filtered) == 1 {
		p := filtered[0]
		res.AutoExpand = &Expansion{
			ProductID:   p.ID,
			Category:    p.Category,
			Subcategory: p.SubcategoryLabel(),
			Dimension:   p.DimensionLabel(),
		}
	}
	return res
}

// Group builds the three-level grouping preserving input order.
func Group(products []models.Product) Grouping {
	var g Grouping
	catIdx := map[string]int{}
	subIdx := map[[2]string]int{}
	dimIdx := map[[3]string]int{}

	for _, p := range products {
		cat, sub, dim := p.Category, p.SubcategoryLabel(), p.DimensionLabel()

		ci, ok := catIdx[cat]
		if !ok {
			ci = len(g.Categories)
			catIdx[cat] = ci
			g.Categories = append(g.Categories, CategoryGroup{Name: cat})
		}
		c := &g.Categories[ci]

		si, ok := subIdx[[2]string{cat, sub}]
		if !ok {
			si = len(c.Subcategories)
			subIdx[[2]string{cat, sub}] = si
			c.Subcategories = append(c.Subcategories, SubcategoryGroup{Name: sub})
		}
		s := &c.Subcategories[si]

		di, ok := dimIdx[[3]string{cat, sub, dim}]
		if !ok {
			di = len(s.Dimensions)
			dimIdx[[3]string{cat, sub, dim}] = di
			s.Dimensions = append(s.Dimensions, DimensionGroup{Name: dim})
		}
		d := &s.Dimensions[di]
		d.Products = append(d.Products, p)
	}
	return g
}

func matcher(term string) func(models.Product) bool {
	if term == "" {
		return func(models.Product) bool { return true }
	}
	if isDigits(term) {
		return func(p models.Product) bool { return strconv.FormatInt(p.ID, 10) == term }
	}
	keywords := strings.Fields(strings.ToLower(term))
	return func(p models.Product) bool {
		text := p.SearchText()
		for _, k := range keywords {
			if !strings.Contains(text, k) {
				return false
			}
		}
		return true
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/metrics"
	"github.com/mamadbah2/stockroom/internal/repository/store"
)

const (
	suggestMinLength = 3
	suggestLimit     = 5
)

// Catalog holds the latest product snapshot read from the store and derives
// presentations from it.
type Catalog struct {
	products store.Products
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time

	mu         sync.RWMutex
	snapshot   []models.Product
	lastLoaded time.Time
}

// NewCatalog wires a catalog over the product store.
func NewCatalog(products store.Products, m *metrics.Metrics, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Catalog{products: products, metrics: m, logger: logger, now: time.Now}
}

// Load reads every product and replaces the snapshot. On failure the previous
// snapshot is kept and the error is returned; there is no retry.
func (c *Catalog) Load(ctx context.Context) error {
	products, err := c.products.ListProducts(ctx, models.ProductQuery{})
	if err != nil {
		c.metrics.CatalogLoads.WithLabelValues(metrics.OutcomeError).Inc()
		c.logger.Warn("catalog load failed, keeping previous snapshot", zap.Error(err))
		return fmt.Errorf("load products: %w", err)
	}

	c.mu.Lock()
	c.snapshot = products
	c.lastLoaded = c.now()
	c.mu.Unlock()

	c.metrics.CatalogLoads.WithLabelValues(metrics.OutcomeSuccess).Inc()
	c.metrics.CatalogProducts.Set(float64(len(products)))
	c.logger.Debug("catalog loaded", zap.Int("products", len(products)))
	return nil
}

// Snapshot returns a copy of the current product collection.
func (c *Catalog) Snapshot() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Product(nil), c.snapshot...)
}

// LoadedAt reports when the snapshot was last replaced.
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastLoaded
}

// IsStale reports whether the snapshot is older than maxAge or was never loaded.
func (c *Catalog) IsStale(maxAge time.Duration) bool {
	loaded := c.LoadedAt()
	return loaded.IsZero() || c.now().Sub(loaded) > maxAge
}

// FilterAndGroup applies the query to the current snapshot.
func (c *Catalog) FilterAndGroup(query string) Result {
	return FilterAndGroup(c.Snapshot(), query)
}

// Options lists the distinct categories and subcategories for form pickers.
type Options struct {
	Categories    []string `json:"categories"`
	Subcategories []string `json:"subcategories"`
}

// CategoryOptions collects distinct non-empty categories and subcategories
// from the snapshot, sorted.
func (c *Catalog) CategoryOptions() Options {
	cats := map[string]struct{}{}
	subs := map[string]struct{}{}
	for _, p := range c.Snapshot() {
		if p.Category != "" {
			cats[p.Category] = struct{}{}
		}
		if p.Subcategory != nil && *p.Subcategory != "" {
			subs[*p.Subcategory] = struct{}{}
		}
	}
	return Options{Categories: sortedKeys(cats), Subcategories: sortedKeys(subs)}
}

// LowStock returns products whose quantity is below threshold, by name.
func (c *Catalog) LowStock(threshold float64) []models.Product {
	var out []models.Product
	for _, p := range c.Snapshot() {
		if p.Quantity < threshold {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Suggest looks up existing products whose name contains the given text so
// callers can offer editing instead of adding a duplicate. Names shorter than
// three characters yield no suggestions.
func (c *Catalog) Suggest(ctx context.Context, name string) ([]models.Product, error) {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < suggestMinLength {
		return nil, nil
	}
	products, err := c.products.ListProducts(ctx, models.ProductQuery{NameLike: name, Limit: suggestLimit})
	if err != nil {
		return nil, fmt.Errorf("suggest products: %w", err)
	}
	return products, nil
}

// Labels lists products for a printable label sheet. Grouping labels for a
// missing subcategory or dimension select products without one.
func (c *Catalog) Labels(ctx context.Context, category, subcategory, dimension string) ([]models.Product, error) {
	query := models.ProductQuery{
		Category:    strings.TrimSpace(category),
		Subcategory: models.LabelFilterFor(strings.TrimSpace(subcategory), models.NoSubcategory),
		Dimension:   models.LabelFilterFor(strings.TrimSpace(dimension), models.NoDimension),
	}
	products, err := c.products.ListProducts(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list label products: %w", err)
	}
	sort.SliceStable(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

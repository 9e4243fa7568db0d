package reporting

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	repo "github.com/mamadbah2/stockroom/internal/repository/sheets"
	"github.com/mamadbah2/stockroom/internal/service/shopping"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04"
	inventoryRange  = "Inventory!A:I"
	reportsRange    = "Reports!A:D"
)

// ErrExportDisabled is returned by ExportInventory when no spreadsheet is configured.
var ErrExportDisabled = errors.New("inventory export is not configured")

var inventoryHeader = []interface{}{
	"ID", "Nazwa", "Kategoria", "Podkategoria", "Wymiar", "Jednostka", "Ilość", "Uwagi", "Ostatnia zmiana",
}

// Catalog is the product snapshot the export is taken from.
type Catalog interface {
	Load(ctx context.Context) error
	Snapshot() []models.Product
}

// ShoppingList provides the combined shopping list for the digest.
type ShoppingList interface {
	List(ctx context.Context) (shopping.List, error)
}

// Service builds stock summaries for messaging and the spreadsheet export.
type Service struct {
	catalog  Catalog
	shopping ShoppingList
	repo     repo.Repository
	logger   *zap.Logger
}

// NewService wires a new reporting service instance. A nil repository
// disables the spreadsheet export.
func NewService(catalog Catalog, list ShoppingList, repository repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalog, shopping: list, repo: repository, logger: logger}
}

// LowStockDigest lists products below the shopping threshold and custom
// items not yet bought. It returns an empty string when there is nothing to buy.
func (s *Service) LowStockDigest(ctx context.Context, now time.Time) (string, error) {
	list, err := s.shopping.List(ctx)
	if err != nil {
		return "", fmt.Errorf("load shopping list: %w", err)
	}

	var open []models.ShoppingItem
	for _, item := range list.Custom {
		if !item.Purchased {
			open = append(open, item)
		}
	}
	if len(list.LowStock) == 0 && len(open) == 0 {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Shopping list %s\n", now.Format(dateLayout))
	if len(list.LowStock) > 0 {
		fmt.Fprintf(&b, "\nLow stock (below %s):\n", formatQuantity(list.Threshold))
		for _, p := range list.LowStock {
			fmt.Fprintf(&b, "- %s", p.Name)
			if p.Dimension != nil && *p.Dimension != "" {
				fmt.Fprintf(&b, " %s", *p.Dimension)
			}
			fmt.Fprintf(&b, ": %s %s\n", formatQuantity(p.Quantity), p.Unit)
		}
	}
	if len(open) > 0 {
		b.WriteString("\nTo buy:\n")
		for _, item := range open {
			fmt.Fprintf(&b, "- %s\n", item.Label)
		}
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

// ExportInventory rewrites the inventory sheet with the current snapshot and
// appends a summary row to the reports sheet.
func (s *Service) ExportInventory(ctx context.Context, now time.Time) error {
	if s.repo == nil {
		return ErrExportDisabled
	}
	if err := s.catalog.Load(ctx); err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}
	products := s.catalog.Snapshot()

	rows := make([][]interface{}, 0, len(products)+1)
	rows = append(rows, inventoryHeader)
	for _, p := range products {
		rows = append(rows, productRow(p))
	}
	if err := s.repo.ReplaceRange(ctx, inventoryRange, rows); err != nil {
		return fmt.Errorf("write inventory sheet: %w", err)
	}

	list, err := s.shopping.List(ctx)
	if err != nil {
		return fmt.Errorf("load shopping list: %w", err)
	}
	open := 0
	for _, item := range list.Custom {
		if !item.Purchased {
			open++
		}
	}

	summary := []interface{}{now.Format(dateLayout), len(products), len(list.LowStock), open}
	if err := s.repo.WriteRow(ctx, reportsRange, summary); err != nil {
		return fmt.Errorf("append export summary: %w", err)
	}

	s.logger.Info("inventory exported", zap.Int("products", len(products)), zap.Int("low_stock", len(list.LowStock)))
	return nil
}

func productRow(p models.Product) []interface{} {
	modified := ""
	if p.LastModifiedAt != nil {
		modified = p.LastModifiedAt.Format(timestampLayout)
	}
	return []interface{}{
		p.ID,
		p.Name,
		p.Category,
		optional(p.Subcategory),
		optional(p.Dimension),
		string(p.Unit),
		p.Quantity,
		optional(p.Notes),
		modified,
	}
}

func optional(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatQuantity(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

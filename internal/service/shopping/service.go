package shopping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository/store"
)

var (
	// ErrEmptyLabel is returned when a custom item has no text.
	ErrEmptyLabel = errors.New("shopping item label is required")
	// ErrNotFound is returned for unknown custom items.
	ErrNotFound = errors.New("shopping item not found")
)

// Catalog is the product snapshot the derived entries come from.
type Catalog interface {
	Load(ctx context.Context) error
	LowStock(threshold float64) []models.Product
}

// List is the combined shopping list.
type List struct {
	LowStock  []models.Product      `json:"low_stock"`
	Custom    []models.ShoppingItem `json:"custom"`
	Threshold float64               `json:"threshold"`
}

// Service manages the shared shopping list.
type Service struct {
	items     store.ShoppingList
	catalog   Catalog
	threshold float64
	logger    *zap.Logger
}

// NewService wires the shopping list. A non-positive threshold falls back to
// models.DefaultLowStockLimit.
func NewService(items store.ShoppingList, catalog Catalog, threshold float64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if threshold <= 0 {
		threshold = models.DefaultLowStockLimit
	}
	return &Service{items: items, catalog: catalog, threshold: threshold, logger: logger}
}

// Threshold returns the low-stock limit in use.
func (s *Service) Threshold() float64 { return s.threshold }

// List refreshes the catalog and returns low-stock products next to the
// custom entries.
func (s *Service) List(ctx context.Context) (List, error) {
	if err := s.catalog.Load(ctx); err != nil {
		return List{}, err
	}
	custom, err := s.items.ListShoppingItems(ctx)
	if err != nil {
		return List{}, fmt.Errorf("list shopping items: %w", err)
	}
	return List{LowStock: s.catalog.LowStock(s.threshold), Custom: custom, Threshold: s.threshold}, nil
}

// Add stores a custom entry.
func (s *Service) Add(ctx context.Context, label string) (models.ShoppingItem, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return models.ShoppingItem{}, ErrEmptyLabel
	}
	item, err := s.items.InsertShoppingItem(ctx, label)
	if err != nil {
		return models.ShoppingItem{}, fmt.Errorf("insert shopping item: %w", err)
	}
	s.logger.Info("shopping item added", zap.Int64("item_id", item.ID), zap.String("label", item.Label))
	return item, nil
}

// Toggle flips the purchased flag of a custom entry.
func (s *Service) Toggle(ctx context.Context, id int64) (models.ShoppingItem, error) {
	items, err := s.items.ListShoppingItems(ctx)
	if err != nil {
		return models.ShoppingItem{}, fmt.Errorf("list shopping items: %w", err)
	}
	for _, item := range items {
		if item.ID != id {
			continue
		}
		updated, err := s.items.SetShoppingItemPurchased(ctx, id, !item.Purchased)
		if err != nil {
			return models.ShoppingItem{}, s.mapError(id, err)
		}
		return updated, nil
	}
	return models.ShoppingItem{}, fmt.Errorf("%w: %d", ErrNotFound, id)
}

// Remove deletes a custom entry.
func (s *Service) Remove(ctx context.Context, id int64) error {
	if err := s.items.DeleteShoppingItem(ctx, id); err != nil {
		return s.mapError(id, err)
	}
	s.logger.Info("shopping item removed", zap.Int64("item_id", id))
	return nil
}

func (s *Service) mapError(id int64, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return fmt.Errorf("shopping item %d: %w", id, err)
}

// Package store defines the record-store contract the services depend on.
// Backends live in sibling packages.
package store

import (
	"context"
	"errors"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleQuantity is returned when a guarded update observes a quantity
	// other than the expected one.
	ErrStaleQuantity = errors.New("product quantity changed since it was read")
)

// Products is the read/insert/update contract for product records.
type Products interface {
	// ListProducts returns products ordered by category, subcategory,
	// dimension and name.
	ListProducts(ctx context.Context, query models.ProductQuery) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (models.Product, error)
	// InsertProduct stores p under a newly assigned ID.
	InsertProduct(ctx context.Context, p models.Product) (models.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (models.Product, error)
}

// Operations is the append-only audit log.
type Operations interface {
	InsertOperation(ctx context.Context, op models.Operation) (models.Operation, error)
	// ListOperations returns the newest operations for a product first.
	ListOperations(ctx context.Context, productID int64, limit int) ([]models.Operation, error)
}

// ShoppingList holds the custom shopping-list entries.
type ShoppingList interface {
	ListShoppingItems(ctx context.Context) ([]models.ShoppingItem, error)
	InsertShoppingItem(ctx context.Context, label string) (models.ShoppingItem, error)
	SetShoppingItemPurchased(ctx context.Context, id int64, purchased bool) (models.ShoppingItem, error)
	DeleteShoppingItem(ctx context.Context, id int64) error
}

// Store bundles every contract a backend must serve.
type Store interface {
	Products
	Operations
	ShoppingList
	Close(ctx context.Context) error
}

// Package memory is an in-process record store used for tests and demo mode.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps every record in maps guarded by a single mutex.
type Store struct {
	mu         sync.RWMutex
	products   map[int64]models.Product
	operations []models.Operation
	shopping   map[int64]models.ShoppingItem
	nextID     int64
	now        func() time.Time
}

// NewStore returns an empty store. Seed products keep their IDs when set.
func NewStore(seed ...models.Product) *Store {
	s := &Store{
		products: make(map[int64]models.Product),
		shopping: make(map[int64]models.ShoppingItem),
		now:      time.Now,
	}
	for _, p := range seed {
		if p.ID == 0 {
			s.nextID++
			p.ID = s.nextID
		}
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
		s.products[p.ID] = p
	}
	return s
}

func (s *Store) ListProducts(_ context.Context, query models.ProductQuery) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if store.MatchesQuery(p, query) {
			out = append(out, p)
		}
	}
	store.SortProducts(out)
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return models.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) InsertProduct(_ context.Context, p models.Product) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p.ID = s.nextID
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) UpdateProduct(_ context.Context, id int64, patch models.ProductPatch) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return models.Product{}, store.ErrNotFound
	}
	if patch.ExpectedQuantity != nil && p.Quantity != *patch.ExpectedQuantity {
		return models.Product{}, store.ErrStaleQuantity
	}
	patch.Apply(&p)
	s.products[id] = p
	return p, nil
}

func (s *Store) InsertOperation(_ context.Context, op models.Operation) (models.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	op.ID = s.nextID
	op.CreatedAt = s.now().UTC()
	s.operations = append(s.operations, op)
	return op, nil
}

func (s *Store) ListOperations(_ context.Context, productID int64, limit int) ([]models.Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Operation
	for i := len(s.operations) - 1; i >= 0; i-- {
		if s.operations[i].ProductID != productID {
			continue
		}
		out = append(out, s.operations[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Operations returns every recorded operation in insertion order.
func (s *Store) Operations() []models.Operation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Operation(nil), s.operations...)
}

func (s *Store) ListShoppingItems(_ context.Context) ([]models.ShoppingItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ShoppingItem, 0, len(s.shopping))
	for _, item := range s.shopping {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) InsertShoppingItem(_ context.Context, label string) (models.ShoppingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	item := models.ShoppingItem{ID: s.nextID, Label: strings.TrimSpace(label), CreatedAt: s.now().UTC()}
	s.shopping[item.ID] = item
	return item, nil
}

func (s *Store) SetShoppingItemPurchased(_ context.Context, id int64, purchased bool) (models.ShoppingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.shopping[id]
	if !ok {
		return models.ShoppingItem{}, store.ErrNotFound
	}
	item.Purchased = purchased
	s.shopping[id] = item
	return item, nil
}

func (s *Store) DeleteShoppingItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shopping[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.shopping, id)
	return nil
}

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

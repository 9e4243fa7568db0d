package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository/store"
)

// ErrNotFound is returned for unknown product ids.
var ErrNotFound = errors.New("product not found")

// ErrActorRequired is returned when a write has no acting user.
var ErrActorRequired = errors.New("acting user is required")

const historyLimit = 50

// Service handles adding and editing products outside the stock protocol.
type Service struct {
	products   store.Products
	operations store.Operations
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires a product service.
func NewService(products store.Products, operations store.Operations, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{products: products, operations: operations, logger: logger, now: time.Now}
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id int64) (models.Product, error) {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, s.mapError(id, err)
	}
	return p, nil
}

// Create validates the draft and stores a new product stamped with actor.
func (s *Service) Create(ctx context.Context, draft models.ProductDraft, actor string) (models.Product, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return models.Product{}, err
	}
	if strings.TrimSpace(actor) == "" {
		return models.Product{}, ErrActorRequired
	}

	p := draft.Product()
	at := s.now().UTC()
	p.LastModifiedBy, p.LastModifiedAt = &actor, &at

	created, err := s.products.InsertProduct(ctx, p)
	if err != nil {
		return models.Product{}, fmt.Errorf("insert product: %w", err)
	}
	s.logger.Info("product created", zap.Int64("product_id", created.ID), zap.String("name", created.Name), zap.String("actor", actor))
	return created, nil
}

// Update overwrites the descriptive fields. The quantity is left as stored.
func (s *Service) Update(ctx context.Context, id int64, draft models.ProductDraft, actor string) (models.Product, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return models.Product{}, err
	}
	if strings.TrimSpace(actor) == "" {
		return models.Product{}, ErrActorRequired
	}

	patch := draft.EditPatch()
	at := s.now().UTC()
	patch.LastModifiedBy, patch.LastModifiedAt = &actor, &at

	updated, err := s.products.UpdateProduct(ctx, id, patch)
	if err != nil {
		return models.Product{}, s.mapError(id, err)
	}
	s.logger.Info("product updated", zap.Int64("product_id", id), zap.String("actor", actor))
	return updated, nil
}

// History returns the latest operations recorded for a product.
func (s *Service) History(ctx context.Context, id int64) ([]models.Operation, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	ops, err := s.operations.ListOperations(ctx, id, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	return ops, nil
}

func (s *Service) mapError(id int64, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return fmt.Errorf("product %d: %w", id, err)
}

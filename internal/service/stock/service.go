package stock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/metrics"
	"github.com/mamadbah2/stockroom/internal/repository/store"
)

// Concurrency selects how the quantity write is guarded against other sessions.
type Concurrency string

const (
	// ConcurrencyNone re-reads before writing and nothing more. Two sessions
	// adjusting the same product at once can lose one of the updates.
	ConcurrencyNone Concurrency = "none"
	// ConcurrencyOptimistic writes the quantity only if it still equals the
	// value read, re-reading and retrying on conflict.
	ConcurrencyOptimistic Concurrency = "optimistic"
)

const (
	defaultMaxAttempts = 3
	quickUpdateNote    = "Szybka zmiana"
	quantityPlaces     = 2
)

// ParseConcurrency maps a configuration value to a mode.
func ParseConcurrency(value string) (Concurrency, error) {
	switch Concurrency(strings.ToLower(strings.TrimSpace(value))) {
	case "", ConcurrencyNone:
		return ConcurrencyNone, nil
	case ConcurrencyOptimistic:
		return ConcurrencyOptimistic, nil
	}
	return "", fmt.Errorf("unknown stock concurrency mode %q", value)
}

// Adjustment is a request to move stock of one product.
type Adjustment struct {
	ProductID int64
	Kind      models.OperationKind
	Delta     float64
	Actor     string
	Notes     string
}

// Result reports the state after a successful adjustment.
type Result struct {
	Previous  float64          `json:"previous_quantity"`
	Product   models.Product   `json:"product"`
	Operation models.Operation `json:"operation"`
}

// Store is the slice of the record store the protocol writes to.
type Store interface {
	store.Products
	store.Operations
}

// Option customises a Service.
type Option func(*Service)

// WithConcurrency selects the write guard.
func WithConcurrency(mode Concurrency) Option {
	return func(s *Service) { s.mode = mode }
}

// WithMaxAttempts bounds optimistic retries.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithClock overrides the time source used for last-modified stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service applies stock adjustments while keeping quantities non-negative
// and recording every change in the operation log.
type Service struct {
	store       Store
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
	mode        Concurrency
	maxAttempts int
}

// NewService constructs the adjustment service.
func NewService(st Store, m *metrics.Metrics, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	s := &Service{
		store:       st,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
		mode:        ConcurrencyNone,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the configured write guard.
func (s *Service) Mode() Concurrency { return s.mode }

// ApplyAdjustment validates the request, re-reads the stored quantity,
// refuses to go below zero, then writes the operation log entry and the new
// quantity.
func (s *Service) ApplyAdjustment(ctx context.Context, adj Adjustment) (Result, error) {
	adj, err := normalize(adj)
	if err != nil {
		s.count(adj.Kind, metrics.OutcomeInvalid)
		return Result{}, err
	}

	var res Result
	if s.mode == ConcurrencyOptimistic {
		res, err = s.applyGuarded(ctx, adj)
	} else {
		res, err = s.applyUnguarded(ctx, adj)
	}
	if err != nil {
		s.count(adj.Kind, outcomeOf(err))
		s.logger.Warn("stock adjustment rejected",
			zap.Int64("product_id", adj.ProductID),
			zap.String("kind", string(adj.Kind)),
			zap.Float64("delta", adj.Delta),
			zap.Error(err))
		return Result{}, err
	}

	s.count(adj.Kind, metrics.OutcomeSuccess)
	s.logger.Info("stock adjusted",
		zap.Int64("product_id", adj.ProductID),
		zap.String("kind", string(adj.Kind)),
		zap.Float64("delta", adj.Delta),
		zap.Float64("previous", res.Previous),
		zap.Float64("quantity", res.Product.Quantity),
		zap.String("actor", adj.Actor))
	return res, nil
}

// QuickAdjust applies a signed amount: positive receives stock, negative
// consumes it.
func (s *Service) QuickAdjust(ctx context.Context, productID int64, amount float64, actor string) (Result, error) {
	kind := models.OperationReceipt
	if amount < 0 {
		kind = models.OperationConsumption
	}
	return s.ApplyAdjustment(ctx, Adjustment{
		ProductID: productID,
		Kind:      kind,
		Delta:     math.Abs(amount),
		Actor:     actor,
		Notes:     quickUpdateNote,
	})
}

func (s *Service) applyUnguarded(ctx context.Context, adj Adjustment) (Result, error) {
	current, err := s.read(ctx, adj.ProductID)
	if err != nil {
		return Result{}, err
	}
	next, err := nextQuantity(current, adj)
	if err != nil {
		return Result{}, err
	}

	op, err := s.record(ctx, adj)
	if err != nil {
		return Result{}, err
	}
	updated, err := s.store.UpdateProduct(ctx, adj.ProductID, s.quantityPatch(next, adj.Actor, nil))
	if err != nil {
		return Result{}, s.storeError("update product quantity", err)
	}
	return Result{Previous: current.Quantity, Product: updated, Operation: op}, nil
}

func (s *Service) applyGuarded(ctx context.Context, adj Adjustment) (Result, error) {
	for attempt := 1; ; attempt++ {
		current, err := s.read(ctx, adj.ProductID)
		if err != nil {
			return Result{}, err
		}
		next, err := nextQuantity(current, adj)
		if err != nil {
			return Result{}, err
		}

		expected := current.Quantity
		updated, err := s.store.UpdateProduct(ctx, adj.ProductID, s.quantityPatch(next, adj.Actor, &expected))
		if errors.Is(err, store.ErrStaleQuantity) {
			if attempt >= s.maxAttempts {
				return Result{}, ErrConcurrentUpdate
			}
			s.metrics.StaleRetries.Inc()
			s.logger.Debug("quantity changed concurrently, retrying",
				zap.Int64("product_id", adj.ProductID), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return Result{}, s.storeError("update product quantity", err)
		}

		op, err := s.record(ctx, adj)
		if err != nil {
			return Result{}, err
		}
		return Result{Previous: current.Quantity, Product: updated, Operation: op}, nil
	}
}

func (s *Service) read(ctx context.Context, id int64) (models.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Product{}, fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}
	if err != nil {
		return models.Product{}, s.storeError("read product quantity", err)
	}
	return p, nil
}

func (s *Service) record(ctx context.Context, adj Adjustment) (models.Operation, error) {
	op, err := s.store.InsertOperation(ctx, models.Operation{
		ProductID: adj.ProductID,
		Kind:      adj.Kind,
		Delta:     adj.Delta,
		Actor:     adj.Actor,
		Notes:     models.OptionalString(adj.Notes),
	})
	if err != nil {
		return models.Operation{}, s.storeError("insert operation", err)
	}
	return op, nil
}

func (s *Service) quantityPatch(next float64, actor string, expected *float64) models.ProductPatch {
	at := s.now().UTC()
	return models.ProductPatch{
		Quantity:         &next,
		LastModifiedBy:   &actor,
		LastModifiedAt:   &at,
		ExpectedQuantity: expected,
	}
}

func (s *Service) storeError(step string, err error) error {
	return &InfrastructureError{Step: step, Err: err}
}

func (s *Service) count(kind models.OperationKind, outcome string) {
	label := string(kind)
	if !kind.Valid() {
		label = "unknown"
	}
	s.metrics.StockAdjustments.WithLabelValues(label, outcome).Inc()
}

// normalize rounds the delta to the stored precision and validates the
// request. The recorded delta is always the rounded one.
func normalize(adj Adjustment) (Adjustment, error) {
	if err := validate(adj); err != nil {
		return adj, err
	}
	rounded, _ := decimal.NewFromFloat(adj.Delta).Round(quantityPlaces).Float64()
	if rounded <= 0 {
		return adj, &ValidationError{Field: "quantity", Reason: "quantity must be at least 0.01"}
	}
	adj.Delta = rounded
	return adj, nil
}

func validate(adj Adjustment) error {
	switch {
	case adj.ProductID <= 0:
		return &ValidationError{Field: "product", Reason: "a product must be selected"}
	case !adj.Kind.Valid():
		return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown operation kind %q", adj.Kind)}
	case math.IsNaN(adj.Delta) || math.IsInf(adj.Delta, 0):
		return &ValidationError{Field: "quantity", Reason: "quantity must be a finite number"}
	case adj.Delta <= 0:
		return &ValidationError{Field: "quantity", Reason: "quantity must be greater than zero"}
	case strings.TrimSpace(adj.Actor) == "":
		return &ValidationError{Field: "actor", Reason: "acting user is required"}
	}
	return nil
}

// nextQuantity computes the resulting quantity rounded to two places.
func nextQuantity(current models.Product, adj Adjustment) (float64, error) {
	change := decimal.NewFromFloat(adj.Delta)
	if adj.Kind == models.OperationConsumption {
		change = change.Neg()
	}
	next := decimal.NewFromFloat(current.Quantity).Add(change).Round(quantityPlaces)
	if next.IsNegative() {
		return 0, &InsufficientStockError{ProductID: current.ID, Available: current.Quantity, Requested: adj.Delta}
	}
	value, _ := next.Float64()
	return value, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrProductNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrInsufficientStock):
		return metrics.OutcomeInsufficient
	case errors.Is(err, ErrConcurrentUpdate):
		return metrics.OutcomeConflict
	}
	return metrics.OutcomeError
}

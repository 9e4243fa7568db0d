package stock

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any store access.
	ErrValidation = errors.New("invalid adjustment")
	// ErrProductNotFound is returned when the product disappeared from the store.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock is the domain failure for a negative resulting quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConcurrentUpdate is returned when guarded retries are exhausted.
	ErrConcurrentUpdate = errors.New("product quantity kept changing, adjustment not applied")
	// ErrInfrastructure marks record store failures, surfaced without retry.
	ErrInfrastructure = errors.New("record store failure")
)

// ValidationError describes which field of an adjustment was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InsufficientStockError carries the quantities behind ErrInsufficientStock.
type InsufficientStockError struct {
	ProductID int64
	Available float64
	Requested float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: product %d has %.2f, requested %.2f", e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// InfrastructureError wraps the store failure of a protocol step.
type InfrastructureError struct {
	Step string
	Err  error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

func (e *InfrastructureError) Is(target error) bool { return target == ErrInfrastructure }

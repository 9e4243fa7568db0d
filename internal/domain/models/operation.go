package models

import "time"

// OperationKind enumerates the stock movements recorded in the audit log.
type OperationKind string

const (
	OperationConsumption OperationKind = "zuzycie"
	OperationReceipt     OperationKind = "przyjecie"
)

// Valid reports whether k is a known operation kind.
func (k OperationKind) Valid() bool {
	return k == OperationConsumption || k == OperationReceipt
}

// Sign returns +1 for receipts and -1 for consumption.
func (k OperationKind) Sign() int {
	if k == OperationReceipt {
		return 1
	}
	return -1
}

// Operation is an append-only audit entry for one stock adjustment.
type Operation struct {
	ID        int64         `bson:"_id" json:"id"`
	ProductID int64         `bson:"product_id" json:"product_id"`
	Kind      OperationKind `bson:"kind" json:"kind"`
	Delta     float64       `bson:"delta" json:"delta"`
	Actor     string        `bson:"actor" json:"actor"`
	Notes     *string       `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
}

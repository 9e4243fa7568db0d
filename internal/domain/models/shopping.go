package models

import "time"

// ShoppingItem is a user-managed entry on the shared shopping list.
type ShoppingItem struct {
	ID        int64     `bson:"_id" json:"id"`
	Label     string    `bson:"label" json:"label"`
	Purchased bool      `bson:"purchased" json:"purchased"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), SQLite, "file::memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

func str(s string) *string { return &s }

func TestRebind(t *testing.T) {
	q := "UPDATE t SET a = ?, b = ? WHERE id = ?"
	if got := SQLite.Rebind(q); got != q {
		t.Errorf("sqlite should keep placeholders, got %q", got)
	}
	if got, want := Postgres.Rebind(q), "UPDATE t SET a = $1, b = $2 WHERE id = $3"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProductsRoundTripAndOrder(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	seed := []models.Product{
		{Name: "Zawór", Category: "Zawory", Unit: models.UnitPiece, Quantity: 2},
		{Name: "Taśma", Category: "Kształtki", Unit: models.UnitPiece, Quantity: 40},
		{Name: "Trójnik", Category: "Kształtki", Subcategory: str("Miedź"), Dimension: str("15mm"), Unit: models.UnitPiece, Quantity: 3},
		{Name: "Kolano", Category: "Kształtki", Subcategory: str("Miedź"), Dimension: str("15mm"), Unit: models.UnitPiece, Quantity: 12, Notes: str("90°")},
	}
	for _, p := range seed {
		if _, err := st.InsertProduct(ctx, p); err != nil {
			t.Fatalf("insert %s: %v", p.Name, err)
		}
	}

	all, err := st.ListProducts(ctx, models.ProductQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var names []string
	for _, p := range all {
		names = append(names, p.Name)
	}
	want := []string{"Kolano", "Trójnik", "Taśma", "Zawór"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
	if all[0].Notes == nil || *all[0].Notes != "90°" || all[2].Subcategory != nil {
		t.Errorf("optional fields not preserved: %+v %+v", all[0], all[2])
	}

	noSub, err := st.ListProducts(ctx, models.ProductQuery{
		Category:    "Kształtki",
		Subcategory: models.LabelFilterFor(models.NoSubcategory, models.NoSubcategory),
	})
	if err != nil || len(noSub) != 1 || noSub[0].Name != "Taśma" {
		t.Errorf("expected only Taśma without subcategory, got %+v (%v)", noSub, err)
	}

	like, err := st.ListProducts(ctx, models.ProductQuery{NameLike: "OLA", Limit: 5})
	if err != nil || len(like) != 1 || like[0].Name != "Kolano" {
		t.Errorf("expected Kolano for name filter, got %+v (%v)", like, err)
	}

	if _, err := st.GetProduct(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpdateProductCompareAndSwap(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	p, err := st.InsertProduct(ctx, models.Product{Name: "Copper pipe", Category: "Pipes", Unit: models.UnitPiece, Quantity: 10})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	actor := "alice@x.com"
	next, expected := 7.0, 10.0
	updated, err := st.UpdateProduct(ctx, p.ID, models.ProductPatch{Quantity: &next, LastModifiedBy: &actor, LastModifiedAt: &at, ExpectedQuantity: &expected})
	if err != nil {
		t.Fatalf("guarded update: %v", err)
	}
	if updated.Quantity != 7 || updated.LastModifiedBy == nil || *updated.LastModifiedBy != actor {
		t.Errorf("unexpected product %+v", updated)
	}
	if updated.LastModifiedAt == nil || !updated.LastModifiedAt.Equal(at) {
		t.Errorf("expected timestamp %v, got %v", at, updated.LastModifiedAt)
	}

	next = 3
	if _, err := st.UpdateProduct(ctx, p.ID, models.ProductPatch{Quantity: &next, ExpectedQuantity: &expected}); !errors.Is(err, store.ErrStaleQuantity) {
		t.Errorf("expected stale quantity, got %v", err)
	}
	if _, err := st.UpdateProduct(ctx, 999, models.ProductPatch{Quantity: &next, ExpectedQuantity: &expected}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	negative := -1.0
	if _, err := st.UpdateProduct(ctx, p.ID, models.ProductPatch{Quantity: &negative}); err == nil {
		t.Error("expected the schema to reject a negative quantity")
	}
}

func TestOperationsAndShoppingList(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	p, err := st.InsertProduct(ctx, models.Product{Name: "Mufa", Category: "Kształtki", Unit: models.UnitPiece, Quantity: 1})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	for _, delta := range []float64{1, 2.5} {
		if _, err := st.InsertOperation(ctx, models.Operation{ProductID: p.ID, Kind: models.OperationReceipt, Delta: delta, Actor: "a@x.com", Notes: str("Szybka zmiana")}); err != nil {
			t.Fatalf("insert operation: %v", err)
		}
	}
	ops, err := st.ListOperations(ctx, p.ID, 10)
	if err != nil {
		t.Fatalf("list operations: %v", err)
	}
	if len(ops) != 2 || ops[0].Delta != 2.5 || ops[0].Kind != models.OperationReceipt || ops[0].CreatedAt.IsZero() {
		t.Errorf("unexpected operations %+v", ops)
	}

	item, err := st.InsertShoppingItem(ctx, " Silikon ")
	if err != nil {
		t.Fatalf("insert shopping item: %v", err)
	}
	if item.Label != "Silikon" || item.Purchased {
		t.Errorf("unexpected item %+v", item)
	}
	if item, err = st.SetShoppingItemPurchased(ctx, item.ID, true); err != nil || !item.Purchased {
		t.Errorf("expected purchased, got %+v (%v)", item, err)
	}
	items, err := st.ListShoppingItems(ctx)
	if err != nil || len(items) != 1 || !items[0].Purchased {
		t.Errorf("unexpected items %+v (%v)", items, err)
	}
	if err := st.DeleteShoppingItem(ctx, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.DeleteShoppingItem(ctx, item.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := st.SetShoppingItemPurchased(ctx, item.ID, false); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

package mongodb

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

func TestProductFilter(t *testing.T) {
	f := productFilter(models.ProductQuery{
		Category:    "Kształtki",
		Subcategory: models.LabelFilterFor(models.NoSubcategory, models.NoSubcategory),
		Dimension:   models.LabelFilterFor("15mm", models.NoDimension),
		NameLike:    "pipe (15",
	})

	if f["category"] != "Kształtki" || f["dimension"] != "15mm" {
		t.Errorf("unexpected equality filters %v", f)
	}
	sub, ok := f["subcategory"].(bson.M)
	if !ok || len(sub["$in"].(bson.A)) != 2 {
		t.Errorf("expected $in null filter for missing subcategory, got %v", f["subcategory"])
	}
	name, ok := f["name"].(bson.M)
	if !ok || name["$regex"] != `pipe \(15` || name["$options"] != "i" {
		t.Errorf("expected escaped case-insensitive regex, got %v", f["name"])
	}

	if len(productFilter(models.ProductQuery{})) != 0 {
		t.Error("expected empty query to match everything")
	}
}

func TestProductUpdate(t *testing.T) {
	qty := 7.0
	actor := "alice@x.com"
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	partial := productUpdate(models.ProductPatch{Quantity: &qty, LastModifiedBy: &actor, LastModifiedAt: &at})
	set := partial["$set"].(bson.M)
	if set["quantity"] != 7.0 || set["last_modified_by"] != actor || len(set) != 3 {
		t.Errorf("unexpected $set %v", set)
	}
	if _, ok := partial["$unset"]; ok {
		t.Error("partial patch must not unset fields")
	}

	full := productUpdate(models.ProductDraft{Name: "Kolano", Category: "Kształtki", Unit: models.UnitPiece, Dimension: "15mm"}.Patch())
	unset := full["$unset"].(bson.M)
	if _, ok := unset["subcategory"]; !ok {
		t.Errorf("expected subcategory to be unset, got %v", unset)
	}
	if _, ok := unset["notes"]; !ok {
		t.Errorf("expected notes to be unset, got %v", unset)
	}
	if full["$set"].(bson.M)["dimension"] != "15mm" {
		t.Errorf("expected dimension to be set, got %v", full["$set"])
	}

	if len(productUpdate(models.ProductPatch{})) != 0 {
		t.Error("expected empty patch to produce no update")
	}
}

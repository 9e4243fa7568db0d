package models

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestProductDraftValidate(t *testing.T) {
	valid := ProductDraft{Name: "Kolano", Category: "Kształtki", Quantity: 3}

	tests := []struct {
		name    string
		mutate  func(*ProductDraft)
		wantErr bool
	}{
		{"valid with default unit", func(*ProductDraft) {}, false},
		{"blank name", func(d *ProductDraft) { d.Name = "   " }, true},
		{"blank category", func(d *ProductDraft) { d.Category = "" }, true},
		{"unknown unit", func(d *ProductDraft) { d.Unit = "litre" }, true},
		{"negative quantity", func(d *ProductDraft) { d.Quantity = -0.5 }, true},
		{"NaN quantity", func(d *ProductDraft) { d.Quantity = math.NaN() }, true},
		{"zero quantity", func(d *ProductDraft) { d.Quantity = 0 }, false},
		{"square meters", func(d *ProductDraft) { d.Unit = UnitSquareMeter }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			err := d.Normalize().Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidProduct) {
				t.Fatalf("expected invalid product, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestProductDraftProductClearsBlankOptionals(t *testing.T) {
	d := ProductDraft{Name: " Mufa ", Category: "Kształtki", Subcategory: "  ", Dimension: "22mm", Quantity: 1.5}.Normalize()
	p := d.Product()

	if p.Name != "Mufa" || p.Unit != DefaultUnit || p.Quantity != 1.5 {
		t.Errorf("unexpected product %+v", p)
	}
	if p.Subcategory != nil {
		t.Errorf("expected blank subcategory to be nil, got %q", *p.Subcategory)
	}
	if p.Dimension == nil || *p.Dimension != "22mm" {
		t.Errorf("expected dimension 22mm, got %v", p.Dimension)
	}
	if p.SubcategoryLabel() != NoSubcategory || p.DimensionLabel() != "22mm" {
		t.Errorf("unexpected labels %q/%q", p.SubcategoryLabel(), p.DimensionLabel())
	}
}

func TestProductPatchApply(t *testing.T) {
	sub, notes := "Miedź", "old"
	p := Product{ID: 1, Name: "Kolano", Category: "Kształtki", Subcategory: &sub, Notes: &notes, Quantity: 4}

	qty := 9.0
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	actor := "alice@x.com"
	ProductPatch{Quantity: &qty, LastModifiedBy: &actor, LastModifiedAt: &at}.Apply(&p)

	if p.Quantity != 9 || p.Subcategory == nil || p.Notes == nil {
		t.Errorf("partial patch should leave other fields, got %+v", p)
	}
	if p.LastModifiedBy == nil || *p.LastModifiedBy != actor || !p.LastModifiedAt.Equal(at) {
		t.Errorf("expected last-modified stamps, got %v %v", p.LastModifiedBy, p.LastModifiedAt)
	}

	ProductDraft{Name: "Kolano", Category: "Kształtki", Unit: UnitPiece, Quantity: 9}.Patch().Apply(&p)
	if p.Subcategory != nil || p.Notes != nil {
		t.Errorf("full patch should clear blank optionals, got %+v", p)
	}
	if p.LastModifiedBy == nil {
		t.Error("full patch should not touch last-modified stamps")
	}
}

func TestLabelFilter(t *testing.T) {
	copper := "Miedź"
	empty := ""

	if f := LabelFilterFor("", NoSubcategory); f != nil {
		t.Errorf("expected no filter for empty label, got %+v", f)
	}

	missing := LabelFilterFor(NoSubcategory, NoSubcategory)
	if !missing.Matches(nil) || !missing.Matches(&empty) || missing.Matches(&copper) {
		t.Error("default label should select only absent values")
	}

	exact := LabelFilterFor("Miedź", NoSubcategory)
	if !exact.Matches(&copper) || exact.Matches(nil) {
		t.Error("concrete label should select only equal values")
	}

	var none *LabelFilter
	if !none.Matches(nil) || !none.Matches(&copper) {
		t.Error("nil filter should match everything")
	}
}

func TestSearchText(t *testing.T) {
	sub, dim := "Miedź", "15MM"
	p := Product{Name: "Kolano", Category: "Kształtki", Subcategory: &sub, Dimension: &dim}
	if got, want := p.SearchText(), "kolano kształtki miedź 15mm"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestEditPatchLeavesQuantity(t *testing.T) {
	p := Product{ID: 1, Name: "Rura", Category: "Hydraulika", Unit: UnitLinearMeter, Quantity: 10}
	ProductDraft{Name: "Rura miedziana", Category: "Hydraulika", Unit: UnitLinearMeter}.EditPatch().Apply(&p)
	if p.Quantity != 10 || p.Name != "Rura miedziana" {
		t.Errorf("expected quantity kept at 10, got %+v", p)
	}
}

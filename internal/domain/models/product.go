package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Unit enumerates the measures a product quantity can be kept in.
type Unit string

const (
	UnitPiece       Unit = "szt."
	UnitLinearMeter Unit = "mb"
	UnitKilogram    Unit = "kg"
	UnitPackage     Unit = "op."
	UnitSquareMeter Unit = "m²"
)

// DefaultUnit is applied to drafts that do not name a unit.
const DefaultUnit = UnitPiece

// Grouping labels used when a product has no subcategory or dimension.
const (
	NoSubcategory = "Bez podkategorii"
	NoDimension   = "Bez wymiaru"
)

// DefaultLowStockLimit is the quantity below which a product is put on the shopping list.
const DefaultLowStockLimit = 5.0

// Units lists the supported units in display order.
var Units = []Unit{UnitPiece, UnitLinearMeter, UnitKilogram, UnitPackage, UnitSquareMeter}

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	for _, known := range Units {
		if u == known {
			return true
		}
	}
	return false
}

// Product is a stock keeping record owned by the record store.
type Product struct {
	ID             int64      `bson:"_id" json:"id"`
	Name           string     `bson:"name" json:"name"`
	Category       string     `bson:"category" json:"category"`
	Subcategory    *string    `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	Dimension      *string    `bson:"dimension,omitempty" json:"dimension,omitempty"`
	Unit           Unit       `bson:"unit" json:"unit"`
	Quantity       float64    `bson:"quantity" json:"quantity"`
	Notes          *string    `bson:"notes,omitempty" json:"notes,omitempty"`
	LastModifiedBy *string    `bson:"last_modified_by,omitempty" json:"last_modified_by,omitempty"`
	LastModifiedAt *time.Time `bson:"last_modified_at,omitempty" json:"last_modified_at,omitempty"`
}

// SubcategoryLabel returns the grouping label used when the subcategory is absent.
func (p Product) SubcategoryLabel() string {
	if p.Subcategory == nil || *p.Subcategory == "" {
		return NoSubcategory
	}
	return *p.Subcategory
}

// DimensionLabel returns the grouping label used when the dimension is absent.
func (p Product) DimensionLabel() string {
	if p.Dimension == nil || *p.Dimension == "" {
		return NoDimension
	}
	return *p.Dimension
}

// SearchText is the lowercased text keyword queries are matched against.
func (p Product) SearchText() string {
	parts := []string{p.Name, p.Category, deref(p.Subcategory), deref(p.Dimension)}
	return strings.ToLower(strings.Join(parts, " "))
}

// ErrInvalidProduct is wrapped by every ProductDraft validation failure.
var ErrInvalidProduct = errors.New("invalid product")

// ProductDraft carries the editable fields of a product for add and edit.
type ProductDraft struct {
	Name        string  `json:"name" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Subcategory string  `json:"subcategory"`
	Dimension   string  `json:"dimension"`
	Unit        Unit    `json:"unit"`
	Quantity    float64 `json:"quantity"`
	Notes       string  `json:"notes"`
}

// Normalize trims the text fields and applies the default unit.
func (d ProductDraft) Normalize() ProductDraft {
	d.Name = strings.TrimSpace(d.Name)
	d.Category = strings.TrimSpace(d.Category)
	d.Subcategory = strings.TrimSpace(d.Subcategory)
	d.Dimension = strings.TrimSpace(d.Dimension)
	d.Notes = strings.TrimSpace(d.Notes)
	if d.Unit == "" {
		d.Unit = DefaultUnit
	}
	return d
}

// Validate checks the draft after normalisation.
func (d ProductDraft) Validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case d.Category == "":
		return fmt.Errorf("%w: category is required", ErrInvalidProduct)
	case !d.Unit.Valid():
		return fmt.Errorf("%w: unsupported unit %q", ErrInvalidProduct, d.Unit)
	case math.IsNaN(d.Quantity) || math.IsInf(d.Quantity, 0):
		return fmt.Errorf("%w: quantity must be a number", ErrInvalidProduct)
	case d.Quantity < 0:
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidProduct)
	}
	return nil
}

// Patch converts the draft to a full-field update.
func (d ProductDraft) Patch() ProductPatch {
	name, category, unit, qty := d.Name, d.Category, d.Unit, d.Quantity
	return ProductPatch{
		Name:        &name,
		Category:    &category,
		Subcategory: OptionalString(d.Subcategory),
		Dimension:   OptionalString(d.Dimension),
		Unit:        &unit,
		Quantity:    &qty,
		Notes:       OptionalString(d.Notes),
		ClearEmpty:  true,
	}
}

// EditPatch is Patch without the quantity. Stock only moves through
// recorded adjustments once a product exists.
func (d ProductDraft) EditPatch() ProductPatch {
	patch := d.Patch()
	patch.Quantity = nil
	return patch
}

// Product builds the record a draft describes, without an ID.
func (d ProductDraft) Product() Product {
	var p Product
	d.Patch().Apply(&p)
	return p
}

// ProductPatch is a partial update. Nil fields are left untouched unless
// ClearEmpty is set, in which case nil optional text fields are nulled.
type ProductPatch struct {
	Name           *string
	Category       *string
	Subcategory    *string
	Dimension      *string
	Unit           *Unit
	Quantity       *float64
	Notes          *string
	LastModifiedBy *string
	LastModifiedAt *time.Time
	ClearEmpty     bool

	// ExpectedQuantity turns the update into a compare-and-swap on the
	// stored quantity; stores report store.ErrStaleQuantity on mismatch.
	ExpectedQuantity *float64
}

// Apply writes the patch onto p. Stores without native partial updates use it.
func (patch ProductPatch) Apply(p *Product) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Subcategory != nil || patch.ClearEmpty {
		p.Subcategory = patch.Subcategory
	}
	if patch.Dimension != nil || patch.ClearEmpty {
		p.Dimension = patch.Dimension
	}
	if patch.Unit != nil {
		p.Unit = *patch.Unit
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.Notes != nil || patch.ClearEmpty {
		p.Notes = patch.Notes
	}
	if patch.LastModifiedBy != nil {
		p.LastModifiedBy = patch.LastModifiedBy
	}
	if patch.LastModifiedAt != nil {
		at := *patch.LastModifiedAt
		p.LastModifiedAt = &at
	}
}

// ProductQuery narrows a product listing. Empty fields do not filter.
type ProductQuery struct {
	Category    string
	Subcategory *LabelFilter
	Dimension   *LabelFilter
	NameLike    string
	Limit       int
}

// LabelFilter matches either a concrete value or, when Missing is set, NULL.
type LabelFilter struct {
	Value   string
	Missing bool
}

// LabelFilterFor maps a grouping label back to a store filter. The default
// label selects rows where the column is NULL.
func LabelFilterFor(label, defaultLabel string) *LabelFilter {
	if label == "" {
		return nil
	}
	if label == defaultLabel {
		return &LabelFilter{Missing: true}
	}
	return &LabelFilter{Value: label}
}

// Matches reports whether value satisfies the filter.
func (f *LabelFilter) Matches(value *string) bool {
	if f == nil {
		return true
	}
	if f.Missing {
		return value == nil || *value == ""
	}
	return value != nil && *value == f.Value
}

// OptionalString returns nil for blank input.
func OptionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

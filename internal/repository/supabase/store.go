// Package supabase stores records in the hosted Postgres through its REST
// API, using the table and column names of the existing warehouse database.
package supabase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository/store"
)

var _ store.Store = (*Store)(nil)

const (
	productsTable   = "produkty"
	operationsTable = "operacje"
	shoppingTable   = "lista_zakupow_niestandardowa"

	productOrder = "kategoria.asc,podkategoria.asc.nullslast,wymiar.asc.nullslast,nazwa.asc,id.asc"
)

// Records is the REST surface the store needs; *supabase.Client provides it.
type Records interface {
	Select(ctx context.Context, table string, query url.Values, out any) error
	Insert(ctx context.Context, table string, body any, out any) error
	Update(ctx context.Context, table string, filter url.Values, body any, out any) error
	Delete(ctx context.Context, table string, filter url.Values, out any) error
}

// Store implements store.Store over the REST API.
type Store struct {
	records Records
}

// NewStore wraps a REST client.
func NewStore(records Records) *Store {
	return &Store{records: records}
}

type productRow struct {
	ID          int64      `json:"id,omitempty"`
	Name        string     `json:"nazwa"`
	Category    string     `json:"kategoria"`
	Subcategory *string    `json:"podkategoria"`
	Dimension   *string    `json:"wymiar"`
	Unit        string     `json:"jednostka"`
	Quantity    float64    `json:"ilosc"`
	Notes       *string    `json:"uwagi"`
	ModifiedBy  *string    `json:"ostatnia_zmiana_przez"`
	ModifiedAt  *time.Time `json:"data_ostatniej_zmiany"`
}

func (r productRow) product() models.Product {
	p := models.Product{
		ID:             r.ID,
		Name:           r.Name,
		Category:       r.Category,
		Subcategory:    blankToNil(r.Subcategory),
		Dimension:      blankToNil(r.Dimension),
		Unit:           models.Unit(r.Unit),
		Quantity:       r.Quantity,
		Notes:          blankToNil(r.Notes),
		LastModifiedBy: blankToNil(r.ModifiedBy),
	}
	if r.ModifiedAt != nil {
		at := r.ModifiedAt.UTC()
		p.LastModifiedAt = &at
	}
	return p
}

type operationRow struct {
	ID        int64     `json:"id,omitempty"`
	ProductID int64     `json:"id_produktu"`
	Kind      string    `json:"typ_operacji"`
	Delta     float64   `json:"ilosc_zmieniona"`
	Actor     string    `json:"pracownik_email"`
	Notes     *string   `json:"uwagi"`
	CreatedAt time.Time `json:"created_at"`
}

func (r operationRow) operation() models.Operation {
	return models.Operation{
		ID:        r.ID,
		ProductID: r.ProductID,
		Kind:      models.OperationKind(r.Kind),
		Delta:     r.Delta,
		Actor:     r.Actor,
		Notes:     blankToNil(r.Notes),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type shoppingRow struct {
	ID        int64     `json:"id"`
	Label     string    `json:"nazwa"`
	Purchased bool      `json:"kupione"`
	CreatedAt time.Time `json:"created_at"`
}

func (r shoppingRow) item() models.ShoppingItem {
	return models.ShoppingItem{ID: r.ID, Label: r.Label, Purchased: r.Purchased, CreatedAt: r.CreatedAt.UTC()}
}

func (s *Store) ListProducts(ctx context.Context, q models.ProductQuery) ([]models.Product, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", productOrder)
	if q.Category != "" {
		params.Set("kategoria", "eq."+q.Category)
	}
	var missing []string
	missing = setLabel(params, missing, "podkategoria", q.Subcategory)
	missing = setLabel(params, missing, "wymiar", q.Dimension)
	switch len(missing) {
	case 1:
		params.Set("or", "("+missing[0]+")")
	case 2:
		params.Set("and", "(or("+missing[0]+"),or("+missing[1]+"))")
	}
	if q.NameLike != "" {
		params.Set("nazwa", "ilike.*"+q.NameLike+"*")
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	var rows []productRow
	if err := s.records.Select(ctx, productsTable, params, &rows); err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.product())
	}
	return out, nil
}

// setLabel adds an equality filter, or collects the NULL-or-blank condition
// for a missing label. PostgREST takes one "or" per query, so the caller
// combines the collected conditions.
func setLabel(params url.Values, missing []string, column string, f *models.LabelFilter) []string {
	switch {
	case f == nil:
	case f.Missing:
		missing = append(missing, column+".is.null,"+column+".eq.")
	default:
		params.Set(column, "eq."+f.Value)
	}
	return missing
}

func (s *Store) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	var rows []productRow
	if err := s.records.Select(ctx, productsTable, byID(id), &rows); err != nil {
		return models.Product{}, err
	}
	if len(rows) == 0 {
		return models.Product{}, store.ErrNotFound
	}
	return rows[0].product(), nil
}

func (s *Store) InsertProduct(ctx context.Context, p models.Product) (models.Product, error) {
	row := productRow{
		Name:        p.Name,
		Category:    p.Category,
		Subcategory: blankToNil(p.Subcategory),
		Dimension:   blankToNil(p.Dimension),
		Unit:        string(p.Unit),
		Quantity:    p.Quantity,
		Notes:       blankToNil(p.Notes),
		ModifiedBy:  p.LastModifiedBy,
		ModifiedAt:  p.LastModifiedAt,
	}
	var rows []productRow
	if err := s.records.Insert(ctx, productsTable, row, &rows); err != nil {
		return models.Product{}, err
	}
	if len(rows) == 0 {
		return models.Product{}, fmt.Errorf("insert %s: no row returned", productsTable)
	}
	return rows[0].product(), nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (models.Product, error) {
	body := productPatchBody(patch)
	if len(body) == 0 {
		return s.GetProduct(ctx, id)
	}
	filter := byID(id)
	if patch.ExpectedQuantity != nil {
		filter.Set("ilosc", "eq."+formatFloat(*patch.ExpectedQuantity))
	}

	var rows []productRow
	if err := s.records.Update(ctx, productsTable, filter, body, &rows); err != nil {
		return models.Product{}, err
	}
	if len(rows) > 0 {
		return rows[0].product(), nil
	}
	if _, err := s.GetProduct(ctx, id); err != nil {
		return models.Product{}, err
	}
	return models.Product{}, store.ErrStaleQuantity
}

func productPatchBody(patch models.ProductPatch) map[string]any {
	body := map[string]any{}
	optional := func(column string, value *string) {
		if value != nil || patch.ClearEmpty {
			body[column] = blankToNil(value)
		}
	}
	if patch.Name != nil {
		body["nazwa"] = *patch.Name
	}
	if patch.Category != nil {
		body["kategoria"] = *patch.Category
	}
	optional("podkategoria", patch.Subcategory)
	optional("wymiar", patch.Dimension)
	if patch.Unit != nil {
		body["jednostka"] = string(*patch.Unit)
	}
	if patch.Quantity != nil {
		body["ilosc"] = *patch.Quantity
	}
	optional("uwagi", patch.Notes)
	if patch.LastModifiedBy != nil {
		body["ostatnia_zmiana_przez"] = *patch.LastModifiedBy
	}
	if patch.LastModifiedAt != nil {
		body["data_ostatniej_zmiany"] = patch.LastModifiedAt.UTC().Format(time.RFC3339Nano)
	}
	return body
}

func (s *Store) InsertOperation(ctx context.Context, op models.Operation) (models.Operation, error) {
	row := map[string]any{
		"id_produktu":     op.ProductID,
		"typ_operacji":    string(op.Kind),
		"ilosc_zmieniona": op.Delta,
		"pracownik_email": op.Actor,
		"uwagi":           blankToNil(op.Notes),
	}
	var rows []operationRow
	if err := s.records.Insert(ctx, operationsTable, row, &rows); err != nil {
		return models.Operation{}, err
	}
	if len(rows) == 0 {
		return models.Operation{}, fmt.Errorf("insert %s: no row returned", operationsTable)
	}
	return rows[0].operation(), nil
}

func (s *Store) ListOperations(ctx context.Context, productID int64, limit int) ([]models.Operation, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("id_produktu", "eq."+strconv.FormatInt(productID, 10))
	params.Set("order", "id.desc")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var rows []operationRow
	if err := s.records.Select(ctx, operationsTable, params, &rows); err != nil {
		return nil, err
	}
	out := make([]models.Operation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.operation())
	}
	return out, nil
}

func (s *Store) ListShoppingItems(ctx context.Context) ([]models.ShoppingItem, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "created_at.asc,id.asc")
	var rows []shoppingRow
	if err := s.records.Select(ctx, shoppingTable, params, &rows); err != nil {
		return nil, err
	}
	out := make([]models.ShoppingItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.item())
	}
	return out, nil
}

func (s *Store) InsertShoppingItem(ctx context.Context, label string) (models.ShoppingItem, error) {
	var rows []shoppingRow
	body := map[string]any{"nazwa": strings.TrimSpace(label), "kupione": false}
	if err := s.records.Insert(ctx, shoppingTable, body, &rows); err != nil {
		return models.ShoppingItem{}, err
	}
	if len(rows) == 0 {
		return models.ShoppingItem{}, fmt.Errorf("insert %s: no row returned", shoppingTable)
	}
	return rows[0].item(), nil
}

func (s *Store) SetShoppingItemPurchased(ctx context.Context, id int64, purchased bool) (models.ShoppingItem, error) {
	var rows []shoppingRow
	if err := s.records.Update(ctx, shoppingTable, byID(id), map[string]any{"kupione": purchased}, &rows); err != nil {
		return models.ShoppingItem{}, err
	}
	if len(rows) == 0 {
		return models.ShoppingItem{}, store.ErrNotFound
	}
	return rows[0].item(), nil
}

func (s *Store) DeleteShoppingItem(ctx context.Context, id int64) error {
	var rows []shoppingRow
	if err := s.records.Delete(ctx, shoppingTable, byID(id), &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Close is a no-op; the HTTP client holds no connection state worth releasing.
func (s *Store) Close(context.Context) error { return nil }

func byID(id int64) url.Values {
	return url.Values{"id": {"eq." + strconv.FormatInt(id, 10)}}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func blankToNil(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	return value
}

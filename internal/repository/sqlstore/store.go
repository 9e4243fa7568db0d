// Package sqlstore persists records through database/sql. The same code serves
// Postgres (pgx) and SQLite (modernc); the Dialect carries the differences.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository/store"
)

var _ store.Store = (*Store)(nil)

const productColumns = `id, nazwa, kategoria, podkategoria, wymiar, jednostka, ilosc, uwagi, ostatnia_zmiana_przez, data_ostatniej_zmiany`

const operationColumns = `id, id_produktu, typ_operacji, ilosc_zmieniona, pracownik_email, uwagi, created_at`

const shoppingColumns = `id, nazwa, kupione, created_at`

// Store implements store.Store on a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// Open connects, pings and applies the schema.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name, err)
	}
	if dialect.Driver == SQLite.Driver {
		// One connection keeps per-connection pragmas and in-memory databases intact.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.Name, err)
	}
	for _, stmt := range dialect.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("execute ddl: %w", err)
		}
	}
	return &Store{db: db, dialect: dialect, now: time.Now}, nil
}

// DB exposes the underlying pool for tests and maintenance tasks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the pool.
func (s *Store) Close(context.Context) error { return s.db.Close() }

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *Store) ListProducts(ctx context.Context, q models.ProductQuery) ([]models.Product, error) {
	var (
		where []string
		args  []any
	)
	if q.Category != "" {
		where = append(where, "kategoria = ?")
		args = append(args, q.Category)
	}
	where, args = labelClause(where, args, "podkategoria", q.Subcategory)
	where, args = labelClause(where, args, "wymiar", q.Dimension)
	if q.NameLike != "" {
		where = append(where, "LOWER(nazwa) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.NameLike)+"%")
	}

	query := "SELECT " + productColumns + " FROM produkty"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY kategoria, podkategoria IS NULL, podkategoria, wymiar IS NULL, wymiar, nazwa, id"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

func labelClause(where []string, args []any, column string, f *models.LabelFilter) ([]string, []any) {
	switch {
	case f == nil:
	case f.Missing:
		where = append(where, fmt.Sprintf("(%s IS NULL OR %s = '')", column, column))
	default:
		where = append(where, column+" = ?")
		args = append(args, f.Value)
	}
	return where, args
}

func (s *Store) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	p, err := scanProduct(s.queryRow(ctx, "SELECT "+productColumns+" FROM produkty WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, store.ErrNotFound
	}
	return p, err
}

func (s *Store) InsertProduct(ctx context.Context, p models.Product) (models.Product, error) {
	row := s.queryRow(ctx, `INSERT INTO produkty (nazwa, kategoria, podkategoria, wymiar, jednostka, ilosc, uwagi, ostatnia_zmiana_przez, data_ostatniej_zmiany)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING `+productColumns,
		p.Name, p.Category, nullString(p.Subcategory), nullString(p.Dimension), string(p.Unit), p.Quantity,
		nullString(p.Notes), nullString(p.LastModifiedBy), nullTime(p.LastModifiedAt))
	created, err := scanProduct(row)
	if err != nil {
		return models.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (models.Product, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.Name != nil {
		set("nazwa", *patch.Name)
	}
	if patch.Category != nil {
		set("kategoria", *patch.Category)
	}
	if patch.Subcategory != nil || patch.ClearEmpty {
		set("podkategoria", nullString(patch.Subcategory))
	}
	if patch.Dimension != nil || patch.ClearEmpty {
		set("wymiar", nullString(patch.Dimension))
	}
	if patch.Unit != nil {
		set("jednostka", string(*patch.Unit))
	}
	if patch.Quantity != nil {
		set("ilosc", *patch.Quantity)
	}
	if patch.Notes != nil || patch.ClearEmpty {
		set("uwagi", nullString(patch.Notes))
	}
	if patch.LastModifiedBy != nil {
		set("ostatnia_zmiana_przez", *patch.LastModifiedBy)
	}
	if patch.LastModifiedAt != nil {
		set("data_ostatniej_zmiany", patch.LastModifiedAt.UTC())
	}
	if len(sets) == 0 {
		return s.GetProduct(ctx, id)
	}

	query := "UPDATE produkty SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)
	if patch.ExpectedQuantity != nil {
		query += " AND ilosc = ?"
		args = append(args, *patch.ExpectedQuantity)
	}
	query += " RETURNING " + productColumns

	updated, err := scanProduct(s.queryRow(ctx, query, args...))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, fmt.Errorf("update product: %w", err)
	}
	if _, getErr := s.GetProduct(ctx, id); getErr != nil {
		return models.Product{}, getErr
	}
	return models.Product{}, store.ErrStaleQuantity
}

func (s *Store) InsertOperation(ctx context.Context, op models.Operation) (models.Operation, error) {
	row := s.queryRow(ctx, `INSERT INTO operacje (id_produktu, typ_operacji, ilosc_zmieniona, pracownik_email, uwagi, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING `+operationColumns,
		op.ProductID, string(op.Kind), op.Delta, op.Actor, nullString(op.Notes), s.now().UTC())
	created, err := scanOperation(row)
	if err != nil {
		return models.Operation{}, fmt.Errorf("insert operation: %w", err)
	}
	return created, nil
}

func (s *Store) ListOperations(ctx context.Context, productID int64, limit int) ([]models.Operation, error) {
	query := "SELECT " + operationColumns + " FROM operacje WHERE id_produktu = ? ORDER BY id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("select operations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return out, nil
}

func (s *Store) ListShoppingItems(ctx context.Context) ([]models.ShoppingItem, error) {
	rows, err := s.query(ctx, "SELECT "+shoppingColumns+" FROM lista_zakupow_niestandardowa ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("select shopping items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.ShoppingItem
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shopping items: %w", err)
	}
	return out, nil
}

func (s *Store) InsertShoppingItem(ctx context.Context, label string) (models.ShoppingItem, error) {
	row := s.queryRow(ctx, "INSERT INTO lista_zakupow_niestandardowa (nazwa, kupione, created_at) VALUES (?, ?, ?) RETURNING "+shoppingColumns,
		strings.TrimSpace(label), false, s.now().UTC())
	item, err := scanShoppingItem(row)
	if err != nil {
		return models.ShoppingItem{}, fmt.Errorf("insert shopping item: %w", err)
	}
	return item, nil
}

func (s *Store) SetShoppingItemPurchased(ctx context.Context, id int64, purchased bool) (models.ShoppingItem, error) {
	row := s.queryRow(ctx, "UPDATE lista_zakupow_niestandardowa SET kupione = ? WHERE id = ? RETURNING "+shoppingColumns, purchased, id)
	item, err := scanShoppingItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ShoppingItem{}, store.ErrNotFound
	}
	if err != nil {
		return models.ShoppingItem{}, fmt.Errorf("update shopping item: %w", err)
	}
	return item, nil
}

func (s *Store) DeleteShoppingItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.dialect.Rebind("DELETE FROM lista_zakupow_niestandardowa WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (models.Product, error) {
	var (
		p                           models.Product
		unit                        string
		sub, dim, notes, modifiedBy sql.NullString
		modifiedAt                  sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &sub, &dim, &unit, &p.Quantity, &notes, &modifiedBy, &modifiedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Product{}, err
		}
		return models.Product{}, fmt.Errorf("scan product: %w", err)
	}
	p.Unit = models.Unit(unit)
	p.Subcategory = fromNullString(sub)
	p.Dimension = fromNullString(dim)
	p.Notes = fromNullString(notes)
	p.LastModifiedBy = fromNullString(modifiedBy)
	if modifiedAt.Valid {
		at := modifiedAt.Time.UTC()
		p.LastModifiedAt = &at
	}
	return p, nil
}

func scanOperation(row scanner) (models.Operation, error) {
	var (
		op    models.Operation
		kind  string
		notes sql.NullString
	)
	if err := row.Scan(&op.ID, &op.ProductID, &kind, &op.Delta, &op.Actor, &notes, &op.CreatedAt); err != nil {
		return models.Operation{}, fmt.Errorf("scan operation: %w", err)
	}
	op.Kind = models.OperationKind(kind)
	op.Notes = fromNullString(notes)
	op.CreatedAt = op.CreatedAt.UTC()
	return op, nil
}

func scanShoppingItem(row scanner) (models.ShoppingItem, error) {
	var item models.ShoppingItem
	if err := row.Scan(&item.ID, &item.Label, &item.Purchased, &item.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ShoppingItem{}, err
		}
		return models.ShoppingItem{}, fmt.Errorf("scan shopping item: %w", err)
	}
	item.CreatedAt = item.CreatedAt.UTC()
	return item, nil
}

func nullString(value *string) sql.NullString {
	if value == nil || *value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func fromNullString(value sql.NullString) *string {
	if !value.Valid || value.String == "" {
		return nil
	}
	s := value.String
	return &s
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value.UTC(), Valid: true}
}

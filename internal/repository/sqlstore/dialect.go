package sqlstore

import (
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Dialect captures what differs between the supported SQL engines.
type Dialect struct {
	Name   string
	Driver string
	// Numbered placeholders ($1, $2, ...) instead of '?'.
	Numbered bool
	Schema   []string
}

// Postgres targets the same tables the hosted backend uses, so the store can
// be pointed straight at that database.
var Postgres = Dialect{
	Name:     "postgres",
	Driver:   "pgx",
	Numbered: true,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS produkty (
			id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			nazwa TEXT NOT NULL,
			kategoria TEXT NOT NULL,
			podkategoria TEXT,
			wymiar TEXT,
			jednostka TEXT NOT NULL DEFAULT 'szt.',
			ilosc NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (ilosc >= 0),
			uwagi TEXT,
			ostatnia_zmiana_przez TEXT,
			data_ostatniej_zmiany TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS operacje (
			id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			id_produktu BIGINT NOT NULL REFERENCES produkty(id) ON DELETE CASCADE,
			typ_operacji TEXT NOT NULL,
			ilosc_zmieniona NUMERIC(14,2) NOT NULL,
			pracownik_email TEXT NOT NULL,
			uwagi TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS operacje_id_produktu_idx ON operacje (id_produktu, id DESC)`,
		`CREATE TABLE IF NOT EXISTS lista_zakupow_niestandardowa (
			id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			nazwa TEXT NOT NULL,
			kupione BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
}

// SQLite keeps the same layout in a single local file.
var SQLite = Dialect{
	Name:   "sqlite",
	Driver: "sqlite",
	Schema: []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS produkty (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nazwa TEXT NOT NULL,
			kategoria TEXT NOT NULL,
			podkategoria TEXT,
			wymiar TEXT,
			jednostka TEXT NOT NULL DEFAULT 'szt.',
			ilosc REAL NOT NULL DEFAULT 0 CHECK (ilosc >= 0),
			uwagi TEXT,
			ostatnia_zmiana_przez TEXT,
			data_ostatniej_zmiany TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS operacje (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			id_produktu INTEGER NOT NULL REFERENCES produkty(id) ON DELETE CASCADE,
			typ_operacji TEXT NOT NULL,
			ilosc_zmieniona REAL NOT NULL,
			pracownik_email TEXT NOT NULL,
			uwagi TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS operacje_id_produktu_idx ON operacje (id_produktu, id DESC)`,
		`CREATE TABLE IF NOT EXISTS lista_zakupow_niestandardowa (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nazwa TEXT NOT NULL,
			kupione BOOLEAN NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
	},
}

// Rebind rewrites '?' placeholders for dialects with numbered parameters.
// Queries in this package never contain a literal question mark.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

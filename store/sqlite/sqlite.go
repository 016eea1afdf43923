// Package sqlite implements the relational store capability over SQLite,
// including the one-time synthetic patient dataset the system ships with.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/sweetpotato0/carequery/pkg/logging"
	"github.com/sweetpotato0/carequery/store"
)

// Store implements store.Store over a SQLite database file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the SQLite database at path. Use ":memory:"
// for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return &Store{
		db:     db,
		logger: logging.WithComponent("sqlite_store"),
	}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Execute runs a read-only query. Statements the dialect parser rejects, and
// statements that are not plain SELECTs, return a *store.ExecutionError.
func (s *Store) Execute(ctx context.Context, query string) (*store.ResultSet, error) {
	if err := store.EnsureReadOnly(query); err != nil {
		return nil, &store.ExecutionError{Query: query, Err: err}
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &store.ExecutionError{Query: query, Err: err}
	}
	defer rows.Close()
	return store.ScanResultSet(rows)
}

// Schema introspects all user tables via sqlite_master and PRAGMA
// table_info, in stable name order.
func (s *Store) Schema(ctx context.Context) (store.Schema, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	schema := make(store.Schema, 0, len(names))
	for _, name := range names {
		table, err := s.tableInfo(ctx, name)
		if err != nil {
			return nil, err
		}
		schema = append(schema, table)
	}
	return schema, nil
}

func (s *Store) tableInfo(ctx context.Context, name string) (store.Table, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", name))
	if err != nil {
		return store.Table{}, fmt.Errorf("table info for %s: %w", name, err)
	}
	defer rows.Close()

	table := store.Table{Name: name}
	for rows.Next() {
		var (
			cid        int
			colName    string
			colType    string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultVal, &pk); err != nil {
			return store.Table{}, fmt.Errorf("scan column for %s: %w", name, err)
		}
		table.Columns = append(table.Columns, store.Column{Name: colName, Type: colType})
	}
	if err := rows.Err(); err != nil {
		return store.Table{}, fmt.Errorf("iterate columns for %s: %w", name, err)
	}
	return table, nil
}

// SamplePatients returns a small preview of the patient table for display.
func (s *Store) SamplePatients(ctx context.Context) (*store.ResultSet, error) {
	return s.Execute(ctx,
		`SELECT patient_id, first_name, last_name, city, state, contact_no FROM patients LIMIT 10`)
}

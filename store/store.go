// Package store defines the relational store capability: executing generated
// read-only queries and introspecting the schema that grounds their
// generation.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Column is one typed column in a table schema.
type Column struct {
	Name string
	Type string
}

// Table is one table with its columns in declaration order.
type Table struct {
	Name    string
	Columns []Column
}

// Schema describes the live store: tables in a stable order, each with its
// typed columns. It must reflect the store at query time; a stale schema
// degrades translation quality silently rather than failing.
type Schema []Table

// Render formats the schema as the plain-text block that is embedded into
// the query-generation prompt.
func (s Schema) Render() string {
	var b strings.Builder
	for i, table := range s {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "TABLE: %s\nCOLUMNS:\n", table.Name)
		for _, col := range table.Columns {
			fmt.Fprintf(&b, "  - %s (%s)\n", col.Name, col.Type)
		}
	}
	return b.String()
}

// ResultSet holds query results: column labels in store-declared order and
// rows of scalar values in the same order.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Empty reports whether the query matched no records. An empty ResultSet is
// a valid answer, distinct from an execution error.
func (rs *ResultSet) Empty() bool {
	return rs == nil || len(rs.Rows) == 0
}

// ExecutionError indicates the store's dialect parser rejected the
// statement. It is distinct from a successful empty result.
type ExecutionError struct {
	Query string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Store is the relational store capability: read-only query execution plus
// schema introspection.
type Store interface {
	// Execute runs a read-only query and returns labeled rows, or an
	// *ExecutionError when the dialect parser rejects the statement.
	Execute(ctx context.Context, query string) (*ResultSet, error)

	// Schema introspects the live store.
	Schema(ctx context.Context) (Schema, error)
}

// EnsureReadOnly rejects anything but a single SELECT statement. Generated
// queries are not trusted to honor the prompt's read-only instruction.
func EnsureReadOnly(query string) error {
	trimmed := strings.TrimSpace(query)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if trimmed == "" {
		return fmt.Errorf("empty query")
	}
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("multiple statements are not allowed")
	}
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("only SELECT statements are allowed")
	}
	return nil
}

// ScanResultSet drains sql.Rows into a ResultSet, preserving column order.
func ScanResultSet(rows *sql.Rows) (*ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	rs := &ResultSet{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return rs, nil
}

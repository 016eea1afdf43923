package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sweetpotato0/carequery/store"
)

func openSeeded(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "patients.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Seed(context.Background()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	return s
}

func TestSeedPopulatesPatients(t *testing.T) {
	s := openSeeded(t)

	rs, err := s.Execute(context.Background(), "SELECT COUNT(*) FROM patients")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := rs.Rows[0][0]; got != int64(20) {
		t.Errorf("patient count = %v, want 20", got)
	}

	for _, table := range []string{"medical_records", "appointments"} {
		rs, err := s.Execute(context.Background(), "SELECT COUNT(*) FROM "+table)
		if err != nil {
			t.Fatalf("Execute(%s) error = %v", table, err)
		}
		if n := rs.Rows[0][0].(int64); n == 0 {
			t.Errorf("%s is empty after seeding", table)
		}
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	s := openSeeded(t)
	if err := s.Seed(context.Background()); err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}

	rs, err := s.Execute(context.Background(), "SELECT COUNT(*) FROM patients")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := rs.Rows[0][0]; got != int64(20) {
		t.Errorf("patient count after reseed = %v, want 20", got)
	}
}

func TestSchemaIntrospection(t *testing.T) {
	s := openSeeded(t)

	schema, err := s.Schema(context.Background())
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	if len(schema) != 3 {
		t.Fatalf("Schema() returned %d tables, want 3", len(schema))
	}

	rendered := schema.Render()
	for _, want := range []string{
		"TABLE: appointments",
		"TABLE: medical_records",
		"TABLE: patients",
		"- patient_id (INTEGER)",
		"- diagnosis (TEXT)",
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("Schema().Render() missing %q:\n%s", want, rendered)
		}
	}
}

func TestExecuteRejectsWrites(t *testing.T) {
	s := openSeeded(t)

	_, err := s.Execute(context.Background(), "DELETE FROM patients")
	var execErr *store.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Execute(DELETE) error = %v, want *store.ExecutionError", err)
	}
	if execErr.Query != "DELETE FROM patients" {
		t.Errorf("ExecutionError.Query = %q", execErr.Query)
	}
}

func TestExecuteBadSQL(t *testing.T) {
	s := openSeeded(t)

	_, err := s.Execute(context.Background(), "SELECT nonexistent_column FROM patients")
	var execErr *store.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Execute(bad column) error = %v, want *store.ExecutionError", err)
	}
}

func TestExecuteEmptyResultIsNotError(t *testing.T) {
	s := openSeeded(t)

	rs, err := s.Execute(context.Background(),
		"SELECT first_name FROM patients WHERE first_name = 'Nobody'")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !rs.Empty() {
		t.Errorf("ResultSet.Empty() = false, want true")
	}
	if len(rs.Columns) != 1 || rs.Columns[0] != "first_name" {
		t.Errorf("empty result kept columns %v, want [first_name]", rs.Columns)
	}
}

func TestSamplePatients(t *testing.T) {
	s := openSeeded(t)

	rs, err := s.SamplePatients(context.Background())
	if err != nil {
		t.Fatalf("SamplePatients() error = %v", err)
	}
	if len(rs.Rows) != 10 {
		t.Errorf("SamplePatients() returned %d rows, want 10", len(rs.Rows))
	}
	if rs.Columns[1] != "first_name" {
		t.Errorf("columns = %v", rs.Columns)
	}
}

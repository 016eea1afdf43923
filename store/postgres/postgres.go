// Package postgres implements the relational store capability over
// PostgreSQL for deployments that outgrow the bundled SQLite file.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"github.com/sweetpotato0/carequery/pkg/logging"
	"github.com/sweetpotato0/carequery/store"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultConfig returns connection settings for a local development server.
func DefaultConfig() *Config {
	return &Config{
		Host:    "localhost",
		Port:    5432,
		User:    "postgres",
		DBName:  "carequery",
		SSLMode: "disable",
	}
}

// ConfigFromEnv loads connection settings from POSTGRES_* environment
// variables, falling back to the development defaults.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		cfg.DBName = v
	}
	if v := os.Getenv("POSTGRES_SSLMODE"); v != "" {
		cfg.SSLMode = v
	}
	return cfg
}

// DSN renders the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Store implements store.Store over a PostgreSQL database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to PostgreSQL with the given configuration. A nil config
// loads settings from the environment.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = ConfigFromEnv()
	}
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres database: %w", err)
	}
	return &Store{
		db:     db,
		logger: logging.WithComponent("postgres_store"),
	}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Execute runs a read-only query. Non-SELECT statements and statements the
// server rejects return a *store.ExecutionError.
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

// SamplePatients returns a small preview of the patient table for display.
func (s *Store) SamplePatients(ctx context.Context) (*store.ResultSet, error) {
	return s.Execute(ctx,
		`SELECT patient_id, first_name, last_name, city, state, contact_no FROM patients LIMIT 10`)
}

// Schema introspects all public tables via information_schema, in stable
// name order.
func (s *Store) Schema(ctx context.Context) (store.Schema, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public'
		ORDER BY table_name, ordinal_position`)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	var schema store.Schema
	for rows.Next() {
		var tableName, columnName, dataType string
		if err := rows.Scan(&tableName, &columnName, &dataType); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		if len(schema) == 0 || schema[len(schema)-1].Name != tableName {
			schema = append(schema, store.Table{Name: tableName})
		}
		schema[len(schema)-1].Columns = append(schema[len(schema)-1].Columns,
			store.Column{Name: columnName, Type: dataType})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return schema, nil
}

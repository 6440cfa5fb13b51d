package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/wordduel/internal/config"
)

// ErrNotFound is returned by point reads that match no row
var ErrNotFound = errors.New("record not found")

// DB wraps the sqlx connection. Every query is written with ? placeholders
// and rebound for the active driver.
type DB struct {
	*sqlx.DB
}

// Connect opens the database selected by cfg and initializes the schema
func Connect(ctx context.Context, cfg *config.Config) (*DB, error) {
	switch cfg.DBType {
	case "postgres", "postgresql":
		return ConnectPostgres(ctx, cfg.DatabaseURL)
	default:
		return ConnectSQLite(ctx, cfg.DBPath)
	}
}

// ConnectSQLite opens (creating if needed) a SQLite database at path
func ConnectSQLite(ctx context.Context, path string) (*DB, error) {
	// Create data directory if it doesn't exist
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	conn, err := sqlx.ConnectContext(ctx, "sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite doesn't support multiple writers
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{DB: conn}
	if err := db.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// ConnectPostgres opens a PostgreSQL database from a connection URL
func ConnectPostgres(ctx context.Context, url string) (*DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	db := &DB{DB: conn}
	if err := db.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// IsPostgres reports whether the active driver is PostgreSQL
func (db *DB) IsPostgres() bool {
	return db.DriverName() == "postgres"
}

// GetContext runs a single-row query into dest, mapping no rows to ErrNotFound
func (db *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	err := db.DB.GetContext(ctx, dest, db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// SelectContext runs a multi-row query into dest
func (db *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return db.DB.SelectContext(ctx, dest, db.Rebind(query), args...)
}

// ExecContext runs a single statement outside of a batch
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Rebind(query), args...)
}

// InsertReturningID executes an INSERT and returns the new row's ID
func (db *DB) InsertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if db.IsPostgres() {
		query = strings.TrimRight(strings.TrimSpace(query), ";") + " RETURNING id"
		var id int64
		if err := db.DB.QueryRowxContext(ctx, db.Rebind(query), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := db.DB.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Table is the name of the items table.
const Table = "cars"

// schema creates the items table. AUTOINCREMENT keeps ids from being reused
// after a delete; dropping the table resets the counter.
const schema = `
CREATE TABLE IF NOT EXISTS cars (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL CHECK (trim(name) <> ''),
    year        INTEGER NOT NULL,
    price       REAL NOT NULL,
    description TEXT,
    image_url   TEXT
);

CREATE INDEX IF NOT EXISTS idx_cars_name ON cars(name);
`

const dropSchema = `DROP TABLE IF EXISTS cars`

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// EnsureSchema creates all tables and indexes if they don't already exist
// and records the schema version.
func EnsureSchema(db *sql.DB) error {
	ctx := context.Background()
	if err := checkVersion(ctx, db); err != nil {
		return err
	}
	if err := createSchema(ctx, db); err != nil {
		return err
	}
	return setVersion(ctx, db)
}

// ResetSchema drops and recreates the items table in one transaction.
func ResetSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, dropSchema); err != nil {
		return fmt.Errorf("dropping schema: %w", err)
	}
	if err := createSchema(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema reset: %w", err)
	}
	return nil
}

func createSchema(ctx context.Context, db execer) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

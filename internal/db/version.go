package db

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the version stored in PRAGMA user_version.
const SchemaVersion = 1

// Version returns the schema version recorded in the database.
func Version(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("getting user_version: %w", err)
	}
	return version, nil
}

// checkVersion rejects databases written by a newer schema.
func checkVersion(ctx context.Context, db *sql.DB) error {
	version, err := Version(ctx, db)
	if err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("unsupported schema version %d (expected at most %d)", version, SchemaVersion)
	}
	return nil
}

func setVersion(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("setting user_version: %w", err)
	}
	return nil
}

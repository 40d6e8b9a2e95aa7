// Package sqlite stores items in the "cars" table of an embedded SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/N474NR4/UCHI-Subaru/internal/db"
	"github.com/N474NR4/UCHI-Subaru/internal/model"
	"github.com/N474NR4/UCHI-Subaru/internal/store"
)

const selectColumns = `SELECT id, name, year, price, description, image_url FROM cars`

// Backend is a store.Backend over a SQLite database file.
type Backend struct {
	path string
	db   *sql.DB
}

// New returns a backend for the database at path. Use ":memory:" for a
// database that lives only as long as the process.
func New(path string) *Backend {
	return &Backend{path: path}
}

// Name implements store.Backend.
func (b *Backend) Name() string {
	return "sqlite"
}

// Open opens the database and ensures the schema exists.
func (b *Backend) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	database, err := db.Open(ctx, b.path)
	if err != nil {
		return err
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return err
	}
	b.db = database
	return nil
}

// Close closes the database.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Insert creates a new row and returns its id.
func (b *Backend) Insert(ctx context.Context, item model.Item) (int64, error) {
	result, err := b.db.ExecContext(ctx,
		`INSERT INTO cars (name, year, price, description, image_url) VALUES (?, ?, ?, ?, ?)`,
		item.Name, item.Year, item.Price, nullString(item.Description), nullString(item.ImageRef),
	)
	if err != nil {
		return 0, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting item id: %w", err)
	}
	return id, nil
}

// Get returns an item by ID.
func (b *Backend) Get(ctx context.Context, id int64) (model.Item, error) {
	item, err := scanItem(b.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, store.ErrNotFound
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// List returns all items in primary key order.
func (b *Backend) List(ctx context.Context) ([]model.Item, error) {
	rows, err := b.db.QueryContext(ctx, selectColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Replace overwrites every column of an existing row.
func (b *Backend) Replace(ctx context.Context, item model.Item) error {
	result, err := b.db.ExecContext(ctx,
		`UPDATE cars SET name = ?, year = ?, price = ?, description = ?, image_url = ?
		 WHERE id = ?`,
		item.Name, item.Year, item.Price, nullString(item.Description), nullString(item.ImageRef), item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return requireRow(result)
}

// Remove deletes a row.
func (b *Backend) Remove(ctx context.Context, id int64) error {
	result, err := b.db.ExecContext(ctx, `DELETE FROM cars WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return requireRow(result)
}

// Clear drops and recreates the table, which also restarts ids at 1.
func (b *Backend) Clear(ctx context.Context) error {
	return db.ResetSchema(ctx, b.db)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (model.Item, error) {
	var item model.Item
	var description, imageURL sql.NullString
	if err := row.Scan(&item.ID, &item.Name, &item.Year, &item.Price, &description, &imageURL); err != nil {
		return model.Item{}, err
	}
	if description.Valid {
		item.Description = &description.String
	}
	if imageURL.Valid {
		item.ImageRef = &imageURL.String
	}
	return item, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// requireRow turns an UPDATE or DELETE that matched nothing into ErrNotFound.
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

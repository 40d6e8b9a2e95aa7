package bolt

import (
	"context"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"github.com/N474NR4/UCHI-Subaru/internal/model"
	"github.com/N474NR4/UCHI-Subaru/internal/store"
)

func openTestBackend(t *testing.T, path string) *Backend {
	t.Helper()
	b := New(path)
	if err := b.Open(context.Background()); err != nil {
		t.Fatalf("open backend: %v", err)
	}
	return b
}

func TestInsertGetRoundTrip(t *testing.T) {
	b := openTestBackend(t, filepath.Join(t.TempDir(), "models.db"))
	defer b.Close()
	ctx := context.Background()

	id, err := b.Insert(ctx, model.Item{
		Name:     "Impreza",
		Year:     2023,
		Price:    120000,
		ImageRef: model.OptionalText("https://example.com/impreza.jpg"),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}

	loaded, err := b.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.ID != id || loaded.Name != "Impreza" || loaded.Year != 2023 || loaded.Price != 120000 {
		t.Fatalf("unexpected model: %+v", loaded)
	}
	if loaded.Description != nil {
		t.Fatalf("expected no description, got %q", *loaded.Description)
	}
	if model.TextValue(loaded.ImageRef) != "https://example.com/impreza.jpg" {
		t.Fatalf("expected image ref, got %v", loaded.ImageRef)
	}
}

func TestGetNotFound(t *testing.T) {
	b := openTestBackend(t, filepath.Join(t.TempDir(), "models.db"))
	defer b.Close()

	_, err := b.Get(context.Background(), 9)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestIDsNotReusedAfterDelete(t *testing.T) {
	b := openTestBackend(t, filepath.Join(t.TempDir(), "models.db"))
	defer b.Close()
	ctx := context.Background()

	first, _ := b.Insert(ctx, model.Item{Name: "Forester"})
	second, _ := b.Insert(ctx, model.Item{Name: "Outback"})
	if err := b.Remove(ctx, second); err != nil {
		t.Fatalf("remove: %v", err)
	}
	third, _ := b.Insert(ctx, model.Item{Name: "Ascent"})

	if first != 1 || second != 2 || third != 3 {
		t.Fatalf("expected ids 1, 2, 3, got %d, %d, %d", first, second, third)
	}

	items, err := b.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].Name != "Forester" || items[1].Name != "Ascent" {
		t.Fatalf("unexpected list: %+v", items)
	}
}

func TestReplaceRemoveMissing(t *testing.T) {
	b := openTestBackend(t, filepath.Join(t.TempDir(), "models.db"))
	defer b.Close()
	ctx := context.Background()

	if err := b.Replace(ctx, model.Item{ID: 5, Name: "Legacy"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("replace: expected not found, got %v", err)
	}
	if err := b.Remove(ctx, 5); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("remove: expected not found, got %v", err)
	}

	items, _ := b.List(ctx)
	if len(items) != 0 {
		t.Fatalf("replace of missing id must not upsert, got %d items", len(items))
	}
}

func TestClearResetsSequence(t *testing.T) {
	b := openTestBackend(t, filepath.Join(t.TempDir(), "models.db"))
	defer b.Close()
	ctx := context.Background()

	b.Insert(ctx, model.Item{Name: "Impreza"})
	b.Insert(ctx, model.Item{Name: "WRX"})

	if err := b.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	items, _ := b.List(ctx)
	if len(items) != 0 {
		t.Fatalf("expected empty bucket, got %d items", len(items))
	}

	id, _ := b.Insert(ctx, model.Item{Name: "BRZ"})
	if id != 1 {
		t.Fatalf("expected id 1 after clear, got %d", id)
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.db")
	ctx := context.Background()

	b := openTestBackend(t, path)
	b.Insert(ctx, model.Item{Name: "Crosstrek", Year: 2022})
	b.Close()

	b = openTestBackend(t, path)
	defer b.Close()

	items, err := b.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Crosstrek" {
		t.Fatalf("expected persisted record, got %+v", items)
	}

	id, _ := b.Insert(ctx, model.Item{Name: "Solterra"})
	if id != 2 {
		t.Fatalf("expected sequence to continue at 2, got %d", id)
	}
}

func TestOpenRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.db")

	raw, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	err = raw.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		if err != nil {
			return err
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, SchemaVersion+1)
		return meta.Put([]byte(versionKey), buf)
	})
	if err != nil {
		t.Fatalf("seed version: %v", err)
	}
	raw.Close()

	b := New(path)
	if err := b.Open(context.Background()); err == nil {
		b.Close()
		t.Fatal("expected error for newer schema version")
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if err := New("  ").Open(context.Background()); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestCanceledContext(t *testing.T) {
	b := openTestBackend(t, filepath.Join(t.TempDir(), "models.db"))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Insert(ctx, model.Item{Name: "Baja"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

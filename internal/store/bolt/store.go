// Package bolt stores items in the "models" bucket of a BoltDB file.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/N474NR4/UCHI-Subaru/internal/model"
	"github.com/N474NR4/UCHI-Subaru/internal/store"
)

const (
	modelsBucket = "models"
	metaBucket   = "meta"
	versionKey   = "version"
)

// SchemaVersion is the collection layout version stored in the meta bucket.
const SchemaVersion = 1

// Backend is a store.Backend over a BoltDB file. Keys are big-endian ids
// taken from the bucket sequence, so cursor order is insertion order.
type Backend struct {
	path string
	db   *bbolt.DB
}

// New returns a backend for the BoltDB file at path.
func New(path string) *Backend {
	return &Backend{path: path}
}

// Name implements store.Backend.
func (b *Backend) Name() string {
	return "bolt"
}

// Open opens the BoltDB file and ensures the buckets exist.
func (b *Backend) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(b.path) == "" {
		return fmt.Errorf("storage path is required")
	}

	database, err := bbolt.Open(filepath.Clean(b.path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("open storage db: %w", err)
	}

	if err := ensureBuckets(database); err != nil {
		_ = database.Close()
		return err
	}
	b.db = database
	return nil
}

// Close closes the underlying BoltDB database.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Insert stores a new record under the next bucket sequence number.
func (b *Backend) Insert(ctx context.Context, item model.Item) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var id int64
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := models(tx)
		if err != nil {
			return err
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		item.ID = int64(seq)
		if err := put(bucket, item); err != nil {
			return err
		}
		id = item.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get fetches a record by id.
func (b *Backend) Get(ctx context.Context, id int64) (model.Item, error) {
	if err := ctx.Err(); err != nil {
		return model.Item{}, err
	}

	var item model.Item
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket, err := models(tx)
		if err != nil {
			return err
		}
		payload := bucket.Get(itemKey(id))
		if payload == nil {
			return store.ErrNotFound
		}
		return decode(payload, &item)
	})
	if err != nil {
		return model.Item{}, err
	}
	return item, nil
}

// List returns every record in key order.
func (b *Backend) List(ctx context.Context) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var items []model.Item
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket, err := models(tx)
		if err != nil {
			return err
		}
		return bucket.ForEach(func(_, payload []byte) error {
			var item model.Item
			if err := decode(payload, &item); err != nil {
				return err
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Replace overwrites an existing record.
func (b *Backend) Replace(ctx context.Context, item model.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := models(tx)
		if err != nil {
			return err
		}
		if bucket.Get(itemKey(item.ID)) == nil {
			return store.ErrNotFound
		}
		return put(bucket, item)
	})
}

// Remove deletes an existing record.
func (b *Backend) Remove(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := models(tx)
		if err != nil {
			return err
		}
		key := itemKey(id)
		if bucket.Get(key) == nil {
			return store.ErrNotFound
		}
		if err := bucket.Delete(key); err != nil {
			return fmt.Errorf("delete model: %w", err)
		}
		return nil
	})
}

// Clear deletes and recreates the models bucket, which resets its sequence.
func (b *Backend) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(modelsBucket)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("delete models bucket: %w", err)
		}
		if _, err := tx.CreateBucket([]byte(modelsBucket)); err != nil {
			return fmt.Errorf("create models bucket: %w", err)
		}
		return nil
	})
}

func ensureBuckets(db *bbolt.DB) error {
	return db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		if err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}
		if err := checkVersion(meta); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(modelsBucket)); err != nil {
			return fmt.Errorf("create models bucket: %w", err)
		}
		return nil
	})
}

// checkVersion records the layout version, rejecting files from a newer one.
func checkVersion(meta *bbolt.Bucket) error {
	if raw := meta.Get([]byte(versionKey)); raw != nil {
		if len(raw) != 8 {
			return fmt.Errorf("malformed schema version")
		}
		if v := binary.BigEndian.Uint64(raw); v > SchemaVersion {
			return fmt.Errorf("unsupported schema version %d (expected at most %d)", v, SchemaVersion)
		}
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, SchemaVersion)
	if err := meta.Put([]byte(versionKey), buf); err != nil {
		return fmt.Errorf("store schema version: %w", err)
	}
	return nil
}

func models(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	bucket := tx.Bucket([]byte(modelsBucket))
	if bucket == nil {
		return nil, fmt.Errorf("models bucket is missing")
	}
	return bucket, nil
}

func put(bucket *bbolt.Bucket, item model.Item) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := bucket.Put(itemKey(item.ID), payload); err != nil {
		return fmt.Errorf("put model: %w", err)
	}
	return nil
}

func decode(payload []byte, item *model.Item) error {
	if err := json.Unmarshal(payload, item); err != nil {
		return fmt.Errorf("unmarshal model: %w", err)
	}
	return nil
}

func itemKey(id int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

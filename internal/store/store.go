package store

import (
	"context"
	"errors"
	"sync"

	"github.com/N474NR4/UCHI-Subaru/internal/model"
)

// Backend is the storage capability a Store runs on. Implementations own a
// single collection of items and assign ids on insert.
//
// Replace and Remove return ErrNotFound when the id does not exist.
type Backend interface {
	// Name identifies the backend in logs and health output.
	Name() string
	// Open connects to the engine and creates the collection if absent.
	Open(ctx context.Context) error
	Insert(ctx context.Context, item model.Item) (int64, error)
	Get(ctx context.Context, id int64) (model.Item, error)
	List(ctx context.Context) ([]model.Item, error)
	Replace(ctx context.Context, item model.Item) error
	Remove(ctx context.Context, id int64) error
	// Clear empties the collection and recreates it.
	Clear(ctx context.Context) error
	Close() error
}

// Store provides CRUD over one collection of items.
// Backend operations are issued one at a time.
type Store struct {
	mu      sync.Mutex
	backend Backend
	opened  bool
	session *EditSession
}

// New creates a store on top of the given backend. Call Open before use.
func New(b Backend) *Store {
	s := &Store{backend: b}
	s.session = &EditSession{store: s}
	return s
}

// Backend returns the name of the underlying backend.
func (s *Store) Backend() string {
	return s.backend.Name()
}

// Session returns the store's edit session.
func (s *Store) Session() *EditSession {
	return s.session
}

// Open connects to the backend. Calling it again after success is a no-op.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.backend.Open(ctx); err != nil {
		return &Error{Op: "open", Kind: ErrBackendUnavailable, Err: err}
	}
	s.opened = true
	return nil
}

// Close releases the backend. A later Open connects again.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return nil
	}
	s.opened = false
	return s.backend.Close()
}

// Create persists a new item and returns the id assigned by the backend.
func (s *Store) Create(ctx context.Context, item model.Item) (int64, error) {
	if !item.IsNew() {
		return 0, &Error{Op: "create", Kind: ErrWrite, Err: errors.New("item already has an id")}
	}
	if err := item.Validate(); err != nil {
		return 0, &Error{Op: "create", Kind: ErrWrite, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx, "create"); err != nil {
		return 0, err
	}
	id, err := s.backend.Insert(ctx, item)
	if err != nil {
		return 0, wrap("create", ErrWrite, err)
	}
	return id, nil
}

// Get returns the item with the given id.
func (s *Store) Get(ctx context.Context, id int64) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx, "get"); err != nil {
		return model.Item{}, err
	}
	item, err := s.backend.Get(ctx, id)
	if err != nil {
		return model.Item{}, wrap("get", ErrQuery, err)
	}
	return item, nil
}

// ReadAll returns every item in the backend's natural order. Each call
// queries the backend again.
func (s *Store) ReadAll(ctx context.Context) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx, "read all"); err != nil {
		return nil, err
	}
	items, err := s.backend.List(ctx)
	if err != nil {
		return nil, wrap("read all", ErrQuery, err)
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// Search returns the items whose name contains query, ignoring case.
func (s *Store) Search(ctx context.Context, query string) ([]model.Item, error) {
	items, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(items, query), nil
}

// Update replaces every field of the existing item with the same id.
func (s *Store) Update(ctx context.Context, item model.Item) error {
	if item.IsNew() {
		return &Error{Op: "update", Kind: ErrWrite, Err: errors.New("item has no id")}
	}
	if err := item.Validate(); err != nil {
		return &Error{Op: "update", Kind: ErrWrite, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx, "update"); err != nil {
		return err
	}
	return wrap("update", ErrWrite, s.backend.Replace(ctx, item))
}

// Delete removes the item with the given id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx, "delete"); err != nil {
		return err
	}
	if err := s.backend.Remove(ctx, id); err != nil {
		return wrap("delete", ErrWrite, err)
	}
	s.session.forget(id)
	return nil
}

// ClearAll removes every item. Both backends reset their id counters, so
// the edit session is returned to idle.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx, "clear"); err != nil {
		return err
	}
	if err := s.backend.Clear(ctx); err != nil {
		return wrap("clear", ErrWrite, err)
	}
	s.session.Cancel()
	return nil
}

// ready must be called with s.mu held.
func (s *Store) ready(ctx context.Context, op string) error {
	if !s.opened {
		return &Error{Op: op, Kind: ErrBackendUnavailable, Err: errors.New("store is not open")}
	}
	return ctx.Err()
}

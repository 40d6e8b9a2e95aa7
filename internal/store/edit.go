package store

import (
	"context"
	"sync"

	"github.com/N474NR4/UCHI-Subaru/internal/model"
)

// EditSession tracks which item, if any, is loaded for modification.
// It starts idle. Only Begin enters the editing state, and only a successful
// Submit or a Cancel leaves it.
type EditSession struct {
	store *Store

	mu      sync.Mutex
	editing int64 // 0 when idle
}

// Begin loads the item for editing. The session state is left unchanged
// if the item cannot be loaded.
func (e *EditSession) Begin(ctx context.Context, id int64) (model.Item, error) {
	item, err := e.store.Get(ctx, id)
	if err != nil {
		return model.Item{}, err
	}

	e.mu.Lock()
	e.editing = item.ID
	e.mu.Unlock()
	return item, nil
}

// Editing returns the id being edited, if any.
func (e *EditSession) Editing() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editing, e.editing != 0
}

// Submit saves the item. When idle the item is created; when editing, the
// edited record is replaced and the session returns to idle. It returns the
// id of the saved item. On failure the state is unchanged.
func (e *EditSession) Submit(ctx context.Context, item model.Item) (int64, error) {
	id, editing := e.Editing()
	if !editing {
		item.ID = 0
		return e.store.Create(ctx, item)
	}

	item.ID = id
	if err := e.store.Update(ctx, item); err != nil {
		return 0, err
	}

	e.mu.Lock()
	if e.editing == id {
		e.editing = 0
	}
	e.mu.Unlock()
	return id, nil
}

// forget cancels the edit when it points at id.
func (e *EditSession) forget(id int64) {
	e.mu.Lock()
	if e.editing == id {
		e.editing = 0
	}
	e.mu.Unlock()
}

// Cancel abandons the edit, if any. Closing the edit form is a cancel.
func (e *EditSession) Cancel() {
	e.mu.Lock()
	e.editing = 0
	e.mu.Unlock()
}

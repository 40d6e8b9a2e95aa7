package store

import (
	"errors"
	"fmt"
)

// Error kinds returned by Store operations. Match them with errors.Is.
var (
	// ErrBackendUnavailable is returned when the backend cannot be opened,
	// or when the store is used before Open.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrWrite is returned when the backend rejects a create, update or delete.
	ErrWrite = errors.New("write rejected")

	// ErrNotFound is returned when no item has the requested id.
	// Backends return it unwrapped or wrapped; the store preserves it.
	ErrNotFound = errors.New("item not found")

	// ErrQuery is returned when reading from the backend fails.
	ErrQuery = errors.New("query failed")
)

// Error describes a failed store operation.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case errors.Is(e.Err, e.Kind):
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// wrap classifies a backend failure. ErrNotFound from the backend wins over
// the operation's default kind.
func wrap(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		kind = ErrNotFound
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

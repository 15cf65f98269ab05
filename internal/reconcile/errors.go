package reconcile

import (
	"errors"
	"fmt"
)

// Scan and count outcomes that are not failures of the engine itself.
var (
	ErrNotOnManifest   = errors.New("barcode is not on the manifest")
	ErrAlreadyChecked  = errors.New("item has already been checked")
	ErrSessionNotFound = errors.New("session not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrInvalidQuantity = errors.New("counted quantity must not be negative")
	ErrNoItems         = errors.New("manifest has no items")
)

// PersistenceError wraps a failed store operation. The operation that
// returned it has not changed any state unless Committed is set.
type PersistenceError struct {
	Op  string
	Err error
	// Committed is set when an earlier step of the operation was already
	// stored before Op failed.
	Committed bool
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

package storage

import "errors"

var (
	// ErrNotFound means no transaction, snapshot or cached profile matched.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey means a transaction_id or snapshot_id was already
	// written. Stores are append-only; rows are never updated in place.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput rejects nil batches, empty keys and bad identifiers
	// before any I/O.
	ErrInvalidInput = errors.New("invalid input")
)

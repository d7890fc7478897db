package docstore

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Txn.Get when a key is absent.
var ErrKeyNotFound = errors.New("key not found")

// Engine is an ordered byte key-value store with serializable transactions.
// Update may invoke fn more than once if the engine retries on conflict.
type Engine interface {
	View(ctx context.Context, fn func(Txn) error) error
	Update(ctx context.Context, fn func(Txn) error) error
	Close() error
}

// Txn is a view of the engine inside a transaction.
type Txn interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	// Scan visits every key with the given prefix in ascending order.
	Scan(prefix string, fn func(key string, value []byte) error) error
}

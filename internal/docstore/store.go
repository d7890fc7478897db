// Package docstore is a path-addressed document database with collection
// listeners, modelled on managed document stores: documents live at
// collection/id paths, writes may carry server-side transforms, and
// collection listeners receive full snapshots after every change.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/goccy/go-json"

	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
	"github.com/uniquefilms/uniquefilms-server/internal/id"
	"github.com/uniquefilms/uniquefilms-server/internal/metrics"
)

// Sentinel errors. They match the domain error codes through errors.Is.
var (
	ErrNotFound      = domainerrors.NotFound("document not found")
	ErrAlreadyExists = domainerrors.AlreadyExists("document already exists")
	ErrClosed        = domainerrors.Store("document store closed")
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for server timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is a document database over an Engine.
type Store struct {
	engine Engine
	logger *slog.Logger
	now    func() time.Time
	hub    *hub
}

// New creates a Store over engine. The store owns the engine and closes it.
func New(engine Engine, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		engine: engine,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = newHub(s.read, s.now, logger)
	return s
}

// Close fails every listener with ErrClosed and closes the engine.
func (s *Store) Close() error {
	s.hub.closeAll(ErrClosed)
	if s.logger != nil {
		s.logger.Info("Closing document store")
	}
	return s.engine.Close()
}

// Get returns the document at path.
func (s *Store) Get(ctx context.Context, path string) (*Document, error) {
	start := time.Now()
	key, _, _, err := docKey(path)
	if err != nil {
		return nil, err
	}

	var doc *Document
	err = s.engine.View(ctx, func(txn Txn) error {
		raw, err := txn.Get(key)
		if err != nil {
			return err
		}
		doc, err = decodeRecord(key, raw)
		return err
	})
	if errors.Is(err, ErrKeyNotFound) {
		metrics.RecordDocstoreOp("get", time.Since(start), nil)
		return nil, domainerrors.NotFoundf("document %s not found", path)
	}
	metrics.RecordDocstoreOp("get", time.Since(start), err)
	if err != nil {
		return nil, s.wrap("get", path, err)
	}
	return doc, nil
}

// Exists reports whether a document is stored at path.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.Get(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Create writes a new document and fails with ErrAlreadyExists if one is present.
func (s *Store) Create(ctx context.Context, path string, data any) error {
	fields, err := toFields(data)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeValidation, "invalid document data")
	}
	return s.write(ctx, "create", path, func(existing *record, now time.Time) (*record, error) {
		if existing != nil {
			return nil, domainerrors.AlreadyExists(fmt.Sprintf("document %s already exists", path))
		}
		resolved, err := resolve(fields, nil, now)
		if err != nil {
			return nil, err
		}
		return &record{Fields: resolved, Created: now, Updated: now}, nil
	})
}

// Set replaces the document at path, creating it if absent.
func (s *Store) Set(ctx context.Context, path string, data any) error {
	fields, err := toFields(data)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeValidation, "invalid document data")
	}
	return s.write(ctx, "set", path, func(existing *record, now time.Time) (*record, error) {
		created := now
		var prev map[string]any
		if existing != nil {
			created = existing.Created
			prev = existing.Fields
		}
		resolved, err := resolve(fields, prev, now)
		if err != nil {
			return nil, err
		}
		return &record{Fields: resolved, Created: created, Updated: now}, nil
	})
}

// SetMerge writes the given top-level fields into the document at path,
// leaving other fields untouched and creating the document if absent.
// A field given here replaces the stored field as a whole.
func (s *Store) SetMerge(ctx context.Context, path string, data any) error {
	fields, err := toFields(data)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeValidation, "invalid document data")
	}
	return s.write(ctx, "merge", path, func(existing *record, now time.Time) (*record, error) {
		return merged(existing, fields, now)
	})
}

// Update merges fields into an existing document and fails with ErrNotFound
// if there is none. Use it with Increment for counters on documents that must exist.
func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	return s.write(ctx, "update", path, func(existing *record, now time.Time) (*record, error) {
		if existing == nil {
			return nil, domainerrors.NotFoundf("document %s not found", path)
		}
		return merged(existing, maps.Clone(fields), now)
	})
}

func merged(existing *record, fields map[string]any, now time.Time) (*record, error) {
	next := &record{Fields: map[string]any{}, Created: now, Updated: now}
	var prev map[string]any
	if existing != nil {
		next.Created = existing.Created
		prev = existing.Fields
		maps.Copy(next.Fields, existing.Fields)
	}
	resolved, err := resolve(fields, prev, now)
	if err != nil {
		return nil, err
	}
	maps.Copy(next.Fields, resolved)
	return next, nil
}

// Delete removes the document at path. Deleting a missing document is not an error.
func (s *Store) Delete(ctx context.Context, path string) error {
	return s.write(ctx, "delete", path, func(*record, time.Time) (*record, error) {
		return nil, nil
	})
}

// Add creates a document with a generated id in collection and returns its path.
func (s *Store) Add(ctx context.Context, collection string, data any) (string, error) {
	if _, err := collectionPrefix(collection); err != nil {
		return "", err
	}
	docID, err := id.Generate(id.PrefixDoc)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "generate document id")
	}
	path := Join(collection, docID)
	if err := s.Create(ctx, path, data); err != nil {
		return "", err
	}
	return path, nil
}

// List returns the direct children of collection ordered by id.
func (s *Store) List(ctx context.Context, collection string) ([]*Document, error) {
	start := time.Now()
	docs, err := s.read(ctx, collection)
	metrics.RecordDocstoreOp("list", time.Since(start), err)
	if err != nil {
		return nil, s.wrap("list", collection, err)
	}
	return docs, nil
}

// Query returns the documents of collection selected by q.
func (s *Store) Query(ctx context.Context, collection string, q Query) ([]*Document, error) {
	docs, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	return q.apply(docs), nil
}

// Listen subscribes to collection. See Listener.
func (s *Store) Listen(ctx context.Context, collection string) (*Listener, error) {
	if _, err := collectionPrefix(collection); err != nil {
		return nil, err
	}
	return s.hub.add(ctx, collection)
}

func (s *Store) read(ctx context.Context, collection string) ([]*Document, error) {
	prefix, err := collectionPrefix(collection)
	if err != nil {
		return nil, err
	}
	var docs []*Document
	err = s.engine.View(ctx, func(txn Txn) error {
		return txn.Scan(prefix, func(key string, value []byte) error {
			doc, err := decodeRecord(key, value)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// write runs mutate against the current record inside one engine transaction.
// A nil record from mutate deletes the document. Listeners of the parent
// collection are notified after commit when something changed.
func (s *Store) write(ctx context.Context, op, path string, mutate func(existing *record, now time.Time) (*record, error)) error {
	start := time.Now()
	key, collection, _, err := docKey(path)
	if err != nil {
		return err
	}

	changed := false
	err = s.engine.Update(ctx, func(txn Txn) error {
		changed = false
		var existing *record
		raw, err := txn.Get(key)
		switch {
		case errors.Is(err, ErrKeyNotFound):
		case err != nil:
			return err
		default:
			existing = &record{}
			if err := json.Unmarshal(raw, existing); err != nil {
				return fmt.Errorf("decode record %s: %w", key, err)
			}
		}

		next, err := mutate(existing, s.now())
		if err != nil {
			return err
		}
		if next == nil {
			if existing == nil {
				return nil
			}
			changed = true
			return txn.Delete(key)
		}

		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", key, err)
		}
		changed = true
		return txn.Set(key, data)
	})
	metrics.RecordDocstoreOp(op, time.Since(start), err)
	if err != nil {
		return s.wrap(op, path, err)
	}

	if changed {
		s.hub.publish(ctx, collection)
	}
	return nil
}

// wrap passes domain errors through and classifies everything else as a store error.
func (s *Store) wrap(op, path string, err error) error {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if s.logger != nil {
		s.logger.Error("document store operation failed", "op", op, "path", path, "error", err)
	}
	return domainerrors.Wrapf(err, domainerrors.CodeStore, "%s %s", op, path)
}

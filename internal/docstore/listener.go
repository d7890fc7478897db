package docstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
	"github.com/uniquefilms/uniquefilms-server/internal/metrics"
)

// Snapshot is the full state of a collection at one point in time.
// Docs are shared between listeners and must not be modified.
type Snapshot struct {
	Collection string
	Docs       []*Document
	ReadTime   time.Time
}

// Listener receives snapshots of one collection. The first snapshot is the
// state at Listen time; every committed change to a direct child produces
// another. A slow consumer only ever sees the latest pending snapshot.
//
// Snapshots is closed after Close, after the store shuts down, or after a
// snapshot could not be read. In the last two cases Err reports why.
type Listener struct {
	collection string
	hub        *hub
	ch         chan Snapshot

	mu     sync.Mutex
	closed bool
	err    error
}

// Snapshots returns the delivery channel.
func (l *Listener) Snapshots() <-chan Snapshot {
	return l.ch
}

// Err returns the terminal error, or nil if the listener was closed by its owner.
func (l *Listener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close stops delivery. It is safe to call more than once.
func (l *Listener) Close() {
	if l.finish(nil) {
		l.hub.remove(l)
	}
}

// offer replaces any undelivered snapshot with s.
func (l *Listener) offer(s Snapshot) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	select {
	case <-l.ch:
	default:
	}
	l.ch <- s
	return true
}

func (l *Listener) finish(err error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.closed = true
	l.err = err
	close(l.ch)
	return true
}

// snapshotTimeout bounds the read behind one published snapshot.
const snapshotTimeout = 10 * time.Second

// topic holds the listeners of one collection. Its mutex serializes snapshot
// reads and deliveries so listeners never observe an older state after a
// newer one.
type topic struct {
	mu        sync.Mutex
	listeners map[*Listener]struct{}
	dead      bool // removed from the hub; callers must look the topic up again
}

// hub tracks listeners per collection. Writes to different collections
// publish independently.
type hub struct {
	read   func(ctx context.Context, collection string) ([]*Document, error)
	now    func() time.Time
	logger *slog.Logger

	mu     sync.Mutex // guards closed and topics
	closed bool
	topics map[string]*topic
}

func newHub(read func(context.Context, string) ([]*Document, error), now func() time.Time, logger *slog.Logger) *hub {
	return &hub{
		read:   read,
		now:    now,
		logger: logger,
		topics: make(map[string]*topic),
	}
}

// lookup returns the topic of collection, creating it when create is set.
func (h *hub) lookup(collection string, create bool) (*topic, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	t, ok := h.topics[collection]
	if !ok && create {
		t = &topic{listeners: make(map[*Listener]struct{})}
		h.topics[collection] = t
	}
	return t, nil
}

func (h *hub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// drop removes an empty topic from the hub. t.mu must be held.
func (h *hub) drop(collection string, t *topic) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.topics[collection] == t {
		delete(h.topics, collection)
	}
	t.dead = true
}

func (h *hub) add(ctx context.Context, collection string) (*Listener, error) {
	for {
		t, err := h.lookup(collection, true)
		if err != nil {
			return nil, err
		}

		l, retry, err := h.attach(ctx, collection, t)
		if retry {
			continue
		}
		return l, err
	}
}

func (h *hub) attach(ctx context.Context, collection string, t *topic) (*Listener, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dead {
		return nil, true, nil
	}
	if h.isClosed() {
		return nil, false, ErrClosed
	}

	docs, err := h.read(ctx, collection)
	if err != nil {
		if len(t.listeners) == 0 {
			h.drop(collection, t)
		}
		return nil, false, domainerrors.Wrapf(err, domainerrors.CodeStore, "listen %s", collection)
	}

	l := &Listener{collection: collection, hub: h, ch: make(chan Snapshot, 1)}
	l.offer(Snapshot{Collection: collection, Docs: docs, ReadTime: h.now()})
	t.listeners[l] = struct{}{}
	metrics.DocstoreListeners.Inc()

	if h.logger != nil {
		h.logger.Debug("listener attached", "collection", collection, "listeners", len(t.listeners))
	}
	return l, false, nil
}

func (h *hub) remove(l *Listener) {
	t, err := h.lookup(l.collection, false)
	if err != nil || t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.listeners[l]; !ok {
		return
	}
	delete(t.listeners, l)
	metrics.DocstoreListeners.Dec()
	if len(t.listeners) == 0 {
		h.drop(l.collection, t)
	}
}

// publish delivers the current state of collection to its listeners. The
// read keeps ctx's values but not its cancellation, since the write it
// follows has already committed.
func (h *hub) publish(ctx context.Context, collection string) {
	t, err := h.lookup(collection, false)
	if err != nil || t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dead || len(t.listeners) == 0 {
		return
	}

	readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotTimeout)
	defer cancel()

	docs, err := h.read(readCtx, collection)
	if err != nil {
		failure := domainerrors.Wrapf(err, domainerrors.CodeStore, "snapshot %s", collection)
		if h.logger != nil {
			h.logger.Error("snapshot failed, dropping listeners", "collection", collection, "error", err)
		}
		for l := range t.listeners {
			l.finish(failure)
			metrics.DocstoreListeners.Dec()
		}
		clear(t.listeners)
		h.drop(collection, t)
		return
	}

	snap := Snapshot{Collection: collection, Docs: docs, ReadTime: h.now()}
	for l := range t.listeners {
		if l.offer(snap) {
			metrics.DocstoreSnapshotsDelivered.Inc()
		}
	}
}

func (h *hub) closeAll(err error) {
	h.mu.Lock()
	h.closed = true
	topics := h.topics
	h.topics = make(map[string]*topic)
	h.mu.Unlock()

	for _, t := range topics {
		t.mu.Lock()
		for l := range t.listeners {
			l.finish(err)
			metrics.DocstoreListeners.Dec()
		}
		clear(t.listeners)
		t.dead = true
		t.mu.Unlock()
	}
}

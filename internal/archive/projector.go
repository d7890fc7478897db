// Package archive projects a user's archive collection into an ordered list
// that follows remote changes.
package archive

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/uniquefilms/uniquefilms-server/internal/docstore"
	"github.com/uniquefilms/uniquefilms-server/internal/domain"
	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
)

// Listener is the collection subscription the projector consumes.
type Listener interface {
	Snapshots() <-chan docstore.Snapshot
	Err() error
	Close()
}

// Source opens collection subscriptions.
type Source interface {
	Listen(ctx context.Context, collection string) (Listener, error)
}

// StoreSource adapts a document store to Source.
type StoreSource struct {
	Store *docstore.Store
}

// Listen implements Source.
func (s StoreSource) Listen(ctx context.Context, collection string) (Listener, error) {
	return s.Store.Listen(ctx, collection)
}

// Projector turns archive snapshots into sorted entry lists.
type Projector struct {
	source Source
	logger *slog.Logger
}

// NewProjector creates a Projector.
func NewProjector(source Source, logger *slog.Logger) *Projector {
	return &Projector{source: source, logger: logger}
}

// Subscription delivers the user's archive, newest first, after every change.
type Subscription struct {
	updates  chan []domain.ArchiveEntry
	listener Listener
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once

	mu  sync.Mutex
	err error
}

// Updates returns the delivery channel. It is closed when the subscription
// ends; Err then reports a failure, if any.
func (s *Subscription) Updates() <-chan []domain.ArchiveEntry {
	return s.updates
}

// Err returns the error that ended the subscription, or nil.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close ends the subscription and waits for delivery to stop. After Close
// returns nothing more is sent on Updates.
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.stop)
		s.listener.Close()
	})
	<-s.done
}

// Subscribe starts following the archive of userID. The first update is the
// current archive.
func (p *Projector) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	if userID == "" {
		return nil, domainerrors.Unauthenticated("sign in to see your archive")
	}

	l, err := p.source.Listen(ctx, domain.ArchiveCollection(userID))
	if err != nil {
		return nil, storeError(err)
	}

	sub := &Subscription{
		updates:  make(chan []domain.ArchiveEntry),
		listener: l,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go p.run(ctx, userID, sub)
	return sub, nil
}

func (p *Projector) run(ctx context.Context, userID string, sub *Subscription) {
	defer close(sub.done)
	defer close(sub.updates)

	fail := func(err error) {
		sub.mu.Lock()
		sub.err = err
		sub.mu.Unlock()
		if p.logger != nil {
			p.logger.Warn("archive subscription ended", "user_id", userID, "error", err)
		}
	}

	for {
		select {
		case <-sub.stop:
			return
		case <-ctx.Done():
			sub.listener.Close()
			fail(ctx.Err())
			return
		case snap, ok := <-sub.listener.Snapshots():
			if !ok {
				if err := sub.listener.Err(); err != nil {
					fail(storeError(err))
				}
				return
			}

			entries, err := Project(snap.Docs)
			if err != nil {
				sub.listener.Close()
				fail(storeError(err))
				return
			}

			select {
			case sub.updates <- entries:
			case <-sub.stop:
				return
			case <-ctx.Done():
				sub.listener.Close()
				fail(ctx.Err())
				return
			}
		}
	}
}

// SubscribeFunc is the callback form of Subscribe. onUpdate receives every
// list; onError is called at most once and ends the subscription. Callbacks
// run on one goroutine. The returned unsubscribe blocks until any running
// callback returns, after which no callback is made; it must not be called
// from inside a callback.
func (p *Projector) SubscribeFunc(ctx context.Context, userID string, onUpdate func([]domain.ArchiveEntry), onError func(error)) (func(), error) {
	sub, err := p.Subscribe(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		mu           sync.Mutex
		unsubscribed bool
	)
	deliver := func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		if !unsubscribed {
			fn()
		}
	}

	go func() {
		for entries := range sub.Updates() {
			deliver(func() { onUpdate(entries) })
		}
		if err := sub.Err(); err != nil && onError != nil {
			deliver(func() { onError(err) })
		}
	}()

	return func() {
		mu.Lock()
		unsubscribed = true
		mu.Unlock()
		sub.Close()
	}, nil
}

// Project decodes archive documents and orders them newest first by AddedAt.
func Project(docs []*docstore.Document) ([]domain.ArchiveEntry, error) {
	entries, err := docstore.DecodeAll[domain.ArchiveEntry](docs)
	if err != nil {
		return nil, err
	}
	for i, d := range docs {
		if entries[i].ID == "" {
			entries[i].ID = d.ID
		}
	}
	SortNewestFirst(entries)
	return entries, nil
}

// SortNewestFirst orders entries by AddedAt descending. Entries whose AddedAt
// does not parse go last, newest raw string first. Ties keep id order.
func SortNewestFirst(entries []domain.ArchiveEntry) {
	keys := make(map[string]sortKey, len(entries))
	for _, e := range entries {
		keys[e.AddedAt] = parseAddedAt(e.AddedAt)
	}
	slices.SortStableFunc(entries, func(a, b domain.ArchiveEntry) int {
		if c := keys[b.AddedAt].compare(keys[a.AddedAt]); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

type sortKey struct {
	valid bool
	at    time.Time
	raw   string
}

func parseAddedAt(raw string) sortKey {
	at, err := time.Parse(time.RFC3339Nano, raw)
	return sortKey{valid: err == nil, at: at, raw: raw}
}

// compare orders unparsed keys before parsed ones so they sort last when
// descending.
func (k sortKey) compare(o sortKey) int {
	switch {
	case k.valid != o.valid:
		if k.valid {
			return 1
		}
		return -1
	case k.valid:
		if c := k.at.Compare(o.at); c != 0 {
			return c
		}
		return cmp.Compare(k.raw, o.raw)
	default:
		return cmp.Compare(k.raw, o.raw)
	}
}

func storeError(err error) error {
	var domainErr *domainerrors.Error
	if domainerrors.As(err, &domainErr) {
		return err
	}
	return domainerrors.Wrap(err, domainerrors.CodeStore, "archive listener failed")
}

package store

import (
	"context"
	"sync"

	"github.com/etnz/gemhub"
	"github.com/rs/zerolog"
)

// Notifier wraps a Store and calls subscribers after every successful Save.
type Notifier struct {
	Store
	log zerolog.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]func(*gemhub.Portfolio)
}

// NewNotifier wraps s.
func NewNotifier(s Store, log zerolog.Logger) *Notifier {
	return &Notifier{Store: s, log: log, subs: make(map[int]func(*gemhub.Portfolio))}
}

// Subscribe registers fn to be called with a copy of each saved portfolio. Calls happen
// on the saving goroutine, fn must not block. The returned func unsubscribes.
func (n *Notifier) Subscribe(fn func(*gemhub.Portfolio)) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, id)
		})
	}
}

// Save saves p and notifies subscribers on success.
func (n *Notifier) Save(ctx context.Context, p *gemhub.Portfolio) error {
	if err := n.Store.Save(ctx, p); err != nil {
		return err
	}
	n.mu.Lock()
	subs := make([]func(*gemhub.Portfolio), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	n.log.Debug().Int("subscribers", len(subs)).Msg("portfolio saved")
	for _, fn := range subs {
		fn(p.Clone())
	}
	return nil
}

// Close closes the wrapped store.
func (n *Notifier) Close() error { return Close(n.Store) }

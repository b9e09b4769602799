// Package realtime fans balance snapshots out to live subscribers.
package realtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/vibercizing/vibercizing/internal/domain"
	"github.com/vibercizing/vibercizing/internal/metrics"
)

// Subscriber receives balance snapshots over a live connection.
// Implementations must tolerate sends after their connection has closed.
type Subscriber interface {
	SendBalance(balance domain.Balance) error
}

// Broadcaster owns the set of live subscribers. Fan-out happens under
// the lock, which preserves per-subscriber delivery order across
// concurrent publishes.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[Subscriber]struct{}
	logger *zap.Logger
}

// New creates a Broadcaster.
func New(logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		subs:   make(map[Subscriber]struct{}),
		logger: logger,
	}
}

// Register adds a subscriber to the fan-out set.
func (b *Broadcaster) Register(sub Subscriber) {
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	n := len(b.subs)
	b.mu.Unlock()

	metrics.WebsocketClients.Set(float64(n))
	b.logger.Debug("subscriber registered", zap.Int("subscribers", n))
}

// Unregister removes a subscriber. Removal happens only here, never
// implicitly from a failed send.
func (b *Broadcaster) Unregister(sub Subscriber) {
	b.mu.Lock()
	delete(b.subs, sub)
	n := len(b.subs)
	b.mu.Unlock()

	metrics.WebsocketClients.Set(float64(n))
	b.logger.Debug("subscriber unregistered", zap.Int("subscribers", n))
}

// PublishBalance sends a balance snapshot to every registered
// subscriber. A failed send to one subscriber must not prevent delivery
// to the others; the failing peer is left for cleanup on its own
// disconnect.
func (b *Broadcaster) PublishBalance(balance domain.Balance) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		if err := sub.SendBalance(balance); err != nil {
			b.logger.Debug("balance push failed", zap.Error(err))
		}
	}
}

package relay

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mostrop2p/mostro-go/pkg/nostr"
)

const (
	subscriptionBufferSize = 128
	seenEventsSize         = 4096
)

// subscription is a pool level subscription, replicated on every relay.
// Events are delivered once even when several relays, or a replay after a
// reconnection, send the same event.
type subscription struct {
	id     string
	filter nostr.Filter
	ctx    context.Context
	cancel context.CancelFunc

	lock   sync.Mutex
	seen   *lru.Cache[string, struct{}]
	events chan *nostr.Event
	closed bool
}

func newSubscription(
	ctx context.Context, id string, filter nostr.Filter,
) *subscription {
	ctx, cancel := context.WithCancel(ctx)
	seen, _ := lru.New[string, struct{}](seenEventsSize)
	return &subscription{
		id:     id,
		filter: filter,
		ctx:    ctx,
		cancel: cancel,
		seen:   seen,
		events: make(chan *nostr.Event, subscriptionBufferSize),
	}
}

// deliver blocks until the event is consumed or the subscription ends.
func (s *subscription) deliver(ev *nostr.Event) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return false
	}
	if seen, _ := s.seen.ContainsOrAdd(ev.ID, struct{}{}); seen {
		return false
	}
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *subscription) close() {
	s.cancel()

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}

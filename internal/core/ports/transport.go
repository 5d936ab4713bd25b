package ports

import (
	"context"

	"github.com/mostrop2p/mostro-go/pkg/nostr"
)

// Transport connects the client to the relay network.
//
// Subscribe returns a channel of verified events matching the filter. The
// subscription survives reconnections, events replayed after a reconnection
// are delivered once. It ends, closing the channel, only when ctx is
// canceled or the transport is closed. Publish fails when no relay is
// connected.
type Transport interface {
	Connect(ctx context.Context) error
	Ready() <-chan struct{}
	Subscribe(ctx context.Context, filter nostr.Filter) (<-chan *nostr.Event, error)
	Publish(ctx context.Context, event *nostr.Event) error
	Close() error
}

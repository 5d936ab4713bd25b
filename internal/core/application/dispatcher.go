package application

import (
	"context"
	"strconv"

	"github.com/mostrop2p/mostro-go/internal/core/domain"
	"github.com/mostrop2p/mostro-go/pkg/giftwrap"
	"github.com/mostrop2p/mostro-go/pkg/nostr"
	log "github.com/sirupsen/logrus"
)

const (
	dropReasonUnknownKind   = "unknown_kind"
	dropReasonForeignAuthor = "foreign_author"
	dropReasonDuplicate     = "duplicate"
	dropReasonNotForUs      = "not_for_us"
	dropReasonUndecryptable = "undecryptable"
	dropReasonMalformed     = "malformed"
	dropReasonStale         = "stale"
)

// dispatch is the only goroutine handling inbound events and calling the
// observers.
func (c *Client) dispatch(ctx context.Context) {
	defer c.wg.Done()

	c.notify(func(o Observer) { o.OnReady() })

	ticker := c.clock.Ticker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.orderBook.PruneExpired(c.clock.Now()); n > 0 {
				log.Debugf("pruned %d expired orders", n)
			}
		case ev := <-c.inbox:
			c.handleEvent(ev)
		}
	}
}

func (c *Client) handleEvent(ev *nostr.Event) {
	if ev == nil {
		return
	}
	c.metrics.EventReceived(strconv.Itoa(ev.Kind))

	switch ev.Kind {
	case nostr.KindOrder:
		c.handleListing(ev)
	case nostr.KindGiftWrap:
		c.handleGiftWrap(ev)
	case nostr.KindEncryptedDirectMessage:
		c.handleDirectMessage(ev)
	default:
		c.drop(ev, dropReasonUnknownKind, nil)
	}
}

func (c *Client) handleListing(ev *nostr.Event) {
	if ev.PubKey != c.mostroPubkey {
		c.drop(ev, dropReasonForeignAuthor, nil)
		return
	}

	switch domain.ListingType(ev.Tags) {
	case domain.ListingTypeOrder:
		order, err := domain.DecodeOrderTags(ev.Tags, ev.CreatedAt)
		if err != nil {
			c.drop(ev, dropReasonMalformed, err)
			return
		}
		if !c.orderBook.Apply(order) {
			c.drop(ev, dropReasonStale, nil)
			return
		}
		c.notify(func(o Observer) { o.OnOrderUpdate(order, ev) })

	case domain.ListingTypeInfo:
		info := domain.DecodeInfoTags(ev.Tags)
		c.lock.Lock()
		c.info = info
		c.lock.Unlock()
		c.notify(func(o Observer) { o.OnInfoUpdate(info) })

	default:
		c.drop(ev, dropReasonUnknownKind, nil)
	}
}

func (c *Client) handleGiftWrap(ev *nostr.Event) {
	if seen, _ := c.seen.ContainsOrAdd(ev.ID, struct{}{}); seen {
		c.drop(ev, dropReasonDuplicate, nil)
		return
	}

	recipient, err := c.keys.GetKeyByPublicKey(ev.Tags.Value("p"))
	if err != nil {
		c.drop(ev, dropReasonNotForUs, err)
		return
	}
	unwrapped, err := giftwrap.Unwrap(ev, recipient.PrivateKey)
	if err != nil {
		c.drop(ev, dropReasonUndecryptable, err)
		return
	}

	if unwrapped.Sender() != c.mostroPubkey {
		peerMsg := &PeerMessage{
			Sender:    unwrapped.Sender(),
			Content:   unwrapped.Rumor.Content,
			CreatedAt: unwrapped.Rumor.CreatedAt,
			Envelope:  unwrapped,
		}
		c.notify(func(o Observer) { o.OnPeerMessage(peerMsg) })
		return
	}

	msg, err := domain.DecodeMessage(unwrapped.Rumor.Content)
	if err != nil {
		c.drop(ev, dropReasonMalformed, err)
		return
	}

	// Mostro assigns the public id of a new order, the trade key was
	// allocated under the local one.
	if msg.ID != "" && recipient.OrderID != "" && msg.ID != recipient.OrderID {
		c.lock.Lock()
		c.aliases[msg.ID] = recipient.OrderID
		c.lock.Unlock()
	}

	resolved := c.correlator.Resolve(msg)
	c.correlator.NotifyAction(msg)
	if resolved {
		return
	}
	c.notify(func(o Observer) { o.OnMessage(msg, unwrapped) })
}

func (c *Client) handleDirectMessage(ev *nostr.Event) {
	recipient, err := c.keys.GetKeyByPublicKey(ev.Tags.Value("p"))
	if err != nil {
		c.drop(ev, dropReasonNotForUs, err)
		return
	}
	sender, err := nostr.ParsePublicKey(ev.PubKey)
	if err != nil {
		c.drop(ev, dropReasonMalformed, err)
		return
	}
	content, err := nostr.DecryptDirectMessage(ev.Content, recipient.PrivateKey, sender)
	if err != nil {
		c.drop(ev, dropReasonUndecryptable, err)
		return
	}

	peerMsg := &PeerMessage{
		Sender:    ev.PubKey,
		Content:   content,
		CreatedAt: ev.CreatedAt,
	}
	c.notify(func(o Observer) { o.OnPeerMessage(peerMsg) })
}

func (c *Client) drop(ev *nostr.Event, reason string, err error) {
	c.metrics.EventDropped(reason)
	entry := log.WithFields(log.Fields{
		"id":     ev.ID,
		"kind":   ev.Kind,
		"reason": reason,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("dropping event")
}

func (c *Client) notify(fn func(Observer)) {
	c.lock.RLock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.lock.RUnlock()

	for _, o := range observers {
		fn(o)
	}
}

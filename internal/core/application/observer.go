package application

import (
	"github.com/mostrop2p/mostro-go/internal/core/domain"
	"github.com/mostrop2p/mostro-go/pkg/giftwrap"
	"github.com/mostrop2p/mostro-go/pkg/nostr"
)

// PeerMessage is a message from a counterpart rather than from Mostro,
// either gift wrapped or a legacy direct message.
type PeerMessage struct {
	Sender    string
	Content   string
	CreatedAt nostr.Timestamp
	// Envelope is nil for legacy direct messages.
	Envelope *giftwrap.Unwrapped
}

// Observer receives the client notifications. Methods are called one at a
// time by the dispatcher, in arrival order, and must not block for long.
type Observer interface {
	OnReady()
	OnOrderUpdate(order *domain.Order, event *nostr.Event)
	OnInfoUpdate(info *domain.Info)
	OnMessage(msg *domain.Message, envelope *giftwrap.Unwrapped)
	OnPeerMessage(msg *PeerMessage)
}

// NopObserver implements Observer doing nothing. Embed it to implement only
// the notifications of interest.
type NopObserver struct{}

func (NopObserver) OnReady()                                       {}
func (NopObserver) OnOrderUpdate(*domain.Order, *nostr.Event)      {}
func (NopObserver) OnInfoUpdate(*domain.Info)                      {}
func (NopObserver) OnMessage(*domain.Message, *giftwrap.Unwrapped) {}
func (NopObserver) OnPeerMessage(*PeerMessage)                     {}

package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/mostrop2p/mostro-go/internal/core/application"
	"github.com/mostrop2p/mostro-go/internal/core/domain"
	"github.com/mostrop2p/mostro-go/pkg/giftwrap"
	"github.com/mostrop2p/mostro-go/pkg/nostr"
	"github.com/stretchr/testify/require"
)

var (
	errPublishFailed   = errors.New("relay refused the event")
	errSubscribeFailed = errors.New("relay refused the subscription")
)

// **** Transport ****

type fakeSubscription struct {
	ctx    context.Context
	filter nostr.Filter
	events chan *nostr.Event
}

// fakeRelay is an in-memory transport delivering every published event to
// the matching subscriptions.
type fakeRelay struct {
	lock        sync.Mutex
	subs        []*fakeSubscription
	published   []*nostr.Event
	onPublish   func(*nostr.Event)
	failPublish bool
	// failSubscribeAt makes the n-th Subscribe call fail, counting from 1.
	failSubscribeAt int
	numOfSubscribes int

	readyOnce sync.Once
	ready     chan struct{}
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{ready: make(chan struct{})}
}

func (r *fakeRelay) Connect(context.Context) error {
	r.readyOnce.Do(func() { close(r.ready) })
	return nil
}

func (r *fakeRelay) Ready() <-chan struct{} {
	return r.ready
}

func (r *fakeRelay) Subscribe(
	ctx context.Context, filter nostr.Filter,
) (<-chan *nostr.Event, error) {
	sub := &fakeSubscription{
		ctx:    ctx,
		filter: filter,
		events: make(chan *nostr.Event, 64),
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	r.numOfSubscribes++
	if r.numOfSubscribes == r.failSubscribeAt {
		return nil, errSubscribeFailed
	}
	r.subs = append(r.subs, sub)
	return sub.events, nil
}

func (r *fakeRelay) Publish(_ context.Context, ev *nostr.Event) error {
	r.lock.Lock()
	if r.failPublish {
		r.lock.Unlock()
		return errPublishFailed
	}
	r.published = append(r.published, ev)
	subs := make([]*fakeSubscription, 0, len(r.subs))
	for _, sub := range r.subs {
		if sub.filter.Matches(ev) {
			subs = append(subs, sub)
		}
	}
	hook := r.onPublish
	r.lock.Unlock()

	for _, sub := range subs {
		select {
		case sub.events <- ev:
		case <-sub.ctx.Done():
		}
	}
	if hook != nil {
		go hook(ev)
	}
	return nil
}

func (r *fakeRelay) Close() error {
	return nil
}

func (r *fakeRelay) setFailPublish(fail bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.failPublish = fail
}

func (r *fakeRelay) setFailSubscribeAt(n int) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.failSubscribeAt = n
	r.numOfSubscribes = 0
}

// liveGiftWrapSubscriptions counts the open gift wrap subscriptions
// addressed to pubkey.
func (r *fakeRelay) liveGiftWrapSubscriptions(pubkey string) int {
	r.lock.Lock()
	defer r.lock.Unlock()

	count := 0
	for _, sub := range r.subs {
		if sub.ctx.Err() != nil {
			continue
		}
		for _, kind := range sub.filter.Kinds {
			if kind == nostr.KindGiftWrap && containsString(sub.filter.Tags["p"], pubkey) {
				count++
			}
		}
	}
	return count
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *fakeRelay) lastPublished() *nostr.Event {
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(r.published) == 0 {
		return nil
	}
	return r.published[len(r.published)-1]
}

// **** Mostro ****

type receivedMessage struct {
	sender string
	msg    *domain.Message
}

// fakeMostro answers the gift wrapped requests addressed to it, echoing the
// request id.
type fakeMostro struct {
	t      *testing.T
	key    *btcec.PrivateKey
	pubkey string
	relay  *fakeRelay

	lock     sync.Mutex
	orderID  string
	refuse   map[domain.Action]string
	silent   map[domain.Action]bool
	followUp map[domain.Action]domain.Action
	received []receivedMessage
}

func newFakeMostro(t *testing.T, relay *fakeRelay) *fakeMostro {
	key := newKey(t)
	m := &fakeMostro{
		t:        t,
		key:      key,
		pubkey:   nostr.PublicKeyHex(key),
		relay:    relay,
		orderID:  "mostro-order-1",
		refuse:   make(map[domain.Action]string),
		silent:   make(map[domain.Action]bool),
		followUp: make(map[domain.Action]domain.Action),
	}
	relay.onPublish = m.handle
	return m
}

func (m *fakeMostro) refuseAction(action domain.Action, reason string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.refuse[action] = reason
}

func (m *fakeMostro) ignoreAction(action domain.Action) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.silent[action] = true
}

// sendAfter makes Mostro send an unsolicited followUp message shortly after
// answering action.
func (m *fakeMostro) sendAfter(action, followUp domain.Action) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.followUp[action] = followUp
}

func (m *fakeMostro) messages() []receivedMessage {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]receivedMessage(nil), m.received...)
}

func (m *fakeMostro) handle(ev *nostr.Event) {
	if ev.Kind != nostr.KindGiftWrap || !ev.Tags.ContainsValue("p", m.pubkey) {
		return
	}
	unwrapped, err := giftwrap.Unwrap(ev, m.key)
	if err != nil {
		return
	}
	msg, err := domain.DecodeMessage(unwrapped.Rumor.Content)
	if err != nil {
		return
	}
	sender := unwrapped.Sender()

	m.lock.Lock()
	m.received = append(m.received, receivedMessage{sender, msg})
	silent := m.silent[msg.Action]
	reason, refused := m.refuse[msg.Action]
	followUp, hasFollowUp := m.followUp[msg.Action]
	orderID := m.orderID
	m.lock.Unlock()

	if silent {
		return
	}

	var reply *domain.Message
	switch {
	case refused:
		reply, err = domain.NewMessage(
			domain.MessageKindCantDo, domain.ActionCantDo, msg.ID,
			domain.CantDoContent{CantDo: reason},
		)
	case msg.Action == domain.ActionNewOrder:
		order, _ := msg.Order()
		order.ID = orderID
		reply, err = domain.NewMessage(
			domain.MessageKindOrder, domain.ActionNewOrder, orderID,
			domain.NewOrderContent(order),
		)
	case msg.Action == domain.ActionTakeSell:
		reply, err = domain.NewMessage(
			domain.MessageKindOrder, domain.ActionAddInvoice, msg.ID, nil,
		)
	default:
		reply, err = domain.NewMessage(domain.MessageKindOrder, msg.Action, msg.ID, nil)
	}
	if err != nil {
		return
	}
	if msg.RequestID != nil {
		reply.SetRequestID(*msg.RequestID)
	}
	m.send(sender, reply)

	if hasFollowUp {
		time.Sleep(100 * time.Millisecond)
		update, _ := domain.NewMessage(domain.MessageKindOrder, followUp, msg.ID, nil)
		m.send(sender, update)
	}
}

func (m *fakeMostro) send(recipient string, msg *domain.Message) {
	gw, err := m.wrap(recipient, msg)
	if err != nil {
		return
	}
	m.relay.Publish(context.Background(), gw)
}

func (m *fakeMostro) wrap(recipient string, msg *domain.Message) (*nostr.Event, error) {
	content, err := msg.Encode()
	if err != nil {
		return nil, err
	}
	return giftwrap.Wrap(giftwrap.WrapOpts{
		Rumor: &nostr.Event{
			CreatedAt: nostr.Now(),
			Kind:      nostr.KindTextNote,
			Content:   content,
		},
		SenderKey:       m.key,
		RecipientPubKey: recipient,
	})
}

func (m *fakeMostro) publishOrder(order *domain.Order, createdAt time.Time) {
	tags, err := domain.EncodeOrderTags(order, createdAt)
	require.NoError(m.t, err)
	m.publishListing(tags, createdAt)
}

func (m *fakeMostro) publishListing(tags nostr.Tags, createdAt time.Time) {
	ev := &nostr.Event{
		CreatedAt: nostr.Timestamp(createdAt.Unix()),
		Kind:      nostr.KindOrder,
		Tags:      tags,
	}
	require.NoError(m.t, ev.Sign(m.key))
	require.NoError(m.t, m.relay.Publish(context.Background(), ev))
}

// **** Observer ****

type testObserver struct {
	application.NopObserver

	ready    chan struct{}
	orders   chan *domain.Order
	infos    chan *domain.Info
	messages chan *domain.Message
	peers    chan *application.PeerMessage
}

func newTestObserver() *testObserver {
	return &testObserver{
		ready:    make(chan struct{}, 1),
		orders:   make(chan *domain.Order, 64),
		infos:    make(chan *domain.Info, 64),
		messages: make(chan *domain.Message, 64),
		peers:    make(chan *application.PeerMessage, 64),
	}
}

func (o *testObserver) OnReady() {
	o.ready <- struct{}{}
}

func (o *testObserver) OnOrderUpdate(order *domain.Order, _ *nostr.Event) {
	o.orders <- order
}

func (o *testObserver) OnInfoUpdate(info *domain.Info) {
	o.infos <- info
}

func (o *testObserver) OnMessage(msg *domain.Message, _ *giftwrap.Unwrapped) {
	o.messages <- msg
}

func (o *testObserver) OnPeerMessage(msg *application.PeerMessage) {
	o.peers <- msg
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	var zero T
	return zero
}

func newKey(t *testing.T) *btcec.PrivateKey {
	key, err := nostr.GeneratePrivateKey()
	require.NoError(t, err)
	return key
}

package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mostrop2p/mostro-go/internal/core/domain"
	"github.com/mostrop2p/mostro-go/internal/core/ports"
	"github.com/mostrop2p/mostro-go/pkg/giftwrap"
	"github.com/mostrop2p/mostro-go/pkg/keymanager"
	"github.com/mostrop2p/mostro-go/pkg/nostr"
	"github.com/mostrop2p/mostro-go/pkg/stats"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultRequestTimeout is how long a request waits for its response.
	DefaultRequestTimeout = 30 * time.Second

	inboxSize         = 256
	seenGiftWrapsSize = 4096
	pruneInterval     = time.Minute
)

// PublicKeyFormat selects the encoding of a returned public key.
type PublicKeyFormat string

const (
	PublicKeyFormatHex  PublicKeyFormat = "hex"
	PublicKeyFormatNpub PublicKeyFormat = "npub"
)

// ClientOpts defines the parameters to create a Client.
type ClientOpts struct {
	Transport  ports.Transport
	KeyManager *keymanager.KeyManager
	// MostroPubkey accepts both hex and npub.
	MostroPubkey   string
	RequestTimeout time.Duration
	// OrderHistory is how far back order listings are replayed on connect.
	// Zero means no limit.
	OrderHistory time.Duration
	Clock        clock.Clock
	Metrics      *stats.ClientMetrics
}

func (o *ClientOpts) validate() error {
	if o.Transport == nil {
		return ErrNullTransport
	}
	if o.KeyManager == nil {
		return ErrNullKeyManager
	}
	pubkey, err := nostr.NormalizePublicKey(o.MostroPubkey)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidMostroPubkey, err)
	}
	o.MostroPubkey = pubkey
	if o.RequestTimeout < 0 {
		return ErrInvalidRequestTimeout
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	return nil
}

// Client talks to one Mostro daemon. Every state-changing call gift wraps an
// action for Mostro, publishes it and waits for the response carrying the
// same request id. Inbound events are handled one at a time by a single
// dispatcher goroutine that keeps the order book current and notifies the
// observers.
type Client struct {
	transport      ports.Transport
	keys           *keymanager.KeyManager
	mostroPubkey   string
	requestTimeout time.Duration
	orderHistory   time.Duration
	clock          clock.Clock
	metrics        *stats.ClientMetrics

	correlator *RequestCorrelator
	orderBook  *OrderBook
	seen       *lru.Cache[string, struct{}]
	inbox      chan *nostr.Event

	lock       sync.RWMutex
	observers  []Observer
	info       *domain.Info
	aliases    map[string]string
	subscribed map[string]struct{}
	connected  bool
	closed     bool
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewClient returns a client that is not connected yet.
func NewClient(opts ClientOpts) (*Client, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	seen, _ := lru.New[string, struct{}](seenGiftWrapsSize)

	return &Client{
		transport:      opts.Transport,
		keys:           opts.KeyManager,
		mostroPubkey:   opts.MostroPubkey,
		requestTimeout: opts.RequestTimeout,
		orderHistory:   opts.OrderHistory,
		clock:          opts.Clock,
		metrics:        opts.Metrics,
		correlator:     NewRequestCorrelator(opts.Clock),
		orderBook:      NewOrderBook(0),
		seen:           seen,
		inbox:          make(chan *nostr.Event, inboxSize),
		aliases:        make(map[string]string),
		subscribed:     make(map[string]struct{}),
	}, nil
}

// AddObserver registers an observer. Observers added after Connect miss the
// ready notification.
func (c *Client) AddObserver(o Observer) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.observers = append(c.observers, o)
}

// Connect waits for the transport to be ready, subscribes to the listings of
// Mostro and to the messages addressed to the identity and trade keys, and
// starts the dispatcher.
func (c *Client) Connect(ctx context.Context) error {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return ErrClientClosed
	}
	if c.connected {
		c.lock.Unlock()
		return ErrAlreadyConnected
	}
	c.lock.Unlock()

	identity, err := c.keys.GetIdentityKey()
	if err != nil {
		return err
	}

	if err := c.transport.Connect(ctx); err != nil {
		return fmt.Errorf("connecting transport: %w", err)
	}
	select {
	case <-c.transport.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	subCtx, cancel := context.WithCancel(context.Background())
	c.lock.Lock()
	c.ctx, c.cancel = subCtx, cancel
	c.lock.Unlock()

	now := nostr.Timestamp(c.clock.Now().Unix())

	listings := nostr.Filter{
		Kinds:   []int{nostr.KindOrder},
		Authors: []string{c.mostroPubkey},
	}
	if c.orderHistory > 0 {
		listings = listings.WithSince(now - nostr.Timestamp(c.orderHistory/time.Second))
	}
	directMessages := nostr.Filter{
		Kinds: []int{nostr.KindEncryptedDirectMessage},
		Tags:  nostr.TagMap{"p": {identity.PublicKey}},
	}.WithSince(now)

	for _, filter := range []nostr.Filter{listings, directMessages} {
		if err := c.subscribe(subCtx, filter); err != nil {
			c.resetSubscriptions()
			return err
		}
	}

	pubkeys := []string{identity.PublicKey}
	for _, tradeKey := range c.keys.TradeKeys() {
		pubkeys = append(pubkeys, tradeKey.PublicKey)
	}
	for _, pubkey := range pubkeys {
		if err := c.subscribeGiftWraps(pubkey); err != nil {
			c.resetSubscriptions()
			return err
		}
	}

	c.lock.Lock()
	c.connected = true
	c.lock.Unlock()

	c.wg.Add(1)
	go c.dispatch(subCtx)

	log.Debugf("client connected to mostro %s", c.mostroPubkey)
	return nil
}

// Close stops the dispatcher and closes the transport.
func (c *Client) Close() error {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	cancel := c.cancel
	c.lock.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	return c.transport.Close()
}

// SubmitOrder publishes a new order. The trade key is allocated under a
// local order id, Mostro assigns the public one and the response carries it.
func (c *Client) SubmitOrder(
	ctx context.Context, order *domain.Order,
) (*domain.Message, error) {
	if err := domain.ValidateOrder(order); err != nil {
		return nil, err
	}
	prepared, err := domain.PrepareNewOrder(order, c.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	tradeKey, err := c.keys.GenerateTradeKey(ctx, prepared.ID)
	if err != nil {
		return nil, err
	}

	wireOrder := *prepared
	wireOrder.ID = ""
	return c.request(
		ctx, domain.ActionNewOrder, "", tradeKey, domain.NewOrderContent(&wireOrder),
	)
}

// TakeSell takes a sell order. Amount is required for range orders only.
func (c *Client) TakeSell(
	ctx context.Context, orderID string, amount *int64,
) (*domain.Message, error) {
	return c.take(ctx, domain.ActionTakeSell, domain.OrderKindSell, orderID, amount)
}

// TakeBuy takes a buy order. Amount is required for range orders only.
func (c *Client) TakeBuy(
	ctx context.Context, orderID string, amount *int64,
) (*domain.Message, error) {
	return c.take(ctx, domain.ActionTakeBuy, domain.OrderKindBuy, orderID, amount)
}

// AddInvoice sends the buyer invoice for the order. Amount is only needed
// for market price orders.
func (c *Client) AddInvoice(
	ctx context.Context, orderID, invoice string, amount *int64,
) (*domain.Message, error) {
	if invoice == "" {
		return nil, ErrNullInvoice
	}
	return c.orderAction(
		ctx, domain.ActionAddInvoice, orderID,
		domain.AddInvoiceContent(invoice, amount),
	)
}

// Release releases the sats held for the order to the buyer.
func (c *Client) Release(ctx context.Context, orderID string) (*domain.Message, error) {
	return c.orderAction(ctx, domain.ActionRelease, orderID, nil)
}

// FiatSent tells the seller the fiat payment was sent.
func (c *Client) FiatSent(ctx context.Context, orderID string) (*domain.Message, error) {
	return c.orderAction(ctx, domain.ActionFiatSent, orderID, nil)
}

// Cancel cancels the order, cooperatively once it is taken.
func (c *Client) Cancel(ctx context.Context, orderID string) (*domain.Message, error) {
	return c.orderAction(ctx, domain.ActionCancel, orderID, nil)
}

// WaitForAction waits for the first message from Mostro with the given
// action about the given order. A zero timeout means the client default.
func (c *Client) WaitForAction(
	ctx context.Context, action domain.Action, orderID string,
	timeout time.Duration,
) (*domain.Message, error) {
	if timeout <= 0 {
		timeout = c.requestTimeout
	}
	return c.correlator.WaitForAction(ctx, action, orderID, timeout)
}

// SendDirectMessageToPeer sends a legacy encrypted direct message to the
// counterpart of a trade, signed by the trade key of the order, or by the
// identity key when orderID is empty.
func (c *Client) SendDirectMessageToPeer(
	ctx context.Context, peerPubkey, orderID, message string,
) (*nostr.Event, error) {
	if message == "" {
		return nil, ErrNullPeerMessage
	}
	peerPubkey, err := nostr.NormalizePublicKey(peerPubkey)
	if err != nil {
		return nil, err
	}
	peer, err := nostr.ParsePublicKey(peerPubkey)
	if err != nil {
		return nil, err
	}
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	senderKey, err := c.keys.GetIdentityKey()
	if err != nil {
		return nil, err
	}
	if orderID != "" {
		if senderKey, err = c.tradeKeyForOrder(orderID); err != nil {
			return nil, err
		}
	}

	content, err := nostr.EncryptDirectMessage(message, senderKey.PrivateKey, peer)
	if err != nil {
		return nil, err
	}
	ev := &nostr.Event{
		CreatedAt: nostr.Timestamp(c.clock.Now().Unix()),
		Kind:      nostr.KindEncryptedDirectMessage,
		Tags:      nostr.Tags{{"p", peerPubkey}},
		Content:   content,
	}
	if err := ev.Sign(senderKey.PrivateKey); err != nil {
		return nil, err
	}
	if err := c.transport.Publish(ctx, ev); err != nil {
		return nil, err
	}
	c.metrics.EventPublished()
	return ev, nil
}

// GetActiveOrders returns the pending orders currently listed, newest first.
func (c *Client) GetActiveOrders() []*domain.Order {
	return c.orderBook.Active()
}

// GetInfo returns the last info listing of Mostro, if any was received.
func (c *Client) GetInfo() (*domain.Info, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.info, c.info != nil
}

// GetMostroPublicKey ...
func (c *Client) GetMostroPublicKey(format PublicKeyFormat) (string, error) {
	return formatPublicKey(c.mostroPubkey, format)
}

// GetMyPublicKey returns the identity public key.
func (c *Client) GetMyPublicKey(format PublicKeyFormat) (string, error) {
	identity, err := c.keys.GetIdentityKey()
	if err != nil {
		return "", err
	}
	return formatPublicKey(identity.PublicKey, format)
}

// PendingRequests returns the number of requests waiting for a response.
func (c *Client) PendingRequests() int {
	return c.correlator.Len()
}

func (c *Client) take(
	ctx context.Context, action domain.Action, kind domain.OrderKind,
	orderID string, amount *int64,
) (*domain.Message, error) {
	if orderID == "" {
		return nil, ErrNullOrderID
	}
	if order, ok := c.orderBook.Get(orderID); ok && order.Kind != kind {
		return nil, fmt.Errorf(
			"%w: cannot %s a %s order", ErrOrderKindMismatch, action, order.Kind,
		)
	}
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	tradeKey, err := c.keys.GenerateTradeKey(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return c.request(ctx, action, orderID, tradeKey, domain.TakeContent(amount))
}

func (c *Client) orderAction(
	ctx context.Context, action domain.Action, orderID string,
	content interface{},
) (*domain.Message, error) {
	if orderID == "" {
		return nil, ErrNullOrderID
	}
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}
	tradeKey, err := c.tradeKeyForOrder(orderID)
	if err != nil {
		return nil, err
	}
	return c.request(ctx, action, orderID, tradeKey, content)
}

// request runs the common flow of every state-changing call: pending slot,
// payload with the request id, gift wrap signed by the trade key, publish,
// wait.
func (c *Client) request(
	ctx context.Context, action domain.Action, orderID string,
	tradeKey *keymanager.TradeKey, content interface{},
) (*domain.Message, error) {
	msg, err := domain.NewMessage(domain.MessageKindOrder, action, orderID, content)
	if err != nil {
		return nil, err
	}
	if err := c.subscribeGiftWraps(tradeKey.PublicKey); err != nil {
		return nil, err
	}

	req := c.correlator.CreatePending(c.requestTimeout)
	c.metrics.SetPending(c.correlator.Len())
	defer func() { c.metrics.SetPending(c.correlator.Len()) }()

	msg.SetRequestID(req.ID)
	msg.SetTradeIndex(tradeKey.Index)

	gw, err := c.wrapForMostro(msg, tradeKey)
	if err != nil {
		c.correlator.Cancel(req.ID)
		c.metrics.RequestDone(string(action), stats.OutcomeFailed)
		return nil, err
	}
	if err := c.transport.Publish(ctx, gw); err != nil {
		c.correlator.Cancel(req.ID)
		c.metrics.RequestDone(string(action), stats.OutcomeFailed)
		return nil, fmt.Errorf("publishing %s: %w", action, err)
	}
	c.metrics.EventPublished()
	log.Debugf("sent %s request %d for order %q", action, req.ID, orderID)

	resp, err := req.Wait(ctx)
	if err != nil {
		outcome := stats.OutcomeCanceled
		if err == ErrRequestTimeout {
			outcome = stats.OutcomeTimeout
		}
		c.metrics.RequestDone(string(action), outcome)
		return nil, err
	}
	c.metrics.RequestDone(string(action), stats.OutcomeResolved)

	if resp.IsCantDo() {
		return resp, &CantDoError{Reason: resp.CantDoReason()}
	}
	return resp, nil
}

func (c *Client) wrapForMostro(
	msg *domain.Message, tradeKey *keymanager.TradeKey,
) (*nostr.Event, error) {
	content, err := msg.Encode()
	if err != nil {
		return nil, err
	}
	rumor := &nostr.Event{
		CreatedAt: nostr.Timestamp(c.clock.Now().Unix()),
		Kind:      nostr.KindTextNote,
		Tags:      nostr.Tags{},
		Content:   content,
	}
	return giftwrap.Wrap(giftwrap.WrapOpts{
		Rumor:           rumor,
		SenderKey:       tradeKey.PrivateKey,
		RecipientPubKey: c.mostroPubkey,
	})
}

func (c *Client) ensureConnected() error {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if c.closed {
		return ErrClientClosed
	}
	if !c.connected {
		return ErrNotConnected
	}
	return nil
}

// tradeKeyForOrder resolves the public order ids Mostro assigned to the
// local ids trade keys were allocated under.
func (c *Client) tradeKeyForOrder(orderID string) (*keymanager.TradeKey, error) {
	c.lock.RLock()
	localID, ok := c.aliases[orderID]
	c.lock.RUnlock()
	if !ok {
		localID = orderID
	}
	return c.keys.GetTradeKey(localID)
}

// resetSubscriptions cancels the subscriptions of a failed Connect so that
// a retry subscribes every key again.
func (c *Client) resetSubscriptions() {
	c.lock.Lock()
	cancel := c.cancel
	c.ctx, c.cancel = nil, nil
	c.subscribed = make(map[string]struct{})
	c.lock.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (c *Client) subscribeGiftWraps(pubkey string) error {
	c.lock.Lock()
	ctx := c.ctx
	if ctx == nil {
		c.lock.Unlock()
		return ErrNotConnected
	}
	if _, ok := c.subscribed[pubkey]; ok {
		c.lock.Unlock()
		return nil
	}
	c.subscribed[pubkey] = struct{}{}
	c.lock.Unlock()

	// Gift wrap timestamps are randomized into the past.
	since := nostr.Timestamp(c.clock.Now().Add(-giftwrap.MaxTimestampOffset).Unix())
	filter := nostr.Filter{
		Kinds: []int{nostr.KindGiftWrap},
		Tags:  nostr.TagMap{"p": {pubkey}},
	}.WithSince(since)

	if err := c.subscribe(ctx, filter); err != nil {
		c.lock.Lock()
		delete(c.subscribed, pubkey)
		c.lock.Unlock()
		return err
	}
	return nil
}

func (c *Client) subscribe(ctx context.Context, filter nostr.Filter) error {
	events, err := c.transport.Subscribe(ctx, filter)
	if err != nil {
		return fmt.Errorf("subscribing: %w", err)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case c.inbox <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return nil
}

func formatPublicKey(pubkey string, format PublicKeyFormat) (string, error) {
	switch format {
	case PublicKeyFormatHex, "":
		return pubkey, nil
	case PublicKeyFormatNpub:
		return nostr.EncodePublicKey(pubkey)
	default:
		return "", fmt.Errorf("unknown public key format %q", format)
	}
}

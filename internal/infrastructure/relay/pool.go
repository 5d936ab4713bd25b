package relay

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mostrop2p/mostro-go/internal/core/ports"
	"github.com/mostrop2p/mostro-go/pkg/nostr"
	log "github.com/sirupsen/logrus"
	"github.com/thanhpk/randstr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultPublishRate    = 10
	DefaultPublishTimeout = 10 * time.Second
	DefaultReconnectDelay = time.Second
	DefaultDialTimeout    = 10 * time.Second
)

// Opts defines the parameters to create a Pool.
type Opts struct {
	URLs []string
	// PublishRate is the max number of events published per second.
	PublishRate    float64
	PublishTimeout time.Duration
	ReconnectDelay time.Duration
	DialTimeout    time.Duration
}

func (o *Opts) validate() error {
	if len(o.URLs) <= 0 {
		return ErrNullRelayURLs
	}
	for _, u := range o.URLs {
		parsed, err := url.Parse(u)
		if err != nil || (parsed.Scheme != "ws" && parsed.Scheme != "wss") {
			return fmt.Errorf("%w: %s", ErrInvalidRelayURL, u)
		}
	}
	if o.PublishRate <= 0 {
		o.PublishRate = DefaultPublishRate
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = DefaultPublishTimeout
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = DefaultReconnectDelay
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	return nil
}

// Pool is a Transport backed by a set of relays. Subscriptions are sent to
// every relay and deduplicated, events are published to every connected
// relay and the publish succeeds if at least one of them accepts it.
type Pool struct {
	dialer         *websocket.Dialer
	limiter        *rate.Limiter
	publishTimeout time.Duration
	reconnectDelay time.Duration

	relays []*relayConn

	lock    sync.RWMutex
	subs    map[string]*subscription
	started bool
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	readyOnce sync.Once
	ready     chan struct{}
}

// NewPool returns a pool for the given relays. Nothing is dialed until
// Connect.
func NewPool(opts Opts) (ports.Transport, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: opts.DialTimeout,
		},
		limiter:        rate.NewLimiter(rate.Limit(opts.PublishRate), int(opts.PublishRate)+1),
		publishTimeout: opts.PublishTimeout,
		reconnectDelay: opts.ReconnectDelay,
		subs:           make(map[string]*subscription),
		ctx:            ctx,
		cancel:         cancel,
		ready:          make(chan struct{}),
	}
	for _, u := range opts.URLs {
		p.relays = append(p.relays, newRelayConn(u, p))
	}
	return p, nil
}

// Connect dials every relay in parallel and keeps them connected in the
// background. It fails only if no relay could be reached.
func (p *Pool) Connect(ctx context.Context) error {
	p.lock.Lock()
	if p.closed {
		p.lock.Unlock()
		return ErrPoolClosed
	}
	if p.started {
		p.lock.Unlock()
		return nil
	}
	p.started = true
	p.lock.Unlock()

	conns := make([]*websocket.Conn, len(p.relays))
	errs := make([]error, len(p.relays))
	eg := &errgroup.Group{}
	for i := range p.relays {
		i := i
		eg.Go(func() error {
			conns[i], errs[i] = p.relays[i].dial(ctx)
			return errs[i]
		})
	}
	err := eg.Wait()

	reached := 0
	for i, r := range p.relays {
		if errs[i] != nil {
			log.WithError(errs[i]).Warnf("relay %s unreachable", r.url)
		} else {
			reached++
		}
	}
	if reached == 0 {
		p.lock.Lock()
		p.started = false
		p.lock.Unlock()
		return fmt.Errorf("%w: %s", ErrNotConnected, err)
	}

	for i, r := range p.relays {
		r, conn := r, conns[i]
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			r.run(p.ctx, conn)
		}()
	}
	return nil
}

// Ready is closed once the first relay connection is up.
func (p *Pool) Ready() <-chan struct{} {
	return p.ready
}

// Subscribe sends the filter to every relay. The returned channel is closed
// when ctx is done or the pool is closed.
func (p *Pool) Subscribe(
	ctx context.Context, filter nostr.Filter,
) (<-chan *nostr.Event, error) {
	p.lock.Lock()
	if p.closed {
		p.lock.Unlock()
		return nil, ErrPoolClosed
	}
	sub := newSubscription(ctx, randstr.Hex(8), filter)
	p.subs[sub.id] = sub
	p.lock.Unlock()

	for _, r := range p.relays {
		if !r.isConnected() {
			continue
		}
		// A relay that fails here gets the subscription on reconnection.
		if err := r.write(reqMessage(sub.id, filter)); err != nil {
			log.WithError(err).Debugf("subscribing %s on relay %s", sub.id, r.url)
		}
	}

	go func() {
		<-sub.ctx.Done()
		p.removeSubscription(sub)
	}()
	return sub.events, nil
}

// Publish sends the event to every connected relay.
func (p *Pool) Publish(ctx context.Context, ev *nostr.Event) error {
	if valid, err := ev.CheckSignature(); !valid || err != nil {
		return ErrInvalidSignature
	}
	p.lock.RLock()
	closed := p.closed
	p.lock.RUnlock()
	if closed {
		return ErrPoolClosed
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	relays := make([]*relayConn, 0, len(p.relays))
	for _, r := range p.relays {
		if r.isConnected() {
			relays = append(relays, r)
		}
	}
	if len(relays) <= 0 {
		return ErrNotConnected
	}

	var accepted int32
	eg := &errgroup.Group{}
	for i := range relays {
		r := relays[i]
		eg.Go(func() error {
			if err := r.publish(ctx, ev); err != nil {
				log.WithError(err).Debugf("publishing %s on relay %s", ev.ID, r.url)
				return err
			}
			atomic.AddInt32(&accepted, 1)
			return nil
		})
	}
	err := eg.Wait()

	if atomic.LoadInt32(&accepted) <= 0 {
		return fmt.Errorf("%w: %s", ErrPublishFailed, err)
	}
	return nil
}

// Close disconnects from every relay and ends all subscriptions.
func (p *Pool) Close() error {
	p.lock.Lock()
	if p.closed {
		p.lock.Unlock()
		return nil
	}
	p.closed = true
	subs := make([]*subscription, 0, len(p.subs))
	for _, sub := range p.subs {
		subs = append(subs, sub)
	}
	p.lock.Unlock()

	p.cancel()
	for _, r := range p.relays {
		r.close()
	}
	p.wg.Wait()

	for _, sub := range subs {
		sub.close()
	}
	return nil
}

func (p *Pool) markReady() {
	p.readyOnce.Do(func() { close(p.ready) })
}

func (p *Pool) subscription(id string) (*subscription, bool) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	sub, ok := p.subs[id]
	return sub, ok
}

func (p *Pool) subscriptions() []*subscription {
	p.lock.RLock()
	defer p.lock.RUnlock()

	subs := make([]*subscription, 0, len(p.subs))
	for _, sub := range p.subs {
		subs = append(subs, sub)
	}
	return subs
}

func (p *Pool) removeSubscription(sub *subscription) {
	p.lock.Lock()
	delete(p.subs, sub.id)
	p.lock.Unlock()

	for _, r := range p.relays {
		if !r.isConnected() {
			continue
		}
		if err := r.write(closeMessage(sub.id)); err != nil {
			log.WithError(err).Debugf("closing %s on relay %s", sub.id, r.url)
		}
	}
	sub.close()
}

package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mostrop2p/mostro-go/pkg/circuitbreaker"
	"github.com/mostrop2p/mostro-go/pkg/nostr"
	"github.com/sony/gobreaker"
	log "github.com/sirupsen/logrus"
)

const (
	writeTimeout      = 10 * time.Second
	pingInterval      = 30 * time.Second
	maxReconnectDelay = 30 * time.Second
)

type publishResult struct {
	accepted bool
	message  string
}

// relayConn keeps one websocket open with a relay, dialing again with an
// exponential backoff whenever it drops. Every pool subscription is sent
// again after a reconnection.
type relayConn struct {
	url     string
	pool    *Pool
	dialer  *websocket.Dialer
	breaker *gobreaker.CircuitBreaker

	lock sync.RWMutex
	conn *websocket.Conn

	// gorilla connections support one concurrent writer.
	writeLock sync.Mutex

	okLock    sync.Mutex
	okWaiters map[string]chan publishResult
}

func newRelayConn(url string, pool *Pool) *relayConn {
	return &relayConn{
		url:       url,
		pool:      pool,
		dialer:    pool.dialer,
		breaker:   circuitbreaker.NewCircuitBreaker(url),
		okWaiters: make(map[string]chan publishResult),
	}
}

func (r *relayConn) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, err := r.breaker.Execute(func() (interface{}, error) {
		conn, _, err := r.dialer.DialContext(ctx, r.url, nil)
		return conn, err
	})
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", r.url, err)
	}
	return conn.(*websocket.Conn), nil
}

// run serves conn, if not nil, then keeps the connection alive until ctx is
// done.
func (r *relayConn) run(ctx context.Context, conn *websocket.Conn) {
	delay := r.pool.reconnectDelay
	for {
		if conn == nil {
			var err error
			if conn, err = r.dial(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.WithError(err).Debugf("relay %s unreachable, retrying in %s", r.url, delay)
				if !sleep(ctx, delay) {
					return
				}
				delay = nextDelay(delay)
				continue
			}
		}

		delay = r.pool.reconnectDelay
		err := r.serve(ctx, conn)
		conn = nil
		if ctx.Err() != nil {
			return
		}
		log.WithError(err).Warnf("connection with relay %s dropped", r.url)
		if !sleep(ctx, delay) {
			return
		}
	}
}

func (r *relayConn) serve(ctx context.Context, conn *websocket.Conn) error {
	r.setConn(conn)
	defer r.dropConn(conn)

	log.Debugf("connected to relay %s", r.url)
	r.pool.markReady()

	for _, sub := range r.pool.subscriptions() {
		if err := r.write(reqMessage(sub.id, sub.filter)); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	defer close(done)
	go r.keepAlive(ctx, conn, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		r.handleMessage(data)
	}
}

func (r *relayConn) keepAlive(
	ctx context.Context, conn *websocket.Conn, done chan struct{},
) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			conn.Close()
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				conn.Close()
				return
			}
		}
	}
}

func (r *relayConn) handleMessage(data []byte) {
	msg, err := parseRelayMessage(data)
	if err != nil {
		log.WithError(err).Debugf("relay %s sent an unreadable message", r.url)
		return
	}

	switch msg.Type {
	case labelEvent:
		sub, ok := r.pool.subscription(msg.SubscriptionID)
		if !ok {
			return
		}
		if valid, err := msg.Event.CheckSignature(); !valid || err != nil {
			log.Debugf("relay %s sent event %s with invalid signature", r.url, msg.Event.ID)
			return
		}
		if !sub.filter.Matches(msg.Event) {
			return
		}
		sub.deliver(msg.Event)
	case labelOK:
		r.resolvePublish(msg.EventID, publishResult{msg.Accepted, msg.Message})
	case labelEOSE:
		log.Tracef("relay %s: end of stored events for %s", r.url, msg.SubscriptionID)
	case labelNotice:
		log.Infof("relay %s notice: %s", r.url, msg.Message)
	case labelClosed:
		log.Warnf("relay %s closed subscription %s: %s", r.url, msg.SubscriptionID, msg.Message)
	}
}

// publish sends the event and waits for the relay acknowledgement.
func (r *relayConn) publish(ctx context.Context, ev *nostr.Event) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		done := make(chan publishResult, 1)
		r.okLock.Lock()
		r.okWaiters[ev.ID] = done
		r.okLock.Unlock()
		defer func() {
			r.okLock.Lock()
			delete(r.okWaiters, ev.ID)
			r.okLock.Unlock()
		}()

		if err := r.write(eventMessage(ev)); err != nil {
			return nil, err
		}

		timer := time.NewTimer(r.pool.publishTimeout)
		defer timer.Stop()

		select {
		case res := <-done:
			if !res.accepted {
				return nil, fmt.Errorf("%w: %s", ErrEventRejected, res.message)
			}
			return nil, nil
		case <-timer.C:
			return nil, ErrPublishTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	return err
}

func (r *relayConn) resolvePublish(eventID string, res publishResult) {
	r.okLock.Lock()
	done, ok := r.okWaiters[eventID]
	r.okLock.Unlock()
	if !ok {
		return
	}
	select {
	case done <- res:
	default:
	}
}

func (r *relayConn) write(msg interface{}) error {
	r.lock.RLock()
	conn := r.conn
	r.lock.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}

func (r *relayConn) isConnected() bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.conn != nil
}

func (r *relayConn) setConn(conn *websocket.Conn) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.conn = conn
}

func (r *relayConn) dropConn(conn *websocket.Conn) {
	r.lock.Lock()
	if r.conn == conn {
		r.conn = nil
	}
	r.lock.Unlock()
	conn.Close()
}

func (r *relayConn) close() {
	r.lock.RLock()
	conn := r.conn
	r.lock.RUnlock()
	if conn == nil {
		return
	}

	r.writeLock.Lock()
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	r.writeLock.Unlock()
	conn.Close()
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > maxReconnectDelay {
		d = maxReconnectDelay
	}
	return d
}

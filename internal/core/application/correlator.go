package application

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/mostrop2p/mostro-go/internal/core/domain"
)

type requestResult struct {
	msg *domain.Message
	err error
}

// PendingRequest is an outstanding request waiting for the response that
// echoes its ID. It resolves exactly once: with the response, with
// ErrRequestTimeout, or with ErrRequestCanceled.
type PendingRequest struct {
	ID uint64

	correlator *RequestCorrelator
	timer      *clock.Timer
	done       chan requestResult
}

// Wait blocks until the request resolves or ctx is done. In the latter case
// the request is canceled.
func (p *PendingRequest) Wait(ctx context.Context) (*domain.Message, error) {
	select {
	case res := <-p.done:
		return res.msg, res.err
	case <-ctx.Done():
		p.correlator.Cancel(p.ID)
		return nil, ctx.Err()
	}
}

type actionWaiter struct {
	action  domain.Action
	orderID string
	done    chan *domain.Message
}

func (w *actionWaiter) matches(msg *domain.Message) bool {
	return msg.Action == w.action && (w.orderID == "" || msg.ID == w.orderID)
}

// RequestCorrelator matches inbound messages to outstanding requests, either
// by request id or by (action, order id) for the messages Mostro sends
// without echoing a request id.
type RequestCorrelator struct {
	clock clock.Clock

	lock         sync.Mutex
	lastID       uint64
	pending      map[uint64]*PendingRequest
	lastWaiterID uint64
	waiters      map[uint64]*actionWaiter
}

// NewRequestCorrelator returns a correlator running its timers on clk, or on
// the wall clock if clk is nil.
func NewRequestCorrelator(clk clock.Clock) *RequestCorrelator {
	if clk == nil {
		clk = clock.New()
	}
	return &RequestCorrelator{
		clock:   clk,
		pending: make(map[uint64]*PendingRequest),
		waiters: make(map[uint64]*actionWaiter),
	}
}

// CreatePending allocates the next request id, starting from 1, and arms its
// timeout.
func (c *RequestCorrelator) CreatePending(timeout time.Duration) *PendingRequest {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.lastID++
	req := &PendingRequest{
		ID:         c.lastID,
		correlator: c,
		done:       make(chan requestResult, 1),
	}
	c.pending[req.ID] = req
	// The timer callback takes the lock, so it cannot observe the request
	// before it is fully registered.
	id := req.ID
	req.timer = c.clock.AfterFunc(timeout, func() {
		c.finish(id, requestResult{err: ErrRequestTimeout})
	})
	return req
}

// Resolve delivers msg to the pending request it carries the id of. It
// returns false when msg has no request id or the request is no longer
// pending, a duplicate response included.
func (c *RequestCorrelator) Resolve(msg *domain.Message) bool {
	if msg == nil || msg.RequestID == nil {
		return false
	}
	return c.finish(*msg.RequestID, requestResult{msg: msg})
}

// Cancel fails the pending request with ErrRequestCanceled.
func (c *RequestCorrelator) Cancel(id uint64) bool {
	return c.finish(id, requestResult{err: ErrRequestCanceled})
}

// Len returns the number of pending requests.
func (c *RequestCorrelator) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.pending)
}

// NotifyAction hands msg to every WaitForAction caller it matches and
// returns how many were served.
func (c *RequestCorrelator) NotifyAction(msg *domain.Message) int {
	if msg == nil {
		return 0
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	served := 0
	for id, w := range c.waiters {
		if !w.matches(msg) {
			continue
		}
		w.done <- msg
		delete(c.waiters, id)
		served++
	}
	return served
}

// WaitForAction blocks until a message with the given action, and order id
// if not empty, is notified, the timeout expires or ctx is done. It works
// independently of request id correlation.
func (c *RequestCorrelator) WaitForAction(
	ctx context.Context, action domain.Action, orderID string,
	timeout time.Duration,
) (*domain.Message, error) {
	w := &actionWaiter{
		action:  action,
		orderID: orderID,
		done:    make(chan *domain.Message, 1),
	}

	c.lock.Lock()
	c.lastWaiterID++
	id := c.lastWaiterID
	c.waiters[id] = w
	c.lock.Unlock()

	timer := c.clock.Timer(timeout)
	defer timer.Stop()

	select {
	case msg := <-w.done:
		return msg, nil
	case <-timer.C:
		return c.dropWaiter(id, w, ErrRequestTimeout)
	case <-ctx.Done():
		return c.dropWaiter(id, w, ctx.Err())
	}
}

// dropWaiter unregisters the waiter, unless a message was delivered in the
// meantime, in which case the message wins.
func (c *RequestCorrelator) dropWaiter(
	id uint64, w *actionWaiter, err error,
) (*domain.Message, error) {
	c.lock.Lock()
	delete(c.waiters, id)
	c.lock.Unlock()

	select {
	case msg := <-w.done:
		return msg, nil
	default:
		return nil, err
	}
}

func (c *RequestCorrelator) finish(id uint64, res requestResult) bool {
	c.lock.Lock()
	req, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.lock.Unlock()

	if !ok {
		return false
	}
	req.timer.Stop()
	req.done <- res
	return true
}

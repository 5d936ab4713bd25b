package application

import (
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mostrop2p/mostro-go/internal/core/domain"
)

const defaultOrderHistorySize = 10000

// OrderBook is the view of the active (pending) orders built from order
// listings. The latest listing per order id wins: pending listings insert or
// replace, any other status evicts. Listings older than the last one applied
// for the same id are ignored, so a late replay cannot resurrect an evicted
// order.
type OrderBook struct {
	lock     sync.RWMutex
	orders   map[string]*domain.Order
	lastSeen *lru.Cache[string, int64]
}

// NewOrderBook returns an empty order book remembering the timestamp of up
// to historySize orders.
func NewOrderBook(historySize int) *OrderBook {
	if historySize <= 0 {
		historySize = defaultOrderHistorySize
	}
	lastSeen, _ := lru.New[string, int64](historySize)
	return &OrderBook{
		orders:   make(map[string]*domain.Order),
		lastSeen: lastSeen,
	}
}

// Apply updates the book with the order decoded from a listing and reports
// whether the listing was applied.
func (b *OrderBook) Apply(order *domain.Order) bool {
	if order == nil || order.ID == "" {
		return false
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if last, ok := b.lastSeen.Get(order.ID); ok && order.CreatedAt < last {
		return false
	}
	b.lastSeen.Add(order.ID, order.CreatedAt)

	if order.IsPending() {
		b.orders[order.ID] = order
	} else {
		delete(b.orders, order.ID)
	}
	return true
}

// Get ...
func (b *OrderBook) Get(id string) (*domain.Order, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	order, ok := b.orders[id]
	return order, ok
}

// Active returns the active orders, newest first.
func (b *OrderBook) Active() []*domain.Order {
	b.lock.RLock()
	defer b.lock.RUnlock()

	orders := make([]*domain.Order, 0, len(b.orders))
	for _, o := range b.orders {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt == orders[j].CreatedAt {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt > orders[j].CreatedAt
	})
	return orders
}

// PruneExpired removes the orders expired at now and returns how many.
func (b *OrderBook) PruneExpired(now time.Time) int {
	b.lock.Lock()
	defer b.lock.Unlock()

	count := 0
	for id, o := range b.orders {
		if o.IsExpired(now) {
			delete(b.orders, id)
			count++
		}
	}
	return count
}

// Len ...
func (b *OrderBook) Len() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return len(b.orders)
}

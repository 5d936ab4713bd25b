package keymanager

import (
	"context"
	"time"
)

// TradeKeyRecord is the persisted part of a trade key allocation. The key
// itself is never stored, it is derived again from the seed on load.
type TradeKeyRecord struct {
	Identity  string
	OrderID   string
	Index     uint32
	CreatedAt int64
}

// Created returns the allocation time.
func (r TradeKeyRecord) Created() time.Time {
	return time.Unix(r.CreatedAt, 0)
}

// Store persists trade key allocations, scoped by the hex public key of the
// identity that owns them.
//
// AddTradeKey must persist the record and advance the next free index past
// record.Index in one step. NextIndex returns 1 for an identity that never
// allocated a trade key.
type Store interface {
	NextIndex(ctx context.Context, identity string) (uint32, error)
	AddTradeKey(ctx context.Context, record TradeKeyRecord) error
	ListTradeKeys(ctx context.Context, identity string) ([]TradeKeyRecord, error)
	Close()
}

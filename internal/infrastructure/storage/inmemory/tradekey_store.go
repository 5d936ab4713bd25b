package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/mostrop2p/mostro-go/pkg/keymanager"
)

type identityKeys struct {
	records   map[string]keymanager.TradeKeyRecord
	nextIndex uint32
}

// TradeKeyStore keeps trade key allocations in memory. Allocations survive
// the KeyManager using it, not the process.
type TradeKeyStore struct {
	identities map[string]*identityKeys

	lock *sync.RWMutex
}

// NewTradeKeyStore returns a new empty TradeKeyStore
func NewTradeKeyStore() keymanager.Store {
	return &TradeKeyStore{
		identities: map[string]*identityKeys{},
		lock:       &sync.RWMutex{},
	}
}

// NextIndex implements keymanager.Store
func (s *TradeKeyStore) NextIndex(
	_ context.Context, identity string,
) (uint32, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	keys, ok := s.identities[identity]
	if !ok {
		return keymanager.FirstTradeKeyIndex, nil
	}
	return keys.nextIndex, nil
}

// AddTradeKey implements keymanager.Store
func (s *TradeKeyStore) AddTradeKey(
	_ context.Context, record keymanager.TradeKeyRecord,
) error {
	if record.OrderID == "" {
		return keymanager.ErrNullOrderID
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	keys, ok := s.identities[record.Identity]
	if !ok {
		keys = &identityKeys{
			records:   map[string]keymanager.TradeKeyRecord{},
			nextIndex: keymanager.FirstTradeKeyIndex,
		}
		s.identities[record.Identity] = keys
	}
	if _, ok := keys.records[record.OrderID]; ok {
		return ErrTradeKeyAlreadyExists
	}
	if record.Index < keys.nextIndex {
		return ErrTradeKeyIndexReused
	}

	keys.records[record.OrderID] = record
	keys.nextIndex = record.Index + 1
	return nil
}

// ListTradeKeys implements keymanager.Store
func (s *TradeKeyStore) ListTradeKeys(
	_ context.Context, identity string,
) ([]keymanager.TradeKeyRecord, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	keys, ok := s.identities[identity]
	if !ok {
		return nil, nil
	}
	records := make([]keymanager.TradeKeyRecord, 0, len(keys.records))
	for _, r := range keys.records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Index < records[j].Index
	})
	return records, nil
}

// Close implements keymanager.Store
func (s *TradeKeyStore) Close() {}

package inmemory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/mostrop2p/mostro-go/internal/infrastructure/storage/inmemory"
	"github.com/mostrop2p/mostro-go/pkg/keymanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeKeyStore(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewTradeKeyStore()

	next, err := store.NextIndex(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, keymanager.FirstTradeKeyIndex, next)

	err = store.AddTradeKey(ctx, keymanager.TradeKeyRecord{
		Identity: "alice", OrderID: "o1", Index: 1,
	})
	require.NoError(t, err)
	err = store.AddTradeKey(ctx, keymanager.TradeKeyRecord{
		Identity: "alice", OrderID: "o2", Index: 1,
	})
	require.ErrorIs(t, err, inmemory.ErrTradeKeyIndexReused)
	err = store.AddTradeKey(ctx, keymanager.TradeKeyRecord{
		Identity: "alice", OrderID: "o1", Index: 2,
	})
	require.ErrorIs(t, err, inmemory.ErrTradeKeyAlreadyExists)

	next, err = store.NextIndex(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, uint32(2), next)

	next, err = store.NextIndex(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, keymanager.FirstTradeKeyIndex, next)
}

func TestTradeKeyStoreConcurrentReads(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewTradeKeyStore()
	for i := 1; i <= 10; i++ {
		err := store.AddTradeKey(ctx, keymanager.TradeKeyRecord{
			Identity: "alice", OrderID: string(rune('a' + i)), Index: uint32(i),
		})
		require.NoError(t, err)
	}

	wg := &sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, err := store.ListTradeKeys(ctx, "alice")
			assert.NoError(t, err)
			if assert.Len(t, records, 10) {
				assert.Equal(t, uint32(1), records[0].Index)
			}
		}()
	}
	wg.Wait()
}

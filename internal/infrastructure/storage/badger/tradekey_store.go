package badgerstore

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/mostrop2p/mostro-go/pkg/keymanager"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const tradeKeysDir = "tradekeys"

type tradeKeyRecord struct {
	Identity  string `badgerhold:"index"`
	OrderID   string
	Index     uint32
	CreatedAt int64
}

type indexCounter struct {
	Identity  string
	NextIndex uint32
}

type tradeKeyStore struct {
	store *badgerhold.Store
}

// NewTradeKeyStore opens (or creates) the trade key store under baseDbDir.
// An empty dir gives an in-memory store.
func NewTradeKeyStore(
	baseDbDir string, logger badger.Logger,
) (keymanager.Store, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, tradeKeysDir)
	}

	store, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening trade key db: %w", err)
	}
	return &tradeKeyStore{store}, nil
}

func (s *tradeKeyStore) NextIndex(
	_ context.Context, identity string,
) (uint32, error) {
	var counter indexCounter
	if err := s.store.Get(identity, &counter); err != nil {
		if err == badgerhold.ErrNotFound {
			return keymanager.FirstTradeKeyIndex, nil
		}
		return 0, err
	}
	return counter.NextIndex, nil
}

func (s *tradeKeyStore) AddTradeKey(
	_ context.Context, record keymanager.TradeKeyRecord,
) error {
	if record.OrderID == "" {
		return keymanager.ErrNullOrderID
	}

	return s.store.Badger().Update(func(tx *badger.Txn) error {
		var counter indexCounter
		if err := s.store.TxGet(tx, record.Identity, &counter); err != nil {
			if err != badgerhold.ErrNotFound {
				return err
			}
			counter = indexCounter{
				Identity:  record.Identity,
				NextIndex: keymanager.FirstTradeKeyIndex,
			}
		}
		if record.Index < counter.NextIndex {
			return ErrTradeKeyIndexReused
		}

		key := recordKey(record.Identity, record.OrderID)
		if err := s.store.TxInsert(tx, key, toStorage(record)); err != nil {
			if err == badgerhold.ErrKeyExists {
				return ErrTradeKeyAlreadyExists
			}
			return err
		}

		counter.NextIndex = record.Index + 1
		return s.store.TxUpsert(tx, record.Identity, &counter)
	})
}

func (s *tradeKeyStore) ListTradeKeys(
	_ context.Context, identity string,
) ([]keymanager.TradeKeyRecord, error) {
	var stored []tradeKeyRecord
	query := badgerhold.Where("Identity").Eq(identity).SortBy("Index")
	if err := s.store.Find(&stored, query); err != nil {
		return nil, err
	}

	records := make([]keymanager.TradeKeyRecord, 0, len(stored))
	for _, r := range stored {
		records = append(records, keymanager.TradeKeyRecord(r))
	}
	return records, nil
}

func (s *tradeKeyStore) Close() {
	if err := s.store.Close(); err != nil {
		log.WithError(err).Warn("closing trade key db")
	}
}

func recordKey(identity, orderID string) string {
	return identity + "/" + orderID
}

func toStorage(record keymanager.TradeKeyRecord) *tradeKeyRecord {
	r := tradeKeyRecord(record)
	return &r
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)

		go func() {
			for {
				<-ticker.C
				if err := db.Badger().RunValueLogGC(0.5); err != nil &&
					err != badger.ErrNoRewrite {
					log.Error(err)
				}
			}
		}()
	}

	return db, nil
}

package keymanager

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/mostrop2p/mostro-go/pkg/nostr"
)

const (
	// IdentityKeyIndex is reserved for the long-term identity key.
	IdentityKeyIndex uint32 = 0
	// FirstTradeKeyIndex is the index of the first trade key ever issued.
	FirstTradeKeyIndex uint32 = 1
)

// Opts defines the parameters to create a KeyManager.
type Opts struct {
	Store    Store
	BasePath DerivationPath
}

func (o *Opts) validate() error {
	if o.Store == nil {
		return ErrNullStore
	}
	if len(o.BasePath) <= 0 {
		o.BasePath = DefaultBasePath
	}
	return o.BasePath.validateBasePath()
}

// TradeKey is a derived key together with the order it was issued for. The
// identity key has an empty OrderID and index 0.
type TradeKey struct {
	OrderID    string
	Index      uint32
	Path       DerivationPath
	PrivateKey *btcec.PrivateKey
	PublicKey  string
	CreatedAt  time.Time
}

// KeyManager derives the identity key and one trade key per order from a
// single seed. Index allocation is serialized and persisted through the Store
// before a key is handed out, so an index is never issued twice for the same
// identity, not even across restarts.
type KeyManager struct {
	lock sync.RWMutex

	store    Store
	basePath DerivationPath

	branch    *hdkeychain.ExtendedKey
	identity  *TradeKey
	byOrderID map[string]*TradeKey
	byPubkey  map[string]*TradeKey
	nextIndex uint32
}

// NewKeyManager returns an uninitialized KeyManager.
func NewKeyManager(opts Opts) (*KeyManager, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &KeyManager{
		store:     opts.Store,
		basePath:  opts.BasePath,
		byOrderID: make(map[string]*TradeKey),
		byPubkey:  make(map[string]*TradeKey),
	}, nil
}

// InitializeFromMnemonic is Initialize for the BIP39 seed of the mnemonic.
func (m *KeyManager) InitializeFromMnemonic(
	ctx context.Context, mnemonic []string, passphrase string,
) error {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return err
	}
	return m.Initialize(ctx, seed)
}

// Initialize derives the identity key from the seed and restores previously
// allocated trade keys from the store.
func (m *KeyManager) Initialize(ctx context.Context, seed []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.branch != nil {
		return ErrAlreadyInitialized
	}
	if len(seed) < hdkeychain.MinSeedBytes || len(seed) > hdkeychain.MaxSeedBytes {
		return ErrInvalidSeed
	}

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		if err == hdkeychain.ErrUnusableSeed {
			return fmt.Errorf("%w: %s", ErrInvalidSeed, err)
		}
		return fmt.Errorf("%w: %s", ErrDerivationFailed, err)
	}
	branch := master
	for _, step := range m.basePath {
		branch, err = branch.Derive(step)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrDerivationFailed, err)
		}
	}

	identityKey, err := deriveChild(branch, IdentityKeyIndex)
	if err != nil {
		return err
	}
	identity := &TradeKey{
		Index:      IdentityKeyIndex,
		Path:       m.basePath.Child(IdentityKeyIndex),
		PrivateKey: identityKey,
		PublicKey:  nostr.PublicKeyHex(identityKey),
	}

	records, err := m.store.ListTradeKeys(ctx, identity.PublicKey)
	if err != nil {
		return fmt.Errorf("loading trade keys: %w", err)
	}
	nextIndex, err := m.store.NextIndex(ctx, identity.PublicKey)
	if err != nil {
		return fmt.Errorf("loading next trade key index: %w", err)
	}
	if nextIndex < FirstTradeKeyIndex {
		nextIndex = FirstTradeKeyIndex
	}

	byOrderID := make(map[string]*TradeKey, len(records))
	byPubkey := map[string]*TradeKey{identity.PublicKey: identity}
	for _, record := range records {
		key, err := deriveChild(branch, record.Index)
		if err != nil {
			return err
		}
		tradeKey := &TradeKey{
			OrderID:    record.OrderID,
			Index:      record.Index,
			Path:       m.basePath.Child(record.Index),
			PrivateKey: key,
			PublicKey:  nostr.PublicKeyHex(key),
			CreatedAt:  record.Created(),
		}
		byOrderID[record.OrderID] = tradeKey
		byPubkey[tradeKey.PublicKey] = tradeKey
		if record.Index >= nextIndex {
			nextIndex = record.Index + 1
		}
	}

	m.branch = branch
	m.identity = identity
	m.byOrderID = byOrderID
	m.byPubkey = byPubkey
	m.nextIndex = nextIndex
	return nil
}

// IsInitialized ...
func (m *KeyManager) IsInitialized() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.branch != nil
}

// GenerateTradeKey allocates the next index for the given order, persists the
// allocation and returns the derived key. An order that already owns a trade
// key gets the same key back.
func (m *KeyManager) GenerateTradeKey(
	ctx context.Context, orderID string,
) (*TradeKey, error) {
	if orderID == "" {
		return nil, ErrNullOrderID
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if m.branch == nil {
		return nil, ErrNotInitialized
	}
	if tradeKey, ok := m.byOrderID[orderID]; ok {
		return tradeKey, nil
	}

	index := m.nextIndex
	if index >= hdkeychain.HardenedKeyStart {
		return nil, ErrIndexExhausted
	}
	key, err := deriveChild(m.branch, index)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := TradeKeyRecord{
		Identity:  m.identity.PublicKey,
		OrderID:   orderID,
		Index:     index,
		CreatedAt: now.Unix(),
	}
	if err := m.store.AddTradeKey(ctx, record); err != nil {
		return nil, fmt.Errorf("persisting trade key: %w", err)
	}
	m.nextIndex = index + 1

	tradeKey := &TradeKey{
		OrderID:    orderID,
		Index:      index,
		Path:       m.basePath.Child(index),
		PrivateKey: key,
		PublicKey:  nostr.PublicKeyHex(key),
		CreatedAt:  time.Unix(record.CreatedAt, 0),
	}
	m.byOrderID[orderID] = tradeKey
	m.byPubkey[tradeKey.PublicKey] = tradeKey
	return tradeKey, nil
}

// GetKeyByIndex derives the key at index without touching any state.
func (m *KeyManager) GetKeyByIndex(index uint32) (*btcec.PrivateKey, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.branch == nil {
		return nil, ErrNotInitialized
	}
	if index >= hdkeychain.HardenedKeyStart {
		return nil, ErrInvalidKeyIndex
	}
	return deriveChild(m.branch, index)
}

// GetIdentityKey ...
func (m *KeyManager) GetIdentityKey() (*TradeKey, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.branch == nil {
		return nil, ErrNotInitialized
	}
	return m.identity, nil
}

// GetTradeKey returns the trade key issued for the order.
func (m *KeyManager) GetTradeKey(orderID string) (*TradeKey, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.branch == nil {
		return nil, ErrNotInitialized
	}
	tradeKey, ok := m.byOrderID[orderID]
	if !ok {
		return nil, ErrTradeKeyNotFound
	}
	return tradeKey, nil
}

// GetKeyByPublicKey looks up the identity or a trade key by its hex public
// key.
func (m *KeyManager) GetKeyByPublicKey(pubkey string) (*TradeKey, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.branch == nil {
		return nil, ErrNotInitialized
	}
	tradeKey, ok := m.byPubkey[pubkey]
	if !ok {
		return nil, ErrTradeKeyNotFound
	}
	return tradeKey, nil
}

// TradeKeys returns all issued trade keys ordered by index.
func (m *KeyManager) TradeKeys() []*TradeKey {
	m.lock.RLock()
	defer m.lock.RUnlock()

	tradeKeys := make([]*TradeKey, 0, len(m.byOrderID))
	for _, tradeKey := range m.byOrderID {
		tradeKeys = append(tradeKeys, tradeKey)
	}
	sort.Slice(tradeKeys, func(i, j int) bool {
		return tradeKeys[i].Index < tradeKeys[j].Index
	})
	return tradeKeys
}

// NextIndex returns the index the next trade key will be derived at.
func (m *KeyManager) NextIndex() uint32 {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.nextIndex
}

// Clear zeroes every derived private key and forgets the master node.
// Allocations already persisted in the store are kept.
func (m *KeyManager) Clear() {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, tradeKey := range m.byPubkey {
		tradeKey.PrivateKey.Zero()
	}
	m.branch = nil
	m.identity = nil
	m.byOrderID = make(map[string]*TradeKey)
	m.byPubkey = make(map[string]*TradeKey)
	m.nextIndex = 0
}

// GetPublicKeyFromPrivate returns the hex x-only public key of a hex private
// key.
func GetPublicKeyFromPrivate(privkey string) (string, error) {
	pubkey, err := nostr.GetPublicKey(privkey)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPublicKeyGenerationFailed, err)
	}
	return pubkey, nil
}

func deriveChild(
	branch *hdkeychain.ExtendedKey, index uint32,
) (*btcec.PrivateKey, error) {
	child, err := branch.Derive(index)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDerivationFailed, err)
	}
	key, err := child.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDerivationFailed, err)
	}
	return key, nil
}

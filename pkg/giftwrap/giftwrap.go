// Package giftwrap builds and opens the three layer NIP-59 envelope: an
// unsigned rumor, sealed and signed by the real sender, wrapped and signed by
// a throwaway key.
package giftwrap

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/mostrop2p/mostro-go/pkg/nostr"
)

// MaxTimestampOffset bounds how far in the past seal and gift wrap
// timestamps are moved.
const MaxTimestampOffset = 48 * time.Hour

var (
	// ErrNullRumor ...
	ErrNullRumor = errors.New("rumor must not be null")
	// ErrNullSenderKey ...
	ErrNullSenderKey = errors.New("sender key must not be null")
	// ErrNullRecipientKey ...
	ErrNullRecipientKey = errors.New("recipient key must not be null")
	// ErrUndecryptable is returned by Unwrap for every envelope that cannot be
	// opened with the given key. It is the expected outcome for gift wraps
	// addressed to someone else.
	ErrUndecryptable = errors.New("gift wrap cannot be unwrapped")
)

// WrapOpts defines the parameters to wrap a rumor.
type WrapOpts struct {
	Rumor           *nostr.Event
	SenderKey       *btcec.PrivateKey
	RecipientPubKey string
}

func (o WrapOpts) validate() error {
	if o.Rumor == nil {
		return ErrNullRumor
	}
	if o.SenderKey == nil {
		return ErrNullSenderKey
	}
	if _, err := nostr.ParsePublicKey(o.RecipientPubKey); err != nil {
		return fmt.Errorf("recipient: %w", err)
	}
	return nil
}

// Unwrapped holds the three layers of an opened envelope.
type Unwrapped struct {
	GiftWrap *nostr.Event
	Seal     *nostr.Event
	Rumor    *nostr.Event
}

// Sender returns the public key that signed the seal.
func (u *Unwrapped) Sender() string {
	return u.Seal.PubKey
}

// Wrap seals the rumor with the sender key and wraps the seal with a fresh
// throwaway key, addressing the result to the recipient. The rumor is not
// modified, the rumor embedded in the envelope carries the sender pubkey and
// its id.
func Wrap(opts WrapOpts) (*nostr.Event, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	rumor := *opts.Rumor
	rumor.PubKey = nostr.PublicKeyHex(opts.SenderKey)
	if rumor.CreatedAt == 0 {
		rumor.CreatedAt = nostr.Now()
	}
	if rumor.Tags == nil {
		rumor.Tags = nostr.Tags{}
	}
	rumor.Sig = ""
	rumor.ID = rumor.ComputeID()

	seal, err := sealRumor(&rumor, opts.SenderKey, opts.RecipientPubKey)
	if err != nil {
		return nil, err
	}
	return wrapSeal(seal, opts.RecipientPubKey)
}

func sealRumor(
	rumor *nostr.Event, senderKey *btcec.PrivateKey, recipient string,
) (*nostr.Event, error) {
	content, err := encryptEvent(rumor, senderKey, recipient)
	if err != nil {
		return nil, fmt.Errorf("sealing rumor: %w", err)
	}
	createdAt, err := randomPastTimestamp()
	if err != nil {
		return nil, err
	}

	seal := &nostr.Event{
		CreatedAt: createdAt,
		Kind:      nostr.KindSeal,
		Tags:      nostr.Tags{},
		Content:   content,
	}
	if err := seal.Sign(senderKey); err != nil {
		return nil, err
	}
	return seal, nil
}

func wrapSeal(seal *nostr.Event, recipient string) (*nostr.Event, error) {
	throwaway, err := nostr.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	defer throwaway.Zero()

	content, err := encryptEvent(seal, throwaway, recipient)
	if err != nil {
		return nil, fmt.Errorf("wrapping seal: %w", err)
	}
	createdAt, err := randomPastTimestamp()
	if err != nil {
		return nil, err
	}

	giftWrap := &nostr.Event{
		CreatedAt: createdAt,
		Kind:      nostr.KindGiftWrap,
		Tags:      nostr.Tags{{"p", recipient}},
		Content:   content,
	}
	if err := giftWrap.Sign(throwaway); err != nil {
		return nil, err
	}
	return giftWrap, nil
}

// Unwrap opens a gift wrap with the recipient key. Every failure, from a
// foreign recipient to a forged seal, is reported as ErrUndecryptable.
func Unwrap(
	giftWrap *nostr.Event, recipientKey *btcec.PrivateKey,
) (*Unwrapped, error) {
	if recipientKey == nil {
		return nil, ErrNullRecipientKey
	}
	if giftWrap == nil || giftWrap.Kind != nostr.KindGiftWrap {
		return nil, fmt.Errorf("%w: not a gift wrap", ErrUndecryptable)
	}

	seal, err := decryptEvent(giftWrap.Content, recipientKey, giftWrap.PubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: gift wrap: %s", ErrUndecryptable, err)
	}
	if seal.Kind != nostr.KindSeal {
		return nil, fmt.Errorf("%w: unexpected seal kind %d", ErrUndecryptable, seal.Kind)
	}
	if ok, err := seal.CheckSignature(); err != nil || !ok {
		return nil, fmt.Errorf("%w: invalid seal signature", ErrUndecryptable)
	}

	rumor, err := decryptEvent(seal.Content, recipientKey, seal.PubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: seal: %s", ErrUndecryptable, err)
	}
	if rumor.PubKey != seal.PubKey {
		return nil, fmt.Errorf("%w: rumor author differs from seal author", ErrUndecryptable)
	}

	return &Unwrapped{
		GiftWrap: giftWrap,
		Seal:     seal,
		Rumor:    rumor,
	}, nil
}

func encryptEvent(
	ev *nostr.Event, key *btcec.PrivateKey, recipient string,
) (string, error) {
	buf, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	conversationKey, err := nostr.ConversationKeyFromHex(key, recipient)
	if err != nil {
		return "", err
	}
	return nostr.Encrypt(string(buf), conversationKey)
}

func decryptEvent(
	content string, key *btcec.PrivateKey, sender string,
) (*nostr.Event, error) {
	conversationKey, err := nostr.ConversationKeyFromHex(key, sender)
	if err != nil {
		return nil, err
	}
	plaintext, err := nostr.Decrypt(content, conversationKey)
	if err != nil {
		return nil, err
	}
	ev := &nostr.Event{}
	if err := json.Unmarshal([]byte(plaintext), ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func randomPastTimestamp() (nostr.Timestamp, error) {
	offset, err := rand.Int(rand.Reader, big.NewInt(int64(MaxTimestampOffset/time.Second)))
	if err != nil {
		return 0, err
	}
	return nostr.Now() - nostr.Timestamp(offset.Int64()), nil
}

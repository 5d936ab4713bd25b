package nostr

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

const (
	// KindTextNote is the kind Mostro uses for rumors.
	KindTextNote = 1
	// KindEncryptedDirectMessage is the legacy NIP-04 direct message.
	KindEncryptedDirectMessage = 4
	// KindSeal is the NIP-59 seal.
	KindSeal = 13
	// KindGiftWrap is the NIP-59 gift wrap.
	KindGiftWrap = 1059
	// KindOrder is the parameterized replaceable kind of Mostro listings
	// (both orders and daemon info, told apart by the "z" tag).
	KindOrder = 38383
)

// Timestamp is a unix time in seconds.
type Timestamp int64

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return Timestamp(time.Now().Unix())
}

// Time converts the timestamp to a time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t), 0)
}

// Event is the only object type of the protocol.
type Event struct {
	ID        string    `json:"id"`
	PubKey    string    `json:"pubkey"`
	CreatedAt Timestamp `json:"created_at"`
	Kind      int       `json:"kind"`
	Tags      Tags      `json:"tags"`
	Content   string    `json:"content"`
	Sig       string    `json:"sig,omitempty"`
}

// Serialize returns the canonical array representation the event id is the
// hash of: [0,pubkey,created_at,kind,tags,content].
func (e *Event) Serialize() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 128+len(e.Content)))
	buf.WriteString(`[0,"`)
	buf.WriteString(e.PubKey)
	buf.WriteString(`",`)
	buf.WriteString(strconv.FormatInt(int64(e.CreatedAt), 10))
	buf.WriteString(`,`)
	buf.WriteString(strconv.Itoa(e.Kind))
	buf.WriteString(`,`)
	writeTags(buf, e.Tags)
	buf.WriteString(`,`)
	writeEscapedString(buf, e.Content)
	buf.WriteString(`]`)
	return buf.Bytes()
}

// ComputeID returns the hex encoded sha256 of the serialized event.
func (e *Event) ComputeID() string {
	h := sha256.Sum256(e.Serialize())
	return hex.EncodeToString(h[:])
}

// Sign sets pubkey, id and signature of the event with the given key.
func (e *Event) Sign(key *btcec.PrivateKey) error {
	if key == nil {
		return ErrNullPrivateKey
	}
	if e.Tags == nil {
		e.Tags = Tags{}
	}
	e.PubKey = PublicKeyHex(key)

	h := sha256.Sum256(e.Serialize())
	sig, err := schnorr.Sign(key, h[:])
	if err != nil {
		return fmt.Errorf("signing event: %w", err)
	}
	e.ID = hex.EncodeToString(h[:])
	e.Sig = hex.EncodeToString(sig.Serialize())
	return nil
}

// CheckSignature reports whether id and signature match the event content.
func (e *Event) CheckSignature() (bool, error) {
	if e.ComputeID() != e.ID {
		return false, nil
	}
	pubkey, err := ParsePublicKey(e.PubKey)
	if err != nil {
		return false, err
	}
	sigBytes, err := hex.DecodeString(e.Sig)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}
	sig, err := schnorr.ParseSignature(sigBytes)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}
	id, _ := hex.DecodeString(e.ID)
	return sig.Verify(id, pubkey), nil
}

func writeTags(buf *bytes.Buffer, tags Tags) {
	buf.WriteByte('[')
	for i, tag := range tags {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('[')
		for j, value := range tag {
			if j > 0 {
				buf.WriteByte(',')
			}
			writeEscapedString(buf, value)
		}
		buf.WriteByte(']')
	}
	buf.WriteByte(']')
}

// writeEscapedString follows NIP-01: only quote, backslash and the short
// control escapes are escaped, everything else is written verbatim.
func writeEscapedString(buf *bytes.Buffer, s string) {
	const hexDigits = "0123456789abcdef"

	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if c < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[c>>4])
				buf.WriteByte(hexDigits[c&0xf])
				continue
			}
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('"')
}

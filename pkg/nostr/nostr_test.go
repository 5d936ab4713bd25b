package nostr_test

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mostrop2p/mostro-go/pkg/nostr"
	"github.com/stretchr/testify/require"
)

const (
	privkeyOne = "0000000000000000000000000000000000000000000000000000000000000001"
	privkeyTwo = "0000000000000000000000000000000000000000000000000000000000000002"
	pubkeyOne  = "79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
)

func TestKeys(t *testing.T) {
	t.Run("GetPublicKey", func(t *testing.T) {
		pubkey, err := nostr.GetPublicKey(privkeyOne)
		require.NoError(t, err)
		require.Equal(t, pubkeyOne, pubkey)
	})

	t.Run("InvalidPrivateKeys", func(t *testing.T) {
		invalid := []string{
			"",
			"zz",
			"0000000000000000000000000000000000000000000000000000000000000000",
			"fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141",
			privkeyOne[2:],
		}
		for _, k := range invalid {
			_, err := nostr.GetPublicKey(k)
			require.ErrorIs(t, err, nostr.ErrInvalidPrivateKey, k)
		}
	})

	t.Run("InvalidPublicKey", func(t *testing.T) {
		_, err := nostr.ParsePublicKey("02" + pubkeyOne)
		require.ErrorIs(t, err, nostr.ErrInvalidPublicKey)
	})
}

func TestBech32(t *testing.T) {
	npub, err := nostr.EncodePublicKey(
		"3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d",
	)
	require.NoError(t, err)
	require.Equal(t, "npub180cvv07tjdrrgpa0j7j7tmnyl2yr6yr7l8j4s3evf6u64th6gkwsyjh6w6", npub)

	hrp, pubkey, err := nostr.Decode(npub)
	require.NoError(t, err)
	require.Equal(t, nostr.PublicKeyPrefix, hrp)
	require.Equal(t, "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d", pubkey)

	nsec, err := nostr.EncodePrivateKey(privkeyTwo)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(nsec, "nsec1"))
	hrp, privkey, err := nostr.Decode(nsec)
	require.NoError(t, err)
	require.Equal(t, nostr.PrivateKeyPrefix, hrp)
	require.Equal(t, privkeyTwo, privkey)

	normalized, err := nostr.NormalizePublicKey(npub)
	require.NoError(t, err)
	require.Equal(t, pubkey, normalized)

	_, err = nostr.NormalizePublicKey(nsec)
	require.Error(t, err)
}

func TestEventSignature(t *testing.T) {
	key, err := nostr.GeneratePrivateKey()
	require.NoError(t, err)

	ev := &nostr.Event{
		CreatedAt: 1700000000,
		Kind:      nostr.KindTextNote,
		Tags:      nostr.Tags{{"p", pubkeyOne}},
		Content:   "hello \"mostro\"\n",
	}
	require.NoError(t, ev.Sign(key))
	require.Equal(t, nostr.PublicKeyHex(key), ev.PubKey)
	require.Equal(t, ev.ComputeID(), ev.ID)

	ok, err := ev.CheckSignature()
	require.NoError(t, err)
	require.True(t, ok)

	ev.Content = "tampered"
	ok, err = ev.CheckSignature()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEventSerialize(t *testing.T) {
	ev := &nostr.Event{
		PubKey:    pubkeyOne,
		CreatedAt: 1,
		Kind:      1,
		Tags:      nostr.Tags{{"d", "a\tb"}},
		Content:   "<a\"b\\c\nd>",
	}
	expected := `[0,"` + pubkeyOne + `",1,1,[["d","a\tb"]],"<a\"b\\c\nd>"]`
	require.Equal(t, expected, string(ev.Serialize()))

	// canonical serialization must stay valid json
	var decoded []interface{}
	require.NoError(t, json.Unmarshal(ev.Serialize(), &decoded))
	require.Equal(t, "<a\"b\\c\nd>", decoded[5])
}

func TestFilter(t *testing.T) {
	since := nostr.Timestamp(100)
	filter := nostr.Filter{
		Kinds:   []int{nostr.KindGiftWrap},
		Authors: []string{pubkeyOne},
		Tags:    nostr.TagMap{"p": {"abc"}},
		Since:   &since,
	}

	buf, err := json.Marshal(filter)
	require.NoError(t, err)

	var decoded nostr.Filter
	require.NoError(t, json.Unmarshal(buf, &decoded))
	require.Equal(t, filter, decoded)

	tests := []struct {
		name  string
		event nostr.Event
		match bool
	}{
		{
			name: "match",
			event: nostr.Event{
				PubKey: pubkeyOne, Kind: nostr.KindGiftWrap, CreatedAt: 100,
				Tags: nostr.Tags{{"p", "abc"}},
			},
			match: true,
		},
		{
			name: "wrong kind",
			event: nostr.Event{
				PubKey: pubkeyOne, Kind: nostr.KindSeal, CreatedAt: 100,
				Tags: nostr.Tags{{"p", "abc"}},
			},
		},
		{
			name: "missing tag",
			event: nostr.Event{
				PubKey: pubkeyOne, Kind: nostr.KindGiftWrap, CreatedAt: 100,
			},
		},
		{
			name: "too old",
			event: nostr.Event{
				PubKey: pubkeyOne, Kind: nostr.KindGiftWrap, CreatedAt: 99,
				Tags: nostr.Tags{{"p", "abc"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := tt.event
			require.Equal(t, tt.match, filter.Matches(&ev))
		})
	}
}

func TestNip44(t *testing.T) {
	t.Run("ConversationKeyVector", func(t *testing.T) {
		key1, err := nostr.ParsePrivateKey(privkeyOne)
		require.NoError(t, err)
		pub2, err := nostr.GetPublicKey(privkeyTwo)
		require.NoError(t, err)

		convKey, err := nostr.ConversationKeyFromHex(key1, pub2)
		require.NoError(t, err)
		require.Equal(
			t,
			"c41c775356fd92eadc63ff5a0dc1da211b268cbea22316767095b2871ea1412d",
			hex.EncodeToString(convKey),
		)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		alice, _ := nostr.GeneratePrivateKey()
		bob, _ := nostr.GeneratePrivateKey()

		aliceKey, err := nostr.ConversationKeyFromHex(alice, nostr.PublicKeyHex(bob))
		require.NoError(t, err)
		bobKey, err := nostr.ConversationKeyFromHex(bob, nostr.PublicKeyHex(alice))
		require.NoError(t, err)
		require.Equal(t, aliceKey, bobKey)

		for _, plaintext := range []string{"a", strings.Repeat("x", 33), strings.Repeat("ü", 1000)} {
			payload, err := nostr.Encrypt(plaintext, aliceKey)
			require.NoError(t, err)
			decrypted, err := nostr.Decrypt(payload, bobKey)
			require.NoError(t, err)
			require.Equal(t, plaintext, decrypted)
		}
	})

	t.Run("Failures", func(t *testing.T) {
		alice, _ := nostr.GeneratePrivateKey()
		bob, _ := nostr.GeneratePrivateKey()
		eve, _ := nostr.GeneratePrivateKey()
		convKey, _ := nostr.ConversationKeyFromHex(alice, nostr.PublicKeyHex(bob))
		wrongKey, _ := nostr.ConversationKeyFromHex(eve, nostr.PublicKeyHex(bob))

		_, err := nostr.Encrypt("", convKey)
		require.ErrorIs(t, err, nostr.ErrInvalidPlaintextSize)

		payload, err := nostr.Encrypt("secret", convKey)
		require.NoError(t, err)

		_, err = nostr.Decrypt(payload, wrongKey)
		require.ErrorIs(t, err, nostr.ErrInvalidMac)

		_, err = nostr.Decrypt("#"+payload[1:], convKey)
		require.ErrorIs(t, err, nostr.ErrUnsupportedEncryptionVersion)

		_, err = nostr.Decrypt(payload[:100], convKey)
		require.ErrorIs(t, err, nostr.ErrInvalidPayloadSize)
	})
}

func TestNip04(t *testing.T) {
	alice, _ := nostr.GeneratePrivateKey()
	bob, _ := nostr.GeneratePrivateKey()
	eve, _ := nostr.GeneratePrivateKey()

	content, err := nostr.EncryptDirectMessage("hola", alice, bob.PubKey())
	require.NoError(t, err)
	require.Contains(t, content, "?iv=")

	message, err := nostr.DecryptDirectMessage(content, bob, alice.PubKey())
	require.NoError(t, err)
	require.Equal(t, "hola", message)

	_, err = nostr.DecryptDirectMessage("not a dm", bob, alice.PubKey())
	require.ErrorIs(t, err, nostr.ErrInvalidDirectMessage)

	if decrypted, err := nostr.DecryptDirectMessage(content, eve, alice.PubKey()); err == nil {
		require.NotEqual(t, "hola", decrypted)
	}
}

package giftwrap_test

import (
	"encoding/json"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/mostrop2p/mostro-go/pkg/nostr"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *btcec.PrivateKey {
	key, err := nostr.GeneratePrivateKey()
	require.NoError(t, err)
	return key
}

func mustJSON(t *testing.T, v interface{}) string {
	buf, err := json.Marshal(v)
	require.NoError(t, err)
	return string(buf)
}

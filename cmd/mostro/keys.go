package main

import (
	"context"

	"github.com/mostrop2p/mostro-go/internal/config"
	"github.com/mostrop2p/mostro-go/pkg/nostr"
	"github.com/urfave/cli/v2"
)

var keys = cli.Command{
	Name:   "keys",
	Usage:  "show the identity key and the trade keys issued so far",
	Action: keysAction,
}

type tradeKeyInfo struct {
	Index     uint32 `json:"index"`
	OrderID   string `json:"order_id"`
	PublicKey string `json:"public_key"`
	Path      string `json:"path"`
	CreatedAt int64  `json:"created_at"`
}

func keysAction(ctx *cli.Context) error {
	km, store, err := newKeyManager(context.Background())
	if err != nil {
		return err
	}
	defer store.Close()
	defer km.Clear()

	identity, err := km.GetIdentityKey()
	if err != nil {
		return err
	}
	npub, err := nostr.EncodePublicKey(identity.PublicKey)
	if err != nil {
		return err
	}

	tradeKeys := make([]tradeKeyInfo, 0)
	for _, k := range km.TradeKeys() {
		tradeKeys = append(tradeKeys, tradeKeyInfo{
			Index:     k.Index,
			OrderID:   k.OrderID,
			PublicKey: k.PublicKey,
			Path:      k.Path.String(),
			CreatedAt: k.CreatedAt.Unix(),
		})
	}

	printJSON(map[string]interface{}{
		"identity_pubkey": identity.PublicKey,
		"identity_npub":   npub,
		"identity_path":   identity.Path.String(),
		"next_index":      km.NextIndex(),
		"trade_keys":      tradeKeys,
		"db_type":         config.GetString(config.DBTypeKey),
	})
	return nil
}

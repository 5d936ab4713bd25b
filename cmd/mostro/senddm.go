package main

import (
	"context"

	"github.com/urfave/cli/v2"
)

var senddm = cli.Command{
	Name:  "senddm",
	Usage: "send a direct message to the counterpart of a trade",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "pubkey",
			Usage:    "the hex or npub public key of the counterpart",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "order-id",
			Usage: "the order whose trade key signs the message, identity key if unset",
		},
		&cli.StringFlag{
			Name:     "message",
			Usage:    "the message text",
			Required: true,
		},
	},
	Action: sendDMAction,
}

func sendDMAction(ctx *cli.Context) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	ev, err := s.client.SendDirectMessageToPeer(
		context.Background(),
		ctx.String("pubkey"), ctx.String("order-id"), ctx.String("message"),
	)
	if err != nil {
		return err
	}

	printJSON(map[string]interface{}{"event_id": ev.ID})
	return nil
}

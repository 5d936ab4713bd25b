package main

import (
	"context"

	"github.com/urfave/cli/v2"
)

var addinvoice = cli.Command{
	Name:  "addinvoice",
	Usage: "send the buyer lightning invoice of a taken order",
	Flags: []cli.Flag{
		orderIDFlag,
		&cli.StringFlag{
			Name:     "invoice",
			Usage:    "the lightning invoice or address",
			Required: true,
		},
		&cli.Int64Flag{
			Name:  "amount",
			Usage: "the amount in sats, market price orders only",
		},
	},
	Action: addInvoiceAction,
}

func addInvoiceAction(ctx *cli.Context) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	return printResponse(s.client.AddInvoice(
		context.Background(), ctx.String("order-id"), ctx.String("invoice"),
		getAmount(ctx),
	))
}

package main

import (
	"context"

	"github.com/mostrop2p/mostro-go/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var neworder = cli.Command{
	Name:  "neworder",
	Usage: "publish a new buy or sell order",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "kind",
			Usage:    "buy or sell",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "fiat-code",
			Usage:    "the currency code of the fiat amount, ie. EUR",
			Required: true,
		},
		&cli.Int64Flag{
			Name:  "fiat-amount",
			Usage: "the fiat amount, leave unset for range orders",
		},
		&cli.Int64Flag{
			Name:  "min-amount",
			Usage: "the minimum fiat amount of a range order",
		},
		&cli.Int64Flag{
			Name:  "max-amount",
			Usage: "the maximum fiat amount of a range order",
		},
		&cli.Int64Flag{
			Name:  "amount",
			Usage: "the amount in sats, 0 for market price",
		},
		&cli.StringFlag{
			Name:     "payment-method",
			Usage:    "the fiat payment method, ie. SEPA",
			Required: true,
		},
		&cli.Int64Flag{
			Name:  "premium",
			Usage: "the premium percentage over the market price",
		},
		&cli.StringFlag{
			Name:  "invoice",
			Usage: "the buyer lightning invoice, buy orders only",
		},
	},
	Action: newOrderAction,
}

func newOrderAction(ctx *cli.Context) error {
	order := &domain.Order{
		Kind:          domain.OrderKind(ctx.String("kind")),
		FiatCode:      ctx.String("fiat-code"),
		FiatAmount:    ctx.Int64("fiat-amount"),
		Amount:        ctx.Int64("amount"),
		PaymentMethod: ctx.String("payment-method"),
		Premium:       ctx.Int64("premium"),
		BuyerInvoice:  ctx.String("invoice"),
	}
	if ctx.IsSet("min-amount") || ctx.IsSet("max-amount") {
		order.MinAmount = domain.Int64(ctx.Int64("min-amount"))
		order.MaxAmount = domain.Int64(ctx.Int64("max-amount"))
	}
	// Fail before connecting.
	if err := domain.ValidateOrder(order); err != nil {
		return err
	}

	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	return printResponse(s.client.SubmitOrder(context.Background(), order))
}

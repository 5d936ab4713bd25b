package main

import (
	"context"

	"github.com/mostrop2p/mostro-go/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var release = cli.Command{
	Name:   "release",
	Usage:  "release the sats held for an order to the buyer",
	Flags:  []cli.Flag{orderIDFlag},
	Action: orderAction(domain.ActionRelease),
}

var fiatsent = cli.Command{
	Name:   "fiatsent",
	Usage:  "tell the seller the fiat payment was sent",
	Flags:  []cli.Flag{orderIDFlag},
	Action: orderAction(domain.ActionFiatSent),
}

var cancel = cli.Command{
	Name:   "cancel",
	Usage:  "cancel an order",
	Flags:  []cli.Flag{orderIDFlag},
	Action: orderAction(domain.ActionCancel),
}

func orderAction(action domain.Action) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.close()

		orderID := ctx.String("order-id")
		switch action {
		case domain.ActionRelease:
			return printResponse(s.client.Release(context.Background(), orderID))
		case domain.ActionFiatSent:
			return printResponse(s.client.FiatSent(context.Background(), orderID))
		default:
			return printResponse(s.client.Cancel(context.Background(), orderID))
		}
	}
}

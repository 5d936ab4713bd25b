package main

import (
	"context"

	"github.com/urfave/cli/v2"
)

var amountFlag = &cli.Int64Flag{
	Name:  "amount",
	Usage: "the fiat amount to take, range orders only",
}

var takesell = cli.Command{
	Name:   "takesell",
	Usage:  "take a sell order",
	Flags:  []cli.Flag{orderIDFlag, amountFlag},
	Action: takeSellAction,
}

var takebuy = cli.Command{
	Name:   "takebuy",
	Usage:  "take a buy order",
	Flags:  []cli.Flag{orderIDFlag, amountFlag},
	Action: takeBuyAction,
}

func takeSellAction(ctx *cli.Context) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	return printResponse(s.client.TakeSell(
		context.Background(), ctx.String("order-id"), getAmount(ctx),
	))
}

func takeBuyAction(ctx *cli.Context) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	return printResponse(s.client.TakeBuy(
		context.Background(), ctx.String("order-id"), getAmount(ctx),
	))
}

func getAmount(ctx *cli.Context) *int64 {
	if !ctx.IsSet("amount") {
		return nil
	}
	amount := ctx.Int64("amount")
	return &amount
}

package main

import (
	"time"

	"github.com/urfave/cli/v2"
)

var listorders = cli.Command{
	Name:  "listorders",
	Usage: "list the pending orders of the Mostro daemon",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "wait",
			Usage: "how long to collect order listings before printing",
			Value: 5 * time.Second,
		},
		&cli.StringFlag{
			Name:  "kind",
			Usage: "show only buy or sell orders",
		},
		&cli.StringFlag{
			Name:  "fiat-code",
			Usage: "show only orders in the given currency",
		},
	},
	Action: listOrdersAction,
}

func listOrdersAction(ctx *cli.Context) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	time.Sleep(ctx.Duration("wait"))

	kind, fiatCode := ctx.String("kind"), ctx.String("fiat-code")
	orders := s.client.GetActiveOrders()
	filtered := orders[:0]
	for _, o := range orders {
		if kind != "" && string(o.Kind) != kind {
			continue
		}
		if fiatCode != "" && o.FiatCode != fiatCode {
			continue
		}
		filtered = append(filtered, o)
	}

	printJSON(filtered)
	return nil
}

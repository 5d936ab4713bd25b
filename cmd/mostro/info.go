package main

import (
	"fmt"
	"time"

	"github.com/mostrop2p/mostro-go/internal/core/application"
	"github.com/mostrop2p/mostro-go/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var info = cli.Command{
	Name:  "info",
	Usage: "show the info listing of the Mostro daemon",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "wait",
			Usage: "how long to wait for the info listing",
			Value: 10 * time.Second,
		},
	},
	Action: infoAction,
}

type infoObserver struct {
	application.NopObserver
	infos chan *domain.Info
}

func (o *infoObserver) OnInfoUpdate(info *domain.Info) {
	select {
	case o.infos <- info:
	default:
	}
}

func infoAction(ctx *cli.Context) error {
	observer := &infoObserver{infos: make(chan *domain.Info, 1)}
	s, err := newSession(observer)
	if err != nil {
		return err
	}
	defer s.close()

	select {
	case info := <-observer.infos:
		printJSON(map[string]interface{}{
			"mostro_pubkey":                  info.MostroPubkey,
			"mostro_version":                 info.MostroVersion,
			"mostro_commit_id":               info.MostroCommitID,
			"max_order_amount":               info.MaxOrderAmount,
			"min_order_amount":               info.MinOrderAmount,
			"expiration_hours":               info.ExpirationHours,
			"expiration_seconds":             info.ExpirationSeconds,
			"fee":                            info.Fee.String(),
			"hold_invoice_expiration_window": info.HoldInvoiceExpirationWindow,
			"invoice_expiration_window":      info.InvoiceExpirationWindow,
		})
		return nil
	case <-time.After(ctx.Duration("wait")):
		return fmt.Errorf("no info listing received within %s", ctx.Duration("wait"))
	}
}

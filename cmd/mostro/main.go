package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mostrop2p/mostro-go/internal/config"
	"github.com/mostrop2p/mostro-go/internal/core/application"
	"github.com/mostrop2p/mostro-go/internal/infrastructure/relay"
	badgerstore "github.com/mostrop2p/mostro-go/internal/infrastructure/storage/badger"
	"github.com/mostrop2p/mostro-go/internal/infrastructure/storage/inmemory"
	"github.com/mostrop2p/mostro-go/pkg/keymanager"
	"github.com/mostrop2p/mostro-go/pkg/stats"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const connectTimeout = 30 * time.Second

var orderIDFlag = &cli.StringFlag{
	Name:     "order-id",
	Usage:    "the id of the order",
	Required: true,
}

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "mostro"
	app.Usage = "Command line client for the Mostro P2P exchange"
	app.Before = func(*cli.Context) error {
		if err := config.InitConfig(); err != nil {
			return err
		}
		log.SetLevel(config.GetLogLevel())
		return nil
	}
	app.Commands = append(
		app.Commands,
		&genseed,
		&keys,
		&info,
		&listorders,
		&neworder,
		&takesell,
		&takebuy,
		&addinvoice,
		&release,
		&fiatsent,
		&cancel,
		&senddm,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

// session bundles the components a command talks to Mostro with.
type session struct {
	client   *application.Client
	keys     *keymanager.KeyManager
	store    keymanager.Store
	registry *prometheus.Registry
	cancel   context.CancelFunc
}

func (s *session) close() {
	if err := s.client.Close(); err != nil {
		log.WithError(err).Warn("closing client")
	}
	s.keys.Clear()
	s.store.Close()
	s.cancel()

	if path := config.GetString(config.MetricsFileKey); path != "" {
		if err := stats.DumpPrometheus(s.registry, path); err != nil {
			log.WithError(err).Warn("dumping metrics")
		}
	}
}

func newKeyManager(ctx context.Context) (*keymanager.KeyManager, keymanager.Store, error) {
	mnemonic := config.GetMnemonic()
	if len(mnemonic) <= 0 {
		return nil, nil, fmt.Errorf(
			"missing mnemonic, set MOSTRO_%s or run 'genseed'", config.MnemonicKey,
		)
	}

	var store keymanager.Store
	if dbDir := config.GetDbDir(); dbDir != "" {
		var err error
		store, err = badgerstore.NewTradeKeyStore(dbDir, log.StandardLogger())
		if err != nil {
			return nil, nil, err
		}
	} else {
		store = inmemory.NewTradeKeyStore()
	}

	km, err := keymanager.NewKeyManager(keymanager.Opts{Store: store})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	if err := km.InitializeFromMnemonic(ctx, mnemonic, ""); err != nil {
		store.Close()
		return nil, nil, err
	}
	return km, store, nil
}

func newSession(observers ...application.Observer) (*session, error) {
	ctx, cancel := context.WithCancel(context.Background())

	mostroPubkey := config.GetString(config.MostroPubkeyKey)
	if mostroPubkey == "" {
		cancel()
		return nil, fmt.Errorf("missing mostro pubkey, set MOSTRO_%s", config.MostroPubkeyKey)
	}

	km, store, err := newKeyManager(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	pool, err := relay.NewPool(relay.Opts{
		URLs:        config.GetRelays(),
		PublishRate: config.GetFloat(config.PublishRateLimitKey),
	})
	if err != nil {
		store.Close()
		cancel()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics, err := stats.NewClientMetrics(registry)
	if err != nil {
		store.Close()
		cancel()
		return nil, err
	}
	if interval := config.GetDuration(config.StatsIntervalKey); interval > 0 {
		stats.EnableMemoryStatistics(ctx, interval, registry, "")
	}

	client, err := application.NewClient(application.ClientOpts{
		Transport:      pool,
		KeyManager:     km,
		MostroPubkey:   mostroPubkey,
		RequestTimeout: config.GetDuration(config.RequestTimeoutKey),
		OrderHistory:   config.GetHistory(),
		Metrics:        metrics,
	})
	if err != nil {
		store.Close()
		cancel()
		return nil, err
	}
	for _, o := range observers {
		client.AddObserver(o)
	}

	connectCtx, cancelConnect := context.WithTimeout(ctx, connectTimeout)
	defer cancelConnect()
	if err := client.Connect(connectCtx); err != nil {
		store.Close()
		cancel()
		return nil, err
	}

	return &session{
		client:   client,
		keys:     km,
		store:    store,
		registry: registry,
		cancel:   cancel,
	}, nil
}

func printJSON(v interface{}) {
	buf, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		fmt.Println("unable to encode response: ", err)
		return
	}
	fmt.Println(string(buf))
}

// printResponse prints the message Mostro answered with. A refusal is
// printed before being returned as error.
func printResponse(msg interface{}, err error) error {
	var cantDo *application.CantDoError
	if err != nil && !errors.As(err, &cantDo) {
		return err
	}
	printJSON(msg)
	return err
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[mostro] %v\n", err)
	}
	os.Exit(1)
}

package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goXRPLrwa/internal/config"
	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/ledger/wsclient"
	"github.com/LeJamon/goXRPLrwa/internal/service"
	"github.com/LeJamon/goXRPLrwa/internal/store"
	"github.com/LeJamon/goXRPLrwa/internal/store/backend"
	"github.com/LeJamon/goXRPLrwa/internal/wallet"
	"github.com/LeJamon/goXRPLrwa/internal/workflow"
)

// app is the wired application a command runs against.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	store   store.Store
	client  ledger.Client
	wallets *wallet.Registry
	svc     *service.Service
}

// dialLedger creates the ledger client. Tests replace it with an in-memory
// ledger.
var dialLedger = func(cfg config.LedgerConfig, logger *log.Logger) (ledger.Client, error) {
	return wsclient.New(cfg.ClientConfig(logger))
}

func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	logger := newLogger(cmd.ErrOrStderr())
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if debug {
		logger.Printf("config: file=%q store=%s ledger=%s", cfg.GetConfigPath(), cfg.Store.Driver, cfg.Ledger.URL)
	}

	path := cfg.StorePath()
	if !strings.EqualFold(cfg.Store.Driver, backend.DriverPostgres) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	st, err := backend.Open(ctx, cfg.Store.BackendConfig(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	a, err := wire(cfg, st, logger)
	if err != nil {
		st.Close()
		return nil, err
	}
	return a, nil
}

func wire(cfg *config.Config, st store.Store, logger *log.Logger) (*app, error) {
	client, err := dialLedger(cfg.Ledger, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger client: %w", err)
	}
	funder, err := newFunder(cfg)
	if err != nil {
		return nil, err
	}
	registry, err := wallet.NewRegistry(st, client, funder, wallet.Options{
		KeyType:   cfg.Ledger.GetKeyType(),
		CacheSize: cfg.Redemption.CacheSize,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		client:  client,
		wallets: registry,
		svc: service.New(st, registry, client, service.Options{
			DefaultRipple: cfg.Issuer.DefaultRipple,
			Workers:       cfg.Redemption.Workers,
			Logger:        logger,
		}),
	}, nil
}

func newFunder(cfg *config.Config) (wallet.Funder, error) {
	if cfg.Funding.Mode == config.FundingFunder {
		source, err := ledger.AccountFromSeed(cfg.Funding.FunderSeed)
		if err != nil {
			return nil, fmt.Errorf("invalid funder_seed: %w", err)
		}
		amount, err := cfg.Funding.Amount()
		if err != nil {
			return nil, err
		}
		return &wallet.PaymentFunder{Source: source, Amount: amount}, nil
	}
	return &wallet.FaucetFunder{
		URL:          cfg.Funding.FaucetURL,
		HTTPClient:   &http.Client{Timeout: cfg.Ledger.RequestTimeout},
		PollInterval: cfg.Funding.PollInterval,
		Timeout:      cfg.Ledger.ValidationTimeout,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// run opens the application, runs fn and prints its result envelope.
func run(cmd *cobra.Command, op string, fn func(ctx context.Context, a *app) (interface{}, error)) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return emit(cmd, nil, workflow.Wrap(op, err))
	}
	defer a.Close()
	data, err := fn(ctx, a)
	return emit(cmd, data, err)
}

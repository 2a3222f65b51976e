package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/LeJamon/goXRPLrwa/internal/instrument"
)

var (
	createKind       string
	createSupply     string
	createPrincipal  string
	createProfitRate string
	createMaturity   string

	listState string

	publishPrice string
)

var createCmd = &cobra.Command{
	Use:   "create <code>",
	Short: "Register a new bond or asset in DRAFT",
	Long: `Register an instrument that can later be tokenized. Bonds need a maturity
date; principal and profit rate determine the payout at maturity.

Examples:
    rwa create GREENBOND --kind bond --supply 1000000 --principal 1 --profit-rate 0.05 --maturity 2027-06-30
    rwa create TOWER42 --kind asset --supply 500`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

var instrumentsCmd = &cobra.Command{
	Use:   "instruments [code]",
	Short: "Show one instrument or list instruments",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInstruments,
}

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <code>",
	Short: "Configure the issuer and mint the supply to the treasury",
	Long: `Tokenize a DRAFT instrument: enable clawback and default ripple on the
issuer, open the treasury trust line and issue the total supply. A failed run
can be repeated; steps already visible on the ledger are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, "cli.tokenize", func(ctx context.Context, a *app) (interface{}, error) {
			return a.svc.Tokenize(ctx, args[0])
		})
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish <code>",
	Short: "List the whole supply for sale from the treasury",
	Args:  cobra.ExactArgs(1),
	RunE:  runPublish,
}

var reportsCmd = &cobra.Command{
	Use:   "reports <code>",
	Short: "Show the stored redemption reports of an instrument",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, "cli.reports", func(ctx context.Context, a *app) (interface{}, error) {
			return a.svc.Reports(ctx, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(createCmd, instrumentsCmd, tokenizeCmd, publishCmd, reportsCmd)

	createCmd.Flags().StringVar(&createKind, "kind", "asset", "instrument kind (bond, asset)")
	createCmd.Flags().StringVar(&createSupply, "supply", "", "total token supply")
	createCmd.Flags().StringVar(&createPrincipal, "principal", "0", "bond principal per token in XRP")
	createCmd.Flags().StringVar(&createProfitRate, "profit-rate", "0", "bond profit rate (0.05 is 5%)")
	createCmd.Flags().StringVar(&createMaturity, "maturity", "", "bond maturity (YYYY-MM-DD or RFC 3339)")
	_ = createCmd.MarkFlagRequired("supply")

	instrumentsCmd.Flags().StringVar(&listState, "state", "", "only list instruments in this state (DRAFT, PUBLISHED, REDEEMED)")

	publishCmd.Flags().StringVar(&publishPrice, "price", "", "price per token in XRP")
	_ = publishCmd.MarkFlagRequired("price")
}

func parseDecimal(flag, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q", flag, value)
	}
	return d, nil
}

func parseMaturity(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid --maturity %q, want YYYY-MM-DD or RFC 3339", value)
}

func runCreate(cmd *cobra.Command, args []string) error {
	const op = "cli.create"
	kind, err := instrument.ParseKind(createKind)
	if err != nil {
		return usageError(cmd, op, "%v", err)
	}
	supply, err := parseDecimal("supply", createSupply)
	if err != nil {
		return usageError(cmd, op, "%v", err)
	}
	var terms instrument.Terms
	if terms.Principal, err = parseDecimal("principal", createPrincipal); err != nil {
		return usageError(cmd, op, "%v", err)
	}
	if terms.ProfitRate, err = parseDecimal("profit-rate", createProfitRate); err != nil {
		return usageError(cmd, op, "%v", err)
	}
	if terms.MaturityAt, err = parseMaturity(createMaturity); err != nil {
		return usageError(cmd, op, "%v", err)
	}
	return run(cmd, op, func(ctx context.Context, a *app) (interface{}, error) {
		return a.svc.Create(ctx, args[0], kind, supply, terms)
	})
}

func runInstruments(cmd *cobra.Command, args []string) error {
	return run(cmd, "cli.instruments", func(ctx context.Context, a *app) (interface{}, error) {
		if len(args) == 1 {
			return a.svc.Instrument(ctx, args[0])
		}
		return a.svc.Instruments(ctx, instrument.State(strings.ToUpper(listState)))
	})
}

func runPublish(cmd *cobra.Command, args []string) error {
	const op = "cli.publish"
	price, err := parseDecimal("price", publishPrice)
	if err != nil {
		return usageError(cmd, op, "%v", err)
	}
	return run(cmd, op, func(ctx context.Context, a *app) (interface{}, error) {
		return a.svc.Publish(ctx, args[0], price)
	})
}

package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/market"
	"github.com/LeJamon/goXRPLrwa/internal/service"
)

var (
	offerRole      string
	offerSeed      string
	offerSide      string
	offerAmount    string
	offerPrice     string
	offerPassive   bool
	offerIOC       bool
	offerFOK       bool
	offerExpiresIn time.Duration
)

var offerCmd = &cobra.Command{
	Use:   "offer <code>",
	Short: "Place a buy or sell offer for an instrument's token",
	Long: `Place an offer on the instrument's XRP book. The offer is signed by the
account of --seed when given, otherwise by the account bound to --role.

Examples:
    rwa offer GREENBOND --side sell --amount 100 --price 1.05 --role treasury
    rwa offer GREENBOND --side buy --amount 10 --price 1 --seed sEd... --ioc`,
	Args: cobra.ExactArgs(1),
	RunE: runOffer,
}

var bookCmd = &cobra.Command{
	Use:   "book <code>",
	Short: "Show the order book of an instrument's token against XRP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, "cli.book", func(ctx context.Context, a *app) (interface{}, error) {
			return a.svc.FetchOrderBook(ctx, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(offerCmd, bookCmd)

	offerCmd.Flags().StringVar(&offerRole, "role", "", "sign with the account bound to this role (issuer, treasury)")
	offerCmd.Flags().StringVar(&offerSeed, "seed", "", "sign with the account of this seed")
	offerCmd.Flags().StringVar(&offerSide, "side", "", "offer side (buy, sell)")
	offerCmd.Flags().StringVar(&offerAmount, "amount", "", "token amount")
	offerCmd.Flags().StringVar(&offerPrice, "price", "", "price per token in XRP")
	offerCmd.Flags().BoolVar(&offerPassive, "passive", false, "do not consume offers at the same price")
	offerCmd.Flags().BoolVar(&offerIOC, "ioc", false, "immediate or cancel")
	offerCmd.Flags().BoolVar(&offerFOK, "fok", false, "fill or kill")
	offerCmd.Flags().DurationVar(&offerExpiresIn, "expires-in", 0, "expire the offer after this duration")
	offerCmd.MarkFlagsMutuallyExclusive("role", "seed")
	offerCmd.MarkFlagsMutuallyExclusive("ioc", "fok")
	_ = offerCmd.MarkFlagRequired("side")
	_ = offerCmd.MarkFlagRequired("amount")
	_ = offerCmd.MarkFlagRequired("price")
}

func runOffer(cmd *cobra.Command, args []string) error {
	const op = "cli.offer"
	req := service.OfferRequest{
		Code: args[0],
		Options: market.OfferOptions{
			Passive:           offerPassive,
			ImmediateOrCancel: offerIOC,
			FillOrKill:        offerFOK,
		},
	}
	var err error
	if req.Side, err = market.ParseSide(offerSide); err != nil {
		return usageError(cmd, op, "%v", err)
	}
	if req.TokenAmount, err = parseDecimal("amount", offerAmount); err != nil {
		return usageError(cmd, op, "%v", err)
	}
	if req.Price, err = parseDecimal("price", offerPrice); err != nil {
		return usageError(cmd, op, "%v", err)
	}
	if offerExpiresIn < 0 {
		return usageError(cmd, op, "--expires-in must be positive")
	}
	if offerExpiresIn > 0 {
		req.Options.Expiration = ledger.RippleTime(time.Now().Add(offerExpiresIn))
	}
	switch {
	case offerSeed != "":
		if req.Account, err = ledger.AccountFromSeed(offerSeed); err != nil {
			return usageError(cmd, op, "invalid --seed: %v", err)
		}
	case offerRole != "":
		if req.Role, err = parseRole(op, offerRole); err != nil {
			return emit(cmd, nil, err)
		}
	default:
		return usageError(cmd, op, "one of --role or --seed is required")
	}
	return run(cmd, op, func(ctx context.Context, a *app) (interface{}, error) {
		return a.svc.PlaceOffer(ctx, req)
	})
}

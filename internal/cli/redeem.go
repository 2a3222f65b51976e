package cli

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/LeJamon/goXRPLrwa/internal/instrument"
	"github.com/LeJamon/goXRPLrwa/internal/service"
	"github.com/LeJamon/goXRPLrwa/internal/workflow"
)

var (
	redeemPayout       string
	redeemProceeds     string
	redeemBondTerms    bool
	redeemHolders      []string
	redeemRetireUnsold bool
)

var redeemCmd = &cobra.Command{
	Use:   "redeem <code>",
	Short: "Claw back every holder's tokens and pay them out in XRP",
	Long: `Redeem a PUBLISHED instrument. Each holder's balance is clawed back and paid
at the payout per token, given directly with --payout, derived from the sale
proceeds with --proceeds, or from the bond's principal and profit rate with
--bond-terms.

Holder offers are cancelled first for every holder whose seed is given with
--holder. The instrument becomes REDEEMED even if some holders fail; the
report lists them and resume-payouts retries unpaid ones.

Examples:
    rwa redeem TOWER42 --proceeds 750000
    rwa redeem GREENBOND --bond-terms --holder rHb9...=sEd7...`,
	Args: cobra.ExactArgs(1),
	RunE: runRedeem,
}

var resumeCmd = &cobra.Command{
	Use:   "resume-payouts <code> <run-id>",
	Short: "Retry the unpaid holders of a redemption run",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, "cli.resume_payouts", func(ctx context.Context, a *app) (interface{}, error) {
			return a.svc.ResumePayouts(ctx, args[0], args[1])
		})
	},
}

func init() {
	rootCmd.AddCommand(redeemCmd, resumeCmd)

	redeemCmd.Flags().StringVar(&redeemPayout, "payout", "", "XRP paid per token")
	redeemCmd.Flags().StringVar(&redeemProceeds, "proceeds", "", "total sale proceeds in XRP, spread over the supply")
	redeemCmd.Flags().BoolVar(&redeemBondTerms, "bond-terms", false, "pay principal plus profit per token")
	redeemCmd.Flags().StringArrayVar(&redeemHolders, "holder", nil, "holder credentials as address=seed (repeatable)")
	redeemCmd.Flags().BoolVar(&redeemRetireUnsold, "retire-unsold", false, "return the treasury's unsold tokens to the issuer")
	redeemCmd.MarkFlagsMutuallyExclusive("payout", "proceeds", "bond-terms")
	redeemCmd.MarkFlagsOneRequired("payout", "proceeds", "bond-terms")
}

func parseHolders(values []string) (map[string]string, error) {
	creds := make(map[string]string, len(values))
	for _, v := range values {
		addr, seed, ok := strings.Cut(v, "=")
		addr, seed = strings.TrimSpace(addr), strings.TrimSpace(seed)
		if !ok || addr == "" || seed == "" {
			return nil, workflow.Precondition("cli.redeem", "invalid --holder %q, want address=seed", v)
		}
		creds[addr] = seed
	}
	return creds, nil
}

// payoutFor resolves the payout per token from whichever basis was given.
func payoutFor(inst *instrument.Instrument) (decimal.Decimal, error) {
	const op = "cli.redeem"
	switch {
	case redeemBondTerms:
		if inst.Kind != instrument.KindBond {
			return decimal.Zero, workflow.Precondition(op, "instrument %s is not a bond", inst.Code)
		}
		p, err := instrument.PayoutFromBond(inst.Principal, inst.ProfitRate)
		if err != nil {
			return decimal.Zero, workflow.Precondition(op, "%v", err)
		}
		return p, nil
	case redeemProceeds != "":
		proceeds, err := parseDecimal("proceeds", redeemProceeds)
		if err != nil {
			return decimal.Zero, workflow.Precondition(op, "%v", err)
		}
		p, err := instrument.PayoutFromSale(proceeds, inst.TotalSupply)
		if err != nil {
			return decimal.Zero, workflow.Precondition(op, "%v", err)
		}
		return p, nil
	}
	p, err := parseDecimal("payout", redeemPayout)
	if err != nil {
		return decimal.Zero, workflow.Precondition(op, "%v", err)
	}
	return p, nil
}

func runRedeem(cmd *cobra.Command, args []string) error {
	const op = "cli.redeem"
	creds, err := parseHolders(redeemHolders)
	if err != nil {
		return emit(cmd, nil, err)
	}
	return run(cmd, op, func(ctx context.Context, a *app) (interface{}, error) {
		inst, err := a.svc.Instrument(ctx, args[0])
		if err != nil {
			return nil, err
		}
		payout, err := payoutFor(inst)
		if err != nil {
			return nil, err
		}
		a.logger.Printf("redeem: code=%s payout_per_token=%s holders_with_credentials=%d", inst.Code, payout, len(creds))
		return a.svc.Redeem(ctx, service.RedeemRequest{
			Code:              inst.Code,
			PayoutPerToken:    payout,
			HolderCredentials: creds,
			RetireUnsold:      redeemRetireUnsold,
		})
	})
}

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goXRPLrwa/internal/scheduler"
	"github.com/LeJamon/goXRPLrwa/internal/workflow"
)

var (
	schedulerSpec string
	schedulerOnce bool
)

// schedulerSummary is printed when the scheduler stops.
type schedulerSummary struct {
	Spec    string `json:"spec"`
	Stopped bool   `json:"stopped"`
}

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Redeem published bonds as they mature",
	Long: `Run the maturity sweep on the configured cron schedule until interrupted.
Every PUBLISHED bond whose maturity has passed is redeemed at principal plus
profit per token. With --once a single sweep runs and its results are printed.

The scheduler only runs when scheduler.enabled is set in the configuration.`,
	Args: cobra.NoArgs,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().StringVar(&schedulerSpec, "spec", "", "cron schedule, overrides scheduler.spec (e.g. \"@every 5m\", \"0 * * * *\")")
	schedulerCmd.Flags().BoolVar(&schedulerOnce, "once", false, "run one sweep now and exit")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	const op = "cli.scheduler"
	return run(cmd, op, func(ctx context.Context, a *app) (interface{}, error) {
		spec := schedulerSpec
		if spec == "" {
			spec = a.cfg.Scheduler.Spec
		}
		sweeper, err := scheduler.New(a.svc, spec, a.logger)
		if err != nil {
			return nil, workflow.Precondition(op, "%v", err)
		}
		if schedulerOnce {
			return sweeper.Sweep(ctx)
		}
		if !a.cfg.Scheduler.Enabled {
			return nil, workflow.Precondition(op, "scheduler is disabled, set scheduler.enabled or use --once")
		}
		if err := sweeper.Start(ctx); err != nil {
			return nil, workflow.Wrap(op, err)
		}
		<-ctx.Done()
		sweeper.Stop()
		return schedulerSummary{Spec: spec, Stopped: true}, nil
	})
}

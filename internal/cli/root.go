package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	debug      bool
	verbose    bool
	quiet      bool

	logFlags = log.LstdFlags
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rwa",
	Short: "rwa - tokenize and redeem real-world assets on the XRP Ledger",
	Long: `rwa turns bonds and assets into issued tokens on the XRP Ledger, lists them
on the decentralized exchange and redeems every holder at maturity or sale.

Every command prints a JSON result envelope and exits non-zero when the
operation failed.`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExitError carries the process exit code of a command whose envelope has
// already been printed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		var exit *ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path (default ./rwa.toml or $HOME/.rwa/rwa.toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress log output, print only the result")
}

// initConfig applies the logging flags. The configuration file itself is
// read when a command opens the application.
func initConfig() {
	logFlags = log.LstdFlags
	if verbose {
		logFlags |= log.Lmicroseconds
	}
	if debug {
		logFlags |= log.Lmicroseconds | log.Lshortfile
	}
}

func newLogger(w io.Writer) *log.Logger {
	if quiet {
		return log.New(io.Discard, "", 0)
	}
	return log.New(w, "rwa: ", logFlags)
}

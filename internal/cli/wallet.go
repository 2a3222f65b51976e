package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goXRPLrwa/internal/store"
	"github.com/LeJamon/goXRPLrwa/internal/workflow"
)

// roleAccount is the printable form of a role binding. Seeds are never
// printed.
type roleAccount struct {
	Role    store.Role `json:"role"`
	Address string     `json:"address,omitempty"`
	Bound   bool       `json:"bound"`
}

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Role wallet commands",
	Long:  `Inspect and create the issuer and treasury accounts.`,
}

var walletEnsureCmd = &cobra.Command{
	Use:   "ensure <role>",
	Short: "Return the account bound to a role, creating and funding it if needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		const op = "cli.wallet_ensure"
		role, err := parseRole(op, args[0])
		if err != nil {
			return emit(cmd, nil, err)
		}
		return run(cmd, op, func(ctx context.Context, a *app) (interface{}, error) {
			acct, err := a.wallets.Ensure(ctx, role)
			if err != nil {
				return nil, err
			}
			return roleAccount{Role: role, Address: acct.Address, Bound: true}, nil
		})
	},
}

var walletShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the role bindings without creating accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, "cli.wallet_show", func(ctx context.Context, a *app) (interface{}, error) {
			out := make([]roleAccount, 0, len(store.Roles))
			for _, role := range store.Roles {
				acct, found, err := a.wallets.Lookup(ctx, role)
				if err != nil {
					return nil, workflow.Wrap("cli.wallet_show", err)
				}
				out = append(out, roleAccount{Role: role, Address: acct.Address, Bound: found})
			}
			return out, nil
		})
	},
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletEnsureCmd, walletShowCmd)
}

func parseRole(op, s string) (store.Role, error) {
	role := store.Role(strings.ToUpper(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", workflow.Precondition(op, "unknown role %q (valid roles: issuer, treasury)", s)
	}
	return role, nil
}

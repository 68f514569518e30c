package cmd

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jonandersen/chicoin/internal/output"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// newAccountCmd creates the account command with the given options.
func newAccountCmd(opts *portalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "View your cash account",
		Long: `View your cash account and move money in or out of it.

Examples:
  chicoin account
  chicoin account deposit 250
  chicoin account withdraw 100.50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccount(cmd, *opts)
		},
	}
	cmd.SilenceUsage = true
	cmd.AddCommand(
		newBalanceCmd(opts, "deposit", "Deposit into your account"),
		newBalanceCmd(opts, "withdraw", "Withdraw from your account"),
	)
	return cmd
}

func runAccount(cmd *cobra.Command, opts portalOptions) error {
	if err := opts.requireRole(portalapi.RoleClient); err != nil {
		return err
	}

	ctx, cancel := opts.context()
	defer cancel()

	account, err := opts.client().GetAccount(ctx)
	if err != nil {
		return commandError("failed to fetch account", err)
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	return formatter.Record([]output.Field{
		{Label: "Account type", Value: account.AccountType},
		{Label: "Branch", Value: account.Branch},
		{Label: "Account number", Value: account.AccountNumber},
		{Label: "Balance", Value: portalapi.FormatMoney(account.Balance)},
	}, account)
}

// newBalanceCmd builds deposit and withdraw, which differ only in the
// endpoint they call.
func newBalanceCmd(opts *portalOptions, action, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   action + " AMOUNT",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return runBalance(cmd, *opts, action, amount)
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

// parseAmount accepts positive amounts with a dot or comma separator.
func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := portalapi.ParseDecimal(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive")
	}
	return amount, nil
}

func runBalance(cmd *cobra.Command, opts portalOptions, action string, amount decimal.Decimal) error {
	if err := opts.requireRole(portalapi.RoleClient); err != nil {
		return err
	}

	ctx, cancel := opts.context()
	defer cancel()

	client := opts.client()
	change := client.Deposit
	if action == "withdraw" {
		change = client.Withdraw
	}

	result, err := change(ctx, amount)
	if err != nil {
		return commandError(action+" failed", err)
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	return formatter.Record([]output.Field{
		{Label: "Result", Value: result.Message},
		{Label: "New balance", Value: portalapi.FormatMoney(result.NewBalance)},
	}, result)
}

// newProfileCmd creates the profile command with the given options.
func newProfileCmd(opts *portalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View your profile and compliance status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(cmd, *opts)
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func runProfile(cmd *cobra.Command, opts portalOptions) error {
	if err := opts.requireRole(portalapi.RoleClient); err != nil {
		return err
	}

	ctx, cancel := opts.context()
	defer cancel()

	profile, err := opts.client().GetProfile(ctx)
	if err != nil {
		return commandError("failed to fetch profile", err)
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	return formatter.Record([]output.Field{
		{Label: "Client ID", Value: strconv.FormatInt(profile.ClientID, 10)},
		{Label: "Name", Value: profile.Name},
		{Label: "Email", Value: profile.Email},
		{Label: "Document", Value: profile.Document},
		{Label: "Compliance", Value: string(profile.ComplianceStatus)},
	}, profile)
}

func init() {
	var opts portalOptions
	authenticated := func(cmd *cobra.Command, args []string) error {
		return authenticate(&opts)
	}

	accountCmd := newAccountCmd(&opts)
	accountCmd.PersistentPreRunE = authenticated
	profileCmd := newProfileCmd(&opts)
	profileCmd.PreRunE = authenticated

	rootCmd.AddCommand(accountCmd, profileCmd)
}

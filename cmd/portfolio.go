package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jonandersen/chicoin/internal/output"
	"github.com/jonandersen/chicoin/internal/pipeline"
	"github.com/jonandersen/chicoin/internal/router"
	"github.com/jonandersen/chicoin/internal/viewmodel"
	"github.com/jonandersen/chicoin/internal/workflow"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// cliView is the view name tickets carry when a command, not the TUI,
// renders the portfolio. It is always the active view.
const cliView = "cli"

// newPortfolioCmd creates the portfolio command with the given options.
func newPortfolioCmd(opts *portalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "View your positions and results",
		Long: `View your portfolio: quantity, unit price, market value and financial
result per position, with totals derived from the positions.

Examples:
  chicoin portfolio
  chicoin portfolio --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPortfolio(cmd, *opts)
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

// loadPortfolio runs the portfolio loader once into a fresh view-model.
func loadPortfolio(opts portalOptions) (*viewmodel.Portfolio, error) {
	ctx, cancel := opts.context()
	defer cancel()

	vm := viewmodel.New(nil, opts.logger)
	loader := pipeline.NewLoader(router.LoaderPortfolio, opts.client().GetPortfolio, func(t pipeline.Ticket, pf *portalapi.Portfolio) {
		vm.ApplyLive(t, pf)
	}).WithSequencer(vm.Sequencer()).WithLogger(opts.logger)

	if err := loader.Run(ctx, cliView); err != nil {
		return nil, commandError("failed to fetch portfolio", err)
	}
	return vm, nil
}

func runPortfolio(cmd *cobra.Command, opts portalOptions) error {
	if err := opts.requireRole(portalapi.RoleClient); err != nil {
		return err
	}

	vm, err := loadPortfolio(opts)
	if err != nil {
		return err
	}
	return writePortfolio(cmd, opts, vm)
}

func writePortfolio(cmd *cobra.Command, opts portalOptions, vm *viewmodel.Portfolio) error {
	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		totals := vm.Totals()
		return formatter.Print(map[string]any{
			"portfolioId":     vm.PortfolioID(),
			"mode":            vm.Mode().String(),
			"positions":       vm.Positions(),
			"marketValue":     totals.MarketValue,
			"financialResult": totals.FinancialResult,
		})
	}

	rows := make([][]string, 0, len(vm.Positions()))
	for _, r := range vm.Rows() {
		if !r.Placeholder {
			rows = append(rows, r.Cells())
		}
	}
	if err := formatter.TableOr(viewmodel.Columns, rows, viewmodel.PlaceholderText); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout())
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), vm.TotalsLine())
	return nil
}

// newSimulateCmd creates the simulate command with the given options.
func newSimulateCmd(opts *portalOptions) *cobra.Command {
	var prices []string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Revalue your portfolio at hypothetical prices",
		Long: `Revalue every position at a hypothetical unit price. Positions without
a --price keep their current unit price. Nothing is saved.

Examples:
  chicoin simulate --price 1=50
  chicoin simulate --price 1=42.10 --price 3=150`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parsePriceOverrides(prices)
			if err != nil {
				return err
			}
			return runSimulate(cmd, *opts, overrides)
		},
	}

	cmd.Flags().StringArrayVarP(&prices, "price", "p", nil, "Hypothetical price as PRODUCT_ID=PRICE (repeatable)")
	cmd.SilenceUsage = true
	return cmd
}

// parsePriceOverrides parses PRODUCT_ID=PRICE pairs.
func parsePriceOverrides(values []string) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal, len(values))
	for _, v := range values {
		idStr, priceStr, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --price %q (use PRODUCT_ID=PRICE)", v)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid product ID in --price %q", v)
		}
		price, err := portalapi.ParseDecimal(priceStr)
		if err != nil {
			return nil, fmt.Errorf("invalid price in --price %q", v)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("price for product %d cannot be negative", id)
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("product %d has more than one --price", id)
		}
		out[id] = price
	}
	return out, nil
}

func runSimulate(cmd *cobra.Command, opts portalOptions, overrides map[int64]decimal.Decimal) error {
	if err := opts.requireRole(portalapi.RoleClient); err != nil {
		return err
	}

	vm, err := loadPortfolio(opts)
	if err != nil {
		return err
	}

	ctx, cancel := opts.context()
	defer cancel()

	sim := workflow.NewSimulationWorkflow(opts.client(), vm, opts.logger)
	if err := sim.Run(ctx, cliView, overrides); err != nil {
		return commandError("simulation failed", err)
	}

	if !opts.jsonMode {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Simulated values. Nothing was saved.")
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}
	return writePortfolio(cmd, opts, vm)
}

func init() {
	var opts portalOptions
	authenticated := func(cmd *cobra.Command, args []string) error {
		return authenticate(&opts)
	}

	portfolioCmd := newPortfolioCmd(&opts)
	portfolioCmd.PreRunE = authenticated
	simulateCmd := newSimulateCmd(&opts)
	simulateCmd.PreRunE = authenticated

	rootCmd.AddCommand(portfolioCmd, simulateCmd)
}

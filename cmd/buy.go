package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonandersen/chicoin/internal/output"
	"github.com/jonandersen/chicoin/internal/workflow"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// buyParams holds the flags of the buy command.
type buyParams struct {
	quantity string
	price    string
}

// newBuyCmd creates the buy command with the given options.
func newBuyCmd(opts *portalOptions) *cobra.Command {
	var params buyParams
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:   "buy PRODUCT_ID",
		Short: "Invest in a product",
		Long: `Place a buy order for a product from the catalog.

The unit price defaults to the product's last price. The portal fills the
order at its own price and reports it back.

Examples:
  chicoin buy 2 --quantity 3                 # Preview (requires --yes to place)
  chicoin buy 2 --quantity 3 --yes
  chicoin buy 2 --quantity 3 --price 64.90 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || productID <= 0 {
				return fmt.Errorf("invalid product ID %q", args[0])
			}
			return runBuy(cmd, *opts, productID, params, skipConfirm)
		},
	}

	cmd.Flags().StringVarP(&params.quantity, "quantity", "q", "", "Quantity to buy (required)")
	cmd.Flags().StringVarP(&params.price, "price", "p", "", "Unit price (defaults to the last price)")
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	cmd.SilenceUsage = true

	return cmd
}

func findProduct(opts portalOptions, productID int64) (portalapi.Product, error) {
	ctx, cancel := opts.context()
	defer cancel()

	products, err := opts.client().ListProducts(ctx)
	if err != nil {
		return portalapi.Product{}, commandError("failed to fetch products", err)
	}
	for _, p := range products {
		if p.ProductID == productID {
			return p, nil
		}
	}
	return portalapi.Product{}, fmt.Errorf("product %d not found (see 'chicoin products')", productID)
}

func runBuy(cmd *cobra.Command, opts portalOptions, productID int64, params buyParams, skipConfirm bool) error {
	if err := opts.requireRole(portalapi.RoleClient); err != nil {
		return err
	}
	if params.quantity == "" {
		return fmt.Errorf("quantity is required (use --quantity)")
	}
	quantity, err := portalapi.ParseDecimal(params.quantity)
	if err != nil {
		return fmt.Errorf("invalid quantity %q", params.quantity)
	}

	product, err := findProduct(opts, productID)
	if err != nil {
		return err
	}

	price := product.LastPrice
	if params.price != "" {
		if price, err = portalapi.ParseDecimal(params.price); err != nil {
			return fmt.Errorf("invalid price %q", params.price)
		}
	}

	// Show order preview (not in JSON mode)
	if !opts.jsonMode {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nOrder Preview:\n")
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Product:    %s (%s)\n", product.Ticker, product.ProductName)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Quantity:   %s\n", portalapi.FormatQuantity(quantity))
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Unit price: %s\n", portalapi.FormatMoney(price))
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Estimated:  %s\n\n", portalapi.FormatMoney(quantity.Mul(price).Round(2)))
	}

	// Require confirmation unless --yes flag is set
	if !skipConfirm {
		return fmt.Errorf("order requires confirmation (use --yes to confirm)")
	}

	ctx, cancel := opts.context()
	defer cancel()

	orders := workflow.NewOrderWorkflow(opts.client(), opts.logger)
	settlement, err := orders.Run(ctx, product, quantity, price)
	if err != nil {
		return commandError("order rejected", err)
	}
	if !settlement.Success {
		if settlement.Kind() == portalapi.KindAuthorization {
			return commandError("order failed", settlement.Err)
		}
		return fmt.Errorf("order failed: %s", settlement.Message)
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	return formatter.Message(settlement.Message)
}

func init() {
	var opts portalOptions
	buyCmd := newBuyCmd(&opts)
	buyCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return authenticate(&opts)
	}
	rootCmd.AddCommand(buyCmd)
}

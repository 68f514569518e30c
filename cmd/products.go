package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonandersen/chicoin/internal/output"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// newProductsCmd creates the products command with the given options.
func newProductsCmd(opts *portalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the product catalog",
		Long: `List the investment products available on the portal.

Examples:
  chicoin products
  chicoin products create --ticker ITUB4 --name "Itau PN" --class equity --risk 4 --price 33.10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProductsList(cmd, *opts)
		},
	}
	cmd.SilenceUsage = true
	cmd.AddCommand(newProductsCreateCmd(opts))
	return cmd
}

func runProductsList(cmd *cobra.Command, opts portalOptions) error {
	ctx, cancel := opts.context()
	defer cancel()

	products, err := opts.client().ListProducts(ctx)
	if err != nil {
		return commandError("failed to fetch products", err)
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		return formatter.Print(products)
	}

	headers := []string{"ID", "Ticker", "Product", "Class", "Risk", "Issuer", "Last Price"}
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{
			strconv.FormatInt(p.ProductID, 10),
			p.Ticker,
			p.ProductName,
			p.AssetClass,
			strconv.Itoa(p.RiskLevel),
			p.Issuer,
			portalapi.FormatMoney(p.LastPrice),
		})
	}
	return formatter.TableOr(headers, rows, "No products available.")
}

// productParams holds the flags of products create.
type productParams struct {
	ticker string
	name   string
	class  string
	risk   int
	issuer string
	price  string
}

func newProductsCreateCmd(opts *portalOptions) *cobra.Command {
	var params productParams

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a product to the catalog (advisor)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProductsCreate(cmd, *opts, params)
		},
	}

	cmd.Flags().StringVar(&params.ticker, "ticker", "", "Ticker symbol (required)")
	cmd.Flags().StringVar(&params.name, "name", "", "Product name (required)")
	cmd.Flags().StringVar(&params.class, "class", "", "Asset class, e.g. equity or fixed_income (required)")
	cmd.Flags().IntVar(&params.risk, "risk", 0, "Risk level from 1 to 5 (required)")
	cmd.Flags().StringVar(&params.issuer, "issuer", "", "Issuer")
	cmd.Flags().StringVar(&params.price, "price", "0", "Last price")
	cmd.SilenceUsage = true
	return cmd
}

func runProductsCreate(cmd *cobra.Command, opts portalOptions, params productParams) error {
	if err := opts.requireRole(portalapi.RoleAdvisor); err != nil {
		return err
	}
	price, err := portalapi.ParseDecimal(params.price)
	if err != nil {
		return fmt.Errorf("invalid price %q", params.price)
	}

	ctx, cancel := opts.context()
	defer cancel()

	product, err := opts.client().CreateProduct(ctx, portalapi.NewProduct{
		Ticker:      params.ticker,
		ProductName: params.name,
		AssetClass:  params.class,
		RiskLevel:   params.risk,
		Issuer:      params.issuer,
		LastPrice:   price,
	})
	if err != nil {
		return commandError("failed to create product", err)
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	return formatter.Record([]output.Field{
		{Label: "Product ID", Value: strconv.FormatInt(product.ProductID, 10)},
		{Label: "Ticker", Value: product.Ticker},
		{Label: "Name", Value: product.ProductName},
		{Label: "Risk", Value: strconv.Itoa(product.RiskLevel)},
		{Label: "Last price", Value: portalapi.FormatMoney(product.LastPrice)},
	}, product)
}

func init() {
	var opts portalOptions
	productsCmd := newProductsCmd(&opts)
	productsCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return authenticate(&opts)
	}
	rootCmd.AddCommand(productsCmd)
}

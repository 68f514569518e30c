package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonandersen/chicoin/internal/output"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// clientsOptions holds dependencies for the clients commands.
type clientsOptions struct {
	portalOptions
	passwordReader passwordReader
	stdin          io.Reader
}

// newClientsCmd creates the clients command with the given options.
func newClientsCmd(opts *clientsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage your client book (advisor)",
		Long: `List clients, register new ones and record compliance decisions.

Examples:
  chicoin clients
  chicoin clients create --name "Bruno Lima" --email bruno@example.com --document 987.654.321-00
  chicoin clients compliance 2 approved
  chicoin clients compliance 2 rejected --justification "Missing documents"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClientsList(cmd, opts.portalOptions)
		},
	}
	cmd.SilenceUsage = true
	cmd.AddCommand(newClientsCreateCmd(opts), newClientsComplianceCmd(opts))
	return cmd
}

func runClientsList(cmd *cobra.Command, opts portalOptions) error {
	if err := opts.requireRole(portalapi.RoleAdvisor); err != nil {
		return err
	}

	ctx, cancel := opts.context()
	defer cancel()

	clients, err := opts.client().ListClients(ctx)
	if err != nil {
		return commandError("failed to fetch clients", err)
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		return formatter.Print(clients)
	}

	pending := 0
	headers := []string{"ID", "Name", "Email", "Document", "Compliance"}
	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		if c.ComplianceStatus == portalapi.CompliancePending || c.ComplianceStatus == portalapi.ComplianceUnderReview {
			pending++
		}
		rows = append(rows, []string{
			strconv.FormatInt(c.ClientID, 10),
			c.Name,
			c.Email,
			c.Document,
			string(c.ComplianceStatus),
		})
	}
	if err := formatter.TableOr(headers, rows, "No clients registered."); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nClients: %d  Pending compliance: %d\n", len(clients), pending)
	return nil
}

// clientParams holds the flags of clients create.
type clientParams struct {
	name     string
	email    string
	document string
}

func newClientsCreateCmd(opts *clientsOptions) *cobra.Command {
	var params clientParams

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a client",
		Long: `Register a client. The initial password is read from the terminal, or
from the first line of stdin when stdin is not a terminal. New clients start
with compliance status pending.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClientsCreate(cmd, opts, params)
		},
	}

	cmd.Flags().StringVar(&params.name, "name", "", "Full name (required)")
	cmd.Flags().StringVar(&params.email, "email", "", "Email (required)")
	cmd.Flags().StringVar(&params.document, "document", "", "Tax document number (required)")
	cmd.SilenceUsage = true
	return cmd
}

func runClientsCreate(cmd *cobra.Command, opts *clientsOptions, params clientParams) error {
	if err := opts.requireRole(portalapi.RoleAdvisor); err != nil {
		return err
	}

	password, err := readPassword(cmd, &loginOptions{passwordReader: opts.passwordReader, stdin: opts.stdin})
	if err != nil {
		return err
	}

	ctx, cancel := opts.context()
	defer cancel()

	client, err := opts.client().CreateClient(ctx, portalapi.ClientDraft{
		Name:     params.name,
		Email:    params.email,
		Document: params.document,
		Password: password,
	})
	if err != nil {
		return commandError("failed to create client", err)
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	return formatter.Record([]output.Field{
		{Label: "Client ID", Value: strconv.FormatInt(client.ClientID, 10)},
		{Label: "Name", Value: client.Name},
		{Label: "Email", Value: client.Email},
		{Label: "Compliance", Value: string(client.ComplianceStatus)},
	}, client)
}

func newClientsComplianceCmd(opts *clientsOptions) *cobra.Command {
	var justification string

	cmd := &cobra.Command{
		Use:   "compliance CLIENT_ID STATUS",
		Short: "Record a compliance decision",
		Long: `Set a client's compliance status: pending, approved, rejected or under_review.

Examples:
  chicoin clients compliance 2 approved
  chicoin clients compliance 2 rejected --justification "Missing documents"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || clientID <= 0 {
				return fmt.Errorf("invalid client ID %q", args[0])
			}
			status, err := portalapi.ParseComplianceStatus(args[1])
			if err != nil {
				return err
			}
			return runClientsCompliance(cmd, opts.portalOptions, clientID, portalapi.ComplianceUpdate{
				Status:        status,
				Justification: justification,
			})
		},
	}

	cmd.Flags().StringVar(&justification, "justification", "", "Reason for the decision")
	cmd.SilenceUsage = true
	return cmd
}

func runClientsCompliance(cmd *cobra.Command, opts portalOptions, clientID int64, update portalapi.ComplianceUpdate) error {
	if err := opts.requireRole(portalapi.RoleAdvisor); err != nil {
		return err
	}

	ctx, cancel := opts.context()
	defer cancel()

	if err := opts.client().UpdateComplianceStatus(ctx, clientID, update); err != nil {
		return commandError("failed to update compliance status", err)
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	return formatter.Message(fmt.Sprintf("Client %d marked %s.", clientID, update.Status))
}

func init() {
	opts := &clientsOptions{
		passwordReader: newTerminalReader(int(os.Stdin.Fd())),
		stdin:          os.Stdin,
	}
	clientsCmd := newClientsCmd(opts)
	clientsCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return authenticate(&opts.portalOptions)
	}
	rootCmd.AddCommand(clientsCmd)
}

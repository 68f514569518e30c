package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonandersen/chicoin/internal/logging"
	"github.com/jonandersen/chicoin/internal/sandbox"
)

// newSandboxCmd creates the sandbox command.
func newSandboxCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run a local portal for development",
		Long: `Run an in-memory portal seeded with one advisor, one client and a
small product catalog. Data is lost when the process exits.

Seeded logins:
  ` + sandbox.AdvisorEmail + ` / ` + sandbox.AdvisorPassword + `
  ` + sandbox.ClientEmail + ` / ` + sandbox.ClientPassword,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gin.SetMode(gin.ReleaseMode)
			logger := logging.NewWithWriter(cmd.ErrOrStderr(), zerolog.InfoLevel)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return sandbox.Serve(ctx, addr, sandbox.NewSeededStore(), logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", sandbox.DefaultAddr, "Listen address")
	cmd.SilenceUsage = true
	return cmd
}

func init() {
	rootCmd.AddCommand(newSandboxCmd())
}

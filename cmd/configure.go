package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonandersen/chicoin/internal/config"
	"github.com/jonandersen/chicoin/internal/logging"
	"github.com/jonandersen/chicoin/internal/output"
)

// configureOptions holds dependencies for the configure command.
// This allows for dependency injection in tests.
type configureOptions struct {
	configPath string
	jsonMode   func() bool
}

// configureFlags are the values the user asked to change.
type configureFlags struct {
	apiURL   string
	timeout  int
	logLevel string
	logFile  string
}

// newConfigureCmd creates the configure command with the given options.
func newConfigureCmd(opts configureOptions) *cobra.Command {
	var flags configureFlags

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "View or change the CLI configuration",
		Long: `View or change the CLI configuration.

Without flags the current configuration is printed. Environment variables
(CHICOIN_API_URL, CHICOIN_LOG_LEVEL, CHICOIN_LOG_FILE) and a .env file in the
working directory override the saved values at runtime.

Examples:
  chicoin configure
  chicoin configure --api-url http://127.0.0.1:5000
  chicoin configure --timeout 10 --log-level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(cmd, opts, flags)
		},
	}

	cmd.Flags().StringVar(&flags.apiURL, "api-url", "", "Portal base URL")
	cmd.Flags().IntVar(&flags.timeout, "timeout", 0, "Request timeout in seconds")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "Log file path")

	// Don't show usage info on validation errors - just show the error
	cmd.SilenceUsage = true

	return cmd
}

func runConfigure(cmd *cobra.Command, opts configureOptions, flags configureFlags) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	changed := false
	if cmd.Flags().Changed("api-url") {
		cfg.APIBaseURL = flags.apiURL
		changed = true
	}
	if cmd.Flags().Changed("timeout") {
		cfg.RequestTimeoutSeconds = flags.timeout
		changed = true
	}
	if cmd.Flags().Changed("log-level") {
		if _, err := logging.ParseLevel(flags.logLevel); err != nil {
			return err
		}
		cfg.LogLevel = flags.logLevel
		changed = true
	}
	if cmd.Flags().Changed("log-file") {
		cfg.LogFile = flags.logFile
		changed = true
	}

	if changed {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(opts.configPath, cfg); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode())
	if changed && !formatter.JSONMode {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration saved successfully!")
	}
	return formatter.Record([]output.Field{
		{Label: "API base URL", Value: cfg.APIBaseURL},
		{Label: "Request timeout", Value: strconv.Itoa(cfg.RequestTimeoutSeconds) + "s"},
		{Label: "Log level", Value: cfg.LogLevel},
		{Label: "Log file", Value: cfg.LogFile},
		{Label: "Config file", Value: opts.configPath},
	}, cfg)
}

func init() {
	rootCmd.AddCommand(newConfigureCmd(configureOptions{
		configPath: config.ConfigPath(),
		jsonMode:   GetJSONMode,
	}))
}

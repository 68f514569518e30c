package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonandersen/chicoin/internal/config"
	"github.com/jonandersen/chicoin/internal/keyring"
	"github.com/jonandersen/chicoin/internal/logging"
	"github.com/jonandersen/chicoin/internal/session"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

var Version = "dev"

// jsonOutput controls whether output is formatted as JSON
var jsonOutput bool

// debugLogging forces debug level in the log file
var debugLogging bool

var rootCmd = &cobra.Command{
	Use:   "chicoin",
	Short: "Advisory portal CLI",
	Long: `A CLI and terminal UI for the chicoin advisory portal.

Clients view their portfolio, simulate prices and invest. Advisors manage
clients, compliance and the product catalog.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate("chicoin version {{.Version}}\n")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Write debug logs to the log file")
}

// GetJSONMode returns whether JSON output mode is enabled.
func GetJSONMode() bool {
	return jsonOutput
}

// logCloser is the open log file, closed when the command returns.
var logCloser io.Closer

func Execute() {
	err := rootCmd.Execute()
	if logCloser != nil {
		_ = logCloser.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

// loadRuntime reads .env and the config file and opens the log file.
func loadRuntime() (*config.Config, zerolog.Logger, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, zerolog.Nop(), err
	}

	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("invalid config: %w", err)
	}

	logger, closer, err := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel, Debug: debugLogging})
	if err != nil {
		// A broken log file must not block the CLI.
		_, _ = fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return cfg, zerolog.Nop(), nil
	}
	logCloser = closer
	return cfg, logger, nil
}

func newSessionManager() *session.Manager {
	return session.NewManager(keyring.NewEnvStore(keyring.NewSystemStore()), session.DefaultPath())
}

// portalOptions holds the dependencies shared by commands that call the
// portal with a stored session.
type portalOptions struct {
	baseURL  string
	session  session.Session
	jsonMode bool
	timeout  time.Duration
	logger   zerolog.Logger
}

func (o portalOptions) client() *portalapi.Client {
	c := portalapi.NewClient(o.baseURL, o.session.Token).WithLogger(o.logger)
	if o.timeout > 0 {
		c = c.WithTimeout(o.timeout)
	}
	return c
}

func (o portalOptions) context() (context.Context, context.CancelFunc) {
	timeout := o.timeout
	if timeout <= 0 {
		timeout = config.DefaultRequestTimeoutSeconds * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

// requireRole rejects sessions of the wrong role before any request is sent.
func (o portalOptions) requireRole(role portalapi.Role) error {
	if o.session.Role != role {
		return fmt.Errorf("this command is only available to %ss (logged in as %s)", role, o.session.Role)
	}
	return nil
}

// authenticate fills opts from the config and the stored session.
func authenticate(opts *portalOptions) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	sess, err := newSessionManager().Load()
	if err != nil {
		return err
	}

	opts.baseURL = cfg.APIBaseURL
	opts.session = sess
	opts.jsonMode = GetJSONMode()
	opts.timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	opts.logger = logger
	return nil
}

// commandError describes a failed portal call: server validation text
// verbatim, authorization failures with a re-login hint.
func commandError(action string, err error) error {
	if portalapi.KindOf(err) == portalapi.KindAuthorization {
		return fmt.Errorf("%s: %s Run 'chicoin login'.", action, portalapi.UserMessage(err))
	}
	return fmt.Errorf("%s: %s", action, portalapi.UserMessage(err))
}

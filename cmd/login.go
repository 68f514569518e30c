package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jonandersen/chicoin/internal/output"
	"github.com/jonandersen/chicoin/internal/session"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// passwordReader abstracts terminal password input for testing.
type passwordReader interface {
	ReadPassword() (string, error)
	IsTerminal() bool
}

// terminalReader reads passwords from the terminal using golang.org/x/term.
type terminalReader struct {
	fd int
}

// newTerminalReader creates a reader for the given file descriptor.
func newTerminalReader(fd int) *terminalReader {
	return &terminalReader{fd: fd}
}

func (r *terminalReader) ReadPassword() (string, error) {
	password, err := term.ReadPassword(r.fd)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func (r *terminalReader) IsTerminal() bool {
	return term.IsTerminal(r.fd)
}

// sessionStore is the part of session.Manager the auth commands use.
type sessionStore interface {
	Save(s session.Session) error
	Load() (session.Session, error)
	Clear() error
}

// loginOptions holds dependencies for the login command.
type loginOptions struct {
	baseURL        string
	sessions       sessionStore
	passwordReader passwordReader
	stdin          io.Reader
	jsonMode       bool
	logger         zerolog.Logger
}

// newLoginCmd creates the login command with the given options.
func newLoginCmd(opts *loginOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the portal",
		Long: `Log in as a client or an advisor. The role comes from the portal.

The password is read from the terminal, or from the first line of stdin
when stdin is not a terminal.

Examples:
  chicoin login --email ana@chicoin.dev
  echo "$PASSWORD" | chicoin login --email marina@chicoin.dev`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts, email)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email (required)")
	cmd.SilenceUsage = true

	return cmd
}

func runLogin(cmd *cobra.Command, opts *loginOptions, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required (use --email)")
	}

	password, err := readPassword(cmd, opts)
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := portalapi.NewAnonymousClient(opts.baseURL).WithLogger(opts.logger)
	resp, err := client.Login(ctx, email, password)
	if err != nil {
		if portalapi.KindOf(err) == portalapi.KindAuthorization {
			return fmt.Errorf("login failed: invalid email or password")
		}
		return fmt.Errorf("login failed: %s", portalapi.UserMessage(err))
	}

	sess := session.FromLogin(resp)
	if err := opts.sessions.Save(sess); err != nil {
		return err
	}
	opts.logger.Info().Str("role", string(sess.Role)).Msg("logged in")

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	return formatter.Record([]output.Field{
		{Label: "Logged in as", Value: sess.DisplayName},
		{Label: "Role", Value: string(sess.Role)},
	}, map[string]any{"role": sess.Role, "user": resp.User})
}

func readPassword(cmd *cobra.Command, opts *loginOptions) (string, error) {
	if opts.passwordReader != nil && opts.passwordReader.IsTerminal() {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		password, err := opts.passwordReader.ReadPassword()
		_, _ = fmt.Fprintln(cmd.ErrOrStderr()) // Print newline after hidden input
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return password, nil
	}

	if opts.stdin == nil {
		return "", fmt.Errorf("no password input available")
	}
	scanner := bufio.NewScanner(opts.stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return "", nil
	}
	return strings.TrimRight(scanner.Text(), "\r\n"), nil
}

// newLogoutCmd creates the logout command.
func newLogoutCmd(sessions sessionStore) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sessions.Clear(); err != nil {
				return err
			}
			return output.New(cmd.OutOrStdout(), GetJSONMode()).Message("Logged out.")
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

// newWhoamiCmd creates the whoami command.
func newWhoamiCmd(sessions sessionStore) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user and role",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := sessions.Load()
			if err != nil {
				return err
			}
			return output.New(cmd.OutOrStdout(), GetJSONMode()).Record([]output.Field{
				{Label: "Name", Value: sess.DisplayName},
				{Label: "Role", Value: string(sess.Role)},
			}, map[string]any{"name": sess.DisplayName, "role": sess.Role})
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func init() {
	opts := &loginOptions{
		sessions:       newSessionManager(),
		passwordReader: newTerminalReader(int(os.Stdin.Fd())),
		stdin:          os.Stdin,
	}
	loginCmd := newLoginCmd(opts)
	loginCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		opts.baseURL = cfg.APIBaseURL
		opts.jsonMode = GetJSONMode()
		opts.logger = logger
		return nil
	}

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(newLogoutCmd(newSessionManager()))
	rootCmd.AddCommand(newWhoamiCmd(newSessionManager()))
}

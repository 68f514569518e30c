package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jonandersen/chicoin/internal/tui"
)

func init() {
	var opts portalOptions

	uiCmd := &cobra.Command{
		Use:   "ui",
		Short: "Interactive terminal UI",
		Long: `Launch the interactive terminal UI.

Clients get Overview, Invest, Statement and Profile. Advisors get the
Dashboard, Clients and Compliance views.

Keyboard shortcuts:
  tab/→ shift+tab/←   Next or previous view
  1-9                 Jump to a view
  ↑/↓                 Navigate rows
  r                   Refresh the current view
  s / v               Simulate prices / revert to live values
  q                   Quit
  L                   Log out and quit`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return authenticate(&opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			model := tui.New(tui.Options{
				API:          opts.client(),
				Session:      opts.session,
				Logger:       opts.logger,
				ClearSession: newSessionManager().Clear,
			})
			_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}

	uiCmd.SilenceUsage = true
	rootCmd.AddCommand(uiCmd)
}

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jonandersen/chicoin/internal/pipeline"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// LoadState is the loading state shared by the simple panels.
type LoadState int

const (
	StateLoading LoadState = iota
	StateLoaded
	StateError
)

// AccountModel holds the client's cash account.
type AccountModel struct {
	State   LoadState
	Account *portalapi.Account
	Err     error
}

// NewAccountModel creates an account panel.
func NewAccountModel() *AccountModel {
	return &AccountModel{}
}

func (m *AccountModel) render(_ pipeline.Ticket, a *portalapi.Account) {
	m.State = StateLoaded
	m.Account = a
	m.Err = nil
}

func (m *AccountModel) fail(err error) {
	if m.State != StateLoaded {
		m.State = StateError
		m.Err = err
	}
}

// Summary renders the one-line balance shown on Overview.
func (m *AccountModel) Summary() string {
	switch m.State {
	case StateLoading:
		return LabelStyle.Render("Loading account...")
	case StateError:
		return ErrorStyle.Render("Account unavailable: " + portalapi.UserMessage(m.Err))
	}
	return LabelStyle.Render("Balance: ") + ValueStyle.Render(portalapi.FormatMoney(m.Account.Balance))
}

// View renders the full statement panel.
func (m *AccountModel) View() string {
	if m.State != StateLoaded {
		return m.Summary()
	}

	a := m.Account
	var b strings.Builder
	b.WriteString(SummaryStyle.Render("Account"))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Type: "))
	b.WriteString(ValueStyle.Render(a.AccountType))
	b.WriteString("  ")
	b.WriteString(LabelStyle.Render("Branch: "))
	b.WriteString(ValueStyle.Render(a.Branch))
	b.WriteString("  ")
	b.WriteString(LabelStyle.Render("Number: "))
	b.WriteString(ValueStyle.Render(a.AccountNumber))
	b.WriteString("\n\n")
	b.WriteString(LabelStyle.Render("Available balance: "))
	b.WriteString(ValueStyle.Render(portalapi.FormatMoney(a.Balance)))
	return b.String()
}

// BalanceKind selects deposit or withdrawal.
type BalanceKind int

const (
	Deposit BalanceKind = iota
	Withdraw
)

func (k BalanceKind) String() string {
	if k == Withdraw {
		return "Withdraw"
	}
	return "Deposit"
}

// BalanceForm is the amount prompt for deposits and withdrawals.
type BalanceForm struct {
	Kind  BalanceKind
	Input textinput.Model
	Err   string
}

// NewBalanceForm creates a focused amount prompt.
func NewBalanceForm(kind BalanceKind) *BalanceForm {
	ti := textinput.New()
	ti.Placeholder = "Amount (e.g. 250,00)"
	ti.CharLimit = 16
	ti.Width = 20
	ti.Focus()
	return &BalanceForm{Kind: kind, Input: ti}
}

// Amount validates the typed amount before any request is made.
func (f *BalanceForm) Amount() (portalapi.BalanceChange, error) {
	amount, err := portalapi.ParseDecimal(f.Input.Value())
	if err != nil {
		return portalapi.BalanceChange{}, portalapi.Preconditionf("Amount must be a number.")
	}
	if !amount.IsPositive() {
		return portalapi.BalanceChange{}, portalapi.Preconditionf("Amount must be greater than zero.")
	}
	return portalapi.BalanceChange{Amount: amount}, nil
}

// View renders the prompt.
func (f *BalanceForm) View() string {
	var b strings.Builder
	b.WriteString(SummaryStyle.Render(f.Kind.String()))
	b.WriteString("\n\n")
	b.WriteString(f.Input.View())
	if f.Err != "" {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(f.Err))
	}
	b.WriteString("\n\n")
	b.WriteString(DescStyle.Render("enter confirm • esc cancel"))
	return InputStyle.Render(b.String())
}

// ChangeBalance returns a command performing the deposit or withdrawal.
func ChangeBalance(api Portal, kind BalanceKind, change portalapi.BalanceChange) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var (
			result *portalapi.BalanceResult
			err    error
		)
		if kind == Withdraw {
			result, err = api.Withdraw(ctx, change.Amount)
		} else {
			result, err = api.Deposit(ctx, change.Amount)
		}
		if err != nil {
			return BalanceChangedMsg{Kind: kind, Err: fmt.Errorf("failed to %s: %w", strings.ToLower(kind.String()), err)}
		}
		return BalanceChangedMsg{Kind: kind, Result: result}
	}
}

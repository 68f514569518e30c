package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/jonandersen/chicoin/internal/workflow"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// SimulationForm edits one hypothetical price per position.
type SimulationForm struct {
	Drafts []workflow.DraftOverride
	Inputs []textinput.Model
	focus  int
	Err    string
}

// NewSimulationForm creates inputs prefilled with the current unit prices.
func NewSimulationForm(drafts []workflow.DraftOverride) *SimulationForm {
	inputs := make([]textinput.Model, len(drafts))
	for i, d := range drafts {
		ti := textinput.New()
		ti.CharLimit = 14
		ti.Width = 14
		ti.Prompt = fmt.Sprintf("%-8s ", d.Ticker)
		ti.SetValue(d.Price.StringFixed(2))
		if i == 0 {
			ti.Focus()
		}
		inputs[i] = ti
	}
	return &SimulationForm{Drafts: drafts, Inputs: inputs}
}

// Prices parses every input in position order. An input still showing its
// prefilled value yields the draft's unrounded price.
func (f *SimulationForm) Prices() ([]decimal.Decimal, error) {
	prices := make([]decimal.Decimal, len(f.Inputs))
	for i, in := range f.Inputs {
		if in.Value() == f.Drafts[i].Price.StringFixed(2) {
			prices[i] = f.Drafts[i].Price
			continue
		}
		p, err := portalapi.ParseDecimal(in.Value())
		if err != nil {
			return nil, portalapi.Preconditionf("Price for %s must be a number.", f.Drafts[i].Ticker)
		}
		prices[i] = p
	}
	return prices, nil
}

// Update moves focus or edits the focused input.
func (f *SimulationForm) Update(msg tea.KeyMsg) tea.Cmd {
	if len(f.Inputs) == 0 {
		return nil
	}
	switch msg.String() {
	case "tab", "down":
		f.setFocus((f.focus + 1) % len(f.Inputs))
		return nil
	case "shift+tab", "up":
		f.setFocus((f.focus - 1 + len(f.Inputs)) % len(f.Inputs))
		return nil
	}
	var cmd tea.Cmd
	f.Inputs[f.focus], cmd = f.Inputs[f.focus].Update(msg)
	return cmd
}

func (f *SimulationForm) setFocus(i int) {
	f.Inputs[f.focus].Blur()
	f.focus = i
	f.Inputs[f.focus].Focus()
}

// View renders the price editor.
func (f *SimulationForm) View() string {
	var b strings.Builder
	b.WriteString(SummaryStyle.Render("Simulate prices"))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Every position is revalued. Nothing is saved."))
	b.WriteString("\n\n")
	for i, in := range f.Inputs {
		b.WriteString(in.View())
		b.WriteString(LabelStyle.Render(fmt.Sprintf("  x %s", portalapi.FormatQuantity(f.Drafts[i].Quantity))))
		b.WriteString("\n")
	}
	if f.Err != "" {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(f.Err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(DescStyle.Render("↑/↓ field • enter simulate • esc cancel"))
	return InputStyle.Render(b.String())
}

// RunSimulation returns a command sending the what-if request.
func RunSimulation(step workflow.SimulationStep) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return SimulationEventMsg{Event: step(ctx)}
	}
}

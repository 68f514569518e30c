package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jonandersen/chicoin/internal/workflow"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// InvestForm captures quantity and price for one order intent.
type InvestForm struct {
	Intent     workflow.OrderIntent
	Quantity   textinput.Model
	Price      textinput.Model
	focus      int
	Err        string
	Submitting bool
}

// NewInvestForm creates a form prefilled with the intent's display price.
func NewInvestForm(intent workflow.OrderIntent) *InvestForm {
	qty := textinput.New()
	qty.Placeholder = "Quantity"
	qty.CharLimit = 12
	qty.Width = 14
	qty.Prompt = "Qty:   "
	qty.Focus()

	price := textinput.New()
	price.Placeholder = "Unit price"
	price.CharLimit = 14
	price.Width = 14
	price.Prompt = "Price: "
	price.SetValue(intent.UnitPrice.StringFixed(2))

	return &InvestForm{Intent: intent, Quantity: qty, Price: price}
}

// Values parses both inputs. Range checks belong to the workflow.
func (f *InvestForm) Values() (portalapi.OrderRequest, error) {
	qty, err := portalapi.ParseDecimal(f.Quantity.Value())
	if err != nil {
		return portalapi.OrderRequest{}, portalapi.Preconditionf("Quantity must be a number.")
	}
	price, err := portalapi.ParseDecimal(f.Price.Value())
	if err != nil {
		return portalapi.OrderRequest{}, portalapi.Preconditionf("Unit price must be a number.")
	}
	return portalapi.OrderRequest{Quantity: qty, UnitPrice: price}, nil
}

// Update routes keys to the focused input.
func (f *InvestForm) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		f.toggleFocus()
		return nil
	}
	var cmd tea.Cmd
	if f.focus == 0 {
		f.Quantity, cmd = f.Quantity.Update(msg)
	} else {
		f.Price, cmd = f.Price.Update(msg)
	}
	return cmd
}

func (f *InvestForm) toggleFocus() {
	f.focus = 1 - f.focus
	if f.focus == 0 {
		f.Quantity.Focus()
		f.Price.Blur()
	} else {
		f.Price.Focus()
		f.Quantity.Blur()
	}
}

// View renders the form.
func (f *InvestForm) View() string {
	var b strings.Builder
	b.WriteString(SummaryStyle.Render("Buy " + f.Intent.Ticker))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Last price " + portalapi.FormatMoney(f.Intent.UnitPrice)))
	b.WriteString("\n\n")
	b.WriteString(f.Quantity.View())
	b.WriteString("\n")
	b.WriteString(f.Price.View())
	if f.Err != "" {
		b.WriteString("\n\n")
		b.WriteString(ErrorStyle.Render(f.Err))
	}
	b.WriteString("\n\n")
	if f.Submitting {
		b.WriteString(LabelStyle.Render("Submitting order..."))
	} else {
		b.WriteString(DescStyle.Render("tab switch field • enter confirm • esc cancel"))
	}
	return InputStyle.Render(b.String())
}

// RunOrderStep returns a command performing one order workflow step.
func RunOrderStep(step workflow.OrderStep) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return OrderEventMsg{Event: step(ctx)}
	}
}

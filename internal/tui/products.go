package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jonandersen/chicoin/internal/pipeline"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// ProductsModel holds the product catalog.
type ProductsModel struct {
	State    LoadState
	Products []portalapi.Product
	Err      error
	Table    table.Model
}

// NewProductsModel creates a catalog panel.
func NewProductsModel() *ProductsModel {
	cols := []table.Column{
		{Title: "Ticker", Width: 10},
		{Title: "Product", Width: 22},
		{Title: "Class", Width: 14},
		{Title: "Risk", Width: 5},
		{Title: "Issuer", Width: 16},
		{Title: "Price", Width: 14},
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	t.SetStyles(TableStyles())

	return &ProductsModel{Table: t}
}

// SetHeight sets the table height.
func (m *ProductsModel) SetHeight(height int) {
	m.Table.SetHeight(height)
}

func (m *ProductsModel) render(_ pipeline.Ticket, products []portalapi.Product) {
	m.State = StateLoaded
	m.Products = products
	m.Err = nil
	m.updateTable()
}

func (m *ProductsModel) fail(err error) {
	if m.State != StateLoaded {
		m.State = StateError
		m.Err = err
	}
}

// Update handles table navigation.
func (m *ProductsModel) Update(msg tea.Msg) (*ProductsModel, tea.Cmd) {
	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m *ProductsModel) updateTable() {
	if len(m.Products) == 0 {
		m.Table.SetRows([]table.Row{{"", "No products available.", "", "", "", ""}})
		return
	}
	rows := make([]table.Row, 0, len(m.Products))
	for _, p := range m.Products {
		rows = append(rows, table.Row{
			p.Ticker,
			p.ProductName,
			p.AssetClass,
			strconv.Itoa(p.RiskLevel),
			p.Issuer,
			portalapi.FormatMoney(p.LastPrice),
		})
	}
	m.Table.SetRows(rows)
}

// Selected returns the product under the cursor.
func (m *ProductsModel) Selected() (portalapi.Product, bool) {
	idx := m.Table.Cursor()
	if idx < 0 || idx >= len(m.Products) {
		return portalapi.Product{}, false
	}
	return m.Products[idx], true
}

// View renders the catalog.
func (m *ProductsModel) View() string {
	switch m.State {
	case StateLoading:
		return "Loading products..."
	case StateError:
		return ErrorStyle.Render(fmt.Sprintf("Could not load products: %s", portalapi.UserMessage(m.Err))) +
			"\n\nPress 'r' to retry"
	}

	var b strings.Builder
	b.WriteString(SummaryStyle.Render("Products"))
	b.WriteString(LabelStyle.Render(fmt.Sprintf(" (%d)", len(m.Products))))
	b.WriteString("\n")
	b.WriteString(m.Table.View())
	return b.String()
}

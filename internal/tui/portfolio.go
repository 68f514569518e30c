package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/jonandersen/chicoin/internal/pipeline"
	"github.com/jonandersen/chicoin/internal/viewmodel"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// resultColumn is the index of the financial result cell.
var resultColumn = len(viewmodel.Columns) - 1

// PortfolioModel renders the portfolio view-model.
type PortfolioModel struct {
	vm  *viewmodel.Portfolio
	Err error
}

// NewPortfolioModel creates a portfolio panel over vm.
func NewPortfolioModel(vm *viewmodel.Portfolio) *PortfolioModel {
	return &PortfolioModel{vm: vm}
}

// render is the portfolio loader's render function.
func (m *PortfolioModel) render(t pipeline.Ticket, pf *portalapi.Portfolio) {
	if m.vm.ApplyLive(t, pf) {
		m.Err = nil
	}
}

// fail records a load error. It is only shown while nothing is loaded; a
// loaded table stays on screen.
func (m *PortfolioModel) fail(err error) {
	m.Err = err
}

// View renders the positions table and totals.
func (m *PortfolioModel) View() string {
	var b strings.Builder

	if !m.vm.Loaded() {
		if m.Err != nil {
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("Could not load portfolio: %s", portalapi.UserMessage(m.Err))))
			b.WriteString("\n\nPress 'r' to retry")
			return b.String()
		}
		return "Loading portfolio..."
	}

	simulated := m.vm.Mode() == viewmodel.Simulated

	b.WriteString(SummaryStyle.Render("Positions"))
	if n := len(m.vm.Positions()); n > 0 {
		b.WriteString(LabelStyle.Render(fmt.Sprintf(" (%d)", n)))
	}
	if simulated {
		b.WriteString("  ")
		b.WriteString(WarningStyle.Render(viewmodel.SimulatedTag))
	}
	b.WriteString("\n")
	b.WriteString(m.renderTable())
	b.WriteString("\n")

	totalsStyle := gainStyle(m.vm.Totals().Gain()).Bold(true)
	if simulated {
		totalsStyle = WarningStyle
	}
	b.WriteString(totalsStyle.Render(m.vm.TotalsLine()))

	if simulated {
		b.WriteString("\n")
		b.WriteString(SimulatedBannerStyle.Render("Hypothetical prices. Press v to revert to live data."))
	}
	return b.String()
}

func (m *PortfolioModel) renderTable() string {
	rows := m.vm.Rows()
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = r.Cells()
	}

	return ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		Headers(viewmodel.Columns...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return CellHeaderStyle
			}
			// data rows are numbered right after the header row
			i := row - ltable.HeaderRow - 1
			if i < 0 || i >= len(rows) {
				return CellStyle
			}
			return cellStyle(rows[i], col)
		}).
		String()
}

// cellStyle styles one cell: result cells by sign, simulated rows in the
// warning color so hypothetical figures never look real.
func cellStyle(row viewmodel.Row, col int) lipgloss.Style {
	switch {
	case row.Placeholder:
		return CellStyle.Foreground(ColorMuted).Italic(true)
	case col == resultColumn:
		s := CellStyle.Foreground(gainStyle(row.Gain).GetForeground())
		if row.Simulated {
			s = s.Italic(true)
		}
		return s
	case row.Simulated:
		return CellStyle.Foreground(ColorWarning).Italic(true)
	}
	return CellStyle
}

// Package viewmodel holds the portfolio state the UI renders.
//
// The view-model is the only shared mutable resource between the portfolio
// loader, the order workflow and the simulation workflow. Each of them must
// claim a ticket before writing; only the holder of the latest ticket may
// replace the content.
package viewmodel

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jonandersen/chicoin/internal/pipeline"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// LoaderPortfolio is the loader name portfolio tickets are issued under.
const LoaderPortfolio = "portfolio"

// PlaceholderText is shown instead of an empty table body.
const PlaceholderText = "No assets in portfolio."

// SimulatedTag marks every row and total computed from hypothetical prices.
const SimulatedTag = "[SIM]"

// Mode tells whether the content reflects the server or a what-if.
type Mode int

const (
	Live Mode = iota
	Simulated
)

func (m Mode) String() string {
	if m == Simulated {
		return "simulated"
	}
	return "live"
}

// Row is one rendered table row.
type Row struct {
	ProductID       int64
	Ticker          string
	ProductName     string
	Quantity        string
	UnitPrice       string
	MarketValue     string
	FinancialResult string
	Gain            bool
	Simulated       bool
	Placeholder     bool
}

// Cells returns the row in column order.
func (r Row) Cells() []string {
	if r.Placeholder {
		return []string{"", r.ProductName, "", "", "", ""}
	}
	ticker := r.Ticker
	if r.Simulated {
		ticker = SimulatedTag + " " + ticker
	}
	return []string{ticker, r.ProductName, r.Quantity, r.UnitPrice, r.MarketValue, r.FinancialResult}
}

// Columns are the table headers, in Cells order.
var Columns = []string{"Ticker", "Product", "Qty", "Unit Price", "Market Value", "Result"}

// Totals are always derived from the displayed positions.
type Totals struct {
	MarketValue     decimal.Decimal
	FinancialResult decimal.Decimal
}

// Gain reports whether the total result is non-negative.
func (t Totals) Gain() bool {
	return !t.FinancialResult.IsNegative()
}

// Portfolio is the portfolio view-model.
type Portfolio struct {
	seq    *pipeline.Sequencer
	logger zerolog.Logger

	loaded      bool
	mode        Mode
	portfolioID int64
	positions   []portalapi.Position
}

// New creates an empty view-model drawing tickets from seq.
func New(seq *pipeline.Sequencer, logger zerolog.Logger) *Portfolio {
	if seq == nil {
		seq = pipeline.NewSequencer()
	}
	return &Portfolio{seq: seq, logger: logger}
}

// Sequencer returns the sequencer shared with the portfolio loader.
func (p *Portfolio) Sequencer() *pipeline.Sequencer {
	return p.seq
}

// Claim takes ownership of the next write on behalf of view. Every
// previously issued ticket becomes stale.
func (p *Portfolio) Claim(view string) pipeline.Ticket {
	return p.seq.Next(LoaderPortfolio, view)
}

// Owns reports whether t is still the latest ticket.
func (p *Portfolio) Owns(t pipeline.Ticket) bool {
	return t.Loader == LoaderPortfolio && p.seq.IsLatest(t)
}

// ApplyLive replaces the content with authoritative data and returns to
// Live mode. Stale tickets are ignored and reported as false.
func (p *Portfolio) ApplyLive(t pipeline.Ticket, pf *portalapi.Portfolio) bool {
	return p.apply(t, pf, Live)
}

// ApplySimulated replaces the content with a what-if revaluation.
func (p *Portfolio) ApplySimulated(t pipeline.Ticket, pf *portalapi.Portfolio) bool {
	return p.apply(t, pf, Simulated)
}

func (p *Portfolio) apply(t pipeline.Ticket, pf *portalapi.Portfolio, mode Mode) bool {
	if !p.Owns(t) {
		p.logger.Debug().Uint64("seq", t.Seq).Str("mode", mode.String()).Msg("ignoring stale portfolio write")
		return false
	}
	if pf == nil {
		return false
	}

	positions := make([]portalapi.Position, len(pf.Positions))
	copy(positions, pf.Positions)

	p.loaded = true
	p.mode = mode
	p.portfolioID = pf.PortfolioID
	p.positions = positions

	totals := p.Totals()
	if !totals.MarketValue.Equal(pf.TotalMarketValue) || !totals.FinancialResult.Equal(pf.TotalFinancialResult) {
		p.logger.Warn().
			Str("server_market_value", pf.TotalMarketValue.String()).
			Str("derived_market_value", totals.MarketValue.String()).
			Str("server_result", pf.TotalFinancialResult.String()).
			Str("derived_result", totals.FinancialResult.String()).
			Msg("server totals disagree with positions, showing derived totals")
	}
	return true
}

// Discard drops the content and invalidates every outstanding ticket, so a
// late response cannot resurrect it.
func (p *Portfolio) Discard() {
	p.seq.Next(LoaderPortfolio, "")
	p.loaded = false
	p.mode = Live
	p.portfolioID = 0
	p.positions = nil
}

// Loaded reports whether any content has been applied.
func (p *Portfolio) Loaded() bool {
	return p.loaded
}

// Mode returns the current mode.
func (p *Portfolio) Mode() Mode {
	return p.mode
}

// PortfolioID returns the identifier of the displayed portfolio.
func (p *Portfolio) PortfolioID() int64 {
	return p.portfolioID
}

// Positions returns a copy of the displayed positions in server order.
func (p *Portfolio) Positions() []portalapi.Position {
	out := make([]portalapi.Position, len(p.positions))
	copy(out, p.positions)
	return out
}

// Totals sums the displayed positions.
func (p *Portfolio) Totals() Totals {
	t := Totals{MarketValue: decimal.Zero, FinancialResult: decimal.Zero}
	for _, pos := range p.positions {
		t.MarketValue = t.MarketValue.Add(pos.MarketValue)
		t.FinancialResult = t.FinancialResult.Add(pos.FinancialResult)
	}
	return t
}

// Rows renders the positions. An empty portfolio yields a single
// placeholder row.
func (p *Portfolio) Rows() []Row {
	if len(p.positions) == 0 {
		return []Row{{ProductName: PlaceholderText, Placeholder: true}}
	}

	simulated := p.mode == Simulated
	rows := make([]Row, 0, len(p.positions))
	for _, pos := range p.positions {
		rows = append(rows, Row{
			ProductID:       pos.ProductID,
			Ticker:          pos.Ticker,
			ProductName:     pos.ProductName,
			Quantity:        portalapi.FormatQuantity(pos.Quantity),
			UnitPrice:       portalapi.FormatMoney(pos.UnitPrice()),
			MarketValue:     portalapi.FormatMoney(pos.MarketValue),
			FinancialResult: portalapi.FormatGainLoss(pos.FinancialResult),
			Gain:            !pos.FinancialResult.IsNegative(),
			Simulated:       simulated,
		})
	}
	return rows
}

// TotalsLine renders the derived totals.
func (p *Portfolio) TotalsLine() string {
	t := p.Totals()
	line := fmt.Sprintf("Total: %s  Result: %s", portalapi.FormatMoney(t.MarketValue), portalapi.FormatGainLoss(t.FinancialResult))
	if p.mode == Simulated {
		line = SimulatedTag + " " + line
	}
	return line
}

// TableView renders the table as plain text. The output depends only on the
// view-model content, so equal content always renders byte-identical text.
func (p *Portfolio) TableView() string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	writeRow(w, Columns)
	for _, row := range p.Rows() {
		writeRow(w, row.Cells())
	}
	_ = w.Flush()

	buf.WriteString(p.TotalsLine())
	buf.WriteString("\n")
	return buf.String()
}

func writeRow(w *tabwriter.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			_, _ = fmt.Fprint(w, "\t")
		}
		_, _ = fmt.Fprint(w, c)
	}
	_, _ = fmt.Fprintln(w)
}

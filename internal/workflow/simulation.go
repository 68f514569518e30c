package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jonandersen/chicoin/internal/pipeline"
	"github.com/jonandersen/chicoin/internal/viewmodel"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// Errors returned by the simulation workflow.
var (
	ErrSimulationActive = errors.New("a simulation is already active: revert it first")
	ErrNotBuilding      = errors.New("no simulation is being prepared")
	ErrNotSimulated     = errors.New("the portfolio is not simulated")
)

// SimulationState is the state of the simulation workflow.
type SimulationState int

const (
	SimLive SimulationState = iota
	SimBuilding
	SimSubmitted
	SimSimulated
)

func (s SimulationState) String() string {
	switch s {
	case SimLive:
		return "live"
	case SimBuilding:
		return "building"
	case SimSubmitted:
		return "submitted"
	case SimSimulated:
		return "simulated"
	}
	return fmt.Sprintf("SimulationState(%d)", int(s))
}

// DraftOverride is one editable hypothetical price.
type DraftOverride struct {
	ProductID int64
	Ticker    string
	Quantity  decimal.Decimal
	Price     decimal.Decimal
}

// SimulationAPI is the slice of the portal client the simulation needs.
type SimulationAPI interface {
	SimulatePortfolio(ctx context.Context, overrides portalapi.PriceOverrideSet) (*portalapi.Portfolio, error)
}

// SimulationEvent is the outcome of the what-if request.
type SimulationEvent struct {
	Ticket    pipeline.Ticket
	Portfolio *portalapi.Portfolio
	Err       error
}

// SimulationStep performs the what-if request.
type SimulationStep func(ctx context.Context) SimulationEvent

// SimulationWorkflow drives what-if revaluations of the displayed portfolio.
type SimulationWorkflow struct {
	api    SimulationAPI
	vm     *viewmodel.Portfolio
	logger zerolog.Logger

	state   SimulationState
	drafts  []DraftOverride
	pending pipeline.Ticket
}

// NewSimulationWorkflow creates a workflow writing into vm.
func NewSimulationWorkflow(api SimulationAPI, vm *viewmodel.Portfolio, logger zerolog.Logger) *SimulationWorkflow {
	return &SimulationWorkflow{api: api, vm: vm, logger: logger}
}

// State returns the current state.
func (w *SimulationWorkflow) State() SimulationState {
	return w.state
}

// RevertAvailable reports whether the revert control must be shown.
func (w *SimulationWorkflow) RevertAvailable() bool {
	return w.vm.Mode() == viewmodel.Simulated
}

// Open builds one draft per Live position, defaulting each price to
// marketValue / quantity. It refuses when there is nothing to simulate.
func (w *SimulationWorkflow) Open() ([]DraftOverride, error) {
	if w.state == SimSubmitted || w.state == SimSimulated {
		return nil, ErrSimulationActive
	}
	if !w.vm.Loaded() || w.vm.Mode() != viewmodel.Live {
		w.state = SimLive
		return nil, portalapi.Preconditionf("Portfolio is not loaded yet.")
	}

	positions := w.vm.Positions()
	if len(positions) == 0 {
		w.state = SimLive
		return nil, portalapi.Preconditionf("There are no positions to simulate.")
	}

	drafts := make([]DraftOverride, len(positions))
	for i, pos := range positions {
		drafts[i] = DraftOverride{
			ProductID: pos.ProductID,
			Ticker:    pos.Ticker,
			Quantity:  pos.Quantity,
			Price:     pos.ExactUnitPrice(),
		}
	}
	w.drafts = drafts
	w.state = SimBuilding
	return w.Drafts(), nil
}

// Drafts returns a copy of the current drafts.
func (w *SimulationWorkflow) Drafts() []DraftOverride {
	out := make([]DraftOverride, len(w.drafts))
	copy(out, w.drafts)
	return out
}

// SetPrice edits the i-th draft. Values are validated on Submit.
func (w *SimulationWorkflow) SetPrice(i int, price decimal.Decimal) error {
	if w.state != SimBuilding {
		return ErrNotBuilding
	}
	if i < 0 || i >= len(w.drafts) {
		return fmt.Errorf("override index %d out of range", i)
	}
	w.drafts[i].Price = price
	return nil
}

// SetPriceFor edits the draft of productID.
func (w *SimulationWorkflow) SetPriceFor(productID int64, price decimal.Decimal) error {
	for i, d := range w.drafts {
		if d.ProductID == productID {
			return w.SetPrice(i, price)
		}
	}
	if w.state != SimBuilding {
		return ErrNotBuilding
	}
	return portalapi.Preconditionf("product %d is not in the portfolio", productID)
}

// Overrides returns the drafts as a request body.
func (w *SimulationWorkflow) Overrides() portalapi.PriceOverrideSet {
	set := portalapi.PriceOverrideSet{Overrides: make([]portalapi.PriceOverride, len(w.drafts))}
	for i, d := range w.drafts {
		set.Overrides[i] = portalapi.PriceOverride{ProductID: d.ProductID, HypotheticalPrice: d.Price}
	}
	return set
}

// Cancel closes the override editor without submitting.
func (w *SimulationWorkflow) Cancel() {
	if w.state == SimBuilding {
		w.state = SimLive
		w.drafts = nil
	}
}

// Submit sends the current drafts on behalf of view.
func (w *SimulationWorkflow) Submit(view string) (SimulationStep, error) {
	return w.SubmitSet(view, w.Overrides())
}

// SubmitSet validates set against the Live positions and returns the step
// that sends it. The set must hold exactly one entry per position, in
// position order, with no negative price. Nothing is sent otherwise.
func (w *SimulationWorkflow) SubmitSet(view string, set portalapi.PriceOverrideSet) (SimulationStep, error) {
	if w.state != SimBuilding {
		return nil, ErrNotBuilding
	}
	if err := w.validate(set); err != nil {
		return nil, err
	}

	ticket := w.vm.Claim(view)
	w.pending = ticket
	w.state = SimSubmitted
	w.logger.Info().Int("overrides", len(set.Overrides)).Uint64("seq", ticket.Seq).Msg("submitting simulation")

	return func(ctx context.Context) SimulationEvent {
		pf, err := w.api.SimulatePortfolio(ctx, set)
		return SimulationEvent{Ticket: ticket, Portfolio: pf, Err: err}
	}, nil
}

func (w *SimulationWorkflow) validate(set portalapi.PriceOverrideSet) error {
	if !w.vm.Loaded() || w.vm.Mode() != viewmodel.Live {
		return portalapi.Preconditionf("Portfolio changed. Open the simulation again.")
	}
	positions := w.vm.Positions()
	if len(set.Overrides) != len(positions) {
		return portalapi.Preconditionf("Every position needs exactly one price (got %d, want %d).", len(set.Overrides), len(positions))
	}
	for i, o := range set.Overrides {
		if o.ProductID != positions[i].ProductID {
			return portalapi.Preconditionf("Price %d does not match position %s.", i+1, positions[i].Ticker)
		}
		if o.HypotheticalPrice.IsNegative() {
			return portalapi.Preconditionf("Price for %s cannot be negative.", positions[i].Ticker)
		}
	}
	return nil
}

// Handle applies the what-if response. It reports whether the view-model
// switched to Simulated. A failed request returns its error and leaves the
// Live content untouched. Responses for a view that is no longer active, or
// whose ticket lost ownership, are dropped silently.
func (w *SimulationWorkflow) Handle(ev SimulationEvent, activeView string) (bool, error) {
	if w.state != SimSubmitted || ev.Ticket != w.pending {
		return false, nil
	}
	w.drafts = nil
	w.pending = pipeline.Ticket{}

	if ev.Err != nil {
		w.state = SimLive
		w.logger.Warn().Err(ev.Err).Msg("simulation failed")
		return false, ev.Err
	}
	if ev.Ticket.View != activeView || !w.vm.ApplySimulated(ev.Ticket, ev.Portfolio) {
		w.state = SimLive
		return false, nil
	}

	w.state = SimSimulated
	return true, nil
}

// Revert drops the simulated content. The caller must then rerun the
// portfolio loader from scratch.
func (w *SimulationWorkflow) Revert() error {
	if w.state != SimSimulated && w.vm.Mode() != viewmodel.Simulated {
		return ErrNotSimulated
	}
	w.vm.Discard()
	w.state = SimLive
	w.drafts = nil
	w.logger.Info().Msg("simulation reverted")
	return nil
}

// Discard forgets any simulation in progress or displayed. It is called on
// navigation away from the portfolio views and on logout.
func (w *SimulationWorkflow) Discard() {
	if w.state == SimSubmitted || w.vm.Mode() == viewmodel.Simulated {
		w.vm.Discard()
	}
	w.state = SimLive
	w.drafts = nil
	w.pending = pipeline.Ticket{}
}

// Reset returns to Live without touching the view-model. It is used when an
// authoritative refresh is about to replace the content anyway.
func (w *SimulationWorkflow) Reset() {
	w.state = SimLive
	w.drafts = nil
	w.pending = pipeline.Ticket{}
}

// Run performs a whole simulation synchronously, overriding the prices of
// the given products and keeping the defaults for the rest.
func (w *SimulationWorkflow) Run(ctx context.Context, view string, prices map[int64]decimal.Decimal) error {
	if _, err := w.Open(); err != nil {
		return err
	}
	for id, price := range prices {
		if err := w.SetPriceFor(id, price); err != nil {
			w.Cancel()
			return err
		}
	}
	step, err := w.Submit(view)
	if err != nil {
		w.Cancel()
		return err
	}
	if _, err := w.Handle(step(ctx), view); err != nil {
		return err
	}
	if w.state != SimSimulated {
		return fmt.Errorf("simulation result was discarded")
	}
	return nil
}

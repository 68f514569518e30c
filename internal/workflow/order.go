// Package workflow implements the order and simulation state machines.
//
// Neither machine performs I/O while holding state. Each network call is
// returned to the caller as a step function; the caller runs it (off the UI
// loop in the TUI, inline in the CLI) and feeds the resulting event back
// through Handle.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// Errors returned by the order workflow.
var (
	ErrOrderInFlight = errors.New("an order is already being submitted")
	ErrNoIntent      = errors.New("no product selected")
)

// OrderState is the state of the order workflow.
type OrderState int

const (
	OrderIdle OrderState = iota
	OrderCapturing
	OrderResolving
	OrderSubmitting
	OrderSettled
)

func (s OrderState) String() string {
	switch s {
	case OrderIdle:
		return "idle"
	case OrderCapturing:
		return "capturing"
	case OrderResolving:
		return "resolving"
	case OrderSubmitting:
		return "submitting"
	case OrderSettled:
		return "settled"
	}
	return fmt.Sprintf("OrderState(%d)", int(s))
}

// OrderIntent is a pending buy of one product. The unit price is what the
// user saw; the server may price the order differently.
type OrderIntent struct {
	ID        uuid.UUID
	ProductID int64
	Ticker    string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// OrderAPI is the slice of the portal client the order workflow needs.
type OrderAPI interface {
	GetPortfolio(ctx context.Context) (*portalapi.Portfolio, error)
	CreateOrder(ctx context.Context, req portalapi.OrderRequest) (*portalapi.OrderResult, error)
}

// OrderStage tells which network call produced an event.
type OrderStage int

const (
	StageResolve OrderStage = iota
	StageSubmit
)

// OrderEvent is the outcome of one order step.
type OrderEvent struct {
	Attempt   uuid.UUID
	Stage     OrderStage
	Portfolio *portalapi.Portfolio
	Result    *portalapi.OrderResult
	Err       error
}

// OrderStep performs one network call of the workflow.
type OrderStep func(ctx context.Context) OrderEvent

// Settlement is the final outcome of an order attempt.
type Settlement struct {
	Intent  OrderIntent
	Success bool
	Message string
	Err     error
}

// Kind classifies a failed settlement.
func (s Settlement) Kind() portalapi.ErrorKind {
	return portalapi.KindOf(s.Err)
}

// Order messages shown to the user.
const (
	msgOrderExecuted   = "Order executed."
	msgSessionExpired  = "Session expired. Log in again to place orders."
	msgNoPortfolio     = "No portfolio found for this account."
	msgPortfolioFailed = "Could not load your portfolio"
)

// OrderWorkflow is the single-flight order state machine.
type OrderWorkflow struct {
	api    OrderAPI
	logger zerolog.Logger

	state  OrderState
	intent *OrderIntent
	last   *Settlement
}

// NewOrderWorkflow creates an idle order workflow.
func NewOrderWorkflow(api OrderAPI, logger zerolog.Logger) *OrderWorkflow {
	return &OrderWorkflow{api: api, logger: logger}
}

// State returns the current state.
func (w *OrderWorkflow) State() OrderState {
	return w.state
}

// InFlight reports whether a network call is outstanding.
func (w *OrderWorkflow) InFlight() bool {
	return w.state == OrderResolving || w.state == OrderSubmitting
}

// Intent returns the current intent, if any.
func (w *OrderWorkflow) Intent() (OrderIntent, bool) {
	if w.intent == nil {
		return OrderIntent{}, false
	}
	return *w.intent, true
}

// LastSettlement returns the outcome of the previous attempt.
func (w *OrderWorkflow) LastSettlement() (Settlement, bool) {
	if w.last == nil {
		return Settlement{}, false
	}
	return *w.last, true
}

// Capture starts a new attempt for product. Capturing again before
// confirming replaces the intent; capturing while a request is in flight is
// rejected with ErrOrderInFlight.
func (w *OrderWorkflow) Capture(product portalapi.Product) (OrderIntent, error) {
	if w.InFlight() {
		return OrderIntent{}, ErrOrderInFlight
	}
	if product.ProductID == 0 {
		return OrderIntent{}, portalapi.Preconditionf("product has no identifier")
	}

	w.intent = &OrderIntent{
		ID:        uuid.New(),
		ProductID: product.ProductID,
		Ticker:    product.Ticker,
		UnitPrice: product.LastPrice,
	}
	w.state = OrderCapturing
	w.logger.Debug().Str("intent", w.intent.ID.String()).Str("ticker", product.Ticker).Msg("order intent captured")
	return *w.intent, nil
}

// Cancel abandons a captured intent. It has no effect once a request is
// in flight.
func (w *OrderWorkflow) Cancel() {
	if w.state != OrderCapturing {
		return
	}
	w.intent = nil
	w.state = OrderIdle
}

// Confirm checks the local preconditions and moves to ResolvingPortfolio.
// A precondition failure leaves the intent in place so the user can fix
// the input; nothing is sent.
func (w *OrderWorkflow) Confirm(quantity, unitPrice decimal.Decimal) (OrderStep, error) {
	if w.InFlight() {
		return nil, ErrOrderInFlight
	}
	if w.state != OrderCapturing || w.intent == nil {
		return nil, ErrNoIntent
	}
	if !quantity.IsPositive() {
		return nil, portalapi.Preconditionf("Quantity must be greater than zero.")
	}
	if !unitPrice.IsPositive() {
		return nil, portalapi.Preconditionf("Unit price must be greater than zero.")
	}

	w.intent.Quantity = quantity
	w.intent.UnitPrice = unitPrice
	w.state = OrderResolving

	attempt := w.intent.ID
	return func(ctx context.Context) OrderEvent {
		pf, err := w.api.GetPortfolio(ctx)
		return OrderEvent{Attempt: attempt, Stage: StageResolve, Portfolio: pf, Err: err}
	}, nil
}

// Handle resumes the workflow with the outcome of a step. It returns the
// next step to run, or the settlement when the attempt is over. Events from
// other attempts or out of sequence are ignored (both results nil).
func (w *OrderWorkflow) Handle(ev OrderEvent) (OrderStep, *Settlement) {
	if w.intent == nil || ev.Attempt != w.intent.ID {
		return nil, nil
	}

	switch {
	case ev.Stage == StageResolve && w.state == OrderResolving:
		return w.handleResolved(ev)
	case ev.Stage == StageSubmit && w.state == OrderSubmitting:
		return nil, w.handleSubmitted(ev)
	}
	return nil, nil
}

func (w *OrderWorkflow) handleResolved(ev OrderEvent) (OrderStep, *Settlement) {
	if ev.Err != nil {
		return nil, w.settle(false, resolveFailureMessage(ev.Err), ev.Err)
	}
	if ev.Portfolio == nil || ev.Portfolio.PortfolioID == 0 {
		err := portalapi.Preconditionf("%s", msgNoPortfolio)
		return nil, w.settle(false, msgNoPortfolio, err)
	}

	intent := *w.intent
	req := portalapi.OrderRequest{
		PortfolioID: ev.Portfolio.PortfolioID,
		ProductID:   intent.ProductID,
		OrderType:   portalapi.OrderTypeBuy,
		Quantity:    intent.Quantity,
		UnitPrice:   intent.UnitPrice,
	}
	w.state = OrderSubmitting
	w.logger.Info().
		Str("intent", intent.ID.String()).
		Int64("portfolio_id", req.PortfolioID).
		Int64("product_id", req.ProductID).
		Str("quantity", req.Quantity.String()).
		Str("unit_price", req.UnitPrice.String()).
		Msg("submitting order")

	return func(ctx context.Context) OrderEvent {
		result, err := w.api.CreateOrder(ctx, req)
		return OrderEvent{Attempt: intent.ID, Stage: StageSubmit, Result: result, Err: err}
	}, nil
}

func (w *OrderWorkflow) handleSubmitted(ev OrderEvent) *Settlement {
	if ev.Err != nil {
		return w.settle(false, portalapi.UserMessage(ev.Err), ev.Err)
	}
	msg := msgOrderExecuted
	if ev.Result != nil && ev.Result.Message != "" {
		msg = ev.Result.Message
	}
	return w.settle(true, msg, nil)
}

func (w *OrderWorkflow) settle(success bool, msg string, err error) *Settlement {
	s := &Settlement{Intent: *w.intent, Success: success, Message: msg, Err: err}
	w.intent = nil
	w.state = OrderSettled
	w.last = s

	event := w.logger.Info()
	if !success {
		event = w.logger.Warn().Err(err).Str("kind", portalapi.KindOf(err).String())
	}
	event.Str("intent", s.Intent.ID.String()).Bool("success", success).Msg("order settled")
	return s
}

// Reset returns a settled workflow to Idle.
func (w *OrderWorkflow) Reset() {
	if w.state == OrderSettled {
		w.state = OrderIdle
	}
}

// Run drives one attempt to completion synchronously.
func (w *OrderWorkflow) Run(ctx context.Context, product portalapi.Product, quantity, unitPrice decimal.Decimal) (*Settlement, error) {
	if _, err := w.Capture(product); err != nil {
		return nil, err
	}
	step, err := w.Confirm(quantity, unitPrice)
	if err != nil {
		w.Cancel()
		return nil, err
	}
	for step != nil {
		next, settlement := w.Handle(step(ctx))
		if settlement != nil {
			w.Reset()
			return settlement, nil
		}
		step = next
	}
	return nil, fmt.Errorf("order workflow stopped in state %s", w.state)
}

func resolveFailureMessage(err error) string {
	var apiErr *portalapi.APIError
	switch {
	case portalapi.KindOf(err) == portalapi.KindAuthorization:
		return msgSessionExpired
	case errors.As(err, &apiErr) && apiErr.IsNotFound():
		return msgNoPortfolio
	}
	return msgPortfolioFailed + ": " + portalapi.UserMessage(err)
}

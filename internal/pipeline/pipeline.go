// Package pipeline implements the fetch, parse and render cycle shared by
// every data loader.
//
// A loader fetch runs off the UI loop and yields a Delivery. The Delivery is
// handed back to the UI loop, which renders it only if the fetch is still the
// latest one issued for that loader and the view that asked for it is still
// active. Failed fetches never render; the caller turns them into a toast.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Outcome of delivering a fetch result.
type Outcome int

const (
	// Rendered means the result replaced the visible state.
	Rendered Outcome = iota
	// Stale means a newer fetch for the same loader was issued meanwhile.
	Stale
	// Inactive means the issuing view is no longer the active one.
	Inactive
	// Failed means the fetch returned an error; nothing was rendered.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Rendered:
		return "rendered"
	case Stale:
		return "stale"
	case Inactive:
		return "inactive"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Delivery is a completed fetch waiting to be applied on the UI loop.
type Delivery interface {
	Ticket() Ticket
	Err() error
	Deliver(activeView string) Outcome
}

// Step performs the network part of a fetch. It must not touch UI state.
type Step func(ctx context.Context) Delivery

// Starter is anything that can begin a fetch for a view.
type Starter interface {
	Name() string
	Start(view string) (Ticket, Step)
}

// Loader binds a fetch function to a render function.
type Loader[T any] struct {
	name   string
	fetch  func(ctx context.Context) (T, error)
	render func(Ticket, T)
	seq    *Sequencer
	logger zerolog.Logger
}

// NewLoader creates a loader with its own sequencer.
func NewLoader[T any](name string, fetch func(ctx context.Context) (T, error), render func(Ticket, T)) *Loader[T] {
	return &Loader[T]{
		name:   name,
		fetch:  fetch,
		render: render,
		seq:    NewSequencer(),
		logger: zerolog.Nop(),
	}
}

// WithSequencer makes the loader draw tickets from seq, so that other
// writers of the same state compete for the same ordering.
func (l *Loader[T]) WithSequencer(seq *Sequencer) *Loader[T] {
	l.seq = seq
	return l
}

// WithLogger sets the logger used for delivery tracing.
func (l *Loader[T]) WithLogger(logger zerolog.Logger) *Loader[T] {
	l.logger = logger
	return l
}

// Name returns the loader name.
func (l *Loader[T]) Name() string {
	return l.name
}

// Start issues a ticket and returns the step that performs the fetch.
func (l *Loader[T]) Start(view string) (Ticket, Step) {
	ticket := l.seq.Next(l.name, view)
	step := func(ctx context.Context) Delivery {
		value, err := l.fetch(ctx)
		return &result[T]{loader: l, ticket: ticket, value: value, err: err}
	}
	return ticket, step
}

// Run fetches and delivers synchronously for view. It is used by one-shot
// CLI commands where the view never changes mid-flight.
func (l *Loader[T]) Run(ctx context.Context, view string) error {
	_, step := l.Start(view)
	d := step(ctx)
	if d.Deliver(view) == Failed {
		return d.Err()
	}
	return nil
}

type result[T any] struct {
	loader *Loader[T]
	ticket Ticket
	value  T
	err    error
}

func (r *result[T]) Ticket() Ticket { return r.ticket }
func (r *result[T]) Err() error     { return r.err }

// Deliver applies the result if it still owns its loader and its view.
// Staleness is checked first so superseded failures stay silent.
func (r *result[T]) Deliver(activeView string) Outcome {
	outcome := r.outcome(activeView)
	if outcome == Rendered {
		r.loader.render(r.ticket, r.value)
	}

	event := r.loader.logger.Debug()
	if outcome == Failed {
		event = r.loader.logger.Warn().Err(r.err)
	}
	event.
		Str("loader", r.ticket.Loader).
		Uint64("seq", r.ticket.Seq).
		Str("view", r.ticket.View).
		Str("outcome", outcome.String()).
		Msg("delivery")

	return outcome
}

func (r *result[T]) outcome(activeView string) Outcome {
	switch {
	case !r.loader.seq.IsLatest(r.ticket):
		return Stale
	case r.err != nil:
		return Failed
	case r.ticket.View != activeView:
		return Inactive
	}
	return Rendered
}

// Registry looks up loaders by name.
type Registry struct {
	loaders map[string]Starter
}

// NewRegistry creates a registry holding the given loaders.
func NewRegistry(loaders ...Starter) *Registry {
	r := &Registry{loaders: make(map[string]Starter, len(loaders))}
	for _, l := range loaders {
		r.Register(l)
	}
	return r
}

// Register adds or replaces a loader.
func (r *Registry) Register(l Starter) {
	r.loaders[l.Name()] = l
}

// StartAll starts every named loader for view, skipping unknown names.
func (r *Registry) StartAll(view string, names []string) []Step {
	steps := make([]Step, 0, len(names))
	for _, name := range names {
		l, ok := r.loaders[name]
		if !ok {
			continue
		}
		_, step := l.Start(view)
		steps = append(steps, step)
	}
	return steps
}

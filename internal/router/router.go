// Package router is the view state machine. Each role sees its own set of
// views; activating a view reports the loaders bound to it.
package router

import (
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// View names a screen.
type View string

const (
	ViewOverview   View = "overview"
	ViewInvest     View = "invest"
	ViewStatement  View = "statement"
	ViewProfile    View = "profile"
	ViewClients    View = "clients"
	ViewCompliance View = "compliance"
	ViewProducts   View = "products"
)

// Loader names, shared with the pipeline registry.
const (
	LoaderPortfolio = "portfolio"
	LoaderAccount   = "account"
	LoaderProducts  = "products"
	LoaderClients   = "clients"
	LoaderProfile   = "profile"
)

// Title returns the tab label of the view.
func (v View) Title() string {
	switch v {
	case ViewOverview:
		return "Overview"
	case ViewInvest:
		return "Invest"
	case ViewStatement:
		return "Statement"
	case ViewProfile:
		return "Profile"
	case ViewClients:
		return "Clients"
	case ViewCompliance:
		return "Compliance"
	case ViewProducts:
		return "Products"
	}
	return string(v)
}

// HoldsPortfolio reports whether the portfolio table is shown on v.
// Leaving such a view discards any simulation.
func (v View) HoldsPortfolio() bool {
	return v == ViewOverview || v == ViewInvest
}

type binding struct {
	view    View
	loaders []string
}

var roleViews = map[portalapi.Role][]binding{
	portalapi.RoleClient: {
		{ViewOverview, []string{LoaderAccount, LoaderPortfolio}},
		{ViewInvest, []string{LoaderProducts, LoaderPortfolio}},
		{ViewStatement, []string{LoaderAccount}},
		{ViewProfile, []string{LoaderProfile}},
	},
	portalapi.RoleAdvisor: {
		{ViewOverview, []string{LoaderClients}},
		{ViewClients, []string{LoaderClients}},
		{ViewCompliance, []string{LoaderClients}},
		{ViewProducts, []string{LoaderProducts}},
	},
}

// Transition describes one activation.
type Transition struct {
	From    View
	To      View
	Loaders []string
}

// LeftPortfolio reports whether the transition moved away from a view that
// shows the portfolio table.
func (t Transition) LeftPortfolio() bool {
	return t.From != "" && t.From.HoldsPortfolio() && t.From != t.To
}

// Router tracks the active view for one role.
type Router struct {
	bindings []binding
	active   View
}

// New creates a router for role. No view is active until Start.
func New(role portalapi.Role) *Router {
	return &Router{bindings: roleViews[role]}
}

// Views lists the views available to the role, in tab order.
func (r *Router) Views() []View {
	views := make([]View, len(r.bindings))
	for i, b := range r.bindings {
		views[i] = b.view
	}
	return views
}

// Default returns the initial view for the role.
func (r *Router) Default() View {
	if len(r.bindings) == 0 {
		return ""
	}
	return r.bindings[0].view
}

// Active returns the active view.
func (r *Router) Active() View {
	return r.active
}

// IsActive reports whether v is the active view.
func (r *Router) IsActive(v View) bool {
	return r.active != "" && r.active == v
}

// Start activates the default view.
func (r *Router) Start() (Transition, bool) {
	return r.Activate(r.Default())
}

// Activate switches to v and returns the loaders to run, each once.
// Unknown or role-forbidden views are ignored and report false.
// Re-activating the active view re-runs its loaders.
func (r *Router) Activate(v View) (Transition, bool) {
	b, ok := r.lookup(v)
	if !ok {
		return Transition{}, false
	}

	t := Transition{From: r.active, To: v, Loaders: dedupe(b.loaders)}
	r.active = v
	return t, true
}

// ActivateIndex activates the i-th view (0-based) in tab order.
func (r *Router) ActivateIndex(i int) (Transition, bool) {
	if i < 0 || i >= len(r.bindings) {
		return Transition{}, false
	}
	return r.Activate(r.bindings[i].view)
}

// Next activates the view after the active one, wrapping around.
func (r *Router) Next() (Transition, bool) {
	if len(r.bindings) == 0 {
		return Transition{}, false
	}
	return r.ActivateIndex((r.indexOf(r.active) + 1) % len(r.bindings))
}

// Prev activates the view before the active one, wrapping around.
func (r *Router) Prev() (Transition, bool) {
	if len(r.bindings) == 0 {
		return Transition{}, false
	}
	i := r.indexOf(r.active) - 1
	if i < 0 {
		i = len(r.bindings) - 1
	}
	return r.ActivateIndex(i)
}

func (r *Router) lookup(v View) (binding, bool) {
	for _, b := range r.bindings {
		if b.view == v {
			return b, true
		}
	}
	return binding{}, false
}

func (r *Router) indexOf(v View) int {
	for i, b := range r.bindings {
		if b.view == v {
			return i
		}
	}
	return 0
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

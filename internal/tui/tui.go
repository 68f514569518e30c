// Package tui is the interactive portal: role-based tabs over the data
// pipeline, the portfolio view-model and the order and simulation workflows.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jonandersen/chicoin/internal/notify"
	"github.com/jonandersen/chicoin/internal/pipeline"
	"github.com/jonandersen/chicoin/internal/router"
	"github.com/jonandersen/chicoin/internal/session"
	"github.com/jonandersen/chicoin/internal/viewmodel"
	"github.com/jonandersen/chicoin/internal/workflow"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

const requestTimeout = 30 * time.Second

// Portal is the slice of the portal client the TUI uses.
type Portal interface {
	GetPortfolio(ctx context.Context) (*portalapi.Portfolio, error)
	SimulatePortfolio(ctx context.Context, overrides portalapi.PriceOverrideSet) (*portalapi.Portfolio, error)
	CreateOrder(ctx context.Context, req portalapi.OrderRequest) (*portalapi.OrderResult, error)
	GetAccount(ctx context.Context) (*portalapi.Account, error)
	GetProfile(ctx context.Context) (*portalapi.Profile, error)
	Deposit(ctx context.Context, amount decimal.Decimal) (*portalapi.BalanceResult, error)
	Withdraw(ctx context.Context, amount decimal.Decimal) (*portalapi.BalanceResult, error)
	ListProducts(ctx context.Context) ([]portalapi.Product, error)
	ListClients(ctx context.Context) ([]portalapi.ClientRecord, error)
	UpdateComplianceStatus(ctx context.Context, clientID int64, update portalapi.ComplianceUpdate) error
}

// Options configures a Model.
type Options struct {
	API     Portal
	Session session.Session
	Logger  zerolog.Logger

	// ClearSession wipes the stored session. It runs on logout and when the
	// portal rejects the token.
	ClearSession func() error

	// Now is the clock used for toasts; defaults to time.Now.
	Now func() time.Time
}

// Model is the main bubbletea model for the TUI.
type Model struct {
	api          Portal
	sess         session.Session
	logger       zerolog.Logger
	clearSession func() error
	now          func() time.Time
	tick         func(time.Duration, func(time.Time) tea.Msg) tea.Cmd

	router  *router.Router
	loaders *pipeline.Registry
	vm      *viewmodel.Portfolio
	orders  *workflow.OrderWorkflow
	sim     *workflow.SimulationWorkflow
	toasts  *notify.Queue

	// Child view models
	portfolio *PortfolioModel
	account   *AccountModel
	products  *ProductsModel
	clients   *ClientsModel
	profile   *ProfileModel

	// Open forms; at most one is non-nil.
	investForm  *InvestForm
	simForm     *SimulationForm
	balanceForm *BalanceForm

	expired bool
	width   int
	height  int
	ready   bool
}

// New creates a new TUI model for an authenticated session.
func New(opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	vm := viewmodel.New(pipeline.NewSequencer(), opts.Logger)
	m := Model{
		api:          opts.API,
		sess:         opts.Session,
		logger:       opts.Logger,
		clearSession: opts.ClearSession,
		now:          now,
		tick:         tea.Tick,
		router:       router.New(opts.Session.Role),
		vm:           vm,
		orders:       workflow.NewOrderWorkflow(opts.API, opts.Logger),
		sim:          workflow.NewSimulationWorkflow(opts.API, vm, opts.Logger),
		toasts:       notify.NewQueueWithClock(now),
		portfolio:    NewPortfolioModel(vm),
		account:      NewAccountModel(),
		products:     NewProductsModel(),
		clients:      NewClientsModel(),
		profile:      NewProfileModel(),
	}

	m.loaders = pipeline.NewRegistry(
		pipeline.NewLoader(router.LoaderPortfolio, opts.API.GetPortfolio, m.portfolio.render).
			WithSequencer(vm.Sequencer()).WithLogger(opts.Logger),
		pipeline.NewLoader(router.LoaderAccount, opts.API.GetAccount, m.account.render).WithLogger(opts.Logger),
		pipeline.NewLoader(router.LoaderProducts, opts.API.ListProducts, m.products.render).WithLogger(opts.Logger),
		pipeline.NewLoader(router.LoaderClients, opts.API.ListClients, m.clients.render).WithLogger(opts.Logger),
		pipeline.NewLoader(router.LoaderProfile, opts.API.GetProfile, m.profile.render).WithLogger(opts.Logger),
	)
	return m
}

// Init implements tea.Model. It activates the role's default view.
func (m Model) Init() tea.Cmd {
	return m.navigate(m.router.Start())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		tableHeight := m.height - 14
		if tableHeight < 3 {
			tableHeight = 3
		}
		m.products.SetHeight(tableHeight / 2)
		m.clients.SetHeight(tableHeight)

	case LoaderResultMsg:
		return m, m.handleDelivery(msg.Delivery)

	case OrderEventMsg:
		return m, m.handleOrderEvent(msg.Event)

	case SimulationEventMsg:
		return m, m.handleSimulationEvent(msg.Event)

	case BalanceChangedMsg:
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		return m, tea.Batch(
			m.toast(notify.SeveritySuccess, msg.Result.Message),
			m.reload(router.LoaderAccount),
		)

	case ComplianceUpdatedMsg:
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		return m, tea.Batch(
			m.toast(notify.SeveritySuccess, fmt.Sprintf("%s marked %s.", msg.Client.Name, msg.Status)),
			m.reload(router.LoaderClients),
		)

	case ToastExpiredMsg:
		m.toasts.Expire(msg.ID)
		m.toasts.Prune(m.now())
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.expired {
		if msg.String() == "q" || msg.String() == "esc" {
			return m, tea.Quit
		}
		return m, nil
	}

	// Open forms consume all keys.
	switch {
	case m.investForm != nil:
		return m, m.handleInvestKey(msg)
	case m.simForm != nil:
		return m, m.handleSimulationKey(msg)
	case m.balanceForm != nil:
		return m, m.handleBalanceKey(msg)
	}

	active := m.router.Active()
	switch key := msg.String(); key {
	case "q":
		return m, tea.Quit
	case "L":
		m.logout()
		return m, tea.Quit
	case "tab", "right":
		return m, m.navigate(m.router.Next())
	case "shift+tab", "left":
		return m, m.navigate(m.router.Prev())
	case "r":
		return m, m.navigate(m.router.Activate(active))
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return m, m.navigate(m.router.ActivateIndex(int(key[0] - '1')))
	}

	if active.HoldsPortfolio() && !m.sess.IsAdvisor() {
		switch msg.String() {
		case "s":
			return m, m.openSimulation()
		case "v":
			return m, m.revert()
		}
	}

	switch active {
	case router.ViewInvest:
		switch msg.String() {
		case "b", "enter":
			return m, m.openInvest()
		}
		_, cmd := m.products.Update(msg)
		return m, cmd
	case router.ViewProducts:
		_, cmd := m.products.Update(msg)
		return m, cmd
	case router.ViewStatement:
		switch msg.String() {
		case "d":
			m.balanceForm = NewBalanceForm(Deposit)
		case "w":
			m.balanceForm = NewBalanceForm(Withdraw)
		}
	case router.ViewOverview, router.ViewClients:
		if m.sess.IsAdvisor() {
			return m, m.clients.UpdateAll(msg)
		}
	case router.ViewCompliance:
		switch msg.String() {
		case "a":
			return m, m.decide(portalapi.ComplianceApproved)
		case "x":
			return m, m.decide(portalapi.ComplianceRejected)
		}
		return m, m.clients.UpdateQueue(msg)
	}
	return m, nil
}

// navigate applies a router transition: it discards any simulation when the
// portfolio is left or about to be reloaded, closes open forms and starts
// the loaders bound to the target view.
func (m *Model) navigate(tr router.Transition, ok bool) tea.Cmd {
	if !ok {
		return nil
	}
	if tr.LeftPortfolio() || contains(tr.Loaders, router.LoaderPortfolio) {
		m.sim.Discard()
	}
	m.closeForms()
	m.logger.Debug().Str("from", string(tr.From)).Str("to", string(tr.To)).Strs("loaders", tr.Loaders).Msg("view activated")
	return m.startLoaders(tr.To, tr.Loaders)
}

func (m *Model) closeForms() {
	if m.investForm != nil && !m.investForm.Submitting {
		m.orders.Cancel()
	}
	m.investForm = nil
	if m.simForm != nil {
		m.sim.Cancel()
	}
	m.simForm = nil
	m.balanceForm = nil
}

// reload reruns loaders for the active view.
func (m *Model) reload(names ...string) tea.Cmd {
	return m.startLoaders(m.router.Active(), names)
}

func (m *Model) startLoaders(view router.View, names []string) tea.Cmd {
	if m.expired {
		return nil
	}
	for _, name := range names {
		m.markLoading(name)
	}
	steps := m.loaders.StartAll(string(view), names)
	cmds := make([]tea.Cmd, 0, len(steps))
	for _, step := range steps {
		cmds = append(cmds, runLoaderStep(step))
	}
	return tea.Batch(cmds...)
}

func runLoaderStep(step pipeline.Step) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return LoaderResultMsg{Delivery: step(ctx)}
	}
}

// markLoading shows a spinner text only where nothing is rendered yet.
func (m *Model) markLoading(name string) {
	switch name {
	case router.LoaderPortfolio:
		if !m.vm.Loaded() {
			m.portfolio.Err = nil
		}
	case router.LoaderAccount:
		if m.account.State == StateError {
			m.account.State = StateLoading
		}
	case router.LoaderProducts:
		if m.products.State == StateError {
			m.products.State = StateLoading
		}
	case router.LoaderClients:
		if m.clients.State == StateError {
			m.clients.State = StateLoading
		}
	case router.LoaderProfile:
		if m.profile.State == StateError {
			m.profile.State = StateLoading
		}
	}
}

func (m *Model) handleDelivery(d pipeline.Delivery) tea.Cmd {
	if d.Deliver(string(m.router.Active())) != pipeline.Failed {
		return nil
	}

	err := d.Err()
	switch d.Ticket().Loader {
	case router.LoaderPortfolio:
		m.portfolio.fail(err)
	case router.LoaderAccount:
		m.account.fail(err)
	case router.LoaderProducts:
		m.products.fail(err)
	case router.LoaderClients:
		m.clients.fail(err)
	case router.LoaderProfile:
		m.profile.fail(err)
	}
	return m.fail(err)
}

// fail surfaces an error as a toast. Authorization failures end the session.
func (m *Model) fail(err error) tea.Cmd {
	if portalapi.KindOf(err) == portalapi.KindAuthorization {
		return m.expire()
	}
	m.logger.Warn().Err(err).Str("kind", portalapi.KindOf(err).String()).Msg("request failed")
	return m.toast(notify.SeverityError, portalapi.UserMessage(err))
}

func (m *Model) toast(severity notify.Severity, message string) tea.Cmd {
	t := m.toasts.Push(message, severity)
	return m.tick(t.ExpiresAt().Sub(m.now()), func(time.Time) tea.Msg {
		return ToastExpiredMsg{ID: t.ID}
	})
}

// expire drops all session state after the portal rejected the token.
func (m *Model) expire() tea.Cmd {
	if m.expired {
		return nil
	}
	m.closeForms()
	m.sim.Discard()
	m.expired = true
	if m.clearSession != nil {
		if err := m.clearSession(); err != nil {
			m.logger.Error().Err(err).Msg("failed to clear session")
		}
	}
	m.logger.Warn().Msg("session rejected by the portal")
	return m.toast(notify.SeverityError, "Session expired. Log in again.")
}

func (m *Model) logout() {
	m.closeForms()
	m.sim.Discard()
	if m.clearSession != nil {
		if err := m.clearSession(); err != nil {
			m.logger.Error().Err(err).Msg("failed to clear session")
		}
	}
	m.logger.Info().Msg("logged out")
}

func (m *Model) openInvest() tea.Cmd {
	product, ok := m.products.Selected()
	if !ok {
		return nil
	}
	intent, err := m.orders.Capture(product)
	if err != nil {
		if errors.Is(err, workflow.ErrOrderInFlight) {
			return m.toast(notify.SeverityError, "An order is already being processed.")
		}
		return m.fail(err)
	}
	m.investForm = NewInvestForm(intent)
	return nil
}

func (m *Model) handleInvestKey(msg tea.KeyMsg) tea.Cmd {
	f := m.investForm
	if f.Submitting {
		return nil
	}
	switch msg.String() {
	case "esc":
		m.orders.Cancel()
		m.investForm = nil
		return nil
	case "enter":
		values, err := f.Values()
		if err != nil {
			f.Err = err.Error()
			return nil
		}
		step, err := m.orders.Confirm(values.Quantity, values.UnitPrice)
		if err != nil {
			f.Err = portalapi.UserMessage(err)
			return nil
		}
		f.Err = ""
		f.Submitting = true
		return RunOrderStep(step)
	}
	return f.Update(msg)
}

func (m *Model) handleOrderEvent(ev workflow.OrderEvent) tea.Cmd {
	next, settlement := m.orders.Handle(ev)
	if next != nil {
		return RunOrderStep(next)
	}
	if settlement == nil {
		return nil
	}

	m.investForm = nil
	m.orders.Reset()

	if !settlement.Success {
		if settlement.Kind() == portalapi.KindAuthorization {
			return m.expire()
		}
		return m.toast(notify.SeverityError, settlement.Message)
	}

	// The refresh below replaces any simulated content with live data.
	m.sim.Reset()
	return tea.Batch(
		m.toast(notify.SeveritySuccess, settlement.Message),
		m.reload(router.LoaderPortfolio, router.LoaderAccount),
	)
}

func (m *Model) openSimulation() tea.Cmd {
	drafts, err := m.sim.Open()
	if err != nil {
		if errors.Is(err, workflow.ErrSimulationActive) {
			return m.toast(notify.SeverityError, "A simulation is already shown. Press v to revert first.")
		}
		return m.fail(err)
	}
	m.simForm = NewSimulationForm(drafts)
	return nil
}

func (m *Model) handleSimulationKey(msg tea.KeyMsg) tea.Cmd {
	f := m.simForm
	switch msg.String() {
	case "esc":
		m.sim.Cancel()
		m.simForm = nil
		return nil
	case "enter":
		prices, err := f.Prices()
		if err != nil {
			f.Err = err.Error()
			return nil
		}
		for i, p := range prices {
			if err := m.sim.SetPrice(i, p); err != nil {
				f.Err = portalapi.UserMessage(err)
				return nil
			}
		}
		step, err := m.sim.Submit(string(m.router.Active()))
		if err != nil {
			f.Err = portalapi.UserMessage(err)
			return nil
		}
		m.simForm = nil
		return RunSimulation(step)
	}
	return f.Update(msg)
}

func (m *Model) handleSimulationEvent(ev workflow.SimulationEvent) tea.Cmd {
	applied, err := m.sim.Handle(ev, string(m.router.Active()))
	if err != nil {
		return m.fail(err)
	}
	if applied {
		return m.toast(notify.SeveritySuccess, "Showing simulated values.")
	}
	return nil
}

// revert drops the simulated content and reloads live data from scratch.
func (m *Model) revert() tea.Cmd {
	if !m.sim.RevertAvailable() {
		return nil
	}
	if err := m.sim.Revert(); err != nil {
		return m.fail(err)
	}
	return m.reload(router.LoaderPortfolio)
}

func (m *Model) handleBalanceKey(msg tea.KeyMsg) tea.Cmd {
	f := m.balanceForm
	switch msg.String() {
	case "esc":
		m.balanceForm = nil
		return nil
	case "enter":
		change, err := f.Amount()
		if err != nil {
			f.Err = err.Error()
			return nil
		}
		m.balanceForm = nil
		return ChangeBalance(m.api, f.Kind, change)
	}
	var cmd tea.Cmd
	f.Input, cmd = f.Input.Update(msg)
	return cmd
}

func (m *Model) decide(status portalapi.ComplianceStatus) tea.Cmd {
	client, ok := m.clients.SelectedQueued()
	if !ok {
		return nil
	}
	return UpdateCompliance(m.api, client, status)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	toasts := m.renderToasts()
	content := m.renderContent()

	// Calculate content height
	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if toasts != "" {
		contentHeight -= lipgloss.Height(toasts)
	}

	// Pad content to fill available space
	contentLines := strings.Split(content, "\n")
	for len(contentLines) < contentHeight {
		contentLines = append(contentLines, "")
	}
	if contentHeight > 0 && len(contentLines) > contentHeight {
		contentLines = contentLines[:contentHeight]
	}
	content = strings.Join(contentLines, "\n")

	out := header + "\n" + content + "\n"
	if toasts != "" {
		out += toasts + "\n"
	}
	return out + footer
}

func (m Model) renderHeader() string {
	title := HeaderStyle.Render("chicoin")

	var tabStrs []string
	for i, v := range m.router.Views() {
		style := lipgloss.NewStyle().Padding(0, 1)
		if m.router.IsActive(v) {
			style = style.Bold(true).Foreground(ColorPrimary)
		} else {
			style = style.Foreground(ColorMuted)
		}
		tabStrs = append(tabStrs, style.Render(fmt.Sprintf("[%d] %s", i+1, v.Title())))
	}

	headerContent := title + "  " + strings.Join(tabStrs, " ")
	if m.sess.DisplayName != "" {
		headerContent += "  " + LabelStyle.Render(m.sess.DisplayName)
	}

	// Pad to full width
	padding := m.width - lipgloss.Width(headerContent)
	if padding > 0 {
		headerContent += strings.Repeat(" ", padding)
	}

	return lipgloss.NewStyle().
		Background(ColorBackground).
		Width(m.width).
		Render(headerContent)
}

func (m Model) renderContent() string {
	if m.expired {
		return ContentStyle.Render(ErrorStyle.Render("Session expired.") + "\n\n" +
			LabelStyle.Render("Run 'chicoin login' and start the UI again. Press q to quit."))
	}

	var content string
	switch m.router.Active() {
	case router.ViewOverview:
		if m.sess.IsAdvisor() {
			content = m.clients.OverviewView()
		} else {
			content = m.account.Summary() + "\n\n" + m.portfolio.View()
		}
	case router.ViewInvest:
		content = m.products.View() + "\n\n" + m.portfolio.View()
	case router.ViewStatement:
		content = m.account.View()
	case router.ViewProfile:
		content = m.profile.View()
	case router.ViewClients:
		content = m.clients.ListView()
	case router.ViewCompliance:
		content = m.clients.QueueView()
	case router.ViewProducts:
		content = m.products.View()
	}

	switch {
	case m.investForm != nil:
		content = m.investForm.View() + "\n\n" + content
	case m.simForm != nil:
		content = m.simForm.View() + "\n\n" + content
	case m.balanceForm != nil:
		content = m.balanceForm.View() + "\n\n" + content
	}
	return ContentStyle.Render(content)
}

func (m Model) renderToasts() string {
	visible := m.toasts.Visible(m.now())
	if len(visible) == 0 {
		return ""
	}
	lines := make([]string, 0, len(visible))
	for _, t := range visible {
		style := ToastSuccessStyle
		if t.Severity == notify.SeverityError {
			style = ToastErrorStyle
		}
		lines = append(lines, style.Render(t.Message))
	}
	return lipgloss.NewStyle().PaddingLeft(2).Render(strings.Join(lines, "\n"))
}

// renderFooter renders the footer bar with key hints.
func (m Model) renderFooter() string {
	keys := m.footerKeys()

	var parts []string
	for _, k := range keys {
		parts = append(parts, KeyStyle.Render(k.key)+" "+DescStyle.Render(k.desc))
	}

	footerContent := strings.Join(parts, "  •  ")

	// Pad to full width
	padding := m.width - lipgloss.Width(footerContent)
	if padding > 0 {
		footerContent += strings.Repeat(" ", padding)
	}

	return lipgloss.NewStyle().
		Background(ColorBackground).
		Width(m.width).
		Render(footerContent)
}

type keyHint struct{ key, desc string }

func (m Model) footerKeys() []keyHint {
	if m.expired {
		return []keyHint{{"q", "quit"}}
	}
	switch {
	case m.investForm != nil, m.simForm != nil, m.balanceForm != nil:
		return []keyHint{{"enter", "confirm"}, {"esc", "cancel"}}
	}

	keys := []keyHint{{fmt.Sprintf("1-%d", len(m.router.Views())), "switch view"}}
	active := m.router.Active()
	if active.HoldsPortfolio() && !m.sess.IsAdvisor() {
		if m.sim.RevertAvailable() {
			keys = append(keys, keyHint{"v", "revert"})
		} else {
			keys = append(keys, keyHint{"s", "simulate"})
		}
	}
	switch active {
	case router.ViewInvest:
		keys = append(keys, keyHint{"↑/↓", "navigate"}, keyHint{"b", "buy"})
	case router.ViewStatement:
		keys = append(keys, keyHint{"d", "deposit"}, keyHint{"w", "withdraw"})
	case router.ViewCompliance:
		keys = append(keys, keyHint{"↑/↓", "navigate"}, keyHint{"a", "approve"}, keyHint{"x", "reject"})
	case router.ViewClients, router.ViewProducts:
		keys = append(keys, keyHint{"↑/↓", "navigate"})
	}
	return append(keys, keyHint{"r", "refresh"}, keyHint{"L", "logout"}, keyHint{"q", "quit"})
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jonandersen/chicoin/internal/pipeline"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// ClientsModel holds the advisor's client book. The compliance queue is
// the subset still waiting for a decision.
type ClientsModel struct {
	State   LoadState
	Clients []portalapi.ClientRecord
	Err     error

	All   table.Model
	Queue table.Model
	queue []portalapi.ClientRecord
}

func clientColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Name", Width: 22},
		{Title: "Email", Width: 26},
		{Title: "Document", Width: 16},
		{Title: "Compliance", Width: 13},
	}
}

// NewClientsModel creates the client panels.
func NewClientsModel() *ClientsModel {
	all := table.New(table.WithColumns(clientColumns()), table.WithFocused(true), table.WithHeight(10))
	all.SetStyles(TableStyles())
	queue := table.New(table.WithColumns(clientColumns()), table.WithFocused(true), table.WithHeight(10))
	queue.SetStyles(TableStyles())
	return &ClientsModel{All: all, Queue: queue}
}

// SetHeight sets both table heights.
func (m *ClientsModel) SetHeight(height int) {
	m.All.SetHeight(height)
	m.Queue.SetHeight(height)
}

func (m *ClientsModel) render(_ pipeline.Ticket, clients []portalapi.ClientRecord) {
	m.State = StateLoaded
	m.Clients = clients
	m.Err = nil

	m.queue = m.queue[:0]
	for _, c := range clients {
		if needsReview(c.ComplianceStatus) {
			m.queue = append(m.queue, c)
		}
	}
	m.All.SetRows(clientRows(m.Clients, "No clients registered."))
	m.Queue.SetRows(clientRows(m.queue, "No clients awaiting review."))
}

func (m *ClientsModel) fail(err error) {
	if m.State != StateLoaded {
		m.State = StateError
		m.Err = err
	}
}

func needsReview(s portalapi.ComplianceStatus) bool {
	return s == portalapi.CompliancePending || s == portalapi.ComplianceUnderReview
}

func clientRows(clients []portalapi.ClientRecord, placeholder string) []table.Row {
	if len(clients) == 0 {
		return []table.Row{{"", placeholder, "", "", ""}}
	}
	rows := make([]table.Row, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", c.ClientID),
			c.Name,
			c.Email,
			c.Document,
			string(c.ComplianceStatus),
		})
	}
	return rows
}

// KPIs returns the total number of clients and how many await review.
func (m *ClientsModel) KPIs() (total, pending int) {
	return len(m.Clients), len(m.queue)
}

// SelectedQueued returns the queued client under the cursor.
func (m *ClientsModel) SelectedQueued() (portalapi.ClientRecord, bool) {
	idx := m.Queue.Cursor()
	if idx < 0 || idx >= len(m.queue) {
		return portalapi.ClientRecord{}, false
	}
	return m.queue[idx], true
}

// UpdateAll handles navigation of the full list.
func (m *ClientsModel) UpdateAll(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.All, cmd = m.All.Update(msg)
	return cmd
}

// UpdateQueue handles navigation of the compliance queue.
func (m *ClientsModel) UpdateQueue(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.Queue, cmd = m.Queue.Update(msg)
	return cmd
}

func (m *ClientsModel) status() (string, bool) {
	switch m.State {
	case StateLoading:
		return "Loading clients...", true
	case StateError:
		return ErrorStyle.Render("Could not load clients: "+portalapi.UserMessage(m.Err)) + "\n\nPress 'r' to retry", true
	}
	return "", false
}

// OverviewView renders the advisor dashboard.
func (m *ClientsModel) OverviewView() string {
	if s, ok := m.status(); ok {
		return s
	}
	total, pending := m.KPIs()

	var b strings.Builder
	b.WriteString(SummaryStyle.Render("Dashboard"))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Clients: "))
	b.WriteString(ValueStyle.Render(fmt.Sprintf("%d", total)))
	b.WriteString("  ")
	b.WriteString(LabelStyle.Render("Pending compliance: "))
	if pending > 0 {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("%d", pending)))
	} else {
		b.WriteString(ValueStyle.Render("0"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.All.View())
	return b.String()
}

// ListView renders the full client list.
func (m *ClientsModel) ListView() string {
	if s, ok := m.status(); ok {
		return s
	}
	return SummaryStyle.Render("Clients") + "\n" + m.All.View()
}

// QueueView renders the compliance queue.
func (m *ClientsModel) QueueView() string {
	if s, ok := m.status(); ok {
		return s
	}
	return SummaryStyle.Render("Compliance queue") +
		LabelStyle.Render(fmt.Sprintf(" (%d)", len(m.queue))) + "\n" + m.Queue.View()
}

// UpdateCompliance returns a command storing an advisor decision.
func UpdateCompliance(api Portal, client portalapi.ClientRecord, status portalapi.ComplianceStatus) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := api.UpdateComplianceStatus(ctx, client.ClientID, portalapi.ComplianceUpdate{Status: status})
		return ComplianceUpdatedMsg{Client: client, Status: status, Err: err}
	}
}

package tui

import (
	"strings"

	"github.com/jonandersen/chicoin/internal/pipeline"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// ProfileModel holds the client's own profile.
type ProfileModel struct {
	State   LoadState
	Profile *portalapi.Profile
	Err     error
}

// NewProfileModel creates a profile panel.
func NewProfileModel() *ProfileModel {
	return &ProfileModel{}
}

func (m *ProfileModel) render(_ pipeline.Ticket, p *portalapi.Profile) {
	m.State = StateLoaded
	m.Profile = p
	m.Err = nil
}

func (m *ProfileModel) fail(err error) {
	if m.State != StateLoaded {
		m.State = StateError
		m.Err = err
	}
}

// View renders the profile.
func (m *ProfileModel) View() string {
	switch m.State {
	case StateLoading:
		return "Loading profile..."
	case StateError:
		return ErrorStyle.Render("Could not load profile: "+portalapi.UserMessage(m.Err)) + "\n\nPress 'r' to retry"
	}

	p := m.Profile
	var b strings.Builder
	b.WriteString(SummaryStyle.Render("Profile"))
	b.WriteString("\n\n")
	for _, f := range [][2]string{
		{"Name", p.Name},
		{"Email", p.Email},
		{"Document", p.Document},
	} {
		b.WriteString(LabelStyle.Render(f[0] + ": "))
		b.WriteString(ValueStyle.Render(f[1]))
		b.WriteString("\n")
	}
	b.WriteString(LabelStyle.Render("Compliance: "))
	status := string(p.ComplianceStatus)
	switch p.ComplianceStatus {
	case portalapi.ComplianceApproved:
		b.WriteString(GreenStyle.Render(status))
	case portalapi.ComplianceRejected:
		b.WriteString(RedStyle.Render(status))
	default:
		b.WriteString(WarningStyle.Render(status))
	}
	return b.String()
}

package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
)

var errDraftsDisabled = errors.New("draft storage is disabled")

type scalarField struct {
	label string
	limit int
	get   func(editor.Scalars) string
	set   func(*editor.Scalars, string)
}

var scalarFields = []scalarField{
	{"Title", 20, func(s editor.Scalars) string { return s.Title }, func(s *editor.Scalars, v string) { s.Title = v }},
	{"First name", 100, func(s editor.Scalars) string { return s.FirstName }, func(s *editor.Scalars, v string) { s.FirstName = v }},
	{"Last name", 100, func(s editor.Scalars) string { return s.LastName }, func(s *editor.Scalars, v string) { s.LastName = v }},
	{"Job title", 100, func(s editor.Scalars) string { return s.JobTitle }, func(s *editor.Scalars, v string) { s.JobTitle = v }},
	{"Location", 100, func(s editor.Scalars) string { return s.Location }, func(s *editor.Scalars, v string) { s.Location = v }},
	{"Country", 60, func(s editor.Scalars) string { return s.Country }, func(s *editor.Scalars, v string) { s.Country = v }},
	{"LinkedIn URL", 200, func(s editor.Scalars) string { return s.LinkedInURL }, func(s *editor.Scalars, v string) { s.LinkedInURL = v }},
	{"Buyer persona", 100, func(s editor.Scalars) string { return s.BuyerPersona }, func(s *editor.Scalars, v string) { s.BuyerPersona = v }},
	{"Stage", 30, func(s editor.Scalars) string { return s.Stage }, func(s *editor.Scalars, v string) { s.Stage = v }},
	{"Sub-status", 30, func(s editor.Scalars) string { return s.SubStatus }, func(s *editor.Scalars, v string) { s.SubStatus = v }},
}

func (m *Model) initFormInputs() {
	sc := m.session.Draft().Scalars()
	inputs := make([]textinput.Model, len(scalarFields))
	for i, f := range scalarFields {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = f.label
		inputs[i].CharLimit = f.limit
		inputs[i].SetValue(f.get(sc))
	}
	m.formInputs = inputs
	m.focusIndex = 0
	m.updateFormFocus()
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if m.viewMode == ViewFields && i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

// applyFormInputs writes the form back to the draft.
func (m *Model) applyFormInputs() {
	sc := m.session.Draft().Scalars()
	for i, f := range scalarFields {
		f.set(&sc, strings.TrimSpace(m.formInputs[i].Value()))
	}
	m.session.Draft().SetScalars(sc)
}

func (m Model) renderFieldsView() string {
	var s strings.Builder

	if m.session.Draft().ContactID() == uuid.Nil {
		s.WriteString(titleStyle.Render("NEW CONTACT"))
	} else {
		s.WriteString(titleStyle.Render("EDIT CONTACT"))
	}
	s.WriteString("\n\n")

	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	sc := m.session.Draft().Scalars()
	if sc.Stage != "" && !models.ValidSubStatus(sc.Stage, sc.SubStatus) {
		s.WriteString(warningStyle.Render("  sub-status does not belong to stage " + sc.Stage))
		s.WriteString("\n")
	}

	roles := m.session.Draft().GlobalRoles()
	s.WriteString("\nRoles: ")
	if len(roles) == 0 {
		s.WriteString("none")
	} else {
		s.WriteString(strings.Join(roleLabels(roles), ", "))
	}
	s.WriteString("\n")

	s.WriteString(m.renderEditHelp())
	return s.String()
}

func roleLabels(roles []models.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, strings.ReplaceAll(string(r), "_", " "))
	}
	return out
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Alt+1-8: Toggle role",
		"Ctrl+N: Next view",
		"Ctrl+S: Save",
		"Ctrl+D: Save draft",
		"Ctrl+C: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleFieldsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex - 1 + len(m.formInputs)) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	}

	if msg.Alt && len(msg.Runes) == 1 {
		if i := int(msg.Runes[0] - '1'); i >= 0 && i < len(models.AllRoles) {
			m.err = m.session.Draft().ToggleGlobalRole(models.AllRoles[i])
			return m, nil
		}
	}

	// Update current input
	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	m.applyFormInputs()
	return m, cmd
}

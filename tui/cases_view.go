// ABOUTME: TUI view for per-case role assignment
// ABOUTME: Toggles roles locally and saves one case at a time in the background
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
)

type caseSavedMsg struct {
	caseID uuid.UUID
	title  string
	err    error
}

func hasRole(roles []models.Role, r models.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

func (m Model) renderCasesView() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("CASE ROLES"))
	s.WriteString("\n\n")

	cases := m.session.CaseRoles().Cases()
	if len(cases) == 0 {
		s.WriteString(statusStyle.Render("This contact is not linked to any case."))
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("Ctrl+N: Next view"))
		return s.String()
	}

	for i, c := range cases {
		header := fmt.Sprintf("%s (%s)", c.Case.Title, c.Case.Stage)
		switch {
		case c.Saving:
			header += statusStyle.Render("  saving...")
		case c.Dirty:
			header += dirtyStyle.Render("  ● unsaved")
		}
		if i == m.selectedCase {
			header = selectedStyle.Render("▶ " + header)
		} else {
			header = "  " + header
		}
		s.WriteString(header)
		s.WriteString("\n")

		if i == m.selectedCase {
			for j, r := range models.AllRoles {
				box := "[ ]"
				if hasRole(c.LocalRoles, r) {
					box = "[x]"
				}
				line := fmt.Sprintf("    %s %s", box, strings.ReplaceAll(string(r), "_", " "))
				if j == m.selectedRole {
					line = selectedStyle.Render(line)
				}
				s.WriteString(line)
				s.WriteString("\n")
			}
		}
		if c.LastError != "" {
			s.WriteString(errorStyle.Render("    save failed: " + c.LastError))
			s.WriteString("\n")
		}
	}

	help := []string{"Tab: Case", "↑/↓: Role", "Space: Toggle", "s: Save case"}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return s.String()
}

func (m Model) handleCasesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cases := m.session.CaseRoles().Cases()
	if len(cases) == 0 {
		return m, nil
	}
	if m.selectedCase >= len(cases) {
		m.selectedCase = len(cases) - 1
	}
	current := cases[m.selectedCase]

	switch msg.String() {
	case "tab":
		m.selectedCase = (m.selectedCase + 1) % len(cases)
	case "shift+tab":
		m.selectedCase = (m.selectedCase - 1 + len(cases)) % len(cases)
	case "up", "k":
		if m.selectedRole > 0 {
			m.selectedRole--
		}
	case "down", "j":
		if m.selectedRole < len(models.AllRoles)-1 {
			m.selectedRole++
		}
	case " ", "space", "x":
		m.err = m.session.CaseRoles().Toggle(current.Case.ID, models.AllRoles[m.selectedRole])
	case "s":
		if current.Saving {
			m.err = editor.ErrSaveInFlight
			return m, nil
		}
		return m, m.saveCaseCmd(current.Case)
	}
	return m, nil
}

func (m Model) saveCaseCmd(c models.Case) tea.Cmd {
	tracker := m.session.CaseRoles()
	ctx := m.ctx
	return func() tea.Msg {
		return caseSavedMsg{caseID: c.ID, title: c.Title, err: tracker.Save(ctx, c.ID)}
	}
}

func (m Model) handleCaseSaved(msg caseSavedMsg) (tea.Model, tea.Cmd) {
	m.setResult("roles saved for "+msg.title, msg.err)
	return m, nil
}

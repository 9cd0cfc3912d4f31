// ABOUTME: TUI view for resolving a company entry against the directory
// ABOUTME: Debounced search results, candidate selection and create-new confirmation
package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/contactdesk/editor"
)

type searchDoneMsg struct{}

type companyCreatedMsg struct {
	err error
}

func (m Model) openCompanySearch() (tea.Model, tea.Cmd) {
	if err := m.session.Company().Activate(m.selectedRow); err != nil {
		m.err = err
		return m, nil
	}
	m.viewMode = ViewCompany
	m.candidate = 0
	m.err = nil
	m.searchInput.SetValue(m.session.Company().View().Query)
	m.searchInput.CursorEnd()
	focus := m.searchInput.Focus()
	return m, tea.Batch(focus, m.typeCmd())
}

// typeCmd sends the current text to the workflow and waits for its search.
func (m Model) typeCmd() tea.Cmd {
	if err := m.session.Company().Type(m.searchInput.Value()); err != nil {
		return nil
	}
	wf := m.session.Company()
	return func() tea.Msg {
		wf.Wait()
		return searchDoneMsg{}
	}
}

func (m *Model) clampCandidate() {
	n := len(m.session.Company().View().Candidates)
	if m.candidate >= n {
		m.candidate = n - 1
	}
	if m.candidate < 0 {
		m.candidate = 0
	}
}

func (m *Model) leaveCompanySearch() {
	m.viewMode = ViewEntries
	m.searchInput.Blur()
}

func (m Model) renderCompanyView() string {
	var s strings.Builder
	w := m.session.Company().View()

	switch w.State {
	case editor.StateCreatingNew:
		s.WriteString(titleStyle.Render("NEW COMPANY"))
		s.WriteString("\n\n")
		fmt.Fprintf(&s, "Create %q in the directory?\n", strings.TrimSpace(w.Query))
		if w.Creating {
			s.WriteString(statusStyle.Render("creating..."))
			s.WriteString("\n")
		}
		if w.CreateError != "" {
			s.WriteString(errorStyle.Render(w.CreateError))
			s.WriteString("\n")
		}
		s.WriteString(helpStyle.Render("Enter: Create • Esc: Back"))
		return s.String()
	}

	s.WriteString(titleStyle.Render("FIND COMPANY"))
	s.WriteString("\n\n")
	s.WriteString(m.searchInput.View())
	s.WriteString("\n\n")

	switch {
	case w.Pending:
		s.WriteString(statusStyle.Render("searching..."))
		s.WriteString("\n")
	case w.SearchError != "":
		s.WriteString(errorStyle.Render("search failed: " + w.SearchError))
		s.WriteString("\n")
	}

	for i, c := range w.Candidates {
		line := "  " + c.Name
		if c.Industry != "" {
			line += statusStyle.Render(" · " + c.Industry)
		}
		if i == m.candidate {
			line = selectedStyle.Render("▶ " + c.Name)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}
	if w.CanCreate {
		fmt.Fprintf(&s, "\n  + Create new company %q (Ctrl+A)\n", strings.TrimSpace(w.Query))
	}

	s.WriteString(helpStyle.Render("↑/↓: Candidate • Enter: Select • Esc: Keep text"))
	return s.String()
}

func (m Model) handleCompanyKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	wf := m.session.Company()
	if wf.State() == editor.StateCreatingNew {
		switch msg.String() {
		case "esc":
			wf.Cancel()
			m.leaveCompanySearch()
		case "enter":
			return m, m.confirmCmd()
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.err = wf.Blur()
		m.leaveCompanySearch()
		return m, nil
	case "up":
		if m.candidate > 0 {
			m.candidate--
		}
		return m, nil
	case "down":
		if m.candidate < len(wf.View().Candidates)-1 {
			m.candidate++
		}
		return m, nil
	case "ctrl+a":
		m.err = wf.RequestCreate()
		return m, nil
	case "enter":
		if len(wf.View().Candidates) > 0 {
			if err := wf.Select(m.candidate); err != nil {
				m.err = err
				return m, nil
			}
			m.leaveCompanySearch()
			return m, nil
		}
		if wf.CanCreate() {
			m.err = wf.RequestCreate()
		}
		return m, nil
	}

	var cmd tea.Cmd
	before := m.searchInput.Value()
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() != before {
		m.candidate = 0
		return m, tea.Batch(cmd, m.typeCmd())
	}
	return m, cmd
}

func (m Model) confirmCmd() tea.Cmd {
	wf := m.session.Company()
	ctx := m.ctx
	return func() tea.Msg {
		return companyCreatedMsg{err: wf.Confirm(ctx, "", "")}
	}
}

func (m Model) handleCompanyCreated(msg companyCreatedMsg) (tea.Model, tea.Cmd) {
	var rerr *editor.ResolutionError
	switch {
	case msg.err == nil:
		m.setResult("company created", nil)
		m.leaveCompanySearch()
	case errors.As(msg.err, &rerr):
		// stays in creating_new; the view shows the error
		m.err = nil
	default:
		m.err = msg.err
		m.leaveCompanySearch()
	}
	return m, nil
}

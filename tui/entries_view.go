// ABOUTME: TUI view for the email, phone and company collections
// ABOUTME: Add, remove, promote and edit entries; duplicate hints and validation warnings inline
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
)

var fieldOrder = []editor.FieldKind{editor.FieldEmail, editor.FieldPhone, editor.FieldCompany}

type duplicatesCheckedMsg struct {
	err error
}

type entryRow struct {
	value      string
	primary    bool
	duplicates []models.DuplicateMatch
	resolved   bool
}

func (m Model) rows() []entryRow {
	v := m.session.View()
	var rows []entryRow
	switch m.field {
	case editor.FieldEmail:
		for _, e := range v.Emails {
			rows = append(rows, entryRow{value: e.Value.Address, primary: e.IsPrimary, duplicates: e.Duplicates})
		}
	case editor.FieldPhone:
		for _, p := range v.Phones {
			value := ""
			if strings.TrimSpace(p.Value.Number) != "" {
				value = p.Value.CountryCode + " " + p.Value.Number
			}
			rows = append(rows, entryRow{value: value, primary: p.IsPrimary, duplicates: p.Duplicates})
		}
	case editor.FieldCompany:
		for _, c := range v.Companies {
			rows = append(rows, entryRow{value: c.Value.Name, primary: c.IsPrimary, resolved: c.Value.Resolved()})
		}
	}
	return rows
}

func (m Model) warningsFor(kind editor.FieldKind) map[int]string {
	out := make(map[int]string)
	for _, w := range m.session.Warnings() {
		if w.Field == kind {
			out[w.Index] = w.Message
		}
	}
	return out
}

func (m Model) renderEntriesView() string {
	var s strings.Builder

	for _, kind := range fieldOrder {
		label := strings.ToUpper(string(kind)) + "S"
		if kind == editor.FieldCompany {
			label = "COMPANIES"
		}
		if kind == m.field {
			s.WriteString(tabActiveStyle.Render(label))
		} else {
			s.WriteString(tabInactiveStyle.Render(label))
		}
	}
	s.WriteString("\n\n")

	warnings := m.warningsFor(m.field)
	for i, row := range m.rows() {
		prefix := "  "
		if i == m.selectedRow {
			prefix = "▶ "
		}

		value := row.value
		if m.editingEntry && i == m.selectedRow {
			value = m.entryInput.View()
		} else if value == "" {
			value = statusStyle.Render("(empty)")
		}

		line := fmt.Sprintf("%s%s", prefix, value)
		if row.primary {
			line += " ★"
		}
		if m.field == editor.FieldCompany && row.value != "" && !row.resolved {
			line += statusStyle.Render(" (not linked)")
		}
		if i == m.selectedRow && !m.editingEntry {
			line = selectedStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")

		if msg, ok := warnings[i]; ok {
			s.WriteString(warningStyle.Render("    ⚠ " + msg))
			s.WriteString("\n")
		}
		for _, d := range row.duplicates {
			s.WriteString(warningStyle.Render(fmt.Sprintf("    also used by %s", d.DisplayName)))
			s.WriteString("\n")
		}
	}

	s.WriteString(m.renderEntriesHelp())
	return s.String()
}

func (m Model) renderEntriesHelp() string {
	help := []string{
		"←/→: Field",
		"↑/↓: Select",
		"Enter: Edit",
		"a: Add",
		"d: Remove",
		"p: Primary",
	}
	if m.field != editor.FieldCompany {
		help = append(help, "c: Check duplicates")
	}
	if m.editingEntry {
		help = []string{"Enter: Apply", "Esc: Cancel"}
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEntriesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editingEntry {
		return m.handleEntryInputKeys(msg)
	}

	rows := len(m.rows())
	switch msg.String() {
	case "left", "h":
		m.field = fieldOrder[(indexOfField(m.field)+len(fieldOrder)-1)%len(fieldOrder)]
		m.selectedRow = 0
	case "right", "l", "tab":
		m.field = fieldOrder[(indexOfField(m.field)+1)%len(fieldOrder)]
		m.selectedRow = 0
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < rows-1 {
			m.selectedRow++
		}
	case "a":
		if _, err := m.session.AddEntry(m.field); err != nil {
			m.err = err
			return m, nil
		}
		m.selectedRow = len(m.rows()) - 1
	case "d":
		if ok, _ := m.session.RemoveEntry(m.field, m.selectedRow); !ok {
			m.setResult("the last entry cannot be removed", nil)
		}
		if m.selectedRow >= len(m.rows()) {
			m.selectedRow = len(m.rows()) - 1
		}
	case "p":
		_, m.err = m.session.SetPrimary(m.field, m.selectedRow)
	case "c":
		if m.field != editor.FieldCompany {
			m.status = "checking duplicates..."
			return m, m.checkDuplicatesCmd(m.field)
		}
	case "enter":
		if m.field == editor.FieldCompany {
			return m.openCompanySearch()
		}
		m.editingEntry = true
		m.entryInput.SetValue(m.rawValue())
		m.entryInput.CursorEnd()
		focus := m.entryInput.Focus()
		return m, focus
	}
	return m, nil
}

func (m Model) handleEntryInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editingEntry = false
		m.entryInput.Blur()
		return m, nil
	case "enter":
		value := m.entryInput.Value()
		switch m.field {
		case editor.FieldEmail:
			m.session.UpdateEmail(m.selectedRow, value)
		case editor.FieldPhone:
			m.session.UpdatePhone(m.selectedRow, "", value)
		}
		m.editingEntry = false
		m.entryInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.entryInput, cmd = m.entryInput.Update(msg)
	return m, cmd
}

// rawValue is the editable text of the selected entry. Phones edit as one
// string and a number typed without a prefix takes the home code.
func (m Model) rawValue() string {
	v := m.session.View()
	switch m.field {
	case editor.FieldEmail:
		if m.selectedRow < len(v.Emails) {
			return v.Emails[m.selectedRow].Value.Address
		}
	case editor.FieldPhone:
		if m.selectedRow < len(v.Phones) {
			p := v.Phones[m.selectedRow].Value
			return editor.JoinPhone(p.CountryCode, p.Number)
		}
	}
	return ""
}

func (m Model) checkDuplicatesCmd(kind editor.FieldKind) tea.Cmd {
	s := m.session
	ctx := m.ctx
	return func() tea.Msg {
		return duplicatesCheckedMsg{err: s.CheckDuplicates(ctx, kind)}
	}
}

func indexOfField(kind editor.FieldKind) int {
	for i, k := range fieldOrder {
		if k == kind {
			return i
		}
	}
	return 0
}

// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Interactive full-screen editor for one contact edit session
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewFields ViewMode = iota
	ViewEntries
	ViewCompany
	ViewCases
)

// DraftSaver persists the session between runs.
type DraftSaver interface {
	Save(snap editor.DraftSnapshot) (time.Time, error)
}

// Model is the main bubbletea model
type Model struct {
	session *editor.EditSession
	drafts  DraftSaver
	ctx     context.Context

	viewMode ViewMode

	// Scalar form state
	formInputs []textinput.Model
	focusIndex int

	// Entry list state
	field        editor.FieldKind
	selectedRow  int
	entryInput   textinput.Model
	editingEntry bool

	// Company search state
	searchInput textinput.Model
	candidate   int

	// Case role state
	selectedCase int
	selectedRole int

	// UI state
	status    string
	err       error
	submitted *models.Contact
	width     int
	height    int
}

// NewModel creates a new TUI model over an opened session. drafts may be nil.
func NewModel(ctx context.Context, session *editor.EditSession, drafts DraftSaver) Model {
	m := Model{
		session:     session,
		drafts:      drafts,
		ctx:         ctx,
		viewMode:    ViewFields,
		field:       editor.FieldEmail,
		entryInput:  textinput.New(),
		searchInput: textinput.New(),
		width:       80,
		height:      24,
	}
	m.entryInput.CharLimit = 200
	m.searchInput.Placeholder = "Company name"
	m.searchInput.CharLimit = 100
	m.initFormInputs()
	return m
}

// Submitted returns the saved contact once the session was submitted.
func (m Model) Submitted() *models.Contact {
	return m.submitted
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case searchDoneMsg:
		m.clampCandidate()
		return m, nil
	case companyCreatedMsg:
		return m.handleCompanyCreated(msg)
	case caseSavedMsg:
		return m.handleCaseSaved(msg)
	case duplicatesCheckedMsg:
		m.setResult("duplicate check finished", msg.err)
		return m, nil
	case submittedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.submitted = msg.contact
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var body string
	switch m.viewMode {
	case ViewFields:
		body = m.renderFieldsView()
	case ViewEntries:
		body = m.renderEntriesView()
	case ViewCompany:
		body = m.renderCompanyView()
	case ViewCases:
		body = m.renderCasesView()
	}
	return m.renderTabs() + "\n\n" + body + m.renderStatus()
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+s":
		m.status, m.err = "saving contact...", nil
		return m, m.submitCmd()
	case "ctrl+d":
		m.saveDraft()
		return m, nil
	case "ctrl+n":
		if m.viewMode != ViewCompany {
			m.switchView(nextView(m.viewMode))
			return m, nil
		}
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewFields:
		return m.handleFieldsKeys(msg)
	case ViewEntries:
		return m.handleEntriesKeys(msg)
	case ViewCompany:
		return m.handleCompanyKeys(msg)
	case ViewCases:
		return m.handleCasesKeys(msg)
	}

	return m, nil
}

func nextView(v ViewMode) ViewMode {
	switch v {
	case ViewFields:
		return ViewEntries
	case ViewEntries:
		return ViewCases
	default:
		return ViewFields
	}
}

func (m *Model) switchView(v ViewMode) {
	m.viewMode = v
	m.editingEntry = false
	m.entryInput.Blur()
	m.updateFormFocus()
}

func (m *Model) saveDraft() {
	if m.drafts == nil {
		m.setResult("", errDraftsDisabled)
		return
	}
	savedAt, err := m.drafts.Save(m.session.Draft().Snapshot())
	m.setResult("draft saved at "+savedAt.Local().Format("15:04:05"), err)
}

func (m *Model) setResult(status string, err error) {
	m.err = err
	if err == nil {
		m.status = status
	} else {
		m.status = ""
	}
}

func (m Model) submitCmd() tea.Cmd {
	s := m.session
	ctx := m.ctx
	return func() tea.Msg {
		contact, err := s.Submit(ctx)
		return submittedMsg{contact: contact, err: err}
	}
}

func (m Model) renderTabs() string {
	tabs := []struct {
		mode  ViewMode
		label string
	}{
		{ViewFields, "Details"},
		{ViewEntries, "Emails / Phones / Companies"},
		{ViewCases, "Cases"},
	}

	var out []string
	for _, t := range tabs {
		active := m.viewMode == t.mode || (t.mode == ViewEntries && m.viewMode == ViewCompany)
		if active {
			out = append(out, tabActiveStyle.Render(t.label))
		} else {
			out = append(out, tabInactiveStyle.Render(t.label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

func (m Model) renderStatus() string {
	if m.err != nil {
		return "\n" + errorStyle.Render("Error: "+m.err.Error())
	}
	if m.status != "" {
		return "\n" + statusStyle.Render(m.status)
	}
	return ""
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	dirtyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)
)

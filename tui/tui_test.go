// ABOUTME: Tests for the contact editor TUI
// ABOUTME: Drives the bubbletea model with key messages over an in-memory database
package tui

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/contactdesk/db"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	require.NoError(t, db.InitSchema(database))
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func newSession(t *testing.T, database *sql.DB, draft *editor.ContactDraft) *editor.EditSession {
	t.Helper()
	dir := db.NewDirectory(database)
	deps := editor.Deps{Companies: dir, CaseRoles: dir, Duplicates: dir, Contacts: dir}
	s := editor.NewEditSession(draft, editor.NewCountryCodeResolver("+52"), deps, editor.SessionConfig{}, nil)
	require.NoError(t, s.Open(context.Background()))
	t.Cleanup(s.Close)
	return s
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	ctrlN = tea.KeyMsg{Type: tea.KeyCtrlN}
	ctrlA = tea.KeyMsg{Type: tea.KeyCtrlA}
	ctrlS = tea.KeyMsg{Type: tea.KeyCtrlS}
	ctrlD = tea.KeyMsg{Type: tea.KeyCtrlD}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

// press feeds msgs in order and returns the model with the last command.
func press(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

type fakeDrafts struct {
	saved []editor.DraftSnapshot
}

func (f *fakeDrafts) Save(snap editor.DraftSnapshot) (time.Time, error) {
	f.saved = append(f.saved, snap)
	return time.Now(), nil
}

func TestFieldsViewEditsScalars(t *testing.T) {
	s := newSession(t, setupTestDB(t), editor.NewDraft())
	m := NewModel(context.Background(), s, nil)

	m, _ = press(t, m, tab, runes("Ana"), tab, runes("Ruiz"))
	sc := s.Draft().Scalars()
	assert.Equal(t, "Ana", sc.FirstName)
	assert.Equal(t, "Ruiz", sc.LastName)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'4'}, Alt: true})
	assert.Equal(t, []models.Role{models.RoleChampion}, s.Draft().GlobalRoles())
	assert.Contains(t, m.View(), "Roles: champion")
	assert.Contains(t, m.View(), "NEW CONTACT")
}

func TestEntriesViewEditsEmailAndPhone(t *testing.T) {
	s := newSession(t, setupTestDB(t), editor.NewDraft())
	m := NewModel(context.Background(), s, nil)

	m, _ = press(t, m, ctrlN)
	require.Equal(t, ViewEntries, m.viewMode)

	m, _ = press(t, m, enter, runes("bad-email"), enter)
	assert.Equal(t, "bad-email", s.Draft().Emails.Entries()[0].Value.Address)
	assert.Contains(t, m.View(), "invalid email address")

	// phones: the blank entry starts with the home code
	m, _ = press(t, m, tab, enter, runes("5512345678"), enter)
	phone := s.Draft().Phones.Entries()[0].Value
	assert.Equal(t, "+52", phone.CountryCode)
	assert.Equal(t, "5512345678", phone.Number)

	m, _ = press(t, m, runes("a"), enter, runes("+18095551234"), enter, runes("p"))
	phones := s.Draft().Phones.Entries()
	require.Len(t, phones, 2)
	assert.Equal(t, "+1809", phones[1].Value.CountryCode)
	assert.True(t, phones[1].IsPrimary)

	m, _ = press(t, m, runes("d"))
	assert.Equal(t, 1, s.Draft().Phones.Len())
	m, _ = press(t, m, runes("d"))
	assert.Equal(t, 1, s.Draft().Phones.Len(), "the last entry stays")
	assert.Contains(t, m.View(), "the last entry cannot be removed")
}

func TestCheckDuplicatesCommand(t *testing.T) {
	database := setupTestDB(t)
	other := &models.Contact{FirstName: "Cy", Emails: []models.ContactEmail{{Address: "cy@example.com", IsPrimary: true}}}
	require.NoError(t, db.CreateContact(context.Background(), database, other))

	s := newSession(t, database, editor.NewDraft())
	m := NewModel(context.Background(), s, nil)
	m, _ = press(t, m, ctrlN, enter, runes("cy@example.com"), enter)

	m, cmd := press(t, m, runes("c"))
	require.NotNil(t, cmd)
	m, _ = press(t, m, cmd())
	assert.Contains(t, m.View(), "also used by Cy")
}

func TestCompanySearchSelectsCandidate(t *testing.T) {
	database := setupTestDB(t)
	acme := &models.Company{Name: "Acme"}
	require.NoError(t, db.CreateCompany(context.Background(), database, acme))

	s := newSession(t, database, editor.NewDraft())
	m := NewModel(context.Background(), s, nil)

	m, _ = press(t, m, ctrlN, tab, tab, enter)
	require.Equal(t, ViewCompany, m.viewMode)

	m, _ = press(t, m, runes("Ac"))
	s.Company().Wait()
	m, _ = press(t, m, searchDoneMsg{})
	assert.Contains(t, m.View(), "Acme")

	m, _ = press(t, m, enter)
	assert.Equal(t, ViewEntries, m.viewMode)
	ref := s.Draft().Companies.Entries()[0].Value
	require.NotNil(t, ref.ID)
	assert.Equal(t, acme.ID, *ref.ID)
}

func TestCompanySearchCreatesCompany(t *testing.T) {
	database := setupTestDB(t)
	s := newSession(t, database, editor.NewDraft())
	m := NewModel(context.Background(), s, nil)

	m, _ = press(t, m, ctrlN, tab, tab, enter, runes("Globex"))
	s.Company().Wait()
	m, _ = press(t, m, searchDoneMsg{})
	assert.Contains(t, m.View(), `Create new company "Globex"`)

	m, _ = press(t, m, ctrlA)
	require.Equal(t, editor.StateCreatingNew, s.Company().State())
	assert.Contains(t, m.View(), "NEW COMPANY")

	m, cmd := press(t, m, enter)
	require.NotNil(t, cmd)
	m, _ = press(t, m, cmd())
	assert.Equal(t, ViewEntries, m.viewMode)

	ref := s.Draft().Companies.Entries()[0].Value
	assert.Equal(t, "Globex", ref.Name)
	assert.True(t, ref.Resolved())

	stored, err := db.FindCompanyByName(context.Background(), database, "globex")
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestCompanySearchEscapeKeepsText(t *testing.T) {
	s := newSession(t, setupTestDB(t), editor.NewDraft())
	m := NewModel(context.Background(), s, nil)

	m, _ = press(t, m, ctrlN, tab, tab, enter, runes("Initech"))
	s.Company().Wait()
	m, _ = press(t, m, esc)

	assert.Equal(t, ViewEntries, m.viewMode)
	ref := s.Draft().Companies.Entries()[0].Value
	assert.Equal(t, "Initech", ref.Name)
	assert.False(t, ref.Resolved())
	assert.Contains(t, m.View(), "(not linked)")
}

func TestCasesViewTogglesAndSaves(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	contact := &models.Contact{FirstName: "Bo"}
	require.NoError(t, db.CreateContact(ctx, database, contact))
	deal := &models.Case{Title: "Expansion"}
	require.NoError(t, db.CreateCase(ctx, database, deal))
	require.NoError(t, db.AttachContact(ctx, database, deal.ID, contact.ID))

	stored, err := db.GetContact(ctx, database, contact.ID)
	require.NoError(t, err)
	s := newSession(t, database, editor.DraftFromContact(stored, nil))
	m := NewModel(ctx, s, nil)

	m, _ = press(t, m, ctrlN, ctrlN)
	require.Equal(t, ViewCases, m.viewMode)

	m, _ = press(t, m, down, runes("x"))
	assert.True(t, s.CaseRoles().IsDirty(deal.ID))
	assert.Contains(t, m.View(), "unsaved")

	m, cmd := press(t, m, runes("s"))
	require.NotNil(t, cmd)
	m, _ = press(t, m, cmd())
	assert.False(t, s.CaseRoles().IsDirty(deal.ID))
	assert.Contains(t, m.View(), "roles saved for Expansion")

	history, err := db.ListCaseRoles(ctx, database, contact.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, []models.Role{models.RoleEconomicBuyer}, history[0].Roles)
}

func TestSubmitAndDraft(t *testing.T) {
	database := setupTestDB(t)
	s := newSession(t, database, editor.NewDraft())
	drafts := &fakeDrafts{}
	m := NewModel(context.Background(), s, drafts)

	m, _ = press(t, m, tab, runes("Dana"), ctrlD)
	require.Len(t, drafts.saved, 1)
	assert.Equal(t, "Dana", drafts.saved[0].Scalars.FirstName)
	assert.True(t, strings.Contains(m.View(), "draft saved"))

	m, cmd := press(t, m, ctrlS)
	require.NotNil(t, cmd)
	m, cmd = press(t, m, cmd())
	require.NotNil(t, m.Submitted())
	assert.Equal(t, "Dana", m.Submitted().FirstName)
	assert.NotNil(t, cmd, "quits after submit")
}

func TestSaveDraftWithoutStore(t *testing.T) {
	s := newSession(t, setupTestDB(t), editor.NewDraft())
	m := NewModel(context.Background(), s, nil)
	m, _ = press(t, m, ctrlD)
	assert.ErrorIs(t, m.err, errDraftsDisabled)
}

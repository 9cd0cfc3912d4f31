// ABOUTME: Tests for the database-backed editor collaborators
// ABOUTME: Drives a full edit session against an in-memory database
package db

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryCreateCompanyReusesExisting(t *testing.T) {
	dir := NewDirectory(setupTestDB(t))
	ctx := context.Background()

	first, err := dir.CreateCompany(ctx, "Acme", "Retail")
	require.NoError(t, err)
	second, err := dir.CreateCompany(ctx, "acme", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = dir.CreateCompany(ctx, "  ", "")
	assert.Error(t, err)
}

func TestDirectoryEditSessionRoundTrip(t *testing.T) {
	database := setupTestDB(t)
	dir := NewDirectory(database)
	ctx := context.Background()

	acme, err := dir.CreateCompany(ctx, "Acme", "")
	require.NoError(t, err)

	deps := editor.Deps{Companies: dir, CaseRoles: dir, Duplicates: dir, Contacts: dir}
	cfg := editor.SessionConfig{Workflow: editor.WorkflowConfig{Debounce: time.Millisecond}}

	s := editor.NewEditSession(nil, nil, deps, cfg, nil)
	defer s.Close()
	s.Draft().SetScalars(editor.Scalars{FirstName: "Ana", LastName: "Reyes"})
	s.UpdateEmail(0, "ana@acme.com")
	s.UpdatePhone(0, "+52", "5512345678")

	require.NoError(t, s.Company().Activate(0))
	require.NoError(t, s.Company().Type("acm"))
	s.Company().Wait()
	require.NoError(t, s.Company().SelectByID(acme.ID))

	saved, err := s.Submit(ctx)
	require.NoError(t, err)

	got, err := dir.GetContact(ctx, saved.ID)
	require.NoError(t, err)
	require.Len(t, got.Companies, 1)
	assert.Equal(t, acme.ID, *got.Companies[0].CompanyID)
	assert.Equal(t, "+525512345678", got.Phones[0].Number)

	deal := &models.Case{Title: "Rollout"}
	require.NoError(t, CreateCase(ctx, database, deal))
	require.NoError(t, AttachContact(ctx, database, deal.ID, saved.ID))

	reopened := editor.NewEditSession(editor.DraftFromContact(got, nil), nil, deps, cfg, nil)
	defer reopened.Close()
	require.NoError(t, reopened.Open(ctx))

	tracker := reopened.CaseRoles()
	require.NoError(t, tracker.Toggle(deal.ID, models.RoleTechnicalBuyer))
	require.NoError(t, tracker.Save(ctx, deal.ID))
	assert.False(t, tracker.IsDirty(deal.ID))

	history, err := dir.ListCaseRoles(ctx, saved.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, []models.Role{models.RoleTechnicalBuyer}, history[0].Roles)

	// a second contact with the same email shows up as a duplicate of the first
	other := editor.NewEditSession(nil, nil, deps, cfg, nil)
	defer other.Close()
	other.UpdateEmail(0, "ANA@acme.com")
	require.NoError(t, other.CheckDuplicates(ctx, editor.FieldEmail))
	e, _ := other.Draft().Emails.At(0)
	require.Len(t, e.Duplicates, 1)
	assert.Equal(t, saved.ID, e.Duplicates[0].ContactID)
}

func TestSyncLog(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	c := newTestContact("Imported", "", "")
	require.NoError(t, CreateContact(ctx, db, c))

	exists, err := CheckSyncLogExists(ctx, db, "google_contacts", "people/1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, CreateSyncLog(ctx, db, "google_contacts", "people/1", "contact", c.ID))
	exists, err = CheckSyncLogExists(ctx, db, "google_contacts", "people/1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, UpdateSyncStatus(ctx, db, "google_contacts", "idle", nil))
	state, err := GetSyncState(ctx, db, "google_contacts")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "idle", state.Status)
	assert.NotNil(t, state.LastSyncTime)
}

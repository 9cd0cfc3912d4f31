// ABOUTME: Tests for importing a legacy pagen database
// ABOUTME: Builds a minimal pagen schema in memory and checks mapping, skipping and dry runs
package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/harperreed/contactdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pagenSchema = `
CREATE TABLE companies (
	id TEXT PRIMARY KEY, name TEXT NOT NULL, domain TEXT, industry TEXT, notes TEXT,
	created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL
);
CREATE TABLE contacts (
	id TEXT PRIMARY KEY, name TEXT NOT NULL, email TEXT, phone TEXT, company_id TEXT, notes TEXT,
	last_contacted_at DATETIME, created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL
);
CREATE TABLE deals (
	id TEXT PRIMARY KEY, title TEXT NOT NULL, amount INTEGER, currency TEXT NOT NULL DEFAULT 'USD',
	stage TEXT NOT NULL, company_id TEXT NOT NULL, contact_id TEXT, expected_close_date DATE,
	created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL, last_activity_at DATETIME NOT NULL
);
INSERT INTO companies VALUES ('c1', 'Acme Corp', 'acme.com', 'Manufacturing', NULL, '2024-01-01', '2024-01-01');
INSERT INTO companies VALUES ('c2', 'Globex', NULL, NULL, NULL, '2024-01-02', '2024-01-02');
INSERT INTO contacts VALUES ('p1', 'Ada Lovelace', 'ada@example.com', '+52 55 1234 5678', 'c1', NULL, NULL, '2024-01-03', '2024-01-03');
INSERT INTO contacts VALUES ('p2', 'Bob', 'BOB@example.com', NULL, 'c2', NULL, NULL, '2024-01-04', '2024-01-04');
INSERT INTO deals VALUES ('d1', 'Pilot', 500000, 'USD', 'proposal', 'c1', 'p1', NULL, '2024-01-05', '2024-01-05', '2024-01-05');
`

func setupLegacyDB(t *testing.T) *sql.DB {
	t.Helper()
	src, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	src.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = src.Close() })
	_, err = src.Exec(pagenSchema)
	require.NoError(t, err)
	return src
}

// seedExisting adds a company and a contact that the legacy rows should match.
func seedExisting(t *testing.T, dst *sql.DB) *models.Contact {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, CreateCompany(ctx, dst, &models.Company{Name: "GLOBEX"}))
	bob := newTestContact("Bo", "bob@example.com", "")
	require.NoError(t, CreateContact(ctx, dst, bob))
	return bob
}

func TestIsLegacyDatabase(t *testing.T) {
	ctx := context.Background()

	ok, err := IsLegacyDatabase(ctx, setupLegacyDB(t))
	require.NoError(t, err)
	assert.True(t, ok)

	// The contactdesk schema has companies and contacts but no deals table.
	ok, err = IsLegacyDatabase(ctx, setupTestDB(t))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ImportLegacy(ctx, setupTestDB(t), setupTestDB(t), true)
	assert.ErrorContains(t, err, "not a pagen database")
}

func TestImportLegacyDryRun(t *testing.T) {
	ctx := context.Background()
	src := setupLegacyDB(t)
	dst := setupTestDB(t)
	seedExisting(t, dst)

	stats, err := ImportLegacy(ctx, src, dst, true)
	require.NoError(t, err)
	assert.Equal(t, LegacyStats{Companies: 1, Contacts: 1, Cases: 1, Skipped: 2}, stats)

	contacts, err := FindContacts(ctx, dst, "", 10)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)

	companies, err := ListCompanies(ctx, dst, 10)
	require.NoError(t, err)
	assert.Len(t, companies, 1)
}

func TestImportLegacy(t *testing.T) {
	ctx := context.Background()
	src := setupLegacyDB(t)
	dst := setupTestDB(t)
	bob := seedExisting(t, dst)

	stats, err := ImportLegacy(ctx, src, dst, false)
	require.NoError(t, err)
	assert.Equal(t, LegacyStats{Companies: 1, Contacts: 1, Cases: 1, Skipped: 2}, stats)

	acme, err := FindCompanyByName(ctx, dst, "acme corp")
	require.NoError(t, err)
	require.NotNil(t, acme)
	assert.Equal(t, "acme.com", acme.Domain)
	assert.Equal(t, "Manufacturing", acme.Industry)

	found, err := FindContacts(ctx, dst, "ada", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	ada := found[0]
	assert.Equal(t, "Ada", ada.FirstName)
	assert.Equal(t, "Lovelace", ada.LastName)
	assert.Equal(t, "ada@example.com", ada.PrimaryEmail())
	require.Len(t, ada.Phones, 1)
	assert.Equal(t, "+52 55 1234 5678", ada.Phones[0].Number)
	require.Len(t, ada.Companies, 1)
	require.NotNil(t, ada.Companies[0].CompanyID)
	assert.Equal(t, acme.ID, *ada.Companies[0].CompanyID)

	history, err := ListCaseRoles(ctx, dst, ada.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Pilot", history[0].Case.Title)
	assert.Equal(t, models.CaseStageProposal, history[0].Case.Stage)
	assert.Equal(t, int64(500000), history[0].Case.Amount)
	require.NotNil(t, history[0].Case.CompanyID)
	assert.Equal(t, acme.ID, *history[0].Case.CompanyID)
	assert.Empty(t, history[0].Roles)

	// The matched contact is reused, not duplicated.
	all, err := FindContacts(ctx, dst, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	bobHistory, err := ListCaseRoles(ctx, dst, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobHistory)
}

// ABOUTME: Tests for contact persistence with multi-valued collections
// ABOUTME: Covers create/get round trips, updates, search and duplicate lookup
package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContact(first, email, phone string) *models.Contact {
	c := &models.Contact{FirstName: first, LastName: "Tester", Stage: models.StageLead}
	if email != "" {
		c.Emails = []models.ContactEmail{{Address: email, IsPrimary: true}}
	}
	if phone != "" {
		c.Phones = []models.ContactPhone{{Number: phone, IsPrimary: true}}
	}
	return c
}

func TestCreateAndGetContact(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	company := &models.Company{Name: "Acme"}
	require.NoError(t, CreateCompany(ctx, db, company))

	c := &models.Contact{
		FirstName: "Ana",
		LastName:  "Reyes",
		JobTitle:  "CTO",
		Stage:     models.StageProspect,
		SubStatus: "engaged",
		Roles:     []models.Role{models.RoleChampion, models.RoleDecisionMaker},
		Emails: []models.ContactEmail{
			{Address: "ana@work.com"},
			{Address: "Ana@Home.com", IsPrimary: true},
		},
		Phones: []models.ContactPhone{{Number: "+525512345678", IsPrimary: true}},
		Companies: []models.ContactCompany{
			{CompanyID: &company.ID, CompanyName: "Acme", IsPrimary: true},
			{CompanyName: "Freelance"},
		},
	}
	require.NoError(t, CreateContact(ctx, db, c))
	require.NotEqual(t, uuid.Nil, c.ID)

	got, err := GetContact(ctx, db, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "CTO", got.JobTitle)
	assert.Equal(t, "engaged", got.SubStatus)
	assert.Equal(t, c.Emails, got.Emails)
	assert.Equal(t, c.Phones, got.Phones)
	require.Len(t, got.Companies, 2)
	require.NotNil(t, got.Companies[0].CompanyID)
	assert.Equal(t, company.ID, *got.Companies[0].CompanyID)
	assert.Nil(t, got.Companies[1].CompanyID)
	assert.Equal(t, []models.Role{models.RoleChampion, models.RoleDecisionMaker}, got.Roles)
}

func TestGetContactNotFound(t *testing.T) {
	db := setupTestDB(t)
	got, err := GetContact(context.Background(), db, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateContactReplacesCollections(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	c := newTestContact("Luis", "luis@old.com", "5512345678")
	require.NoError(t, SaveContact(ctx, db, c))
	id := c.ID

	c.Emails = []models.ContactEmail{{Address: "luis@new.com"}, {Address: "luis@alt.com", IsPrimary: true}}
	c.Phones = nil
	c.JobTitle = "VP Sales"
	require.NoError(t, SaveContact(ctx, db, c))
	assert.Equal(t, id, c.ID)

	got, err := GetContact(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, "VP Sales", got.JobTitle)
	assert.Equal(t, c.Emails, got.Emails)
	assert.Empty(t, got.Phones)
}

func TestUpdateMissingContactFails(t *testing.T) {
	db := setupTestDB(t)
	c := newTestContact("Ghost", "", "")
	c.ID = uuid.New()
	assert.Error(t, UpdateContact(context.Background(), db, c))
}

func TestFindContacts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, CreateContact(ctx, db, newTestContact("Ana", "ana@acme.com", "")))
	require.NoError(t, CreateContact(ctx, db, newTestContact("Bruno", "bruno@globex.com", "")))

	byName, err := FindContacts(ctx, db, "bru", 10)
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Bruno", byName[0].FirstName)
	assert.Len(t, byName[0].Emails, 1)

	byEmail, err := FindContacts(ctx, db, "ACME.com", 10)
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, "Ana", byEmail[0].FirstName)

	all, err := FindContacts(ctx, db, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFindDuplicateContacts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := newTestContact("Ana", "Shared@Example.com", "+52 55 1234 5678")
	b := newTestContact("Bea", "shared@example.com", "")
	require.NoError(t, CreateContact(ctx, db, a))
	require.NoError(t, CreateContact(ctx, db, b))

	emails, err := FindDuplicateContacts(ctx, db, "shared@example.com", models.DuplicateEmail)
	require.NoError(t, err)
	require.Len(t, emails, 2)
	assert.Equal(t, "Ana Tester", emails[0].DisplayName)

	phones, err := FindDuplicateContacts(ctx, db, "+525512345678", models.DuplicatePhone)
	require.NoError(t, err)
	require.Len(t, phones, 1)
	assert.Equal(t, a.ID, phones[0].ContactID)
	assert.Equal(t, "+52 55 1234 5678", phones[0].Value)

	_, err = FindDuplicateContacts(ctx, db, "x", models.DuplicateKind("fax"))
	assert.Error(t, err)
}

func TestDeleteContactCascades(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	c := newTestContact("Gone", "gone@example.com", "")
	require.NoError(t, CreateContact(ctx, db, c))
	require.NoError(t, DeleteContact(ctx, db, c.ID))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM contact_emails`).Scan(&n))
	assert.Equal(t, 0, n)
}

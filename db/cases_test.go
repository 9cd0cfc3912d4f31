// ABOUTME: Tests for case persistence and per-case role assignment
// ABOUTME: Covers history listing, role replacement and empty role sets
package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCaseDefaults(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	c := &models.Case{Title: "Pilot", Amount: 500000}
	require.NoError(t, CreateCase(ctx, db, c))
	assert.Equal(t, "USD", c.Currency)
	assert.Equal(t, models.CaseStageProspecting, c.Stage)

	got, err := GetCase(ctx, db, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500000), got.Amount)

	missing, err := GetCase(ctx, db, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCaseRoleHistory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	contact := newTestContact("Ana", "ana@example.com", "")
	require.NoError(t, CreateContact(ctx, db, contact))
	pilot := &models.Case{Title: "Pilot"}
	renewal := &models.Case{Title: "Renewal"}
	require.NoError(t, CreateCase(ctx, db, pilot))
	require.NoError(t, CreateCase(ctx, db, renewal))

	require.NoError(t, AttachContact(ctx, db, pilot.ID, contact.ID))
	require.NoError(t, AttachContact(ctx, db, pilot.ID, contact.ID))
	require.NoError(t, SetCaseRoles(ctx, db, contact.ID, renewal.ID, []models.Role{models.RoleEconomicBuyer, models.RoleChampion}))

	history, err := ListCaseRoles(ctx, db, contact.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	byTitle := map[string][]models.Role{}
	for _, h := range history {
		byTitle[h.Case.Title] = h.Roles
	}
	assert.Empty(t, byTitle["Pilot"])
	assert.NotNil(t, byTitle["Pilot"])
	assert.Equal(t, []models.Role{models.RoleChampion, models.RoleEconomicBuyer}, byTitle["Renewal"])

	require.NoError(t, SetCaseRoles(ctx, db, contact.ID, renewal.ID, []models.Role{}))
	history, err = ListCaseRoles(ctx, db, contact.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2, "clearing roles keeps the case link")
	for _, h := range history {
		assert.Empty(t, h.Roles)
	}
}

func TestSetCaseRolesUnknownCase(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	contact := newTestContact("Ana", "", "")
	require.NoError(t, CreateContact(ctx, db, contact))
	assert.Error(t, SetCaseRoles(ctx, db, contact.ID, uuid.New(), []models.Role{models.RoleChampion}))
}

func TestListCasesByStage(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, CreateCase(ctx, db, &models.Case{Title: "A"}))
	won := &models.Case{Title: "B", Stage: models.CaseStageClosedWon}
	require.NoError(t, CreateCase(ctx, db, won))

	all, err := ListCases(ctx, db, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	closed, err := ListCases(ctx, db, models.CaseStageClosedWon, 0)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, won.ID, closed[0].ID)

	require.NoError(t, UpdateCaseStage(ctx, db, won.ID, models.CaseStageClosedLost))
	got, _ := GetCase(ctx, db, won.ID)
	assert.Equal(t, models.CaseStageClosedLost, got.Stage)
}

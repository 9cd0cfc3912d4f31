// ABOUTME: Tests for per-case role tracking and save orchestration
// ABOUTME: Covers dirty transitions, save success/failure and the in-flight guard
package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/editor/mocks"
	"github.com/harperreed/contactdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func loadedTracker(t *testing.T, store CaseRoleStore) (*CaseRoleTracker, uuid.UUID, uuid.UUID) {
	t.Helper()
	contactID := uuid.New()
	caseID := uuid.New()

	tr := NewCaseRoleTracker(contactID, store, time.Second, nil)
	tr.Load([]models.CaseRoles{
		{Case: models.Case{ID: caseID, Title: "Renewal"}, Roles: []models.Role{models.RoleChampion}},
	})
	return tr, contactID, caseID
}

func TestCaseRolesCleanAfterLoad(t *testing.T) {
	tr, _, caseID := loadedTracker(t, nil)
	assert.False(t, tr.IsDirty(caseID))
	assert.Equal(t, []models.Role{models.RoleChampion}, tr.LocalRoles(caseID))
	assert.Equal(t, tr.ServerRoles(caseID), tr.LocalRoles(caseID))
}

func TestToggleMakesDirtyAndBack(t *testing.T) {
	tr, _, caseID := loadedTracker(t, nil)

	require.NoError(t, tr.Toggle(caseID, models.RoleBlocker))
	assert.True(t, tr.IsDirty(caseID))
	require.NoError(t, tr.Toggle(caseID, models.RoleBlocker))
	assert.False(t, tr.IsDirty(caseID))

	require.NoError(t, tr.Toggle(caseID, models.RoleChampion))
	assert.True(t, tr.IsDirty(caseID))
	assert.Empty(t, tr.LocalRoles(caseID))
	assert.Equal(t, []uuid.UUID{caseID}, tr.DirtyCases())
}

func TestToggleErrors(t *testing.T) {
	tr, _, caseID := loadedTracker(t, nil)
	assert.ErrorIs(t, tr.Toggle(uuid.New(), models.RoleChampion), ErrUnknownCase)
	assert.ErrorIs(t, tr.Toggle(caseID, models.Role("wizard")), ErrInvalidRole)
}

func TestSaveSuccessClearsDirty(t *testing.T) {
	store := new(mocks.CaseRoleStore)
	tr, contactID, caseID := loadedTracker(t, store)

	want := []models.Role{models.RoleChampion, models.RoleDecisionMaker}
	store.On("SaveCaseRoles", mock.Anything, contactID, caseID, want).Return(nil).Once()

	require.NoError(t, tr.Toggle(caseID, models.RoleDecisionMaker))
	require.NoError(t, tr.Save(context.Background(), caseID))

	assert.False(t, tr.IsDirty(caseID))
	assert.Equal(t, want, tr.ServerRoles(caseID))
	store.AssertExpectations(t)
}

func TestSaveEmptySetRemovesAllRoles(t *testing.T) {
	store := new(mocks.CaseRoleStore)
	tr, contactID, caseID := loadedTracker(t, store)
	store.On("SaveCaseRoles", mock.Anything, contactID, caseID, []models.Role{}).Return(nil).Once()

	require.NoError(t, tr.Toggle(caseID, models.RoleChampion))
	require.NoError(t, tr.Save(context.Background(), caseID))
	assert.Empty(t, tr.ServerRoles(caseID))
	assert.False(t, tr.IsDirty(caseID))
	store.AssertExpectations(t)
}

func TestSaveFailureKeepsLocalRoles(t *testing.T) {
	store := new(mocks.CaseRoleStore)
	tr, _, caseID := loadedTracker(t, store)
	store.On("SaveCaseRoles", mock.Anything, mock.Anything, caseID, mock.Anything).Return(errors.New("boom")).Once()

	require.NoError(t, tr.Toggle(caseID, models.RoleInfluencer))
	before := tr.LocalRoles(caseID)

	err := tr.Save(context.Background(), caseID)
	var serr *SaveError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, caseID, serr.CaseID)

	assert.True(t, tr.IsDirty(caseID))
	assert.Equal(t, before, tr.LocalRoles(caseID))
	assert.Equal(t, []models.Role{models.RoleChampion}, tr.ServerRoles(caseID))
	assert.Equal(t, "boom", errors.Unwrap(err).Error())
	assert.Contains(t, tr.Cases()[0].LastError, "boom")
}

func TestSaveCleanIsNoop(t *testing.T) {
	store := new(mocks.CaseRoleStore)
	tr, _, caseID := loadedTracker(t, store)

	require.NoError(t, tr.Save(context.Background(), caseID))
	store.AssertNotCalled(t, "SaveCaseRoles", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.ErrorIs(t, tr.Save(context.Background(), uuid.New()), ErrUnknownCase)
}

func TestConcurrentSaveMakesOneCall(t *testing.T) {
	store := new(mocks.CaseRoleStore)
	tr, _, caseID := loadedTracker(t, store)

	gate := make(chan struct{})
	store.On("SaveCaseRoles", mock.Anything, mock.Anything, caseID, mock.Anything).
		Return(nil).
		Run(func(mock.Arguments) { <-gate })

	require.NoError(t, tr.Toggle(caseID, models.RoleGatekeeper))

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = tr.Save(context.Background(), caseID)
	}()

	require.Eventually(t, func() bool { return tr.IsSaving(caseID) }, time.Second, time.Millisecond)
	assert.ErrorIs(t, tr.Save(context.Background(), caseID), ErrSaveInFlight)

	close(gate)
	wg.Wait()

	require.NoError(t, firstErr)
	store.AssertNumberOfCalls(t, "SaveCaseRoles", 1)
	assert.False(t, tr.IsDirty(caseID))
}

func TestSavesForDifferentCasesRunConcurrently(t *testing.T) {
	store := new(mocks.CaseRoleStore)
	contactID := uuid.New()
	a, b := uuid.New(), uuid.New()
	tr := NewCaseRoleTracker(contactID, store, time.Second, nil)
	tr.Load([]models.CaseRoles{{Case: models.Case{ID: a}}, {Case: models.Case{ID: b}}})

	gate := make(chan struct{})
	store.On("SaveCaseRoles", mock.Anything, contactID, a, mock.Anything).Return(nil).Run(func(mock.Arguments) { <-gate })
	store.On("SaveCaseRoles", mock.Anything, contactID, b, mock.Anything).Return(nil)

	require.NoError(t, tr.Toggle(a, models.RoleEndUser))
	require.NoError(t, tr.Toggle(b, models.RoleEndUser))

	done := make(chan error, 1)
	go func() { done <- tr.Save(context.Background(), a) }()
	require.Eventually(t, func() bool { return tr.IsSaving(a) }, time.Second, time.Millisecond)

	require.NoError(t, tr.Save(context.Background(), b))
	assert.False(t, tr.IsDirty(b))
	assert.True(t, tr.IsDirty(a))

	close(gate)
	require.NoError(t, <-done)
	assert.False(t, tr.IsDirty(a))
}

func TestToggleDuringSaveStaysDirty(t *testing.T) {
	store := new(mocks.CaseRoleStore)
	tr, _, caseID := loadedTracker(t, store)

	gate := make(chan struct{})
	store.On("SaveCaseRoles", mock.Anything, mock.Anything, caseID, mock.Anything).Return(nil).Run(func(mock.Arguments) { <-gate })

	require.NoError(t, tr.Toggle(caseID, models.RoleBlocker))
	done := make(chan error, 1)
	go func() { done <- tr.Save(context.Background(), caseID) }()
	require.Eventually(t, func() bool { return tr.IsSaving(caseID) }, time.Second, time.Millisecond)

	require.NoError(t, tr.Toggle(caseID, models.RoleEndUser))
	close(gate)
	require.NoError(t, <-done)

	assert.Equal(t, []models.Role{models.RoleBlocker, models.RoleChampion}, tr.ServerRoles(caseID))
	assert.True(t, tr.IsDirty(caseID))
}

func TestLoadHistoryFromStore(t *testing.T) {
	store := new(mocks.CaseRoleStore)
	contactID := uuid.New()
	caseID := uuid.New()
	store.On("ListCaseRoles", mock.Anything, contactID).Return([]models.CaseRoles{
		{Case: models.Case{ID: caseID, Title: "Pilot"}, Roles: []models.Role{models.RoleTechnicalBuyer}},
	}, nil)

	tr := NewCaseRoleTracker(contactID, store, 0, nil)
	require.NoError(t, tr.LoadHistory(context.Background()))

	cases := tr.Cases()
	require.Len(t, cases, 1)
	assert.Equal(t, "Pilot", cases[0].Case.Title)
	assert.False(t, cases[0].Dirty)
}

func TestReloadDuringSaveKeepsGuard(t *testing.T) {
	store := new(mocks.CaseRoleStore)
	tr, _, caseID := loadedTracker(t, store)

	gate := make(chan struct{})
	store.On("SaveCaseRoles", mock.Anything, mock.Anything, caseID, mock.Anything).
		Return(nil).
		Run(func(mock.Arguments) { <-gate })

	require.NoError(t, tr.Toggle(caseID, models.RoleGatekeeper))
	done := make(chan error, 1)
	go func() { done <- tr.Save(context.Background(), caseID) }()
	require.Eventually(t, func() bool { return tr.IsSaving(caseID) }, time.Second, time.Millisecond)

	tr.Load([]models.CaseRoles{
		{Case: models.Case{ID: caseID, Title: "Renewal"}, Roles: []models.Role{models.RoleChampion}},
	})
	assert.True(t, tr.IsSaving(caseID))
	assert.True(t, tr.Cases()[0].Saving)

	require.NoError(t, tr.Toggle(caseID, models.RoleBlocker))
	assert.ErrorIs(t, tr.Save(context.Background(), caseID), ErrSaveInFlight)

	close(gate)
	require.NoError(t, <-done)
	store.AssertNumberOfCalls(t, "SaveCaseRoles", 1)

	assert.False(t, tr.IsSaving(caseID))
	assert.Equal(t, []models.Role{models.RoleChampion}, tr.ServerRoles(caseID))
	assert.True(t, tr.IsDirty(caseID))
}

// ABOUTME: testify mocks for the contact editor collaborators
// ABOUTME: Company directory, case role store, duplicate lookup and contact store doubles
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/models"
	"github.com/stretchr/testify/mock"
)

// CompanyDirectory is a mock for editor.CompanyDirectory.
type CompanyDirectory struct {
	mock.Mock
}

func (m *CompanyDirectory) SearchCompanies(ctx context.Context, query string, limit int) ([]models.Company, error) {
	args := m.Called(ctx, query, limit)
	if list, ok := args.Get(0).([]models.Company); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CompanyDirectory) CreateCompany(ctx context.Context, name, industry string) (*models.Company, error) {
	args := m.Called(ctx, name, industry)
	if c, ok := args.Get(0).(*models.Company); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// CaseRoleStore is a mock for editor.CaseRoleStore.
type CaseRoleStore struct {
	mock.Mock
}

func (m *CaseRoleStore) ListCaseRoles(ctx context.Context, contactID uuid.UUID) ([]models.CaseRoles, error) {
	args := m.Called(ctx, contactID)
	if list, ok := args.Get(0).([]models.CaseRoles); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CaseRoleStore) SaveCaseRoles(ctx context.Context, contactID, caseID uuid.UUID, roles []models.Role) error {
	args := m.Called(ctx, contactID, caseID, roles)
	return args.Error(0)
}

// DuplicateLookup is a mock for editor.DuplicateLookup.
type DuplicateLookup struct {
	mock.Mock
}

func (m *DuplicateLookup) LookupDuplicates(ctx context.Context, normalized string, kind models.DuplicateKind) ([]models.DuplicateMatch, error) {
	args := m.Called(ctx, normalized, kind)
	if list, ok := args.Get(0).([]models.DuplicateMatch); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ContactStore is a mock for editor.ContactStore.
type ContactStore struct {
	mock.Mock
}

func (m *ContactStore) SaveContact(ctx context.Context, contact *models.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

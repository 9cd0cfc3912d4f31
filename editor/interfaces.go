// ABOUTME: Collaborator contracts consumed by the contact editor
// ABOUTME: Company directory, case role persistence, duplicate lookup and contact store
package editor

import (
	"context"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/models"
)

// CompanyDirectory searches and creates companies.
type CompanyDirectory interface {
	SearchCompanies(ctx context.Context, query string, limit int) ([]models.Company, error)
	CreateCompany(ctx context.Context, name, industry string) (*models.Company, error)
}

// CaseRoleStore loads and persists the roles a contact holds in each case.
type CaseRoleStore interface {
	ListCaseRoles(ctx context.Context, contactID uuid.UUID) ([]models.CaseRoles, error)
	SaveCaseRoles(ctx context.Context, contactID, caseID uuid.UUID, roles []models.Role) error
}

// DuplicateLookup finds other contacts sharing a normalized email or phone.
type DuplicateLookup interface {
	LookupDuplicates(ctx context.Context, normalized string, kind models.DuplicateKind) ([]models.DuplicateMatch, error)
}

// ContactStore persists a submitted contact. A nil ID means create and the store assigns it.
type ContactStore interface {
	SaveContact(ctx context.Context, contact *models.Contact) error
}

// Deps bundles the collaborators an EditSession talks to. Any of them may be nil
// when the corresponding feature is unused.
type Deps struct {
	Companies  CompanyDirectory
	CaseRoles  CaseRoleStore
	Duplicates DuplicateLookup
	Contacts   ContactStore
}

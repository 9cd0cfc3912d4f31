// ABOUTME: Directory adapts the SQLite database to the contact editor collaborators
// ABOUTME: Company search/create, case role load/save, duplicate lookup and contact save
package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
)

var (
	_ editor.CompanyDirectory = (*Directory)(nil)
	_ editor.CaseRoleStore    = (*Directory)(nil)
	_ editor.DuplicateLookup  = (*Directory)(nil)
	_ editor.ContactStore     = (*Directory)(nil)
)

// Directory serves every editor collaborator from a local database.
type Directory struct {
	db *sql.DB
}

// NewDirectory wraps an open database.
func NewDirectory(db *sql.DB) *Directory {
	return &Directory{db: db}
}

// DB exposes the underlying handle for commands that need direct queries.
func (d *Directory) DB() *sql.DB {
	return d.db
}

func (d *Directory) SearchCompanies(ctx context.Context, query string, limit int) ([]models.Company, error) {
	return FindCompanies(ctx, d.db, query, limit)
}

// CreateCompany returns the existing company when the name is already taken.
func (d *Directory) CreateCompany(ctx context.Context, name, industry string) (*models.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("company name is required")
	}

	existing, err := FindCompanyByName(ctx, d.db, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	company := &models.Company{Name: name, Industry: industry}
	if err := CreateCompany(ctx, d.db, company); err != nil {
		return nil, err
	}
	return company, nil
}

func (d *Directory) ListCaseRoles(ctx context.Context, contactID uuid.UUID) ([]models.CaseRoles, error) {
	return ListCaseRoles(ctx, d.db, contactID)
}

func (d *Directory) SaveCaseRoles(ctx context.Context, contactID, caseID uuid.UUID, roles []models.Role) error {
	return SetCaseRoles(ctx, d.db, contactID, caseID, roles)
}

func (d *Directory) LookupDuplicates(ctx context.Context, normalized string, kind models.DuplicateKind) ([]models.DuplicateMatch, error) {
	return FindDuplicateContacts(ctx, d.db, normalized, kind)
}

func (d *Directory) SaveContact(ctx context.Context, contact *models.Contact) error {
	return SaveContact(ctx, d.db, contact)
}

// GetContact loads a contact for a new edit session.
func (d *Directory) GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	return GetContact(ctx, d.db, id)
}

// ABOUTME: Company database operations
// ABOUTME: Handles CRUD operations and name lookups for the company directory
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/models"
)

const companyColumns = `id, name, domain, industry, created_at, updated_at`

func scanCompany(row interface{ Scan(...any) error }, c *models.Company) error {
	var domain, industry sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &domain, &industry, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return err
	}
	c.Domain = domain.String
	c.Industry = industry.String
	return nil
}

// CreateCompany inserts company, assigning its ID and timestamps.
func CreateCompany(ctx context.Context, db *sql.DB, company *models.Company) error {
	company.ID = uuid.New()
	now := time.Now().UTC()
	company.CreatedAt = now
	company.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO companies (id, name, domain, industry, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, company.ID.String(), company.Name, company.Domain, company.Industry, company.CreatedAt, company.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

// GetCompany returns the company or nil when it does not exist.
func GetCompany(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Company, error) {
	company := &models.Company{}
	err := scanCompany(db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = ?`, id.String()), company)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// FindCompanies matches query against name and domain, case-insensitively.
// Names starting with the query sort first.
func FindCompanies(ctx context.Context, db *sql.DB, query string, limit int) ([]models.Company, error) {
	if limit <= 0 {
		limit = 10
	}

	q := strings.ToLower(strings.TrimSpace(query))
	rows, err := db.QueryContext(ctx, `
		SELECT `+companyColumns+`
		FROM companies
		WHERE LOWER(name) LIKE ? OR LOWER(domain) LIKE ?
		ORDER BY CASE WHEN LOWER(name) LIKE ? THEN 0 ELSE 1 END, name
		LIMIT ?
	`, "%"+q+"%", "%"+q+"%", q+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search companies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var companies []models.Company
	for rows.Next() {
		var c models.Company
		if err := scanCompany(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// FindCompanyByName returns the company whose name matches exactly, ignoring case.
func FindCompanyByName(ctx context.Context, db *sql.DB, name string) (*models.Company, error) {
	company := &models.Company{}
	err := scanCompany(db.QueryRowContext(ctx, `
		SELECT `+companyColumns+` FROM companies WHERE LOWER(name) = LOWER(?) LIMIT 1
	`, strings.TrimSpace(name)), company)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find company: %w", err)
	}
	return company, nil
}

// ListCompanies returns companies ordered by name.
func ListCompanies(ctx context.Context, db *sql.DB, limit int) ([]models.Company, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY name LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var companies []models.Company
	for rows.Next() {
		var c models.Company
		if err := scanCompany(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// UpdateCompany overwrites the mutable company fields.
func UpdateCompany(ctx context.Context, db *sql.DB, company *models.Company) error {
	company.UpdatedAt = time.Now().UTC()

	_, err := db.ExecContext(ctx, `
		UPDATE companies
		SET name = ?, domain = ?, industry = ?, updated_at = ?
		WHERE id = ?
	`, company.Name, company.Domain, company.Industry, company.UpdatedAt, company.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	return nil
}

// DeleteCompany removes a company. Contact affiliations keep the name as free text.
func DeleteCompany(ctx context.Context, db *sql.DB, id uuid.UUID) error {
	var caseCount int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cases WHERE company_id = ?`, id.String()).Scan(&caseCount)
	if err != nil {
		return fmt.Errorf("failed to check cases: %w", err)
	}
	if caseCount > 0 {
		return fmt.Errorf("cannot delete company with %d cases", caseCount)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `UPDATE contact_companies SET company_id = NULL WHERE company_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to detach contacts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	return tx.Commit()
}

// ABOUTME: Import of a legacy pagen database into the contactdesk schema
// ABOUTME: Copies companies, single-email contacts and deals (as cases) with duplicate skipping
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
)

// legacyTables must all exist for a database to be treated as a pagen database.
var legacyTables = []string{"companies", "contacts", "deals"}

// LegacyStats counts what ImportLegacy copied or would copy.
type LegacyStats struct {
	Companies int `json:"companies"`
	Contacts  int `json:"contacts"`
	Cases     int `json:"cases"`
	Skipped   int `json:"skipped"`
}

// Tables lists the tables in the database.
func Tables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// IsLegacyDatabase reports whether src carries the pagen tables.
func IsLegacyDatabase(ctx context.Context, src *sql.DB) (bool, error) {
	tables, err := Tables(ctx, src)
	if err != nil {
		return false, err
	}
	have := make(map[string]bool, len(tables))
	for _, t := range tables {
		have[t] = true
	}
	for _, t := range legacyTables {
		if !have[t] {
			return false, nil
		}
	}
	return true, nil
}

// ImportLegacy copies a pagen database into dst. Companies are matched by name,
// contacts by normalized email; matches are reused instead of duplicated. Each
// deal becomes a case with its contact attached and no roles. With dryRun set
// nothing is written and the stats describe what would be copied.
func ImportLegacy(ctx context.Context, src, dst *sql.DB, dryRun bool) (LegacyStats, error) {
	var stats LegacyStats

	ok, err := IsLegacyDatabase(ctx, src)
	if err != nil {
		return stats, err
	}
	if !ok {
		return stats, fmt.Errorf("not a pagen database: missing one of %s", strings.Join(legacyTables, ", "))
	}

	companies, err := importLegacyCompanies(ctx, src, dst, dryRun, &stats)
	if err != nil {
		return stats, err
	}
	contacts, err := importLegacyContacts(ctx, src, dst, companies, dryRun, &stats)
	if err != nil {
		return stats, err
	}
	if err := importLegacyDeals(ctx, src, dst, companies, contacts, dryRun, &stats); err != nil {
		return stats, err
	}
	return stats, nil
}

// legacyIDs maps a pagen row ID to the contactdesk ID it became. Dry runs
// record uuid.Nil.
type legacyIDs map[string]uuid.UUID

type legacyCompany struct {
	id string
	models.Company
}

func importLegacyCompanies(ctx context.Context, src, dst *sql.DB, dryRun bool, stats *LegacyStats) (legacyIDs, error) {
	rows, err := src.QueryContext(ctx, `SELECT id, name, COALESCE(domain, ''), COALESCE(industry, '') FROM companies ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy companies: %w", err)
	}
	var legacy []legacyCompany
	for rows.Next() {
		var row legacyCompany
		if err := rows.Scan(&row.id, &row.Name, &row.Domain, &row.Industry); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan legacy company: %w", err)
		}
		legacy = append(legacy, row)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	ids := make(legacyIDs, len(legacy))
	for _, row := range legacy {
		existing, err := FindCompanyByName(ctx, dst, row.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			ids[row.id] = existing.ID
			stats.Skipped++
			continue
		}
		stats.Companies++
		if dryRun {
			ids[row.id] = uuid.Nil
			continue
		}
		company := row.Company
		if err := CreateCompany(ctx, dst, &company); err != nil {
			return nil, err
		}
		ids[row.id] = company.ID
	}
	return ids, nil
}

func importLegacyContacts(ctx context.Context, src, dst *sql.DB, companies legacyIDs, dryRun bool, stats *LegacyStats) (legacyIDs, error) {
	rows, err := src.QueryContext(ctx, `
		SELECT c.id, c.name, COALESCE(c.email, ''), COALESCE(c.phone, ''), COALESCE(c.company_id, ''), COALESCE(co.name, '')
		FROM contacts c
		LEFT JOIN companies co ON co.id = c.company_id
		ORDER BY c.created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy contacts: %w", err)
	}
	type legacyContact struct {
		id, name, email, phone, companyID, companyName string
	}
	var legacy []legacyContact
	for rows.Next() {
		var c legacyContact
		if err := rows.Scan(&c.id, &c.name, &c.email, &c.phone, &c.companyID, &c.companyName); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan legacy contact: %w", err)
		}
		legacy = append(legacy, c)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	ids := make(legacyIDs, len(legacy))
	for _, c := range legacy {
		if key := editor.NormalizeEmail(c.email); key != "" {
			matches, err := FindDuplicateContacts(ctx, dst, key, models.DuplicateEmail)
			if err != nil {
				return nil, err
			}
			if len(matches) > 0 {
				ids[c.id] = matches[0].ContactID
				stats.Skipped++
				continue
			}
		}

		stats.Contacts++
		if dryRun {
			ids[c.id] = uuid.Nil
			continue
		}

		contact := legacyToContact(c.name, c.email, c.phone)
		if c.companyName != "" {
			ref := models.ContactCompany{CompanyName: c.companyName, IsPrimary: true}
			if id, ok := companies[c.companyID]; ok {
				ref.CompanyID = &id
			}
			contact.Companies = []models.ContactCompany{ref}
		}
		if err := CreateContact(ctx, dst, contact); err != nil {
			return nil, err
		}
		ids[c.id] = contact.ID
	}
	return ids, nil
}

func importLegacyDeals(ctx context.Context, src, dst *sql.DB, companies, contacts legacyIDs, dryRun bool, stats *LegacyStats) error {
	rows, err := src.QueryContext(ctx, `
		SELECT id, title, COALESCE(amount, 0), COALESCE(currency, 'USD'), stage, COALESCE(company_id, ''), COALESCE(contact_id, '')
		FROM deals ORDER BY created_at
	`)
	if err != nil {
		return fmt.Errorf("failed to read legacy deals: %w", err)
	}
	type legacyDeal struct {
		c                    models.Case
		companyID, contactID string
	}
	var legacy []legacyDeal
	for rows.Next() {
		var d legacyDeal
		var id string
		if err := rows.Scan(&id, &d.c.Title, &d.c.Amount, &d.c.Currency, &d.c.Stage, &d.companyID, &d.contactID); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan legacy deal: %w", err)
		}
		legacy = append(legacy, d)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, d := range legacy {
		stats.Cases++
		if dryRun {
			continue
		}
		c := d.c
		if id, ok := companies[d.companyID]; ok {
			c.CompanyID = &id
		}
		if err := CreateCase(ctx, dst, &c); err != nil {
			return err
		}
		if contactID, ok := contacts[d.contactID]; ok {
			if err := AttachContact(ctx, dst, c.ID, contactID); err != nil {
				return err
			}
		}
	}
	return nil
}

// legacyToContact splits the single pagen name into first and last name.
func legacyToContact(name, email, phone string) *models.Contact {
	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	contact := &models.Contact{
		FirstName: first,
		LastName:  strings.TrimSpace(last),
		Stage:     models.StageLead,
	}
	if email = strings.TrimSpace(email); email != "" {
		contact.Emails = []models.ContactEmail{{Address: email, IsPrimary: true}}
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		contact.Phones = []models.ContactPhone{{Number: phone, IsPrimary: true}}
	}
	return contact
}

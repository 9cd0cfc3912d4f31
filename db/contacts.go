// ABOUTME: Contact database operations
// ABOUTME: Stores contacts with their ordered email, phone, company and role child rows
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
)

const contactColumns = `id, title, first_name, last_name, job_title, location, country, linkedin_url, buyer_persona, stage, sub_status, created_at, updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanContact(row interface{ Scan(...any) error }, c *models.Contact) error {
	var title, last, job, location, country, linkedin, persona, stage, sub sql.NullString
	err := row.Scan(&c.ID, &title, &c.FirstName, &last, &job, &location, &country, &linkedin, &persona, &stage, &sub, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return err
	}
	c.Title = title.String
	c.LastName = last.String
	c.JobTitle = job.String
	c.Location = location.String
	c.Country = country.String
	c.LinkedInURL = linkedin.String
	c.BuyerPersona = persona.String
	c.Stage = stage.String
	c.SubStatus = sub.String
	return nil
}

// CreateContact inserts contact and its collections, assigning the ID and timestamps.
func CreateContact(ctx context.Context, db *sql.DB, contact *models.Contact) error {
	contact.ID = uuid.New()
	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO contacts (`+contactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, contact.ID.String(), contact.Title, contact.FirstName, contact.LastName, contact.JobTitle,
		contact.Location, contact.Country, contact.LinkedInURL, contact.BuyerPersona,
		contact.Stage, contact.SubStatus, contact.CreatedAt, contact.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	if err := writeContactChildren(ctx, tx, contact); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateContact overwrites the scalar fields and replaces every collection.
func UpdateContact(ctx context.Context, db *sql.DB, contact *models.Contact) error {
	contact.UpdatedAt = time.Now().UTC()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE contacts
		SET title = ?, first_name = ?, last_name = ?, job_title = ?, location = ?, country = ?,
			linkedin_url = ?, buyer_persona = ?, stage = ?, sub_status = ?, updated_at = ?
		WHERE id = ?
	`, contact.Title, contact.FirstName, contact.LastName, contact.JobTitle, contact.Location,
		contact.Country, contact.LinkedInURL, contact.BuyerPersona, contact.Stage, contact.SubStatus,
		contact.UpdatedAt, contact.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to update contact: %s not found", contact.ID)
	}

	for _, table := range []string{"contact_emails", "contact_phones", "contact_companies", "contact_roles"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE contact_id = ?`, contact.ID.String()); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := writeContactChildren(ctx, tx, contact); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveContact creates the contact when its ID is nil and updates it otherwise.
func SaveContact(ctx context.Context, db *sql.DB, contact *models.Contact) error {
	if contact.ID == uuid.Nil {
		return CreateContact(ctx, db, contact)
	}
	return UpdateContact(ctx, db, contact)
}

func writeContactChildren(ctx context.Context, tx execer, c *models.Contact) error {
	id := c.ID.String()

	for i, e := range c.Emails {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contact_emails (contact_id, position, address, normalized, is_primary)
			VALUES (?, ?, ?, ?, ?)
		`, id, i, e.Address, editor.NormalizeEmail(e.Address), e.IsPrimary)
		if err != nil {
			return fmt.Errorf("failed to insert email: %w", err)
		}
	}

	for i, p := range c.Phones {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contact_phones (contact_id, position, number, normalized, is_primary)
			VALUES (?, ?, ?, ?, ?)
		`, id, i, p.Number, editor.NormalizePhone(p.Number), p.IsPrimary)
		if err != nil {
			return fmt.Errorf("failed to insert phone: %w", err)
		}
	}

	for i, co := range c.Companies {
		var companyID *string
		if co.CompanyID != nil {
			s := co.CompanyID.String()
			companyID = &s
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contact_companies (contact_id, position, company_id, company_name, is_primary)
			VALUES (?, ?, ?, ?, ?)
		`, id, i, companyID, co.CompanyName, co.IsPrimary)
		if err != nil {
			return fmt.Errorf("failed to insert company affiliation: %w", err)
		}
	}

	for _, r := range c.Roles {
		_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO contact_roles (contact_id, role) VALUES (?, ?)`, id, string(r))
		if err != nil {
			return fmt.Errorf("failed to insert role: %w", err)
		}
	}
	return nil
}

// GetContact returns the contact with all collections, or nil when it does not exist.
func GetContact(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Contact, error) {
	contact := &models.Contact{}
	err := scanContact(db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id.String()), contact)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	if err := loadContactChildren(ctx, db, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func loadContactChildren(ctx context.Context, db *sql.DB, c *models.Contact) error {
	id := c.ID.String()

	rows, err := db.QueryContext(ctx, `SELECT address, is_primary FROM contact_emails WHERE contact_id = ? ORDER BY position`, id)
	if err != nil {
		return fmt.Errorf("failed to load emails: %w", err)
	}
	for rows.Next() {
		var e models.ContactEmail
		if err := rows.Scan(&e.Address, &e.IsPrimary); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan email: %w", err)
		}
		c.Emails = append(c.Emails, e)
	}
	_ = rows.Close()

	rows, err = db.QueryContext(ctx, `SELECT number, is_primary FROM contact_phones WHERE contact_id = ? ORDER BY position`, id)
	if err != nil {
		return fmt.Errorf("failed to load phones: %w", err)
	}
	for rows.Next() {
		var p models.ContactPhone
		if err := rows.Scan(&p.Number, &p.IsPrimary); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan phone: %w", err)
		}
		c.Phones = append(c.Phones, p)
	}
	_ = rows.Close()

	rows, err = db.QueryContext(ctx, `SELECT company_id, company_name, is_primary FROM contact_companies WHERE contact_id = ? ORDER BY position`, id)
	if err != nil {
		return fmt.Errorf("failed to load companies: %w", err)
	}
	for rows.Next() {
		var co models.ContactCompany
		var companyID sql.NullString
		if err := rows.Scan(&companyID, &co.CompanyName, &co.IsPrimary); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan company affiliation: %w", err)
		}
		if companyID.Valid {
			if cid, err := uuid.Parse(companyID.String); err == nil {
				co.CompanyID = &cid
			}
		}
		c.Companies = append(c.Companies, co)
	}
	_ = rows.Close()

	rows, err = db.QueryContext(ctx, `SELECT role FROM contact_roles WHERE contact_id = ? ORDER BY role`, id)
	if err != nil {
		return fmt.Errorf("failed to load roles: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return fmt.Errorf("failed to scan role: %w", err)
		}
		c.Roles = append(c.Roles, models.Role(r))
	}
	return rows.Err()
}

// FindContacts matches query against names and email addresses. An empty
// query lists the most recently updated contacts. Results include collections.
func FindContacts(ctx context.Context, db *sql.DB, query string, limit int) ([]models.Contact, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows *sql.Rows
	var err error
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		rows, err = db.QueryContext(ctx, `
			SELECT `+contactColumns+` FROM contacts ORDER BY updated_at DESC LIMIT ?
		`, limit)
	} else {
		pattern := "%" + q + "%"
		rows, err = db.QueryContext(ctx, `
			SELECT `+contactColumns+` FROM contacts
			WHERE LOWER(first_name || ' ' || COALESCE(last_name, '')) LIKE ?
				OR id IN (SELECT contact_id FROM contact_emails WHERE normalized LIKE ?)
			ORDER BY updated_at DESC
			LIMIT ?
		`, pattern, pattern, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}

	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := scanContact(rows, &c); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range contacts {
		if err := loadContactChildren(ctx, db, &contacts[i]); err != nil {
			return nil, err
		}
	}
	return contacts, nil
}

// FindDuplicateContacts returns contacts holding the normalized email or phone.
func FindDuplicateContacts(ctx context.Context, db *sql.DB, normalized string, kind models.DuplicateKind) ([]models.DuplicateMatch, error) {
	var table string
	var valueColumn string
	switch kind {
	case models.DuplicateEmail:
		table, valueColumn = "contact_emails", "address"
	case models.DuplicatePhone:
		table, valueColumn = "contact_phones", "number"
	default:
		return nil, fmt.Errorf("unknown duplicate kind %q", kind)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.first_name, COALESCE(c.last_name, ''), t.`+valueColumn+`
		FROM `+table+` t
		JOIN contacts c ON c.id = t.contact_id
		WHERE t.normalized = ?
		ORDER BY c.first_name
	`, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to look up duplicates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	seen := make(map[uuid.UUID]bool)
	var matches []models.DuplicateMatch
	for rows.Next() {
		var m models.DuplicateMatch
		var first, last string
		if err := rows.Scan(&m.ContactID, &first, &last, &m.Value); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate: %w", err)
		}
		if seen[m.ContactID] {
			continue
		}
		seen[m.ContactID] = true
		m.DisplayName = strings.TrimSpace(first + " " + last)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// DeleteContact removes a contact; child rows and case links cascade.
func DeleteContact(ctx context.Context, db *sql.DB, id uuid.UUID) error {
	_, err := db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

// ABOUTME: Case (deal) database operations and per-case contact role assignments
// ABOUTME: Roles are stored per (case, contact) and replaced as a whole set on save
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/models"
)

const caseColumns = `id, title, stage, amount, currency, company_id, created_at, updated_at`

func scanCase(row interface{ Scan(...any) error }, c *models.Case) error {
	var amount sql.NullInt64
	var companyID sql.NullString
	if err := row.Scan(&c.ID, &c.Title, &c.Stage, &amount, &c.Currency, &companyID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return err
	}
	c.Amount = amount.Int64
	if companyID.Valid {
		if cid, err := uuid.Parse(companyID.String); err == nil {
			c.CompanyID = &cid
		}
	}
	return nil
}

// CreateCase inserts a case, assigning its ID and timestamps.
func CreateCase(ctx context.Context, db *sql.DB, c *models.Case) error {
	c.ID = uuid.New()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if c.Stage == "" {
		c.Stage = models.CaseStageProspecting
	}

	var companyID *string
	if c.CompanyID != nil {
		s := c.CompanyID.String()
		companyID = &s
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO cases (`+caseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID.String(), c.Title, c.Stage, c.Amount, c.Currency, companyID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

// GetCase returns the case or nil when it does not exist.
func GetCase(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Case, error) {
	c := &models.Case{}
	err := scanCase(db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = ?`, id.String()), c)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return c, nil
}

// ListCases returns cases, optionally filtered by stage, newest first.
func ListCases(ctx context.Context, db *sql.DB, stage string, limit int) ([]models.Case, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx, `
		SELECT `+caseColumns+` FROM cases
		WHERE ? = '' OR stage = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, stage, stage, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cases []models.Case
	for rows.Next() {
		var c models.Case
		if err := scanCase(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

// UpdateCaseStage moves a case to a new stage.
func UpdateCaseStage(ctx context.Context, db *sql.DB, id uuid.UUID, stage string) error {
	_, err := db.ExecContext(ctx, `UPDATE cases SET stage = ?, updated_at = ? WHERE id = ?`, stage, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update case stage: %w", err)
	}
	return nil
}

// AttachContact links a contact to a case. Linking twice is harmless.
func AttachContact(ctx context.Context, db *sql.DB, caseID, contactID uuid.UUID) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO case_contacts (case_id, contact_id, created_at) VALUES (?, ?, ?)
	`, caseID.String(), contactID.String(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to attach contact to case: %w", err)
	}
	return nil
}

// ListCaseRoles returns every case the contact is linked to with the roles held in it.
func ListCaseRoles(ctx context.Context, db *sql.DB, contactID uuid.UUID) ([]models.CaseRoles, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.title, c.stage, c.amount, c.currency, c.company_id, c.created_at, c.updated_at
		FROM cases c
		JOIN case_contacts cc ON cc.case_id = c.id
		WHERE cc.contact_id = ?
		ORDER BY c.created_at DESC
	`, contactID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list case history: %w", err)
	}

	var history []models.CaseRoles
	for rows.Next() {
		var cr models.CaseRoles
		if err := scanCase(rows, &cr.Case); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cr.Roles = []models.Role{}
		history = append(history, cr)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range history {
		roles, err := caseRoles(ctx, db, history[i].Case.ID, contactID)
		if err != nil {
			return nil, err
		}
		history[i].Roles = roles
	}
	return history, nil
}

func caseRoles(ctx context.Context, db *sql.DB, caseID, contactID uuid.UUID) ([]models.Role, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT role FROM case_roles WHERE case_id = ? AND contact_id = ? ORDER BY role
	`, caseID.String(), contactID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load case roles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	roles := []models.Role{}
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("failed to scan case role: %w", err)
		}
		roles = append(roles, models.Role(r))
	}
	return roles, rows.Err()
}

// SetCaseRoles replaces the contact's role set in a case. An empty set removes
// all roles while keeping the contact linked.
func SetCaseRoles(ctx context.Context, db *sql.DB, contactID, caseID uuid.UUID, roles []models.Role) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO case_contacts (case_id, contact_id, created_at) VALUES (?, ?, ?)
	`, caseID.String(), contactID.String(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to link contact to case: %w", err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM case_roles WHERE case_id = ? AND contact_id = ?`, caseID.String(), contactID.String())
	if err != nil {
		return fmt.Errorf("failed to clear case roles: %w", err)
	}

	for _, r := range roles {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO case_roles (case_id, contact_id, role) VALUES (?, ?, ?)
		`, caseID.String(), contactID.String(), string(r))
		if err != nil {
			return fmt.Errorf("failed to insert case role: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE cases SET updated_at = ? WHERE id = ?`, time.Now().UTC(), caseID.String()); err != nil {
		return fmt.Errorf("failed to touch case: %w", err)
	}
	return tx.Commit()
}

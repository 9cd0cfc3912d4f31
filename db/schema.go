// ABOUTME: Database schema definitions and migrations
// ABOUTME: Contacts with email/phone/company child tables, cases and per-case roles
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS companies (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	domain TEXT,
	industry TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name);

CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	title TEXT,
	first_name TEXT NOT NULL,
	last_name TEXT,
	job_title TEXT,
	location TEXT,
	country TEXT,
	linkedin_url TEXT,
	buyer_persona TEXT,
	stage TEXT,
	sub_status TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS contact_emails (
	contact_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	address TEXT NOT NULL,
	normalized TEXT NOT NULL,
	is_primary INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (contact_id, position),
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_contact_emails_normalized ON contact_emails(normalized);

CREATE TABLE IF NOT EXISTS contact_phones (
	contact_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	number TEXT NOT NULL,
	normalized TEXT NOT NULL,
	is_primary INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (contact_id, position),
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_contact_phones_normalized ON contact_phones(normalized);

CREATE TABLE IF NOT EXISTS contact_companies (
	contact_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	company_id TEXT,
	company_name TEXT NOT NULL,
	is_primary INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (contact_id, position),
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE,
	FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_contact_companies_company ON contact_companies(company_id);

CREATE TABLE IF NOT EXISTS contact_roles (
	contact_id TEXT NOT NULL,
	role TEXT NOT NULL,
	PRIMARY KEY (contact_id, role),
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS cases (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	stage TEXT NOT NULL,
	amount INTEGER,
	currency TEXT NOT NULL DEFAULT 'USD',
	company_id TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_cases_stage ON cases(stage);

CREATE TABLE IF NOT EXISTS case_contacts (
	case_id TEXT NOT NULL,
	contact_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (case_id, contact_id),
	FOREIGN KEY (case_id) REFERENCES cases(id) ON DELETE CASCADE,
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_case_contacts_contact ON case_contacts(contact_id);

CREATE TABLE IF NOT EXISTS case_roles (
	case_id TEXT NOT NULL,
	contact_id TEXT NOT NULL,
	role TEXT NOT NULL,
	PRIMARY KEY (case_id, contact_id, role),
	FOREIGN KEY (case_id, contact_id) REFERENCES case_contacts(case_id, contact_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	last_sync_token TEXT,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sync_log (
	id TEXT PRIMARY KEY,
	source_service TEXT NOT NULL,
	source_id TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	imported_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	metadata TEXT,
	UNIQUE(source_service, source_id)
);

CREATE INDEX IF NOT EXISTS idx_sync_log_entity ON sync_log(entity_type, entity_id);
`

// InitSchema creates every table and index that does not exist yet.
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return err
	}
	_, err := db.Exec(schema)
	return err
}

// ABOUTME: Contact deduplication and matching logic
// ABOUTME: Finds existing contacts by any of their normalized emails during import
package sync

import (
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
)

type ContactMatcher struct {
	byEmail map[string]*models.Contact
}

// NewContactMatcher creates a matcher from existing contacts.
func NewContactMatcher(contacts []models.Contact) *ContactMatcher {
	m := &ContactMatcher{
		byEmail: make(map[string]*models.Contact),
	}
	for i := range contacts {
		m.AddContact(&contacts[i])
	}
	return m
}

// FindMatch returns the first known contact owning any of emails.
func (m *ContactMatcher) FindMatch(emails ...string) (*models.Contact, bool) {
	for _, email := range emails {
		normalized := editor.NormalizeEmail(email)
		if normalized == "" {
			continue
		}
		if contact, found := m.byEmail[normalized]; found {
			return contact, true
		}
	}
	return nil, false
}

// AddContact indexes every email of contact so later imports in the same
// session match it.
func (m *ContactMatcher) AddContact(contact *models.Contact) {
	for _, e := range contact.Emails {
		if email := editor.NormalizeEmail(e.Address); email != "" {
			m.byEmail[email] = contact
		}
	}
}

// Len returns the number of indexed addresses.
func (m *ContactMatcher) Len() int {
	return len(m.byEmail)
}

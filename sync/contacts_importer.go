// ABOUTME: Google Contacts importer
// ABOUTME: Turns Google people into contact drafts and stores the ones not seen before
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/harperreed/contactdesk/db"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
	"go.uber.org/zap"
	"google.golang.org/api/people/v1"
)

const contactsService = "contacts"

// ImportStats summarizes one import run.
type ImportStats struct {
	Fetched    int `json:"fetched"`
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Outcome is what happened to a single person.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeDuplicate
	OutcomeSkipped
)

// ContactsImporter stores Google people as contacts.
type ContactsImporter struct {
	db       *sql.DB
	resolver *editor.CountryCodeResolver
	matcher  *ContactMatcher
	logger   *zap.Logger
}

// NewContactsImporter loads existing contacts into the matcher.
func NewContactsImporter(ctx context.Context, database *sql.DB, resolver *editor.CountryCodeResolver, logger *zap.Logger) (*ContactsImporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Load all existing contacts once, not per person
	existing, err := db.FindContacts(ctx, database, "", 20000)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing contacts: %w", err)
	}
	return &ContactsImporter{
		db:       database,
		resolver: resolver,
		matcher:  NewContactMatcher(existing),
		logger:   logger,
	}, nil
}

// ImportPerson stores person unless it was imported before or one of its
// emails already belongs to a contact.
func (ci *ContactsImporter) ImportPerson(ctx context.Context, person *people.Person) (Outcome, error) {
	draft := DraftFromPerson(person, ci.resolver)
	if draft == nil {
		return OutcomeSkipped, nil
	}

	exists, err := db.CheckSyncLogExists(ctx, ci.db, contactsService, person.ResourceName)
	if err != nil {
		return OutcomeSkipped, err
	}
	if exists {
		return OutcomeSkipped, nil
	}

	contact := draft.ToContact()
	if existing, found := ci.matcher.FindMatch(emailsOf(contact)...); found {
		if err := db.CreateSyncLog(ctx, ci.db, contactsService, person.ResourceName, "contact", existing.ID); err != nil {
			return OutcomeDuplicate, err
		}
		return OutcomeDuplicate, nil
	}

	if err := ci.resolveCompanies(ctx, contact); err != nil {
		return OutcomeSkipped, err
	}
	if err := db.CreateContact(ctx, ci.db, contact); err != nil {
		return OutcomeSkipped, err
	}
	if err := db.CreateSyncLog(ctx, ci.db, contactsService, person.ResourceName, "contact", contact.ID); err != nil {
		return OutcomeCreated, fmt.Errorf("failed to log sync: %w", err)
	}

	// Index the new contact so later people in this run match it
	ci.matcher.AddContact(contact)
	return OutcomeCreated, nil
}

// resolveCompanies links organization names to existing companies, creating
// the ones that do not exist yet.
func (ci *ContactsImporter) resolveCompanies(ctx context.Context, contact *models.Contact) error {
	for i := range contact.Companies {
		cc := &contact.Companies[i]
		if cc.CompanyID != nil || cc.CompanyName == "" {
			continue
		}
		company, err := db.FindCompanyByName(ctx, ci.db, cc.CompanyName)
		if err != nil {
			return err
		}
		if company == nil {
			company = &models.Company{Name: cc.CompanyName}
			if err := db.CreateCompany(ctx, ci.db, company); err != nil {
				return fmt.Errorf("failed to handle company: %w", err)
			}
		}
		id := company.ID
		cc.CompanyID = &id
		cc.CompanyName = company.Name
	}
	return nil
}

// Import pages through source and imports every person.
func (ci *ContactsImporter) Import(ctx context.Context, source PersonSource) (ImportStats, error) {
	var stats ImportStats

	if err := db.UpdateSyncStatus(ctx, ci.db, contactsService, "syncing", nil); err != nil {
		return stats, err
	}

	pageToken := ""
	for {
		persons, next, err := source.ListPeople(ctx, pageToken)
		if err != nil {
			errMsg := err.Error()
			_ = db.UpdateSyncStatus(ctx, ci.db, contactsService, "error", &errMsg)
			return stats, err
		}
		stats.Fetched += len(persons)

		for _, person := range persons {
			outcome, err := ci.ImportPerson(ctx, person)
			if err != nil {
				stats.Failed++
				ci.logger.Warn("failed to import person",
					zap.String("resource", person.ResourceName),
					zap.Error(err))
				continue
			}
			switch outcome {
			case OutcomeCreated:
				stats.Created++
			case OutcomeDuplicate:
				stats.Duplicates++
			default:
				stats.Skipped++
			}
		}

		if next == "" {
			break
		}
		pageToken = next
		ci.logger.Info("import progress", zap.Int("fetched", stats.Fetched), zap.Int("created", stats.Created))
	}

	if err := db.UpdateSyncStatus(ctx, ci.db, contactsService, "idle", nil); err != nil {
		return stats, err
	}
	ci.logger.Info("google contacts imported",
		zap.Int("fetched", stats.Fetched),
		zap.Int("created", stats.Created),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

// ImportPeople imports every Google person from source into database.
func ImportPeople(ctx context.Context, database *sql.DB, source PersonSource, resolver *editor.CountryCodeResolver, logger *zap.Logger) (ImportStats, error) {
	importer, err := NewContactsImporter(ctx, database, resolver, logger)
	if err != nil {
		return ImportStats{}, err
	}
	return importer.Import(ctx, source)
}

// DraftFromPerson converts a Google person into a contact draft carrying
// all of its emails, phones and organizations with Google's primary flags.
// People without a name yield nil.
func DraftFromPerson(person *people.Person, resolver *editor.CountryCodeResolver) *editor.ContactDraft {
	if person == nil {
		return nil
	}
	c := &models.Contact{}

	if len(person.Names) > 0 {
		n := person.Names[0]
		c.FirstName = strings.TrimSpace(n.GivenName)
		c.LastName = strings.TrimSpace(n.FamilyName)
		c.Title = strings.TrimSpace(n.HonorificPrefix)
		if c.FirstName == "" && c.LastName == "" {
			c.FirstName = strings.TrimSpace(n.DisplayName)
		}
	}
	if c.FirstName == "" && c.LastName == "" {
		return nil
	}

	for _, e := range person.EmailAddresses {
		if addr := strings.TrimSpace(e.Value); addr != "" {
			c.Emails = append(c.Emails, models.ContactEmail{Address: addr, IsPrimary: isPrimary(e.Metadata)})
		}
	}

	for _, p := range person.PhoneNumbers {
		number := p.CanonicalForm
		if number == "" {
			number = p.Value
		}
		if number = strings.TrimSpace(number); number != "" {
			c.Phones = append(c.Phones, models.ContactPhone{Number: number, IsPrimary: isPrimary(p.Metadata)})
		}
	}

	for _, org := range person.Organizations {
		name := strings.TrimSpace(org.Name)
		if name == "" {
			continue
		}
		primary := isPrimary(org.Metadata)
		c.Companies = append(c.Companies, models.ContactCompany{CompanyName: name, IsPrimary: primary})
		if org.Title != "" && (c.JobTitle == "" || primary) {
			c.JobTitle = org.Title
		}
	}

	for _, u := range person.Urls {
		if strings.Contains(strings.ToLower(u.Value), "linkedin.com") {
			c.LinkedInURL = u.Value
			break
		}
	}

	if len(person.Addresses) > 0 {
		a := person.Addresses[0]
		c.Location = a.City
		c.Country = a.Country
	}

	return editor.DraftFromContact(c, resolver)
}

func isPrimary(md *people.FieldMetadata) bool {
	return md != nil && md.Primary
}

func emailsOf(c *models.Contact) []string {
	out := make([]string, 0, len(c.Emails))
	for _, e := range c.Emails {
		out = append(out, e.Address)
	}
	return out
}

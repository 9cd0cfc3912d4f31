// ABOUTME: ContactDraft aggregate holding the in-progress edit of one contact
// ABOUTME: Scalar fields, global roles and the email/phone/company collections
package editor

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/models"
)

// Scalars are the single-valued contact fields.
type Scalars struct {
	Title        string `json:"title,omitempty"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	JobTitle     string `json:"job_title,omitempty"`
	Location     string `json:"location,omitempty"`
	Country      string `json:"country,omitempty"`
	LinkedInURL  string `json:"linkedin_url,omitempty"`
	BuyerPersona string `json:"buyer_persona,omitempty"`
	Stage        string `json:"stage,omitempty"`
	SubStatus    string `json:"sub_status,omitempty"`
}

// ContactDraft is the edited record. The three collections are never empty.
type ContactDraft struct {
	mu          sync.RWMutex
	contactID   uuid.UUID
	createdAt   time.Time
	scalars     Scalars
	globalRoles roleSet

	Emails    *Field[Email]
	Phones    *Field[Phone]
	Companies *Field[CompanyRef]
}

// NewDraft returns an empty draft for a new contact.
func NewDraft() *ContactDraft {
	return &ContactDraft{
		globalRoles: make(roleSet),
		Emails:      NewField(Entry[Email]{}),
		Phones:      NewField(Entry[Phone]{}),
		Companies:   NewField(Entry[CompanyRef]{}),
	}
}

// DraftFromContact seeds a draft from a persisted contact. Stored phones are
// split into dialing code and local number.
func DraftFromContact(c *models.Contact, resolver *CountryCodeResolver) *ContactDraft {
	if resolver == nil {
		resolver = NewCountryCodeResolver("")
	}

	d := &ContactDraft{
		contactID:   c.ID,
		createdAt:   c.CreatedAt,
		globalRoles: newRoleSet(c.Roles),
		scalars: Scalars{
			Title:        c.Title,
			FirstName:    c.FirstName,
			LastName:     c.LastName,
			JobTitle:     c.JobTitle,
			Location:     c.Location,
			Country:      c.Country,
			LinkedInURL:  c.LinkedInURL,
			BuyerPersona: c.BuyerPersona,
			Stage:        c.Stage,
			SubStatus:    c.SubStatus,
		},
	}

	emails := make([]Entry[Email], 0, len(c.Emails))
	for _, e := range c.Emails {
		emails = append(emails, Entry[Email]{Value: Email{Address: e.Address}, IsPrimary: e.IsPrimary})
	}
	phones := make([]Entry[Phone], 0, len(c.Phones))
	for _, p := range c.Phones {
		code, number := resolver.Split(p.Number)
		phones = append(phones, Entry[Phone]{Value: Phone{CountryCode: code, Number: number}, IsPrimary: p.IsPrimary})
	}
	companies := make([]Entry[CompanyRef], 0, len(c.Companies))
	for _, co := range c.Companies {
		ref := CompanyRef{Name: co.CompanyName}
		if co.CompanyID != nil {
			id := *co.CompanyID
			ref.ID = &id
		}
		companies = append(companies, Entry[CompanyRef]{Value: ref, IsPrimary: co.IsPrimary})
	}

	if len(emails) == 0 {
		emails = append(emails, Entry[Email]{})
	}
	if len(phones) == 0 {
		phones = append(phones, Entry[Phone]{Value: Phone{CountryCode: resolver.Fallback()}})
	}
	if len(companies) == 0 {
		companies = append(companies, Entry[CompanyRef]{})
	}

	d.Emails = NewField(emails...)
	d.Phones = NewField(phones...)
	d.Companies = NewField(companies...)
	return d
}

// ContactID returns the persisted contact ID, or uuid.Nil for a new contact.
func (d *ContactDraft) ContactID() uuid.UUID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.contactID
}

func (d *ContactDraft) setContactID(id uuid.UUID, createdAt time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contactID = id
	d.createdAt = createdAt
}

// Scalars returns the single-valued fields.
func (d *ContactDraft) Scalars() Scalars {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.scalars
}

// SetScalars replaces the single-valued fields. A sub-status that does not
// belong to the resulting stage is cleared.
func (d *ContactDraft) SetScalars(s Scalars) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !models.ValidSubStatus(s.Stage, s.SubStatus) {
		s.SubStatus = ""
	}
	d.scalars = s
}

// SetStage changes the stage, keeping the sub-status only if still valid.
func (d *ContactDraft) SetStage(stage string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.scalars.Stage = stage
	if !models.ValidSubStatus(stage, d.scalars.SubStatus) {
		d.scalars.SubStatus = ""
	}
}

// ToggleGlobalRole flips membership of role in the contact-wide role set.
func (d *ContactDraft) ToggleGlobalRole(role models.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.globalRoles.toggle(role)
	return nil
}

// GlobalRoles returns the contact-wide roles, sorted.
func (d *ContactDraft) GlobalRoles() []models.Role {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.globalRoles.sorted()
}

// ToContact converts the draft into a persistable contact. Blank emails,
// phones and companies are dropped; if the primary was dropped the first
// remaining entry takes over.
func (d *ContactDraft) ToContact() *models.Contact {
	d.mu.RLock()
	c := &models.Contact{
		ID:           d.contactID,
		Title:        strings.TrimSpace(d.scalars.Title),
		FirstName:    strings.TrimSpace(d.scalars.FirstName),
		LastName:     strings.TrimSpace(d.scalars.LastName),
		JobTitle:     strings.TrimSpace(d.scalars.JobTitle),
		Location:     strings.TrimSpace(d.scalars.Location),
		Country:      strings.TrimSpace(d.scalars.Country),
		LinkedInURL:  strings.TrimSpace(d.scalars.LinkedInURL),
		BuyerPersona: strings.TrimSpace(d.scalars.BuyerPersona),
		Stage:        d.scalars.Stage,
		SubStatus:    d.scalars.SubStatus,
		Roles:        d.globalRoles.sorted(),
		CreatedAt:    d.createdAt,
	}
	d.mu.RUnlock()

	for _, e := range d.Emails.Entries() {
		if addr := strings.TrimSpace(e.Value.Address); addr != "" {
			c.Emails = append(c.Emails, models.ContactEmail{Address: addr, IsPrimary: e.IsPrimary})
		}
	}
	for _, p := range d.Phones.Entries() {
		if isBlank(p.Value.Number) {
			continue
		}
		c.Phones = append(c.Phones, models.ContactPhone{
			Number:    JoinPhone(p.Value.CountryCode, p.Value.Number),
			IsPrimary: p.IsPrimary,
		})
	}
	for _, co := range d.Companies.Entries() {
		name := strings.TrimSpace(co.Value.Name)
		if name == "" && co.Value.ID == nil {
			continue
		}
		cc := models.ContactCompany{CompanyName: name, IsPrimary: co.IsPrimary}
		if co.Value.ID != nil {
			id := *co.Value.ID
			cc.CompanyID = &id
		}
		c.Companies = append(c.Companies, cc)
	}

	ensureEmailPrimary(c.Emails)
	ensurePhonePrimary(c.Phones)
	ensureCompanyPrimary(c.Companies)
	return c
}

func ensureEmailPrimary(list []models.ContactEmail) {
	for _, e := range list {
		if e.IsPrimary {
			return
		}
	}
	if len(list) > 0 {
		list[0].IsPrimary = true
	}
}

func ensurePhonePrimary(list []models.ContactPhone) {
	for _, p := range list {
		if p.IsPrimary {
			return
		}
	}
	if len(list) > 0 {
		list[0].IsPrimary = true
	}
}

func ensureCompanyPrimary(list []models.ContactCompany) {
	for _, c := range list {
		if c.IsPrimary {
			return
		}
	}
	if len(list) > 0 {
		list[0].IsPrimary = true
	}
}

// DraftSnapshot is the serializable form of a draft used for autosave.
type DraftSnapshot struct {
	ContactID   uuid.UUID           `json:"contact_id"`
	CreatedAt   time.Time           `json:"created_at,omitempty"`
	Scalars     Scalars             `json:"scalars"`
	GlobalRoles []models.Role       `json:"global_roles,omitempty"`
	Emails      []Entry[Email]      `json:"emails"`
	Phones      []Entry[Phone]      `json:"phones"`
	Companies   []Entry[CompanyRef] `json:"companies"`
	SavedAt     time.Time           `json:"saved_at"`
}

// Snapshot captures the whole draft.
func (d *ContactDraft) Snapshot() DraftSnapshot {
	d.mu.RLock()
	s := DraftSnapshot{
		ContactID:   d.contactID,
		CreatedAt:   d.createdAt,
		Scalars:     d.scalars,
		GlobalRoles: d.globalRoles.sorted(),
	}
	d.mu.RUnlock()

	s.Emails = d.Emails.Entries()
	s.Phones = d.Phones.Entries()
	s.Companies = d.Companies.Entries()
	s.SavedAt = time.Now().UTC()
	return s
}

// RestoreDraft rebuilds a draft from a snapshot. Entry IDs are preserved and
// the primary invariant is re-established.
func RestoreDraft(s DraftSnapshot) *ContactDraft {
	emails := s.Emails
	if len(emails) == 0 {
		emails = []Entry[Email]{{}}
	}
	phones := s.Phones
	if len(phones) == 0 {
		phones = []Entry[Phone]{{}}
	}
	companies := s.Companies
	if len(companies) == 0 {
		companies = []Entry[CompanyRef]{{}}
	}

	d := &ContactDraft{
		contactID:   s.ContactID,
		createdAt:   s.CreatedAt,
		globalRoles: newRoleSet(s.GlobalRoles),
		Emails:      NewField(emails...),
		Phones:      NewField(phones...),
		Companies:   NewField(companies...),
	}
	d.SetScalars(s.Scalars)
	return d
}

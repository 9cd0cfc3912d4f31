// ABOUTME: EditSession ties a ContactDraft to its company workflow and case role tracker
// ABOUTME: Exposes field mutations by kind, advisory warnings, duplicate checks and submit
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/models"
	"go.uber.org/zap"
)

// SessionConfig carries the tunables for an edit session.
type SessionConfig struct {
	Workflow    WorkflowConfig
	SaveTimeout time.Duration
}

// SessionView is the read-only projection of a whole edit session.
type SessionView struct {
	ContactID   uuid.UUID           `json:"contact_id"`
	Scalars     Scalars             `json:"scalars"`
	GlobalRoles []models.Role       `json:"global_roles"`
	Emails      []Entry[Email]      `json:"emails"`
	Phones      []Entry[Phone]      `json:"phones"`
	Companies   []Entry[CompanyRef] `json:"companies"`
	Warnings    []ValidationWarning `json:"warnings,omitempty"`
	Company     WorkflowView        `json:"company_workflow"`
	Cases       []CaseRoleView      `json:"cases"`
}

// EditSession is one open edit of a contact.
type EditSession struct {
	draft    *ContactDraft
	resolver *CountryCodeResolver
	deps     Deps
	cfg      SessionConfig
	company  *CompanyWorkflow
	logger   *zap.Logger

	mu    sync.Mutex
	cases *CaseRoleTracker

	submitMu sync.Mutex
}

// NewEditSession wraps draft. Call Open to load the contact's case history.
func NewEditSession(draft *ContactDraft, resolver *CountryCodeResolver, deps Deps, cfg SessionConfig, logger *zap.Logger) *EditSession {
	if draft == nil {
		draft = NewDraft()
	}
	if resolver == nil {
		resolver = NewCountryCodeResolver("")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EditSession{
		draft:    draft,
		resolver: resolver,
		deps:     deps,
		cfg:      cfg,
		company:  NewCompanyWorkflow(draft.Companies, deps.Companies, cfg.Workflow, logger.Named("company")),
		cases:    NewCaseRoleTracker(draft.ContactID(), deps.CaseRoles, cfg.SaveTimeout, logger.Named("cases")),
		logger:   logger,
	}
}

// Open loads the case history of a persisted contact. New contacts have none.
func (s *EditSession) Open(ctx context.Context) error {
	if s.draft.ContactID() == uuid.Nil {
		return nil
	}
	if err := s.CaseRoles().LoadHistory(ctx); err != nil {
		return fmt.Errorf("failed to load case history: %w", err)
	}
	return nil
}

// Draft returns the edited aggregate.
func (s *EditSession) Draft() *ContactDraft { return s.draft }

// Company returns the company resolution workflow.
func (s *EditSession) Company() *CompanyWorkflow { return s.company }

// Resolver returns the dialing-code resolver used for phone entries.
func (s *EditSession) Resolver() *CountryCodeResolver { return s.resolver }

// CaseRoles returns the per-case role tracker.
func (s *EditSession) CaseRoles() *CaseRoleTracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cases
}

// AddEntry appends a blank entry to the field. New phones start with the home code.
func (s *EditSession) AddEntry(kind FieldKind) (uuid.UUID, error) {
	switch kind {
	case FieldEmail:
		return s.draft.Emails.Add(), nil
	case FieldPhone:
		return s.draft.Phones.AddValue(Phone{CountryCode: s.resolver.Fallback()}), nil
	case FieldCompany:
		return s.draft.Companies.Add(), nil
	}
	return uuid.Nil, ErrUnknownField
}

// RemoveEntry removes the entry at index. It reports false for a no-op.
func (s *EditSession) RemoveEntry(kind FieldKind, index int) (bool, error) {
	switch kind {
	case FieldEmail:
		return s.draft.Emails.Remove(index), nil
	case FieldPhone:
		return s.draft.Phones.Remove(index), nil
	case FieldCompany:
		entry, ok := s.draft.Companies.At(index)
		if !ok || !s.draft.Companies.Remove(index) {
			return false, nil
		}
		s.company.EntryRemoved(entry.ID)
		return true, nil
	}
	return false, ErrUnknownField
}

// SetPrimary promotes the entry at index.
func (s *EditSession) SetPrimary(kind FieldKind, index int) (bool, error) {
	switch kind {
	case FieldEmail:
		return s.draft.Emails.SetPrimary(index), nil
	case FieldPhone:
		return s.draft.Phones.SetPrimary(index), nil
	case FieldCompany:
		return s.draft.Companies.SetPrimary(index), nil
	}
	return false, ErrUnknownField
}

// UpdateEmail sets the address at index.
func (s *EditSession) UpdateEmail(index int, address string) bool {
	return s.draft.Emails.Update(index, Email{Address: strings.TrimSpace(address)})
}

// UpdatePhone sets the phone at index. With an empty code the code is
// detected from number, which may then carry its own prefix.
func (s *EditSession) UpdatePhone(index int, code, number string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		code, number = s.resolver.Split(number)
	} else {
		number = RemoveCountryCode(number, code)
	}
	return s.draft.Phones.Update(index, Phone{CountryCode: code, Number: number})
}

// UpdateCompanyName edits a company entry as free text. The company ID is
// kept only while the text still names the resolved company.
func (s *EditSession) UpdateCompanyName(index int, name string) bool {
	entry, ok := s.draft.Companies.At(index)
	if !ok {
		return false
	}
	name = strings.TrimSpace(name)
	ref := CompanyRef{Name: name}
	if entry.Value.Resolved() && strings.EqualFold(name, strings.TrimSpace(entry.Value.Name)) {
		ref.ID = entry.Value.ID
	}
	return s.draft.Companies.UpdateByID(entry.ID, ref)
}

// Warnings lists malformed emails and phones. They never block Submit.
func (s *EditSession) Warnings() []ValidationWarning {
	var warnings []ValidationWarning
	for i, e := range s.draft.Emails.Entries() {
		if !IsValidEmail(e.Value.Address) {
			warnings = append(warnings, ValidationWarning{
				Field: FieldEmail, Index: i, Value: e.Value.Address, Message: "invalid email address",
			})
		}
	}
	for i, p := range s.draft.Phones.Entries() {
		if isBlank(p.Value.Number) {
			continue
		}
		full := JoinPhone(p.Value.CountryCode, p.Value.Number)
		if !IsValidPhone(full) {
			warnings = append(warnings, ValidationWarning{
				Field: FieldPhone, Index: i, Value: full, Message: "invalid phone number",
			})
		}
	}
	return warnings
}

// CheckDuplicates looks up every non-empty valid email or phone and annotates
// the entry with other contacts sharing it. Results for entries edited or
// removed during the lookup are dropped. Lookup failures are logged, leave
// the entry's annotations as they were and are returned joined.
func (s *EditSession) CheckDuplicates(ctx context.Context, kind FieldKind) error {
	if s.deps.Duplicates == nil {
		return nil
	}

	switch kind {
	case FieldEmail:
		var errs []error
		for _, e := range s.draft.Emails.Entries() {
			key := emailKey(e.Value)
			if key == "" || !IsValidEmail(e.Value.Address) {
				continue
			}
			matches, err := s.lookup(ctx, key, models.DuplicateEmail)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if cur, ok := s.draft.Emails.Get(e.ID); ok && emailKey(cur.Value) == key {
				s.draft.Emails.AnnotateByID(e.ID, matches)
			}
		}
		return errors.Join(errs...)
	case FieldPhone:
		var errs []error
		for _, p := range s.draft.Phones.Entries() {
			key := phoneKey(p.Value)
			if key == "" || !IsValidPhone(key) {
				continue
			}
			matches, err := s.lookup(ctx, key, models.DuplicatePhone)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if cur, ok := s.draft.Phones.Get(p.ID); ok && phoneKey(cur.Value) == key {
				s.draft.Phones.AnnotateByID(p.ID, matches)
			}
		}
		return errors.Join(errs...)
	}
	return ErrUnknownField
}

func (s *EditSession) lookup(ctx context.Context, key string, kind models.DuplicateKind) ([]models.DuplicateMatch, error) {
	matches, err := s.deps.Duplicates.LookupDuplicates(ctx, key, kind)
	if err != nil {
		s.logger.Warn("duplicate lookup failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, fmt.Errorf("failed to look up %s duplicates: %w", kind, err)
	}

	self := s.draft.ContactID()
	out := make([]models.DuplicateMatch, 0, len(matches))
	for _, m := range matches {
		if self != uuid.Nil && m.ContactID == self {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func emailKey(e Email) string {
	return NormalizeEmail(e.Address)
}

func phoneKey(p Phone) string {
	if isBlank(p.Number) {
		return ""
	}
	return NormalizePhone(JoinPhone(p.CountryCode, p.Number))
}

// Submit persists the draft as a contact. Validation warnings do not block it
// and a failure leaves the draft untouched. A new contact receives its ID here
// and the case tracker is rebound to it.
func (s *EditSession) Submit(ctx context.Context) (*models.Contact, error) {
	if s.deps.Contacts == nil {
		return nil, ErrNoContactStore
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	contact := s.draft.ToContact()
	now := time.Now().UTC()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	contact.UpdatedAt = now
	wasNew := contact.ID == uuid.Nil

	if err := s.deps.Contacts.SaveContact(ctx, contact); err != nil {
		s.logger.Warn("contact save failed", zap.Error(err))
		return nil, fmt.Errorf("failed to save contact: %w", err)
	}

	if wasNew && contact.ID != uuid.Nil {
		s.draft.setContactID(contact.ID, contact.CreatedAt)
		s.mu.Lock()
		s.cases = NewCaseRoleTracker(contact.ID, s.deps.CaseRoles, s.cfg.SaveTimeout, s.logger.Named("cases"))
		s.mu.Unlock()
	}

	s.logger.Info("contact saved", zap.String("contact_id", contact.ID.String()), zap.Bool("created", wasNew))
	return contact, nil
}

// View projects the full session state.
func (s *EditSession) View() SessionView {
	return SessionView{
		ContactID:   s.draft.ContactID(),
		Scalars:     s.draft.Scalars(),
		GlobalRoles: s.draft.GlobalRoles(),
		Emails:      s.draft.Emails.Entries(),
		Phones:      s.draft.Phones.Entries(),
		Companies:   s.draft.Companies.Entries(),
		Warnings:    s.Warnings(),
		Company:     s.company.View(),
		Cases:       s.CaseRoles().Cases(),
	}
}

// Close stops background company searches.
func (s *EditSession) Close() {
	s.company.Close()
}

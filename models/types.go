// ABOUTME: Data models for CRM entities
// ABOUTME: Defines Contact with its email/phone/company collections, Company, Case and roles
package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role tags a contact's function, either globally or within one case.
type Role string

const (
	RoleDecisionMaker  Role = "decision_maker"
	RoleEconomicBuyer  Role = "economic_buyer"
	RoleTechnicalBuyer Role = "technical_buyer"
	RoleChampion       Role = "champion"
	RoleInfluencer     Role = "influencer"
	RoleEndUser        Role = "end_user"
	RoleGatekeeper     Role = "gatekeeper"
	RoleBlocker        Role = "blocker"
)

// AllRoles lists the known roles in display order.
var AllRoles = []Role{
	RoleDecisionMaker,
	RoleEconomicBuyer,
	RoleTechnicalBuyer,
	RoleChampion,
	RoleInfluencer,
	RoleEndUser,
	RoleGatekeeper,
	RoleBlocker,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// SortRoles returns a sorted copy so role sets compare and serialize stably.
func SortRoles(roles []Role) []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Contact lifecycle stages.
const (
	StageLead     = "lead"
	StageProspect = "prospect"
	StageCustomer = "customer"
	StageChurned  = "churned"
)

// SubStatuses lists the sub-statuses that are valid for each contact stage.
var SubStatuses = map[string][]string{
	StageLead:     {"new", "contacted", "qualified", "unqualified"},
	StageProspect: {"engaged", "nurturing", "stalled"},
	StageCustomer: {"onboarding", "active", "at_risk"},
	StageChurned:  {},
}

// ValidSubStatus reports whether subStatus belongs to stage. Empty is always valid.
func ValidSubStatus(stage, subStatus string) bool {
	if subStatus == "" {
		return true
	}
	for _, s := range SubStatuses[stage] {
		if s == subStatus {
			return true
		}
	}
	return false
}

type ContactEmail struct {
	Address   string `json:"address"`
	IsPrimary bool   `json:"is_primary"`
}

type ContactPhone struct {
	Number    string `json:"number"` // full number including dialing prefix
	IsPrimary bool   `json:"is_primary"`
}

type ContactCompany struct {
	CompanyID   *uuid.UUID `json:"company_id,omitempty"` // nil means free text only
	CompanyName string     `json:"company_name"`
	IsPrimary   bool       `json:"is_primary"`
}

type Contact struct {
	ID           uuid.UUID        `json:"id"`
	Title        string           `json:"title,omitempty"`
	FirstName    string           `json:"first_name"`
	LastName     string           `json:"last_name,omitempty"`
	JobTitle     string           `json:"job_title,omitempty"`
	Location     string           `json:"location,omitempty"`
	Country      string           `json:"country,omitempty"`
	LinkedInURL  string           `json:"linkedin_url,omitempty"`
	BuyerPersona string           `json:"buyer_persona,omitempty"`
	Stage        string           `json:"stage,omitempty"`
	SubStatus    string           `json:"sub_status,omitempty"`
	Roles        []Role           `json:"roles,omitempty"`
	Emails       []ContactEmail   `json:"emails,omitempty"`
	Phones       []ContactPhone   `json:"phones,omitempty"`
	Companies    []ContactCompany `json:"companies,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// DisplayName joins first and last name, falling back to the primary email.
func (c *Contact) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
	if name != "" {
		return name
	}
	return c.PrimaryEmail()
}

// PrimaryEmail returns the address flagged primary, or the first one.
func (c *Contact) PrimaryEmail() string {
	for _, e := range c.Emails {
		if e.IsPrimary {
			return e.Address
		}
	}
	if len(c.Emails) > 0 {
		return c.Emails[0].Address
	}
	return ""
}

type Company struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain,omitempty"`
	Industry  string    `json:"industry,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Case is a deal or opportunity a contact takes part in.
type Case struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Stage     string     `json:"stage"`
	Amount    int64      `json:"amount,omitempty"` // in cents
	Currency  string     `json:"currency"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Case stages.
const (
	CaseStageProspecting   = "prospecting"
	CaseStageQualification = "qualification"
	CaseStageProposal      = "proposal"
	CaseStageNegotiation   = "negotiation"
	CaseStageClosedWon     = "closed_won"
	CaseStageClosedLost    = "closed_lost"
)

// CaseRoles is one entry of a contact's case history with the roles held in it.
type CaseRoles struct {
	Case  Case   `json:"case"`
	Roles []Role `json:"roles"`
}

// DuplicateKind selects which contact attribute a duplicate lookup matches on.
type DuplicateKind string

const (
	DuplicateEmail DuplicateKind = "email"
	DuplicatePhone DuplicateKind = "phone"
)

// DuplicateMatch is another contact sharing a normalized email or phone.
type DuplicateMatch struct {
	ContactID   uuid.UUID `json:"contact_id"`
	DisplayName string    `json:"display_name"`
	Value       string    `json:"value"`
}

// ABOUTME: JSON output shapes for the edit session MCP tools
// ABOUTME: Flattens editor views into string IDs and plain values
package handlers

import (
	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
)

type DuplicateOutput struct {
	ContactID   string `json:"contact_id"`
	DisplayName string `json:"display_name"`
	Value       string `json:"value"`
}

type EntryOutput struct {
	ID          string            `json:"id"`
	Index       int               `json:"index"`
	Value       string            `json:"value"`
	CountryCode string            `json:"country_code,omitempty"`
	CompanyID   string            `json:"company_id,omitempty"`
	IsPrimary   bool              `json:"is_primary"`
	Duplicates  []DuplicateOutput `json:"duplicates,omitempty"`
}

type CompanyOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Domain   string `json:"domain,omitempty"`
	Industry string `json:"industry,omitempty"`
}

type WorkflowOutput struct {
	State       string          `json:"state"`
	EntryID     string          `json:"entry_id,omitempty"`
	EntryIndex  int             `json:"entry_index"`
	Query       string          `json:"query,omitempty"`
	Candidates  []CompanyOutput `json:"candidates"`
	Pending     bool            `json:"pending"`
	CanCreate   bool            `json:"can_create"`
	Creating    bool            `json:"creating"`
	SearchError string          `json:"search_error,omitempty"`
	CreateError string          `json:"create_error,omitempty"`
}

type CaseOutput struct {
	CaseID      string   `json:"case_id"`
	Title       string   `json:"title"`
	Stage       string   `json:"stage"`
	LocalRoles  []string `json:"local_roles"`
	ServerRoles []string `json:"server_roles"`
	Dirty       bool     `json:"dirty"`
	Saving      bool     `json:"saving"`
	LastError   string   `json:"last_error,omitempty"`
}

type WarningOutput struct {
	Field   string `json:"field"`
	Index   int    `json:"index"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type SessionOutput struct {
	SessionID   string          `json:"session_id"`
	ContactID   string          `json:"contact_id,omitempty"`
	Scalars     editor.Scalars  `json:"scalars"`
	GlobalRoles []string        `json:"global_roles"`
	Emails      []EntryOutput   `json:"emails"`
	Phones      []EntryOutput   `json:"phones"`
	Companies   []EntryOutput   `json:"companies"`
	Warnings    []WarningOutput `json:"warnings,omitempty"`
	Company     WorkflowOutput  `json:"company_workflow"`
	Cases       []CaseOutput    `json:"cases"`
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

func rolesToStrings(roles []models.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func duplicatesToOutput(matches []models.DuplicateMatch) []DuplicateOutput {
	if len(matches) == 0 {
		return nil
	}
	out := make([]DuplicateOutput, 0, len(matches))
	for _, m := range matches {
		out = append(out, DuplicateOutput{ContactID: m.ContactID.String(), DisplayName: m.DisplayName, Value: m.Value})
	}
	return out
}

func companyToOutput(c models.Company) CompanyOutput {
	return CompanyOutput{ID: c.ID.String(), Name: c.Name, Domain: c.Domain, Industry: c.Industry}
}

func sessionToOutput(sessionID string, v editor.SessionView) SessionOutput {
	out := SessionOutput{
		SessionID:   sessionID,
		ContactID:   idString(v.ContactID),
		Scalars:     v.Scalars,
		GlobalRoles: rolesToStrings(v.GlobalRoles),
		Emails:      make([]EntryOutput, 0, len(v.Emails)),
		Phones:      make([]EntryOutput, 0, len(v.Phones)),
		Companies:   make([]EntryOutput, 0, len(v.Companies)),
		Company:     workflowToOutput(v.Company),
		Cases:       make([]CaseOutput, 0, len(v.Cases)),
	}

	for i, e := range v.Emails {
		out.Emails = append(out.Emails, EntryOutput{
			ID: e.ID.String(), Index: i, Value: e.Value.Address, IsPrimary: e.IsPrimary,
			Duplicates: duplicatesToOutput(e.Duplicates),
		})
	}
	for i, p := range v.Phones {
		out.Phones = append(out.Phones, EntryOutput{
			ID: p.ID.String(), Index: i, Value: p.Value.Number, CountryCode: p.Value.CountryCode,
			IsPrimary: p.IsPrimary, Duplicates: duplicatesToOutput(p.Duplicates),
		})
	}
	for i, c := range v.Companies {
		eo := EntryOutput{ID: c.ID.String(), Index: i, Value: c.Value.Name, IsPrimary: c.IsPrimary}
		if c.Value.ID != nil {
			eo.CompanyID = c.Value.ID.String()
		}
		out.Companies = append(out.Companies, eo)
	}
	for _, w := range v.Warnings {
		out.Warnings = append(out.Warnings, WarningOutput{Field: string(w.Field), Index: w.Index, Value: w.Value, Message: w.Message})
	}
	for _, c := range v.Cases {
		out.Cases = append(out.Cases, CaseOutput{
			CaseID:      c.Case.ID.String(),
			Title:       c.Case.Title,
			Stage:       c.Case.Stage,
			LocalRoles:  rolesToStrings(c.LocalRoles),
			ServerRoles: rolesToStrings(c.ServerRoles),
			Dirty:       c.Dirty,
			Saving:      c.Saving,
			LastError:   c.LastError,
		})
	}
	return out
}

func workflowToOutput(w editor.WorkflowView) WorkflowOutput {
	out := WorkflowOutput{
		State:       w.State.String(),
		EntryIndex:  w.EntryIndex,
		Query:       w.Query,
		Candidates:  make([]CompanyOutput, 0, len(w.Candidates)),
		Pending:     w.Pending,
		CanCreate:   w.CanCreate,
		Creating:    w.Creating,
		SearchError: w.SearchError,
		CreateError: w.CreateError,
	}
	if w.EntryID != nil {
		out.EntryID = w.EntryID.String()
	}
	for _, c := range w.Candidates {
		out.Candidates = append(out.Candidates, companyToOutput(c))
	}
	return out
}

// ABOUTME: MCP tool handlers editing a session's scalar and multi-valued fields
// ABOUTME: Covers scalars, global roles, entry add/remove/primary/update and duplicate checks
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func parseField(s string) (editor.FieldKind, error) {
	kind := editor.FieldKind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q (want email, phone or company)", editor.ErrUnknownField, s)
	}
	return kind, nil
}

type UpdateScalarsInput struct {
	SessionID    string  `json:"session_id" jsonschema:"Edit session ID"`
	Title        *string `json:"title,omitempty" jsonschema:"Honorific title"`
	FirstName    *string `json:"first_name,omitempty" jsonschema:"First name"`
	LastName     *string `json:"last_name,omitempty" jsonschema:"Last name"`
	JobTitle     *string `json:"job_title,omitempty" jsonschema:"Job title"`
	Location     *string `json:"location,omitempty" jsonschema:"City or region"`
	Country      *string `json:"country,omitempty" jsonschema:"Country"`
	LinkedInURL  *string `json:"linkedin_url,omitempty" jsonschema:"LinkedIn profile URL"`
	BuyerPersona *string `json:"buyer_persona,omitempty" jsonschema:"Buyer persona"`
	Stage        *string `json:"stage,omitempty" jsonschema:"Lifecycle stage"`
	SubStatus    *string `json:"sub_status,omitempty" jsonschema:"Sub-status valid for the stage"`
}

func apply(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func (h *SessionHandlers) UpdateScalars(_ context.Context, _ *mcp.CallToolRequest, input UpdateScalarsInput) (*mcp.CallToolResult, SessionOutput, error) {
	s, err := h.Session(input.SessionID)
	if err != nil {
		return nil, SessionOutput{}, err
	}

	sc := s.Draft().Scalars()
	apply(&sc.Title, input.Title)
	apply(&sc.FirstName, input.FirstName)
	apply(&sc.LastName, input.LastName)
	apply(&sc.JobTitle, input.JobTitle)
	apply(&sc.Location, input.Location)
	apply(&sc.Country, input.Country)
	apply(&sc.LinkedInURL, input.LinkedInURL)
	apply(&sc.BuyerPersona, input.BuyerPersona)
	apply(&sc.Stage, input.Stage)
	apply(&sc.SubStatus, input.SubStatus)
	s.Draft().SetScalars(sc)

	return nil, h.output(input.SessionID, s), nil
}

type ToggleRoleInput struct {
	SessionID string `json:"session_id" jsonschema:"Edit session ID"`
	Role      string `json:"role" jsonschema:"Role to toggle, e.g. decision_maker, champion or blocker"`
}

func (h *SessionHandlers) ToggleGlobalRole(_ context.Context, _ *mcp.CallToolRequest, input ToggleRoleInput) (*mcp.CallToolResult, SessionOutput, error) {
	s, err := h.Session(input.SessionID)
	if err != nil {
		return nil, SessionOutput{}, err
	}
	if err := s.Draft().ToggleGlobalRole(models.Role(input.Role)); err != nil {
		return nil, SessionOutput{}, fmt.Errorf("%w: %q", err, input.Role)
	}
	return nil, h.output(input.SessionID, s), nil
}

type FieldInput struct {
	SessionID string `json:"session_id" jsonschema:"Edit session ID"`
	Field     string `json:"field" jsonschema:"Field: email, phone or company"`
}

type EntryInput struct {
	SessionID string `json:"session_id" jsonschema:"Edit session ID"`
	Field     string `json:"field" jsonschema:"Field: email, phone or company"`
	Index     int    `json:"index" jsonschema:"Zero-based entry index"`
}

// EntryChangeOutput reports whether the change applied; stale indices are no-ops.
type EntryChangeOutput struct {
	Changed bool          `json:"changed"`
	EntryID string        `json:"entry_id,omitempty"`
	Session SessionOutput `json:"session"`
}

func (h *SessionHandlers) AddEntry(_ context.Context, _ *mcp.CallToolRequest, input FieldInput) (*mcp.CallToolResult, EntryChangeOutput, error) {
	s, err := h.Session(input.SessionID)
	if err != nil {
		return nil, EntryChangeOutput{}, err
	}
	kind, err := parseField(input.Field)
	if err != nil {
		return nil, EntryChangeOutput{}, err
	}
	id, err := s.AddEntry(kind)
	if err != nil {
		return nil, EntryChangeOutput{}, err
	}
	return nil, EntryChangeOutput{Changed: true, EntryID: id.String(), Session: h.output(input.SessionID, s)}, nil
}

func (h *SessionHandlers) RemoveEntry(_ context.Context, _ *mcp.CallToolRequest, input EntryInput) (*mcp.CallToolResult, EntryChangeOutput, error) {
	s, err := h.Session(input.SessionID)
	if err != nil {
		return nil, EntryChangeOutput{}, err
	}
	kind, err := parseField(input.Field)
	if err != nil {
		return nil, EntryChangeOutput{}, err
	}
	changed, err := s.RemoveEntry(kind, input.Index)
	if err != nil {
		return nil, EntryChangeOutput{}, err
	}
	return nil, EntryChangeOutput{Changed: changed, Session: h.output(input.SessionID, s)}, nil
}

func (h *SessionHandlers) SetPrimary(_ context.Context, _ *mcp.CallToolRequest, input EntryInput) (*mcp.CallToolResult, EntryChangeOutput, error) {
	s, err := h.Session(input.SessionID)
	if err != nil {
		return nil, EntryChangeOutput{}, err
	}
	kind, err := parseField(input.Field)
	if err != nil {
		return nil, EntryChangeOutput{}, err
	}
	changed, err := s.SetPrimary(kind, input.Index)
	if err != nil {
		return nil, EntryChangeOutput{}, err
	}
	return nil, EntryChangeOutput{Changed: changed, Session: h.output(input.SessionID, s)}, nil
}

type UpdateEntryInput struct {
	SessionID   string `json:"session_id" jsonschema:"Edit session ID"`
	Field       string `json:"field" jsonschema:"Field: email, phone or company"`
	Index       int    `json:"index" jsonschema:"Zero-based entry index"`
	Value       string `json:"value" jsonschema:"New address, phone number or company name"`
	CountryCode string `json:"country_code,omitempty" jsonschema:"Dialing code for phones, e.g. +52; detected from the number when omitted"`
}

func (h *SessionHandlers) UpdateEntry(_ context.Context, _ *mcp.CallToolRequest, input UpdateEntryInput) (*mcp.CallToolResult, EntryChangeOutput, error) {
	s, err := h.Session(input.SessionID)
	if err != nil {
		return nil, EntryChangeOutput{}, err
	}
	kind, err := parseField(input.Field)
	if err != nil {
		return nil, EntryChangeOutput{}, err
	}

	var changed bool
	switch kind {
	case editor.FieldEmail:
		changed = s.UpdateEmail(input.Index, input.Value)
	case editor.FieldPhone:
		changed = s.UpdatePhone(input.Index, input.CountryCode, input.Value)
	case editor.FieldCompany:
		changed = s.UpdateCompanyName(input.Index, input.Value)
	}
	return nil, EntryChangeOutput{Changed: changed, Session: h.output(input.SessionID, s)}, nil
}

type CheckDuplicatesOutput struct {
	Session SessionOutput `json:"session"`
	Error   string        `json:"error,omitempty"`
}

// CheckDuplicates annotates entries with other contacts sharing their value.
// Lookup failures are reported but keep the annotations that succeeded.
func (h *SessionHandlers) CheckDuplicates(ctx context.Context, _ *mcp.CallToolRequest, input FieldInput) (*mcp.CallToolResult, CheckDuplicatesOutput, error) {
	s, err := h.Session(input.SessionID)
	if err != nil {
		return nil, CheckDuplicatesOutput{}, err
	}
	kind, err := parseField(input.Field)
	if err != nil {
		return nil, CheckDuplicatesOutput{}, err
	}
	if kind == editor.FieldCompany {
		return nil, CheckDuplicatesOutput{}, fmt.Errorf("duplicate checks apply to email and phone only")
	}

	out := CheckDuplicatesOutput{}
	if err := s.CheckDuplicates(ctx, kind); err != nil {
		out.Error = err.Error()
	}
	out.Session = h.output(input.SessionID, s)
	return nil, out, nil
}

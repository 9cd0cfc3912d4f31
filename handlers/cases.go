// ABOUTME: MCP tool handlers for per-case role assignment
// ABOUTME: Toggles roles locally and saves one case at a time
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type CaseRoleInput struct {
	SessionID string `json:"session_id" jsonschema:"Edit session ID"`
	CaseID    string `json:"case_id" jsonschema:"Case UUID"`
	Role      string `json:"role" jsonschema:"Role to toggle within the case"`
}

func (h *SessionHandlers) ToggleCaseRole(_ context.Context, _ *mcp.CallToolRequest, input CaseRoleInput) (*mcp.CallToolResult, SessionOutput, error) {
	caseID, err := uuid.Parse(input.CaseID)
	if err != nil {
		return nil, SessionOutput{}, fmt.Errorf("invalid case_id: %w", err)
	}
	out, err := h.withSession(input.SessionID, func(s *editor.EditSession) error {
		return s.CaseRoles().Toggle(caseID, models.Role(input.Role))
	})
	return nil, out, err
}

type SaveCaseRolesInput struct {
	SessionID string `json:"session_id" jsonschema:"Edit session ID"`
	CaseID    string `json:"case_id" jsonschema:"Case UUID"`
}

type SaveCaseRolesOutput struct {
	Saved   bool          `json:"saved"`
	Error   string        `json:"error,omitempty"`
	Session SessionOutput `json:"session"`
}

// SaveCaseRoles persists one case. Store failures keep the case dirty and are
// reported in error; a save already in flight is a tool error.
func (h *SessionHandlers) SaveCaseRoles(ctx context.Context, _ *mcp.CallToolRequest, input SaveCaseRolesInput) (*mcp.CallToolResult, SaveCaseRolesOutput, error) {
	caseID, err := uuid.Parse(input.CaseID)
	if err != nil {
		return nil, SaveCaseRolesOutput{}, fmt.Errorf("invalid case_id: %w", err)
	}
	s, err := h.Session(input.SessionID)
	if err != nil {
		return nil, SaveCaseRolesOutput{}, err
	}

	out := SaveCaseRolesOutput{Saved: true}
	if err := s.CaseRoles().Save(ctx, caseID); err != nil {
		var serr *editor.SaveError
		if !errors.As(err, &serr) {
			return nil, SaveCaseRolesOutput{}, err
		}
		out.Saved = false
		out.Error = serr.Error()
	}
	out.Session = h.output(input.SessionID, s)
	return nil, out, nil
}

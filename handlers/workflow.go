// ABOUTME: MCP tool handlers for the company search-or-create workflow
// ABOUTME: Activate, type, select, create, confirm, cancel and blur on a session's company entries
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/editor"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (h *SessionHandlers) withSession(id string, fn func(s *editor.EditSession) error) (SessionOutput, error) {
	s, err := h.Session(id)
	if err != nil {
		return SessionOutput{}, err
	}
	if err := fn(s); err != nil {
		return SessionOutput{}, err
	}
	return h.output(id, s), nil
}

type CompanyActivateInput struct {
	SessionID string `json:"session_id" jsonschema:"Edit session ID"`
	Index     int    `json:"index" jsonschema:"Zero-based company entry index"`
}

func (h *SessionHandlers) CompanyActivate(_ context.Context, _ *mcp.CallToolRequest, input CompanyActivateInput) (*mcp.CallToolResult, SessionOutput, error) {
	out, err := h.withSession(input.SessionID, func(s *editor.EditSession) error {
		return s.Company().Activate(input.Index)
	})
	return nil, out, err
}

type CompanyTypeInput struct {
	SessionID string `json:"session_id" jsonschema:"Edit session ID"`
	Text      string `json:"text" jsonschema:"Current search text of the active company entry"`
	Wait      bool   `json:"wait,omitempty" jsonschema:"Wait for the debounced search to finish before returning"`
}

func (h *SessionHandlers) CompanyType(_ context.Context, _ *mcp.CallToolRequest, input CompanyTypeInput) (*mcp.CallToolResult, SessionOutput, error) {
	out, err := h.withSession(input.SessionID, func(s *editor.EditSession) error {
		if err := s.Company().Type(input.Text); err != nil {
			return err
		}
		if input.Wait {
			s.Company().Wait()
		}
		return nil
	})
	return nil, out, err
}

type CompanySelectInput struct {
	SessionID string `json:"session_id" jsonschema:"Edit session ID"`
	Candidate int    `json:"candidate,omitempty" jsonschema:"Zero-based index into the current candidates"`
	CompanyID string `json:"company_id,omitempty" jsonschema:"Candidate company UUID; takes precedence over candidate"`
}

func (h *SessionHandlers) CompanySelect(_ context.Context, _ *mcp.CallToolRequest, input CompanySelectInput) (*mcp.CallToolResult, SessionOutput, error) {
	out, err := h.withSession(input.SessionID, func(s *editor.EditSession) error {
		if input.CompanyID != "" {
			id, err := uuid.Parse(input.CompanyID)
			if err != nil {
				return fmt.Errorf("invalid company_id: %w", err)
			}
			return s.Company().SelectByID(id)
		}
		return s.Company().Select(input.Candidate)
	})
	return nil, out, err
}

func (h *SessionHandlers) CompanyRequestCreate(_ context.Context, _ *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, SessionOutput, error) {
	out, err := h.withSession(input.SessionID, func(s *editor.EditSession) error {
		return s.Company().RequestCreate()
	})
	return nil, out, err
}

type CompanyConfirmInput struct {
	SessionID string `json:"session_id" jsonschema:"Edit session ID"`
	Name      string `json:"name,omitempty" jsonschema:"Name of the new company; defaults to the search text"`
	Industry  string `json:"industry,omitempty" jsonschema:"Industry of the new company"`
}

// CompanyConfirm creates the company. A failed creation keeps the workflow in
// creating_new and is reported in create_error rather than as a tool error.
func (h *SessionHandlers) CompanyConfirm(ctx context.Context, _ *mcp.CallToolRequest, input CompanyConfirmInput) (*mcp.CallToolResult, SessionOutput, error) {
	s, err := h.Session(input.SessionID)
	if err != nil {
		return nil, SessionOutput{}, err
	}
	if err := s.Company().Confirm(ctx, input.Name, input.Industry); err != nil {
		var rerr *editor.ResolutionError
		if !errors.As(err, &rerr) {
			return nil, SessionOutput{}, err
		}
		h.logger.Sugar().Warnw("company creation failed", "name", rerr.Name, "error", rerr.Err)
	}
	return nil, h.output(input.SessionID, s), nil
}

func (h *SessionHandlers) CompanyCancel(_ context.Context, _ *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, SessionOutput, error) {
	out, err := h.withSession(input.SessionID, func(s *editor.EditSession) error {
		s.Company().Cancel()
		return nil
	})
	return nil, out, err
}

func (h *SessionHandlers) CompanyBlur(_ context.Context, _ *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, SessionOutput, error) {
	out, err := h.withSession(input.SessionID, func(s *editor.EditSession) error {
		return s.Company().Blur()
	})
	return nil, out, err
}

// ABOUTME: MCP prompt handlers for reusable contact review templates
// ABOUTME: contact-summary describes a stored contact; session-review lists what needs attention before submit
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/editor"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	loader   ContactLoader
	cases    editor.CaseRoleStore
	sessions *SessionHandlers
}

func NewPromptHandlers(loader ContactLoader, cases editor.CaseRoleStore, sessions *SessionHandlers) *PromptHandlers {
	return &PromptHandlers{loader: loader, cases: cases, sessions: sessions}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	arguments := request.Params.Arguments
	switch request.Params.Name {
	case "contact-summary":
		return h.getContactSummaryPrompt(ctx, arguments)
	case "session-review":
		return h.getSessionReviewPrompt(arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text}},
		},
	}
}

func (h *PromptHandlers) getContactSummaryPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	contactIDStr, ok := args["contact_id"]
	if !ok {
		return nil, fmt.Errorf("contact_id is required")
	}
	contactID, err := uuid.Parse(contactIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid contact_id: %w", err)
	}
	if h.loader == nil {
		return nil, fmt.Errorf("no contact store configured")
	}

	contact, err := h.loader.GetContact(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}
	if contact == nil {
		return nil, fmt.Errorf("contact not found: %s", contactID)
	}

	var b strings.Builder
	b.WriteString("Please provide a comprehensive summary of this contact:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", contact.DisplayName())
	if contact.JobTitle != "" {
		fmt.Fprintf(&b, "Job title: %s\n", contact.JobTitle)
	}
	for _, e := range contact.Emails {
		fmt.Fprintf(&b, "Email: %s%s\n", e.Address, primaryMark(e.IsPrimary))
	}
	for _, p := range contact.Phones {
		fmt.Fprintf(&b, "Phone: %s%s\n", p.Number, primaryMark(p.IsPrimary))
	}
	for _, c := range contact.Companies {
		fmt.Fprintf(&b, "Company: %s%s\n", c.CompanyName, primaryMark(c.IsPrimary))
	}
	if contact.Stage != "" {
		fmt.Fprintf(&b, "Stage: %s %s\n", contact.Stage, contact.SubStatus)
	}

	if h.cases != nil {
		cases, err := h.cases.ListCaseRoles(ctx, contactID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch case roles: %w", err)
		}
		if len(cases) > 0 {
			b.WriteString("\nCases:\n")
			for _, cr := range cases {
				fmt.Fprintf(&b, "- %s (%s): %s\n", cr.Case.Title, cr.Case.Stage, strings.Join(rolesToStrings(cr.Roles), ", "))
			}
		}
	}

	b.WriteString("\nPlease analyze this contact and provide:")
	b.WriteString("\n1. A brief summary of their role in each case")
	b.WriteString("\n2. Recommendations for next steps")

	return userPrompt(fmt.Sprintf("Summary for contact: %s", contact.DisplayName()), b.String()), nil
}

func (h *PromptHandlers) getSessionReviewPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	sessionID, ok := args["session_id"]
	if !ok {
		return nil, fmt.Errorf("session_id is required")
	}
	s, err := h.sessions.Session(sessionID)
	if err != nil {
		return nil, err
	}
	v := h.sessions.output(sessionID, s)

	var b strings.Builder
	fmt.Fprintf(&b, "Review the contact being edited in session %s before it is submitted.\n\n", sessionID)
	fmt.Fprintf(&b, "Name: %s %s\n", v.Scalars.FirstName, v.Scalars.LastName)

	for _, w := range v.Warnings {
		fmt.Fprintf(&b, "Warning: %s #%d %q: %s\n", w.Field, w.Index, w.Value, w.Message)
	}
	for _, group := range [][]EntryOutput{v.Emails, v.Phones} {
		for _, e := range group {
			for _, d := range e.Duplicates {
				fmt.Fprintf(&b, "Possible duplicate: %s is also used by %s (%s)\n", e.Value, d.DisplayName, d.ContactID)
			}
		}
	}
	for _, c := range v.Companies {
		if c.CompanyID == "" && c.Value != "" {
			fmt.Fprintf(&b, "Unresolved company: %s\n", c.Value)
		}
	}
	for _, c := range v.Cases {
		if c.Dirty {
			fmt.Fprintf(&b, "Unsaved roles in case %s\n", c.Title)
		}
	}

	b.WriteString("\nSuggest what to fix, which duplicates to merge, and whether the contact is ready to submit.")
	return userPrompt("Pre-submit review of an edit session", b.String()), nil
}

func primaryMark(primary bool) string {
	if primary {
		return " (primary)"
	}
	return ""
}

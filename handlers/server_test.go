// ABOUTME: Tests for the MCP server wiring, company tools, resources and prompts
// ABOUTME: Drives the server through an in-memory client session
package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/harperreed/contactdesk/db"
	"github.com/harperreed/contactdesk/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) serverHandlers() ServerHandlers {
	return ServerHandlers{
		Sessions:  f.sessions,
		Companies: NewCompanyHandlers(f.dir, 10),
		Viz:       NewVizHandlers(f.dir),
		Resources: NewResourceHandlers(f.dir, f.sessions),
		Prompts:   NewPromptHandlers(f.dir, f.dir, f.sessions),
	}
}

func connect(t *testing.T, f *fixture) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := NewServer("test", f.serverHandlers())

	st, ct := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	result, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.False(t, result.IsError, "%s returned error: %v", name, result.Content)

	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			require.NoError(t, json.Unmarshal([]byte(text.Text), out))
			return
		}
	}
	t.Fatalf("%s returned no text content", name)
}

func TestServerListsTools(t *testing.T) {
	cs := connect(t, newFixture(t))

	tools, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, name := range []string{
		"open_contact_session", "update_contact_fields", "update_entry", "company_type",
		"company_confirm", "save_case_roles", "submit_contact", "find_companies", "generate_case_role_graph",
	} {
		assert.True(t, names[name], "missing tool %s", name)
	}
}

func TestServerEditRoundTrip(t *testing.T) {
	f := newFixture(t)
	cs := connect(t, f)

	var sess SessionOutput
	callTool(t, cs, "open_contact_session", map[string]any{}, &sess)
	require.NotEmpty(t, sess.SessionID)

	callTool(t, cs, "update_contact_fields", map[string]any{
		"session_id": sess.SessionID, "first_name": "Eva", "job_title": "CTO",
	}, &sess)
	assert.Equal(t, "Eva", sess.Scalars.FirstName)

	var change EntryChangeOutput
	callTool(t, cs, "update_entry", map[string]any{
		"session_id": sess.SessionID, "field": "email", "index": 0, "value": "not-an-email",
	}, &change)
	require.Len(t, change.Session.Warnings, 1)
	assert.Equal(t, "email", change.Session.Warnings[0].Field)

	var submitted SubmitOutput
	callTool(t, cs, "submit_contact", map[string]any{"session_id": sess.SessionID}, &submitted)
	assert.True(t, submitted.Created)
	assert.Len(t, submitted.Warnings, 1, "warnings do not block submit")

	stored, err := f.dir.GetContact(context.Background(), mustUUID(t, submitted.ContactID))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "CTO", stored.JobTitle)
}

func TestServerToolErrorsAreReported(t *testing.T) {
	cs := connect(t, newFixture(t))

	result, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "view_session",
		Arguments: map[string]any{"session_id": "missing"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestCompanyTools(t *testing.T) {
	f := newFixture(t)
	h := NewCompanyHandlers(f.dir, 0)
	ctx := context.Background()

	_, _, err := h.AddCompany(ctx, nil, AddCompanyInput{Name: "  "})
	assert.Error(t, err)

	_, added, err := h.AddCompany(ctx, nil, AddCompanyInput{Name: "Umbrella", Industry: "Pharma"})
	require.NoError(t, err)
	assert.Equal(t, "Umbrella", added.Name)
	assert.NotEmpty(t, added.ID)

	_, found, err := h.FindCompanies(ctx, nil, FindCompaniesInput{Query: "umb"})
	require.NoError(t, err)
	require.Len(t, found.Companies, 1)
	assert.Equal(t, added.ID, found.Companies[0].ID)
}

func TestReadResource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := NewResourceHandlers(f.dir, f.sessions)

	contact := &models.Contact{FirstName: "Flo"}
	require.NoError(t, db.CreateContact(ctx, f.db, contact))

	res, err := h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "contactdesk://contacts/" + contact.ID.String()}})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, `"first_name": "Flo"`)

	sess := f.open(t, OpenSessionInput{ContactID: contact.ID.String()})
	res, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "contactdesk://sessions/" + sess.SessionID}})
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, sess.SessionID)

	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "contactdesk://sessions/nope"}})
	assert.Error(t, err)

	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "other://contacts/x"}})
	assert.Error(t, err)
}

func TestPrompts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := NewPromptHandlers(f.dir, f.dir, f.sessions)

	contact := &models.Contact{FirstName: "Gil", JobTitle: "VP Sales"}
	require.NoError(t, db.CreateContact(ctx, f.db, contact))
	deal := &models.Case{Title: "Renewal"}
	require.NoError(t, db.CreateCase(ctx, f.db, deal))
	require.NoError(t, db.AttachContact(ctx, f.db, deal.ID, contact.ID))

	res, err := h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{
		Name: "contact-summary", Arguments: map[string]string{"contact_id": contact.ID.String()},
	}})
	require.NoError(t, err)
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Name: Gil")
	assert.Contains(t, text, "Job title: VP Sales")
	assert.Contains(t, text, "- Renewal")

	sess := f.open(t, OpenSessionInput{ContactID: contact.ID.String()})
	_, _, err = f.sessions.ToggleCaseRole(ctx, nil, CaseRoleInput{SessionID: sess.SessionID, CaseID: deal.ID.String(), Role: "influencer"})
	require.NoError(t, err)
	_, _, err = f.sessions.UpdateEntry(ctx, nil, UpdateEntryInput{SessionID: sess.SessionID, Field: "company", Index: 0, Value: "Hooli"})
	require.NoError(t, err)

	res, err = h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{
		Name: "session-review", Arguments: map[string]string{"session_id": sess.SessionID},
	}})
	require.NoError(t, err)
	text = res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Unresolved company: Hooli")
	assert.Contains(t, text, "Unsaved roles in case Renewal")

	_, err = h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "nope"}})
	assert.Error(t, err)
}

func TestGenerateCaseRoleGraphTool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := NewVizHandlers(f.dir)

	_, _, err := h.GenerateCaseRoleGraph(ctx, nil, GenerateGraphInput{ContactID: "bad"})
	assert.Error(t, err)

	contact := &models.Contact{FirstName: "Hal"}
	require.NoError(t, db.CreateContact(ctx, f.db, contact))
	deal := &models.Case{Title: "Pilot"}
	require.NoError(t, db.CreateCase(ctx, f.db, deal))
	require.NoError(t, db.AttachContact(ctx, f.db, deal.ID, contact.ID))
	require.NoError(t, db.SetCaseRoles(ctx, f.db, contact.ID, deal.ID, []models.Role{models.RoleChampion}))

	_, out, err := h.GenerateCaseRoleGraph(ctx, nil, GenerateGraphInput{ContactID: contact.ID.String()})
	require.NoError(t, err)
	assert.Contains(t, out.DOTSource, "digraph")
	assert.Equal(t, 1, out.EdgeCount)
}

// ABOUTME: Builds the MCP server exposing edit sessions, companies, graphs, resources and prompts
// ABOUTME: Every contact edit goes through an edit session opened with open_contact_session
package handlers

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `Contact editing works through sessions. Call open_contact_session (with contact_id to edit,
without to create), apply changes with the session tools, and finish with submit_contact. Company
entries are resolved with company_activate, company_type, then company_select or
company_request_create plus company_confirm. Case roles are toggled locally and persisted per case
with save_case_roles.`

// ServerHandlers groups the handler sets registered on the MCP server.
type ServerHandlers struct {
	Sessions  *SessionHandlers
	Companies *CompanyHandlers
	Viz       *VizHandlers
	Resources *ResourceHandlers
	Prompts   *PromptHandlers
}

// NewServer registers every tool, resource template and prompt.
func NewServer(version string, h ServerHandlers) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "contactdesk",
		Version: version,
	}, &mcp.ServerOptions{Instructions: serverInstructions})

	s := h.Sessions

	mcp.AddTool(server, &mcp.Tool{
		Name:        "open_contact_session",
		Description: "Open an edit session for an existing contact or a new one",
	}, s.OpenSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "view_session",
		Description: "Show the current state of an edit session",
	}, s.ViewSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "close_session",
		Description: "Close an edit session, discarding unsaved changes",
	}, s.CloseSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_contact_fields",
		Description: "Set single-valued contact fields such as name, job title and stage",
	}, s.UpdateScalars)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "toggle_contact_role",
		Description: "Toggle a contact-wide role",
	}, s.ToggleGlobalRole)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_entry",
		Description: "Append a blank email, phone or company entry",
	}, s.AddEntry)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_entry",
		Description: "Remove an email, phone or company entry; the last entry is never removed",
	}, s.RemoveEntry)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_primary_entry",
		Description: "Make an email, phone or company entry the primary one",
	}, s.SetPrimary)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_entry",
		Description: "Change the value of an email, phone or company entry",
	}, s.UpdateEntry)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_duplicates",
		Description: "Flag email or phone entries already used by other contacts",
	}, s.CheckDuplicates)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "company_activate",
		Description: "Start resolving a company entry against the directory",
	}, s.CompanyActivate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "company_type",
		Description: "Update the search text of the active company entry",
	}, s.CompanyType)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "company_select",
		Description: "Resolve the active company entry to a search candidate",
	}, s.CompanySelect)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "company_request_create",
		Description: "Switch the active company entry to creating a new company",
	}, s.CompanyRequestCreate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "company_confirm",
		Description: "Create the new company and resolve the active entry to it",
	}, s.CompanyConfirm)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "company_cancel",
		Description: "Leave company creation and go back to idle",
	}, s.CompanyCancel)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "company_blur",
		Description: "Stop searching, keeping the typed text as the company name",
	}, s.CompanyBlur)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "toggle_case_role",
		Description: "Toggle a role the contact holds in one case (not saved until save_case_roles)",
	}, s.ToggleCaseRole)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_case_roles",
		Description: "Persist the contact's roles in one case",
	}, s.SaveCaseRoles)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_draft",
		Description: "Autosave the session so it can be resumed later",
	}, s.SaveDraft)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_drafts",
		Description: "List autosaved drafts",
	}, s.ListDrafts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "submit_contact",
		Description: "Save the edited contact; validation warnings do not block saving",
	}, s.SubmitContact)

	if h.Companies != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "add_company",
			Description: "Add a new company to the directory",
		}, h.Companies.AddCompany)

		mcp.AddTool(server, &mcp.Tool{
			Name:        "find_companies",
			Description: "Search the company directory by name or domain",
		}, h.Companies.FindCompanies)
	}

	if h.Viz != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "generate_case_role_graph",
			Description: "Render a contact's companies, cases and case roles as GraphViz DOT",
		}, h.Viz.GenerateCaseRoleGraph)
	}

	if h.Resources != nil {
		server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: resourceScheme + "contacts/{id}",
			Name:        "contact",
			Description: "A stored contact with all emails, phones and companies",
			MIMEType:    "application/json",
		}, h.Resources.ReadResource)

		server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: resourceScheme + "sessions/{id}",
			Name:        "session",
			Description: "The current state of an open edit session",
			MIMEType:    "application/json",
		}, h.Resources.ReadResource)
	}

	if h.Prompts != nil {
		server.AddPrompt(&mcp.Prompt{
			Name:        "contact-summary",
			Description: "Summarize a stored contact and their case roles",
			Arguments: []*mcp.PromptArgument{
				{Name: "contact_id", Description: "Contact UUID", Required: true},
			},
		}, h.Prompts.GetPrompt)

		server.AddPrompt(&mcp.Prompt{
			Name:        "session-review",
			Description: "Review warnings, duplicates and unsaved case roles before submitting",
			Arguments: []*mcp.PromptArgument{
				{Name: "session_id", Description: "Edit session ID", Required: true},
			},
		}, h.Prompts.GetPrompt)
	}

	return server
}

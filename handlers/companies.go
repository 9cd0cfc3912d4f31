// ABOUTME: Company MCP tool handlers
// ABOUTME: Implements add_company and find_companies against the company directory
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/contactdesk/editor"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type CompanyHandlers struct {
	dir   editor.CompanyDirectory
	limit int
}

func NewCompanyHandlers(dir editor.CompanyDirectory, limit int) *CompanyHandlers {
	if limit <= 0 {
		limit = 10
	}
	return &CompanyHandlers{dir: dir, limit: limit}
}

type AddCompanyInput struct {
	Name     string `json:"name" jsonschema:"Company name (required)"`
	Industry string `json:"industry,omitempty" jsonschema:"Industry or sector"`
}

func (h *CompanyHandlers) AddCompany(ctx context.Context, _ *mcp.CallToolRequest, input AddCompanyInput) (*mcp.CallToolResult, CompanyOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, CompanyOutput{}, fmt.Errorf("name is required")
	}

	company, err := h.dir.CreateCompany(ctx, name, strings.TrimSpace(input.Industry))
	if err != nil {
		return nil, CompanyOutput{}, fmt.Errorf("failed to create company: %w", err)
	}
	return nil, companyToOutput(*company), nil
}

type FindCompaniesInput struct {
	Query string `json:"query" jsonschema:"Search query for company name or domain"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum results (default 10)"`
}

type FindCompaniesOutput struct {
	Companies []CompanyOutput `json:"companies"`
}

func (h *CompanyHandlers) FindCompanies(ctx context.Context, _ *mcp.CallToolRequest, input FindCompaniesInput) (*mcp.CallToolResult, FindCompaniesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = h.limit
	}

	companies, err := h.dir.SearchCompanies(ctx, strings.TrimSpace(input.Query), limit)
	if err != nil {
		return nil, FindCompaniesOutput{}, fmt.Errorf("failed to find companies: %w", err)
	}

	out := FindCompaniesOutput{Companies: make([]CompanyOutput, 0, len(companies))}
	for _, c := range companies {
		out.Companies = append(out.Companies, companyToOutput(c))
	}
	return nil, out, nil
}

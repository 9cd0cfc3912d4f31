// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides the generate_case_role_graph tool for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	generator *viz.GraphGenerator
}

func NewVizHandlers(src viz.Source) *VizHandlers {
	return &VizHandlers{generator: viz.NewGraphGenerator(src)}
}

type GenerateGraphInput struct {
	ContactID string `json:"contact_id" jsonschema:"UUID of the contact whose case roles to draw"`
}

type GenerateGraphOutput struct {
	ContactID string `json:"contact_id"`
	DOTSource string `json:"dot_source"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateCaseRoleGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	contactID, err := uuid.Parse(input.ContactID)
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("invalid contact_id: %w", err)
	}

	dot, err := h.generator.GenerateCaseRoleGraph(ctx, contactID)
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, GenerateGraphOutput{
		ContactID: contactID.String(),
		DOTSource: dot,
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}

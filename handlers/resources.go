// ABOUTME: MCP resource handlers exposing contacts and open edit sessions
// ABOUTME: Read-only JSON under contactdesk://contacts/{id} and contactdesk://sessions/{id}
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "contactdesk://"

type ResourceHandlers struct {
	loader   ContactLoader
	sessions *SessionHandlers
}

func NewResourceHandlers(loader ContactLoader, sessions *SessionHandlers) *ResourceHandlers {
	return &ResourceHandlers{loader: loader, sessions: sessions}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	if len(parts) != 2 || parts[1] == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	var payload any
	switch parts[0] {
	case "contacts":
		id, err := uuid.Parse(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid contact ID: %w", err)
		}
		if h.loader == nil {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		contact, err := h.loader.GetContact(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch contact: %w", err)
		}
		if contact == nil {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		payload = contact

	case "sessions":
		s, err := h.sessions.Session(parts[1])
		if err != nil {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		payload = h.sessions.output(parts[1], s)

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

// ABOUTME: GraphViz rendering of a contact's companies, cases and per-case roles
// ABOUTME: Produces DOT source or any go-graphviz output format
package viz

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/models"
)

// Source supplies the data a contact graph is built from.
type Source interface {
	GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	ListCaseRoles(ctx context.Context, contactID uuid.UUID) ([]models.CaseRoles, error)
}

type GraphGenerator struct {
	src Source
}

func NewGraphGenerator(src Source) *GraphGenerator {
	return &GraphGenerator{src: src}
}

// GenerateCaseRoleGraph returns the DOT source of the contact's role graph.
func (g *GraphGenerator) GenerateCaseRoleGraph(ctx context.Context, contactID uuid.UUID) (string, error) {
	var buf bytes.Buffer
	if err := g.RenderCaseRoleGraph(ctx, contactID, graphviz.XDOT, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderCaseRoleGraph writes the contact, its companies and its cases to w.
// Case edges are labelled with the roles held; cases without roles get a
// dotted edge.
func (g *GraphGenerator) RenderCaseRoleGraph(ctx context.Context, contactID uuid.UUID, format graphviz.Format, w io.Writer) error {
	contact, err := g.src.GetContact(ctx, contactID)
	if err != nil {
		return fmt.Errorf("failed to fetch contact: %w", err)
	}
	if contact == nil {
		return fmt.Errorf("contact not found: %s", contactID)
	}
	cases, err := g.src.ListCaseRoles(ctx, contactID)
	if err != nil {
		return fmt.Errorf("failed to fetch case roles: %w", err)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetRankDir(cgraph.LRRank)
	graph.SetLabel(fmt.Sprintf("%s: case roles", contact.DisplayName()))

	root, err := graph.CreateNodeByName("contact_" + contact.ID.String())
	if err != nil {
		return fmt.Errorf("failed to create contact node: %w", err)
	}
	label := contact.DisplayName()
	if roles := joinRoles(contact.Roles); roles != "" {
		label += "\n" + roles
	}
	root.SetLabel(label)
	root.SetShape("ellipse")
	root.SetStyle("filled")
	root.SetFillColor("lightgreen")

	companyNodes := make(map[string]*cgraph.Node)
	for i, cc := range contact.Companies {
		key := cc.CompanyName
		if cc.CompanyID != nil {
			key = cc.CompanyID.String()
		}
		node, err := graph.CreateNodeByName(fmt.Sprintf("company_%d", i))
		if err != nil {
			return fmt.Errorf("failed to create company node: %w", err)
		}
		node.SetLabel(cc.CompanyName)
		node.SetShape("box")
		node.SetStyle("filled")
		node.SetFillColor("lightblue")
		if cc.CompanyID == nil {
			node.SetStyle("dashed")
		}
		companyNodes[key] = node

		edge, err := graph.CreateEdgeByName(fmt.Sprintf("works_at_%d", i), root, node)
		if err != nil {
			return fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetLabel("works at")
		if cc.IsPrimary {
			edge.SetStyle("bold")
		} else {
			edge.SetStyle("dashed")
		}
	}

	for i, cr := range cases {
		node, err := graph.CreateNodeByName("case_" + cr.Case.ID.String())
		if err != nil {
			return fmt.Errorf("failed to create case node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n(%s)", cr.Case.Title, cr.Case.Stage))
		node.SetShape("diamond")
		node.SetStyle("filled")
		node.SetFillColor("lightyellow")

		edge, err := graph.CreateEdgeByName(fmt.Sprintf("role_%d", i), root, node)
		if err != nil {
			return fmt.Errorf("failed to create edge: %w", err)
		}
		if roles := joinRoles(cr.Roles); roles != "" {
			edge.SetLabel(roles)
		} else {
			edge.SetStyle("dotted")
		}

		if cr.Case.CompanyID != nil {
			if companyNode, ok := companyNodes[cr.Case.CompanyID.String()]; ok {
				link, err := graph.CreateEdgeByName(fmt.Sprintf("case_company_%d", i), node, companyNode)
				if err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
				link.SetLabel("for")
				link.SetStyle("dotted")
			}
		}
	}

	if err := gv.Render(ctx, graph, format, w); err != nil {
		return fmt.Errorf("failed to render graph: %w", err)
	}
	return nil
}

func joinRoles(roles []models.Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range models.SortRoles(roles) {
		parts = append(parts, strings.ReplaceAll(string(r), "_", " "))
	}
	return strings.Join(parts, ", ")
}

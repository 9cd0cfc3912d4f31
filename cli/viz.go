// ABOUTME: Visualization CLI commands
// ABOUTME: Renders a contact's companies, cases and case roles with GraphViz
package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/goccy/go-graphviz"
	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/viz"
	"github.com/spf13/cobra"
)

func newVizCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Visualize contact data",
	}

	var format, output string
	roles := &cobra.Command{
		Use:   "roles <contact-id>",
		Short: "Graph the roles a contact holds across cases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contactID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid contact ID: %w", err)
			}
			gvFormat, err := graphFormat(format)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			var buf bytes.Buffer
			if err := viz.NewGraphGenerator(a.source).RenderCaseRoleGraph(cmd.Context(), contactID, gvFormat, &buf); err != nil {
				return err
			}

			if output != "" {
				if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Graph written to %s\n", output)
				return nil
			}
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		},
	}
	roles.Flags().StringVar(&format, "format", "dot", "output format: dot, svg, png")
	roles.Flags().StringVar(&output, "output", "", "output file (default: stdout)")

	cmd.AddCommand(roles)
	return cmd
}

func graphFormat(name string) (graphviz.Format, error) {
	switch name {
	case "dot", "":
		return graphviz.XDOT, nil
	case "svg":
		return graphviz.SVG, nil
	case "png":
		return graphviz.PNG, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want dot, svg or png)", name)
	}
}

// ABOUTME: MCP server subcommand
// ABOUTME: Serves edit sessions, company search and case-role graphs over stdio
package cli

import (
	"github.com/harperreed/contactdesk/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMCPCommand(opts *globalOptions, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			var drafts handlers.DraftStore
			if a.drafts != nil {
				drafts = a.drafts
			}

			sessions := handlers.NewSessionHandlers(a.deps, a.source, drafts, a.cfg.Resolver(), a.cfg.SessionConfig(), a.logger.Named("sessions"))
			defer sessions.CloseAll()

			server := handlers.NewServer(version, handlers.ServerHandlers{
				Sessions:  sessions,
				Companies: handlers.NewCompanyHandlers(a.companies, a.cfg.Company.SearchLimit),
				Viz:       handlers.NewVizHandlers(a.source),
				Resources: handlers.NewResourceHandlers(a.source, sessions),
				Prompts:   handlers.NewPromptHandlers(a.source, a.deps.CaseRoles, sessions),
			})

			a.logger.Info("starting MCP server", zap.String("version", version))
			return server.Run(ctx, &mcp.StdioTransport{})
		},
	}
}

// ABOUTME: Root of the contactdesk cobra command tree
// ABOUTME: Global flags for config file, database path and log level
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/harperreed/contactdesk/config"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	configPath string
	dbPath     string
	logLevel   string
}

// NewRootCommand builds the full command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "contactdesk",
		Short: "Contact editing for a small CRM",
		Long: `contactdesk edits CRM contacts with several emails, phones and companies,
resolves companies against the directory, tracks per-case roles and serves the
same edit sessions to AI agents over MCP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath(), "config file path")
	root.PersistentFlags().StringVar(&opts.dbPath, "db-path", "", "database path (overrides db.path)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newMCPCommand(opts, version),
		newEditCommand(opts),
		newContactCommand(opts),
		newCompanyCommand(opts),
		newCaseCommand(opts),
		newImportCommand(opts),
		newDraftsCommand(opts),
		newVizCommand(opts),
		newMigrateCommand(opts),
		newConfigCommand(opts),
	)
	return root
}

// Execute runs the command tree and reports errors on stderr.
func Execute(ctx context.Context, version string) int {
	if err := NewRootCommand(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

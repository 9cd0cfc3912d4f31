// ABOUTME: Migration CLI commands
// ABOUTME: Imports a legacy pagen database with dry-run and backup support
package cli

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/contactdesk/db"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate data from other tools",
	}

	var dryRun, backup bool
	pagen := &cobra.Command{
		Use:   "pagen <legacy-db>",
		Short: "Copy companies, contacts and deals from a pagen database",
		Long: `Copies a pagen database into contactdesk. Companies are matched by name and
contacts by email so running the import twice does not duplicate them. Each
deal becomes a case with its contact attached.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			srcPath := args[0]
			if _, err := os.Stat(srcPath); err != nil {
				return fmt.Errorf("legacy database not found: %w", err)
			}

			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLocal(); err != nil {
				return err
			}

			src, err := sql.Open("sqlite3", "file:"+srcPath+"?mode=ro")
			if err != nil {
				return fmt.Errorf("failed to open legacy database: %w", err)
			}
			defer func() { _ = src.Close() }()

			out := cmd.OutOrStdout()
			if backup && !dryRun {
				backupPath, err := backupDatabase(a.cfg.DB.Path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Backup created: %s\n", backupPath)
			}

			stats, err := db.ImportLegacy(ctx, src, a.db, dryRun)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			a.logger.Info("legacy import finished",
				zap.String("source", srcPath),
				zap.Bool("dry_run", dryRun),
				zap.Int("companies", stats.Companies),
				zap.Int("contacts", stats.Contacts),
				zap.Int("cases", stats.Cases),
				zap.Int("skipped", stats.Skipped))

			verb := "Imported"
			if dryRun {
				verb = "[DRY RUN] Would import"
			}
			fmt.Fprintf(out, "%s %d company(ies), %d contact(s), %d case(s)\n", verb, stats.Companies, stats.Contacts, stats.Cases)
			fmt.Fprintf(out, "Skipped %d existing record(s)\n", stats.Skipped)
			return nil
		},
	}
	pagen.Flags().BoolVar(&dryRun, "dry-run", false, "show what would happen without making changes")
	pagen.Flags().BoolVar(&backup, "backup", true, "copy the contactdesk database before importing")

	cmd.AddCommand(pagen)
	return cmd
}

// backupDatabase copies the database file next to itself with a timestamp suffix.
func backupDatabase(path string) (string, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read database: %w", err)
	}
	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	if err := os.WriteFile(backupPath, input, 0600); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	return backupPath, nil
}

// ABOUTME: Company CLI commands
// ABOUTME: Adds companies and searches the directory through the optional cache
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/contactdesk/models"
	"github.com/spf13/cobra"
)

func newCompanyCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Manage the company directory",
	}

	var name, industry string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required")
			}
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			company, err := a.companies.CreateCompany(cmd.Context(), strings.TrimSpace(name), strings.TrimSpace(industry))
			if err != nil {
				return fmt.Errorf("failed to create company: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Company created: %s (ID: %s)\n", company.Name, company.ID)
			if company.Industry != "" {
				fmt.Fprintf(out, "  Industry: %s\n", company.Industry)
			}
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "company name (required)")
	add.Flags().StringVar(&industry, "industry", "", "industry")

	var limit int
	find := &cobra.Command{
		Use:   "find <query>",
		Short: "Search companies by name or domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if limit <= 0 {
				limit = a.cfg.Company.SearchLimit
			}
			companies, err := a.companies.SearchCompanies(cmd.Context(), strings.TrimSpace(args[0]), limit)
			if err != nil {
				return fmt.Errorf("failed to find companies: %w", err)
			}
			printCompanies(cmd.OutOrStdout(), companies)
			return nil
		},
	}
	find.Flags().IntVar(&limit, "limit", 0, "maximum results (default company.search_limit)")

	cmd.AddCommand(add, find)
	return cmd
}

func printCompanies(out io.Writer, companies []models.Company) {
	if len(companies) == 0 {
		fmt.Fprintln(out, "No companies found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDOMAIN\tINDUSTRY\tID")
	fmt.Fprintln(w, "----\t------\t--------\t--")
	for _, company := range companies {
		domain := company.Domain
		if domain == "" {
			domain = "-"
		}
		industry := company.Industry
		if industry == "" {
			industry = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", company.Name, domain, industry, company.ID.String()[:8])
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\nTotal: %d company(ies)\n", len(companies))
}

// ABOUTME: Case CLI commands
// ABOUTME: Creates cases, links contacts to them and sets per-case roles
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/db"
	"github.com/harperreed/contactdesk/models"
	"github.com/spf13/cobra"
)

func newCaseCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Manage cases and the roles contacts hold in them",
	}
	cmd.AddCommand(
		newCaseAddCommand(opts),
		newCaseListCommand(opts),
		newCaseAttachCommand(opts),
		newCaseRolesCommand(opts),
		newCaseSetRolesCommand(opts),
	)
	return cmd
}

func newCaseAddCommand(opts *globalOptions) *cobra.Command {
	var title, stage, companyID string
	var amount int64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a case",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(title) == "" {
				return fmt.Errorf("--title is required")
			}
			c := &models.Case{Title: strings.TrimSpace(title), Stage: stage, Amount: amount}
			if companyID != "" {
				id, err := uuid.Parse(companyID)
				if err != nil {
					return fmt.Errorf("invalid company ID: %w", err)
				}
				c.CompanyID = &id
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLocal(); err != nil {
				return err
			}

			if err := db.CreateCase(cmd.Context(), a.db, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Case created: %s (ID: %s)\n", c.Title, c.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "  Stage: %s\n", c.Stage)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "case title (required)")
	cmd.Flags().StringVar(&stage, "stage", models.CaseStageProspecting, "case stage")
	cmd.Flags().Int64Var(&amount, "amount", 0, "amount in cents")
	cmd.Flags().StringVar(&companyID, "company-id", "", "company the case belongs to")
	return cmd
}

func newCaseListCommand(opts *globalOptions) *cobra.Command {
	var stage string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLocal(); err != nil {
				return err
			}

			cases, err := db.ListCases(cmd.Context(), a.db, stage, limit)
			if err != nil {
				return err
			}
			printCases(cmd.OutOrStdout(), cases)
			return nil
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "", "only cases in this stage")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum results")
	return cmd
}

func newCaseAttachCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <case-id> <contact-id>",
		Short: "Link a contact to a case without roles",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseID, contactID, err := parseCaseContact(args)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLocal(); err != nil {
				return err
			}

			if err := db.AttachContact(cmd.Context(), a.db, caseID, contactID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Contact attached to case")
			return nil
		},
	}
}

func newCaseRolesCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "roles <contact-id>",
		Short: "Show a contact's case history with the roles held in each case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contactID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid contact ID: %w", err)
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			history, err := a.source.ListCaseRoles(cmd.Context(), contactID)
			if err != nil {
				return err
			}
			printCaseRoles(cmd.OutOrStdout(), history)
			return nil
		},
	}
}

func newCaseSetRolesCommand(opts *globalOptions) *cobra.Command {
	var roles []string

	cmd := &cobra.Command{
		Use:   "set-roles <case-id> <contact-id>",
		Short: "Replace the roles a contact holds in a case",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseID, contactID, err := parseCaseContact(args)
			if err != nil {
				return err
			}
			set := make([]models.Role, 0, len(roles))
			for _, r := range roles {
				role := models.Role(strings.TrimSpace(r))
				if !role.Valid() {
					return fmt.Errorf("unknown role %q", r)
				}
				set = append(set, role)
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.deps.CaseRoles.SaveCaseRoles(cmd.Context(), contactID, caseID, models.SortRoles(set)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Roles saved: %s\n", orNone(joinRoles(set)))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role to hold (repeatable, empty clears all roles)")
	return cmd
}

func parseCaseContact(args []string) (caseID, contactID uuid.UUID, err error) {
	caseID, err = uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid case ID: %w", err)
	}
	contactID, err = uuid.Parse(args[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid contact ID: %w", err)
	}
	return caseID, contactID, nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func printCases(out io.Writer, cases []models.Case) {
	if len(cases) == 0 {
		fmt.Fprintln(out, "No cases found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tSTAGE\tAMOUNT\tID")
	fmt.Fprintln(w, "-----\t-----\t------\t--")
	for _, c := range cases {
		amount := "-"
		if c.Amount > 0 {
			amount = fmt.Sprintf("%s %.2f", c.Currency, float64(c.Amount)/100)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Title, c.Stage, amount, c.ID.String()[:8])
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\nTotal: %d case(s)\n", len(cases))
}

func printCaseRoles(out io.Writer, history []models.CaseRoles) {
	if len(history) == 0 {
		fmt.Fprintln(out, "No case history")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CASE\tSTAGE\tROLES\tID")
	fmt.Fprintln(w, "----\t-----\t-----\t--")
	for _, cr := range history {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cr.Case.Title, cr.Case.Stage, orNone(joinRoles(cr.Roles)), cr.Case.ID.String()[:8])
	}
	_ = w.Flush()
}

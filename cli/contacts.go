// ABOUTME: Contact CLI commands
// ABOUTME: Lists and shows contacts with all their emails, phones, companies and case roles
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

func newContactCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Inspect stored contacts",
	}

	var query string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List contacts, optionally filtered by name or email",
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

			contacts, err := db.FindContacts(cmd.Context(), a.db, query, limit)
			if err != nil {
				return err
			}
			printContacts(cmd.OutOrStdout(), contacts)
			return nil
		},
	}
	list.Flags().StringVar(&query, "query", "", "search by name or email")
	list.Flags().IntVar(&limit, "limit", 50, "maximum results")

	show := &cobra.Command{
		Use:   "show <contact-id>",
		Short: "Show one contact with its case roles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid contact ID: %w", err)
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			contact, err := a.source.GetContact(cmd.Context(), id)
			if err != nil {
				return err
			}
			if contact == nil {
				return fmt.Errorf("contact not found: %s", id)
			}
			cases, err := a.source.ListCaseRoles(cmd.Context(), id)
			if err != nil {
				return err
			}
			printContact(cmd.OutOrStdout(), contact, cases)
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func printContacts(out io.Writer, contacts []models.Contact) {
	if len(contacts) == 0 {
		fmt.Fprintln(out, "No contacts found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tCOMPANY\tID")
	fmt.Fprintln(w, "----\t-----\t-------\t--")
	for _, c := range contacts {
		email := c.PrimaryEmail()
		if email == "" {
			email = "-"
		}
		company := "-"
		for _, cc := range c.Companies {
			if cc.IsPrimary {
				company = cc.CompanyName
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.DisplayName(), email, company, c.ID.String()[:8])
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\nTotal: %d contact(s)\n", len(contacts))
}

func printContact(out io.Writer, c *models.Contact, cases []models.CaseRoles) {
	fmt.Fprintf(out, "%s (ID: %s)\n", c.DisplayName(), c.ID)
	if c.JobTitle != "" {
		fmt.Fprintf(out, "  Job title: %s\n", c.JobTitle)
	}
	if c.Stage != "" {
		fmt.Fprintf(out, "  Stage: %s %s\n", c.Stage, c.SubStatus)
	}
	if len(c.Roles) > 0 {
		fmt.Fprintf(out, "  Roles: %s\n", joinRoles(c.Roles))
	}
	for _, e := range c.Emails {
		fmt.Fprintf(out, "  Email: %s%s\n", e.Address, primaryMark(e.IsPrimary))
	}
	for _, p := range c.Phones {
		fmt.Fprintf(out, "  Phone: %s%s\n", p.Number, primaryMark(p.IsPrimary))
	}
	for _, cc := range c.Companies {
		linked := ""
		if cc.CompanyID == nil {
			linked = " (not linked)"
		}
		fmt.Fprintf(out, "  Company: %s%s%s\n", cc.CompanyName, primaryMark(cc.IsPrimary), linked)
	}
	if len(cases) > 0 {
		fmt.Fprintln(out, "  Cases:")
		for _, cr := range cases {
			roles := joinRoles(cr.Roles)
			if roles == "" {
				roles = "no roles"
			}
			fmt.Fprintf(out, "    %s (%s): %s\n", cr.Case.Title, cr.Case.Stage, roles)
		}
	}
}

func joinRoles(roles []models.Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range models.SortRoles(roles) {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ", ")
}

func primaryMark(primary bool) string {
	if primary {
		return " ★"
	}
	return ""
}

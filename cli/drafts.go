// ABOUTME: Draft CLI commands
// ABOUTME: Lists, inspects and discards autosaved edit drafts and manages Charm sync
package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/charm"
	"github.com/harperreed/contactdesk/editor"
	"github.com/spf13/cobra"
)

var errDraftsDisabled = errors.New("draft storage is disabled; set charm.enabled to true")

func newDraftsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Manage autosaved edit drafts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved drafts, newest first",
		Args:  cobra.NoArgs,
		RunE: withDrafts(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			drafts, err := a.drafts.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(drafts) == 0 {
				fmt.Fprintln(out, "No drafts")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tNAME\tSAVED")
			fmt.Fprintln(w, "---\t----\t-----")
			for _, snap := range drafts {
				fmt.Fprintf(w, "%s\t%s\t%s\n", draftLabel(snap.ContactID), snapshotName(snap), snap.SavedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		}),
	}

	show := &cobra.Command{
		Use:   "show <contact-id|new>",
		Short: "Show the contents of a draft",
		Args:  cobra.ExactArgs(1),
		RunE: withDrafts(opts, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := charm.ParseDraftKey(args[0])
			if err != nil {
				return err
			}
			snap, err := a.drafts.Load(id)
			if err != nil {
				return err
			}
			if snap == nil {
				return fmt.Errorf("no draft for %s", draftLabel(id))
			}
			contact := editor.RestoreDraft(*snap).ToContact()
			fmt.Fprintf(cmd.OutOrStdout(), "Draft saved %s\n", snap.SavedAt.Local().Format(time.DateTime))
			printContact(cmd.OutOrStdout(), contact, nil)
			return nil
		}),
	}

	discard := &cobra.Command{
		Use:   "discard <contact-id|new>",
		Short: "Delete a draft",
		Args:  cobra.ExactArgs(1),
		RunE: withDrafts(opts, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := charm.ParseDraftKey(args[0])
			if err != nil {
				return err
			}
			if err := a.drafts.Discard(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Draft discarded: %s\n", draftLabel(id))
			return nil
		}),
	}

	sync := &cobra.Command{
		Use:   "sync",
		Short: "Sync drafts with the Charm cloud",
		Args:  cobra.NoArgs,
		RunE: withDrafts(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "Syncing with Charm Cloud...")
			if err := a.charm.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Sync complete")
			return nil
		}),
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show Charm sync status",
		Args:  cobra.NoArgs,
		RunE: withDrafts(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			st := a.charm.Status()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Host:      %s\n", st.Host)
			fmt.Fprintf(out, "Auto sync: %t\n", st.AutoSync)
			if st.Connected {
				fmt.Fprintf(out, "Connected: yes")
				if st.ID != "" {
					fmt.Fprintf(out, " (%s)", st.ID)
				}
				fmt.Fprintln(out)
			} else {
				fmt.Fprintln(out, "Connected: no")
			}
			fmt.Fprintf(out, "Keys:      %d\n", st.Keys)
			return nil
		}),
	}

	cmd.AddCommand(list, show, discard, sync, status)
	return cmd
}

// withDrafts opens the app and fails early when draft storage is unavailable.
func withDrafts(opts *globalOptions, run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), opts)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.drafts == nil {
			return errDraftsDisabled
		}
		return run(cmd, a, args)
	}
}

func snapshotName(snap editor.DraftSnapshot) string {
	name := snap.Scalars.FirstName
	if snap.Scalars.LastName != "" {
		name += " " + snap.Scalars.LastName
	}
	if name == "" {
		return "(unnamed)"
	}
	return name
}

// draftLabel is the user facing key of the draft for id.
func draftLabel(id uuid.UUID) string {
	if id == uuid.Nil {
		return charm.NewDraftKey
	}
	return id.String()
}

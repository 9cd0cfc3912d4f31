// ABOUTME: Interactive contact editor subcommand
// ABOUTME: Opens an edit session in the terminal UI and autosaves a draft on exit
package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/tui"
	"github.com/spf13/cobra"
)

func newEditCommand(opts *globalOptions) *cobra.Command {
	var resume bool

	cmd := &cobra.Command{
		Use:   "edit [contact-id]",
		Short: "Edit a contact in the terminal, or create one when no ID is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			contactID := uuid.Nil
			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid contact ID: %w", err)
				}
				contactID = id
			}

			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			draft, err := openDraft(ctx, a, contactID, resume)
			if err != nil {
				return err
			}

			session := editor.NewEditSession(draft, a.cfg.Resolver(), a.deps, a.cfg.SessionConfig(), a.logger.Named("session"))
			defer session.Close()
			if err := session.Open(ctx); err != nil {
				return fmt.Errorf("failed to load case history: %w", err)
			}

			var saver tui.DraftSaver
			if a.drafts != nil {
				saver = a.drafts
			}

			final, err := tea.NewProgram(tui.NewModel(ctx, session, saver), tea.WithAltScreen()).Run()
			if err != nil {
				return fmt.Errorf("editor failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if m, ok := final.(tui.Model); ok && m.Submitted() != nil {
				contact := m.Submitted()
				fmt.Fprintf(out, "✓ Contact saved: %s (ID: %s)\n", contact.DisplayName(), contact.ID)
				if a.drafts != nil {
					_ = a.drafts.Discard(contactID)
					_ = a.drafts.Discard(contact.ID)
				}
				return nil
			}

			if a.drafts == nil {
				fmt.Fprintln(out, "Changes discarded")
				return nil
			}
			snap := session.Draft().Snapshot()
			if _, err := a.drafts.Save(snap); err != nil {
				return fmt.Errorf("failed to save draft: %w", err)
			}
			fmt.Fprintf(out, "Draft saved. Resume with: contactdesk edit %s--resume\n", resumeArg(contactID))
			return nil
		},
	}

	cmd.Flags().BoolVar(&resume, "resume", false, "resume the autosaved draft when one exists")
	return cmd
}

func resumeArg(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String() + " "
}

// openDraft seeds the draft from a saved snapshot, the stored contact or a blank form.
func openDraft(ctx context.Context, a *app, contactID uuid.UUID, resume bool) (*editor.ContactDraft, error) {
	if resume && a.drafts != nil {
		snap, err := a.drafts.Load(contactID)
		if err != nil {
			return nil, err
		}
		if snap != nil {
			return editor.RestoreDraft(*snap), nil
		}
		a.logger.Sugar().Infow("no draft to resume", "key", draftLabel(contactID))
	}

	resolver := a.cfg.Resolver()
	if contactID == uuid.Nil {
		d := editor.NewDraft()
		d.Phones.Update(0, editor.Phone{CountryCode: resolver.Fallback()})
		return d, nil
	}

	contact, err := a.source.GetContact(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contact: %w", err)
	}
	if contact == nil {
		return nil, fmt.Errorf("contact not found: %s", contactID)
	}
	return editor.DraftFromContact(contact, resolver), nil
}

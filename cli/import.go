// ABOUTME: Google Contacts import CLI commands
// ABOUTME: Runs the OAuth browser flow and imports people as contacts
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/harperreed/contactdesk/sync"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

const oauthCallbackAddr = "localhost:8080"

func newImportCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import contacts from external services",
	}

	google := &cobra.Command{
		Use:   "google",
		Short: "Import from Google Contacts",
	}
	google.AddCommand(newGoogleInitCommand(), newGoogleContactsCommand(opts))

	cmd.AddCommand(google)
	return cmd
}

func newGoogleInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Authorize access to Google Contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			config, err := sync.RequireOAuthConfig()
			if err != nil {
				return err
			}

			tokens := make(chan *oauth2.Token, 1)
			errs := make(chan error, 1)

			mux := http.NewServeMux()
			mux.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
				code := r.URL.Query().Get("code")
				if code == "" {
					http.Error(w, "missing authorization code", http.StatusBadRequest)
					errs <- fmt.Errorf("no authorization code received")
					return
				}
				token, err := sync.ExchangeCode(ctx, config, code, sync.TokenPath())
				if err != nil {
					http.Error(w, "authorization failed", http.StatusInternalServerError)
					errs <- err
					return
				}
				_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
				tokens <- token
			})

			server := &http.Server{Addr: oauthCallbackAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errs <- err
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}()

			authURL := config.AuthCodeURL("state", oauth2.AccessTypeOffline)
			fmt.Fprintln(out, "Opening browser for Google OAuth...")
			fmt.Fprintf(out, "\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)
			_ = openBrowser(authURL)

			select {
			case <-tokens:
				fmt.Fprintf(out, "✓ Authenticated successfully\n")
				fmt.Fprintf(out, "✓ Tokens saved to %s\n\n", sync.TokenPath())
				fmt.Fprintln(out, "Run 'contactdesk import google contacts' to import contacts.")
				return nil
			case err := <-errs:
				return fmt.Errorf("OAuth flow failed: %w", err)
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}

func newGoogleContactsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "contacts",
		Short: "Import Google Contacts into the local database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			token, err := sync.LoadToken(sync.TokenPath())
			if err != nil {
				return fmt.Errorf("no authentication token found. Run 'contactdesk import google init' first: %w", err)
			}

			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLocal(); err != nil {
				return err
			}

			client, err := sync.NewPeopleClient(ctx, token)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Importing Google Contacts...")
			stats, err := sync.ImportPeople(ctx, a.db, client, a.cfg.Resolver(), a.logger.Named("import"))
			if err != nil {
				return fmt.Errorf("contacts import failed: %w", err)
			}

			fmt.Fprintf(out, "✓ Fetched %d people\n", stats.Fetched)
			fmt.Fprintf(out, "  Created:    %d\n", stats.Created)
			fmt.Fprintf(out, "  Duplicates: %d\n", stats.Duplicates)
			fmt.Fprintf(out, "  Skipped:    %d\n", stats.Skipped)
			if stats.Failed > 0 {
				fmt.Fprintf(out, "  Failed:     %d\n", stats.Failed)
			}
			return nil
		},
	}
}

// openBrowser attempts to open url in the default browser.
func openBrowser(url string) error {
	var name string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		name = "open"
		args = []string{url}
	case "windows":
		name = "cmd"
		args = []string{"/c", "start", url}
	default:
		name = "xdg-open"
		args = []string{url}
	}

	return exec.Command(name, args...).Start()
}

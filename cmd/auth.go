package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lgch/luna/internal/google"
)

func newAuthCmd() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Luna to use Google Calendar",
		Long: `Run the Google OAuth flow for calendar sync.

Prints the consent URL, reads the authorization code from standard input
(or --code) and saves the token to GOOGLE_TOKEN_FILE, by default
$XDG_CACHE_HOME/luna/google.token. Restart the server afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd, code)
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code, skips the interactive prompt")

	return cmd
}

func runAuth(cmd *cobra.Command, code string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Google.Configured() {
		return errors.New("no Google OAuth client configured: set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET, or GOOGLE_CREDENTIALS_FILE")
	}

	auth, err := google.NewAuth(googleConfig(cfg.Google))
	if err != nil {
		return fmt.Errorf("failed to configure Google OAuth: %w", err)
	}

	out := newPrinter(cmd.OutOrStdout())
	if code == "" {
		fmt.Fprintln(out.w, out.title("Open this URL and grant calendar access:"))
		fmt.Fprintf(out.w, "\n  %s\n\n", auth.AuthURL())
		fmt.Fprint(out.w, "Authorization code: ")

		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read authorization code: %w", err)
		}
		code = line
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return errors.New("authorization code is required")
	}

	if err := auth.Exchange(cmd.Context(), code); err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	fmt.Fprintln(out.w, out.success("Token saved to "+auth.TokenFile()))
	return nil
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lgch/luna/internal/service"
)

func newResyncCmd() *cobra.Command {
	var kinds []string

	cmd := &cobra.Command{
		Use:   "resync",
		Short: "Push records that never reached Google Calendar",
		Long: `Retry the calendar mirror for todos, reminders and events whose last
push failed or never happened. Records already mirrored are left alone.

Requires a Google OAuth client and token (see "luna auth").`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResync(cmd, kinds)
		},
	}

	cmd.Flags().StringSliceVar(&kinds, "kind", nil,
		"Record kinds to resync: "+strings.Join(service.ResyncKinds, ", ")+" (default: all)")

	return cmd
}

func runResync(cmd *cobra.Command, kinds []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Debug)

	a, err := newApp(cmd.Context(), cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	// Partial reports are printed even when a later kind fails.
	reports, err := a.service.Resync(cmd.Context(), kinds...)
	out := newPrinter(cmd.OutOrStdout())
	for _, r := range reports {
		line := r.String()
		if r.Failed > 0 {
			line = out.failure(line)
		}
		fmt.Fprintln(out.w, line)
	}
	return err
}

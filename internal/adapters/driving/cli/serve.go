package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gsuite-cli/internal/adapters/driving/rest"
	"github.com/custodia-labs/gsuite-cli/internal/connectors/google/calendar"
	"github.com/custodia-labs/gsuite-cli/internal/connectors/google/drive"
	"github.com/custodia-labs/gsuite-cli/internal/connectors/google/gmail"
	"github.com/custodia-labs/gsuite-cli/internal/connectors/google/sheets"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST gateway",
	Long: `Expose the Google Workspace clients over HTTP.

The gateway reuses the stored token, refreshing it as needed. Protect
it with GSUITE_API_KEY when binding to a non-loopback address.`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireDeps(); err != nil {
		return err
	}

	ctx := cmd.Context()
	policy := deps.Settings.RetryPolicy()
	timeout := deps.Settings.RequestTimeoutDuration()

	gmailClient, err := gmail.NewClient(ctx, deps.Manager,
		gmail.WithRetryPolicy(policy),
		gmail.WithRequestTimeout(timeout))
	if err != nil {
		return fmt.Errorf("building gmail client: %w", err)
	}
	calendarClient, err := calendar.NewClient(ctx, deps.Manager,
		calendar.WithTimezone(deps.Settings.DefaultTimezone),
		calendar.WithRetryPolicy(policy),
		calendar.WithRequestTimeout(timeout))
	if err != nil {
		return fmt.Errorf("building calendar client: %w", err)
	}
	driveClient, err := drive.NewClient(ctx, deps.Manager,
		drive.WithRetryPolicy(policy),
		drive.WithRequestTimeout(timeout))
	if err != nil {
		return fmt.Errorf("building drive client: %w", err)
	}
	sheetsClient, err := sheets.NewClient(ctx, deps.Manager,
		sheets.WithRetryPolicy(policy),
		sheets.WithRequestTimeout(timeout))
	if err != nil {
		return fmt.Errorf("building sheets client: %w", err)
	}

	settings := *deps.Settings
	if serveHost != "" {
		settings.Host = serveHost
	}
	if servePort != 0 {
		settings.Port = servePort
	}

	server := rest.NewServer(&settings, deps.Manager, rest.Clients{
		Gmail:    gmailClient,
		Calendar: calendarClient,
		Drive:    driveClient,
		Sheets:   sheetsClient,
	})
	return server.Run(ctx)
}

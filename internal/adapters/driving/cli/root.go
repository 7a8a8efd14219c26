// Package cli implements the gsuite command tree. Commands are thin:
// they parse flags, call a service client, and print results. Wiring
// (settings, token store, credential manager) is injected by main via
// SetDeps so tests can swap in fakes.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gsuite-cli/internal/adapters/driven/config"
	"github.com/custodia-labs/gsuite-cli/internal/core/services/auth"
	"github.com/custodia-labs/gsuite-cli/internal/logger"
)

// version is stamped by main at startup.
var version = "dev"

// Deps holds the wired services the commands run against.
type Deps struct {
	Settings *config.Settings
	Manager  *auth.Manager

	// NewManager builds a manager with a non-default scope set, for
	// auth login --scopes.
	NewManager func(scopes []string) (*auth.Manager, error)
}

var (
	deps    *Deps
	verbose bool
)

// SetDeps injects the wired services. Must be called before Execute.
func SetDeps(d *Deps) {
	deps = d
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "gsuite",
	Short: "Google Workspace from the command line",
	Long: `gsuite is a unified client for Gmail, Calendar, Drive, and Sheets.

Authenticate once with 'gsuite auth login', then use the service
commands directly or run 'gsuite serve' to expose the same clients
over a REST gateway.

Examples:
  gsuite auth login
  gsuite gmail unread
  gsuite calendar today
  gsuite drive ls
  gsuite serve --port 8080`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the command tree. A non-nil error means the process
// should exit non-zero.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// requireDeps guards commands that need the wired services.
func requireDeps() error {
	if deps == nil || deps.Settings == nil || deps.Manager == nil {
		return errors.New("CLI services not configured")
	}
	return nil
}

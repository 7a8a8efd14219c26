package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
	"github.com/custodia-labs/gsuite-cli/internal/core/services/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Google OAuth session",
	Long: `Authenticate against Google and manage the stored token.

'auth login' runs the browser OAuth flow and persists the token in the
configured store. Later commands reuse and refresh it automatically.

Examples:
  gsuite auth login
  gsuite auth login --scopes all
  gsuite auth status
  gsuite auth logout`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Google via the browser",
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the stored token",
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the authentication state",
	RunE:  runAuthStatus,
}

var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the access token if it is expired",
	RunE:  runAuthRefresh,
}

var authExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the stored token as JSON",
	RunE:  runAuthExport,
}

var (
	authLoginForce  bool
	authLoginScopes string
)

func init() {
	authLoginCmd.Flags().BoolVar(
		&authLoginForce, "force", false, "Re-run the OAuth flow even if a valid token exists")
	authLoginCmd.Flags().StringVar(
		&authLoginScopes, "scopes", "default", "Scope set: default, gmail, calendar, drive, sheets, all")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)
	authCmd.AddCommand(authExportCmd)
	rootCmd.AddCommand(authCmd)
}

// loginManager resolves the manager to authenticate with, honouring a
// non-default --scopes selection.
func loginManager() (*auth.Manager, error) {
	scopes, ok := domain.ScopesByName(authLoginScopes)
	if !ok {
		return nil, fmt.Errorf("unknown scope set %q", authLoginScopes)
	}
	if authLoginScopes == "default" || authLoginScopes == "" || deps.NewManager == nil {
		return deps.Manager, nil
	}
	return deps.NewManager(scopes)
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	if err := requireDeps(); err != nil {
		return err
	}

	manager, err := loginManager()
	if err != nil {
		return err
	}

	if err := manager.Authenticate(cmd.Context(), authLoginForce); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	cmd.Println("Authenticated. Token stored.")
	return nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	if err := requireDeps(); err != nil {
		return err
	}

	removed, err := deps.Manager.Revoke(cmd.Context())
	if err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	if removed {
		cmd.Println("Token removed.")
	} else {
		cmd.Println("No stored token.")
	}
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	if err := requireDeps(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if !deps.Manager.IsAuthenticated(ctx) && !deps.Manager.NeedsRefresh(ctx) {
		cmd.Println("Not authenticated. Run 'gsuite auth login'.")
		return nil
	}

	if deps.Manager.NeedsRefresh(ctx) {
		cmd.Println("Authenticated (access token expired, will refresh on use).")
	} else {
		cmd.Println("Authenticated.")
	}
	cmd.Printf("User: %s\n", deps.Manager.UserID())
	return nil
}

func runAuthRefresh(cmd *cobra.Command, _ []string) error {
	if err := requireDeps(); err != nil {
		return err
	}

	refreshed, err := deps.Manager.Refresh(cmd.Context())
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	if refreshed {
		cmd.Println("Token refreshed.")
	} else {
		cmd.Println("Token still valid, nothing to do.")
	}
	return nil
}

func runAuthExport(cmd *cobra.Command, _ []string) error {
	if err := requireDeps(); err != nil {
		return err
	}

	record, err := deps.Manager.Export(cmd.Context())
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if record == nil {
		return fmt.Errorf("no stored token to export")
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}

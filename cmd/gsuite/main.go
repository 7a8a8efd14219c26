// Command gsuite is the unified Google Workspace CLI and gateway.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/gsuite-cli/internal/adapters/driven/config"
	"github.com/custodia-labs/gsuite-cli/internal/adapters/driven/storage/secretmanager"
	"github.com/custodia-labs/gsuite-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/gsuite-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/gsuite-cli/internal/adapters/driving/oauth"
	"github.com/custodia-labs/gsuite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gsuite-cli/internal/core/services/auth"
	"github.com/custodia-labs/gsuite-cli/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Error(err, "gsuite failed")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}

	store, err := buildStore(ctx, settings)
	if err != nil {
		return err
	}

	newManager := func(scopes []string) (*auth.Manager, error) {
		return auth.NewManager(store, settings.CredentialsFile,
			auth.WithScopes(scopes),
			auth.WithFlow(oauth.RunLoopbackFlow),
		), nil
	}
	manager, err := newManager(nil)
	if err != nil {
		return err
	}

	cli.SetVersion(version)
	cli.SetDeps(&cli.Deps{
		Settings:   settings,
		Manager:    manager,
		NewManager: newManager,
	})

	return cli.Execute(ctx)
}

func buildStore(ctx context.Context, settings *config.Settings) (driven.TokenStore, error) {
	switch settings.TokenStorage {
	case config.StorageSecretManager:
		return secretmanager.NewTokenStore(ctx,
			settings.GCPProjectID, settings.TokenSecretName, settings.TokenSecretAutoCreate)
	default:
		return sqlite.NewTokenStore(settings.TokenDBPath)
	}
}

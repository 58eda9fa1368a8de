// podsecd is the PodSec daemon: an authenticated JSON gateway over a
// podman secret store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/podsec/podsec/internal/auth"
	"github.com/podsec/podsec/internal/config"
	"github.com/podsec/podsec/internal/logger"
	"github.com/podsec/podsec/internal/podman"
	"github.com/podsec/podsec/internal/secrets"
	"github.com/podsec/podsec/internal/server"
	"github.com/podsec/podsec/internal/userstore"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:     "podsecd",
		Short:   "PodSec is an authenticated gateway over a podman secret store.",
		Version: version,
		Long: `podsecd serves a JSON API that authenticates users against a local
credential store and proxies secret creation, listing, inspection and
deletion to the podman libpod API over a unix socket or TCP endpoint.
Secret values are write-once: they go to podman and are never read back.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default: podsec.yaml in . or /etc/podsec)")
	cmd.Flags().String("listen", "", "listen address (e.g. :8000)")
	cmd.Flags().String("podman.host", "", "podman API endpoint (unix:///... or tcp://host:port)")
	cmd.Flags().String("db.path", "", "path to the credential database")
	cmd.Flags().String("seed_file", "", "YAML file with users to seed at boot")

	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	if err := logger.Init(cfg.LogDir); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Close()

	store, err := userstore.Open(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := bootstrapUsers(ctx, store, cfg.SeedFile); err != nil {
		return err
	}

	secretText := cfg.Auth.JWTSecret
	if secretText == "" {
		// Tokens signed with an ephemeral secret die with the process.
		secretText, err = auth.NewRandomSecretB64(32)
		if err != nil {
			return err
		}
		logger.Warn("No auth.jwt_secret configured; sessions will not survive a restart")
	}

	authSvc := auth.New(store, auth.Config{
		Secret:   auth.DecodeSecret(secretText),
		TokenTTL: cfg.Auth.TokenTTL,
	})

	runtime, err := podman.New(podman.Config{
		Host:       cfg.Podman.Host,
		Connection: cfg.Podman.Connection,
		Timeout:    cfg.Podman.Timeout,
	})
	if err != nil {
		return err
	}

	gateway := secrets.NewGateway(runtime)
	app := server.NewApp(authSvc, store, gateway, runtime, cfg.CORS.Origins)

	logger.Info("podsecd %s listening on %s (podman: %s)", version, cfg.Listen, runtime.Host())
	return server.New(server.Config{ListenAddr: cfg.Listen}, app.Routes()).ListenAndServe()
}

func bootstrapUsers(ctx context.Context, store *userstore.Store, seedFile string) error {
	adminHash, err := auth.HashPassword("admin")
	if err != nil {
		return err
	}
	seeded, err := store.Ensure(ctx, adminHash)
	if err != nil {
		return err
	}
	if seeded {
		logger.Warn("Created default admin user (username: admin, password: admin) - change this password immediately")
	}

	if seedFile == "" {
		return nil
	}
	added, err := userstore.SeedFromFile(ctx, store, seedFile, auth.HashPassword)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if added > 0 {
		logger.Info("Seeded %d user(s) from %s", added, seedFile)
	}
	return nil
}

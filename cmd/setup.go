package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/blendify/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded example configuration to the config path.
//
// When credentials are passed as flags the defaults are written with them filled in.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	force := cmd.Bool("force")

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s already exists (use --force to overwrite)", shared.ErrInvalidArgument, path)
	}

	clientID, clientSecret := cmd.String("client-id"), cmd.String("client-secret")
	switch {
	case clientID == "" && clientSecret == "":
		if err := shared.CreateConfigFile(path, force); err != nil {
			return err
		}
	case clientID == "" || clientSecret == "":
		return fmt.Errorf("%w: --client-id and --client-secret go together", shared.ErrMissingArgument)
	default:
		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientID = clientID
		config.Credentials.Spotify.ClientSecret = clientSecret
		if uri := cmd.String("redirect-uri"); uri != "" {
			config.Credentials.Spotify.RedirectURI = uri
		}
		if err := shared.SaveConfig(path, config); err != nil {
			return err
		}
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Wrote %s\n", path)
	if clientID == "" {
		r.writePlain("Set credentials.spotify.client_id and client_secret, or CLIENT_ID and CLIENT_SECRET in %s\n", envFile)
	}
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	if config.Sessions.Store != shared.StoreSQLite {
		r.logger.Warn("sessions.store is not sqlite; the server will not use this database", "store", config.Sessions.Store)
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("✓ Database ready at %s\n", config.Database.Path)
	return nil
}

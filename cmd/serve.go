package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/blendify/internal/repositories"
	"github.com/desertthunder/blendify/internal/server"
	"github.com/desertthunder/blendify/internal/services"
	"github.com/desertthunder/blendify/internal/shared"
	"github.com/desertthunder/blendify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// application is everything serve wires together.
type application struct {
	server  *server.Server
	stores  *repositories.Stores
	janitor *tasks.Janitor
}

// buildApp opens the stores and connects the provider client, engine and HTTP server.
func (r *Runner) buildApp(config *shared.Config) (*application, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	stores, err := repositories.Open(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open stores: %w", err)
	}

	svc, err := services.NewSpotifyService(services.SpotifyOpts{
		Credentials: config.Credentials.Spotify,
		Upstream:    config.Upstream,
		HTTPClient:  r.httpClient,
	})
	if err != nil {
		stores.Close()
		return nil, err
	}

	engine := tasks.NewBlendEngine(svc, stores.Sessions, tasks.EngineOpts{
		SessionTTL: config.Sessions.SessionTTL.Duration,
		IDAttempts: config.Sessions.SessionIDAttempts,
		Logger:     r.logger,
	})

	srv, err := server.New(server.Deps{
		Config:      config,
		Service:     svc,
		Engine:      engine,
		Credentials: stores.Credentials,
		Logger:      r.logger,
	})
	if err != nil {
		stores.Close()
		return nil, err
	}

	return &application{
		server:  srv,
		stores:  stores,
		janitor: tasks.NewJanitor(r.logger, stores.Sessions, stores.Credentials),
	}, nil
}

// Serve runs the web service until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	a, err := r.buildApp(config)
	if err != nil {
		return err
	}
	defer a.stores.Close()

	go a.janitor.Run(ctx, config.Sessions.EvictInterval.Duration)

	addr := cmd.String("addr")
	if addr == "" {
		addr = config.Server.Addr()
	}

	r.logger.Info("starting blendify", "addr", addr, "store", config.Sessions.Store, "frontend", config.Server.FrontendURL)
	return a.server.Run(ctx, addr)
}

package main

import (
	"context"
	"strings"

	"github.com/desertthunder/blendify/internal/repositories"
	"github.com/desertthunder/blendify/internal/shared"
	"github.com/desertthunder/blendify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SessionsEvict runs one eviction pass over the configured stores.
func (r *Runner) SessionsEvict(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	if !strings.EqualFold(config.Sessions.Store, shared.StoreSQLite) {
		r.writePlain("Store %q keeps nothing between runs; nothing to evict\n", config.Sessions.Store)
		return nil
	}

	stores, err := repositories.Open(config)
	if err != nil {
		return err
	}
	defer stores.Close()

	n, err := tasks.NewJanitor(r.logger, stores.Sessions, stores.Credentials).Sweep(ctx)
	if err != nil {
		return err
	}

	r.writePlain("Evicted %d expired entries from %s\n", n, config.Database.Path)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/blendify/internal/formatter"
	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/services"
	"github.com/desertthunder/blendify/internal/shared"
	"github.com/desertthunder/blendify/internal/tasks"
	"github.com/desertthunder/blendify/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogPath = "./tmp/blendify-watch.log"

// Watch polls a session until the second participant joins, then prints the merged blend.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("sessionId")
	if id == "" {
		return fmt.Errorf("%w: sessionId", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	plain := cmd.Bool("plain")
	if !plain {
		// Redirect logs to file to avoid interfering with TUI rendering
		fileLogger, err := shared.NewFileLogger(tuiLogPath)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)
	}

	apiURL := strings.TrimRight(cmd.String("api"), "/")
	api := services.NewAPIService(apiURL, r.httpClient)
	if err := api.Health(ctx); err != nil {
		return fmt.Errorf("blendify server at %s is not reachable: %w", apiURL, err)
	}
	watcher := tasks.NewWatcher(api, tasks.WatchOpts{
		Interval:    cmd.Duration("interval"),
		MaxDelay:    cmd.Duration("max-delay"),
		MaxAttempts: int(cmd.Int("max-attempts")),
		Logger:      r.logger,
	})

	pageURL := apiURL + "/blend/" + url.PathEscape(id)
	if cmd.Bool("open") {
		if err := shared.OpenBrowser(pageURL); err != nil {
			r.logger.Warn("failed to open browser", "url", pageURL, "err", err)
		}
	}

	var session *models.Session
	if plain {
		session, err = r.watchPlain(ctx, watcher, id)
	} else {
		session, err = r.watchTUI(ctx, watcher, id, pageURL)
	}

	switch {
	case errors.Is(err, context.Canceled):
		r.logger.Info("watch cancelled", "session", id)
		return nil
	case err != nil:
		return err
	}

	return r.writeBlend(session, format, cmd.String("output"))
}

// watchPlain prints one line per state change.
func (r *Runner) watchPlain(ctx context.Context, watcher *tasks.Watcher, id string) (*models.Session, error) {
	updates := make(chan tasks.WatchUpdate, 16)
	printed := make(chan struct{})

	go func() {
		defer close(printed)
		for update := range updates {
			r.writePlain("%s\n", update.Message)
		}
	}()

	session, err := watcher.Watch(ctx, id, updates)
	close(updates)
	<-printed
	return session, err
}

// watchTUI runs the interactive view and returns its result after the program exits.
func (r *Runner) watchTUI(ctx context.Context, watcher *tasks.Watcher, id, pageURL string) (*models.Session, error) {
	model := ui.NewModel(ctx, watcher, ui.Opts{SessionID: id, PageURL: pageURL})
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	return model.Result()
}

// writeBlend prints the blend in format, or saves it when path is set.
func (r *Runner) writeBlend(session *models.Session, format formatter.Format, path string) error {
	if path != "" {
		written, err := formatter.WriteExport(session, format, path)
		if err != nil {
			return err
		}
		r.writePlain("✓ Saved blend %s to %s\n", session.ID, written)
		return nil
	}

	if format == formatter.FormatJSON {
		return r.writeJSON(session, true)
	}

	data, err := formatter.Export(session, format)
	if err != nil {
		return err
	}
	if format == formatter.FormatText {
		r.writePlainHeader("Blend " + session.ID)
	}
	return r.writePlain("%s", data)
}

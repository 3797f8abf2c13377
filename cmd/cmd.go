// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/blendify/internal/formatter"
	"github.com/desertthunder/blendify/internal/services"
	"github.com/desertthunder/blendify/internal/tasks"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// serveCommand runs the HTTP server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the blend web service",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (host:port), overrides server.host and server.port",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the configuration file",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
					&cli.StringFlag{
						Name:  "client-id",
						Usage: "Spotify client id to write into the file",
					},
					&cli.StringFlag{
						Name:  "client-secret",
						Usage: "Spotify client secret to write into the file",
					},
					&cli.StringFlag{
						Name:  "redirect-uri",
						Usage: "Spotify redirect URI to write into the file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// watchCommand follows a blend session from the terminal.
func watchCommand(r *Runner) *cli.Command {
	formats := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		formats[i] = string(f)
	}

	return &cli.Command{
		Name:      "watch",
		Usage:     "Wait for the second participant and print the merged blend",
		ArgsUsage: "<sessionId>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "sessionId"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "api",
				Usage: "Base URL of the Blendify server",
				Value: services.DefaultAPIURL,
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Delay before the second poll; doubles on every attempt",
				Value: tasks.DefaultWatchInterval,
			},
			&cli.DurationFlag{
				Name:  "max-delay",
				Usage: "Ceiling for the delay between polls",
				Value: tasks.DefaultWatchMaxDelay,
			},
			&cli.IntFlag{
				Name:  "max-attempts",
				Usage: "Give up after this many polls",
				Value: tasks.DefaultWatchMaxAttempts,
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Print status lines instead of the interactive view",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format for the finished blend (" + strings.Join(formats, ", ") + ")",
				Value:   string(formatter.FormatText),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the finished blend to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the blend page in the browser",
			},
		},
		Action: r.Watch,
	}
}

// sessionsCommand handles maintenance of stored sessions.
func sessionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Session store maintenance",
		Commands: []*cli.Command{
			{
				Name:   "evict",
				Usage:  "Delete expired sessions and credentials",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SessionsEvict,
			},
		},
	}
}

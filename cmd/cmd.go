// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, markdown, csv or json",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to a file instead of stdout",
		},
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the playlister HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port and PORT)",
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
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write an example config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Where to write the file (default: the active config path)",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles Google sign-in for the CLI
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Google sign-in used by the CLI",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with Google and store a session",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the consent URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show the signed-in account and token expiry",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Delete the stored session",
				Action: r.AuthLogout,
			},
		},
	}
}

// generateCommand asks the chat model for a track list
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "Generate a track list from keywords",
		ArgsUsage: "<keywords...>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "genre",
				Aliases: []string{"g"},
				Usage:   "Restrict suggestions to a genre",
			},
		}, formatFlags()...),
		Action: r.Generate,
	}
}

// createCommand materializes a track list as a YouTube playlist
func createCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a YouTube playlist from a track list",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "JSON track list file, or - for stdin",
			},
			&cli.StringFlag{
				Name:    "keywords",
				Aliases: []string{"k"},
				Usage:   "Generate the track list from keywords instead of reading one",
			},
			&cli.StringFlag{
				Name:    "genre",
				Aliases: []string{"g"},
				Usage:   "Genre used with --keywords",
			},
			&cli.StringFlag{
				Name:     "title",
				Aliases:  []string{"t"},
				Usage:    "Playlist title",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "description",
				Aliases: []string{"d"},
				Usage:   "Playlist description",
			},
		}, formatFlags()...),
		Action: r.Create,
	}
}

// historyCommand lists playlists created by the signed-in account
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List playlists created by the signed-in account",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs to show",
				Value:   20,
			},
		}, formatFlags()...),
		Action: r.History,
	}
}

// sessionsCommand inspects the session store
func sessionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Inspect and prune stored sessions",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored sessions (tokens are never printed)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SessionsList,
			},
			{
				Name:  "prune",
				Usage: "Delete sessions not used within the given age",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Age threshold (default: session.ttl)",
					},
				},
				Action: r.SessionsPrune,
			},
		},
	}
}

// apiCommand handles direct calls to a running playlister server
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to a running playlister server",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// statusCommand checks a running server
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Check a running server (calls /health and /auth/session)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Status,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive playlist builder",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "genre",
				Aliases: []string{"g"},
				Usage:   "Prefill the genre field",
			},
		},
		Action: r.TUI,
	}
}

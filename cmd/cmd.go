// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
		Sources: cli.EnvVars("NOVI_CONFIG"),
	}
}

// serveCommand runs the web front end.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web front end",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the site in the default browser once listening",
			},
			&cli.DurationFlag{
				Name:  "idle",
				Usage: "Release the in-memory state of clients idle for this long",
				Value: defaultIdle,
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
				Name:   "config",
				Usage:  "Write a config file with a freshly generated session key",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:  "prune",
				Usage: "Forget web clients that have not been seen recently",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "days",
						Usage: "Remove clients idle for more than this many days",
						Value: 90,
					},
				},
				Action: r.SetupPrune,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and keep the token for later commands",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Sources:  cli.EnvVars("NOVI_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "signup",
				Usage: "Create an account",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Full name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password (at least 8 characters)",
						Sources:  cli.EnvVars("NOVI_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthSignup,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored token",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show who is signed in and whether the API is reachable",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// contentCommand handles lessons and quizzes
func contentCommand(r *Runner) *cli.Command {
	idFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:     "id",
			Usage:    "Content ID",
			Required: true,
		}
	}

	return &cli.Command{
		Name:    "content",
		Aliases: []string{"c"},
		Usage:   "Manage generated lessons and quizzes",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List your content, newest first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"q"},
						Usage:   "Only show items whose title or subject contains this text",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, csv, markdown or json",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of stdout",
					},
				},
				Action: r.ContentList,
			},
			{
				Name:  "show",
				Usage: "Show one item, or export it as HTML",
				Flags: []cli.Flag{
					configFlag(),
					idFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory to export {title}.html and {title}.json into",
					},
				},
				Action: r.ContentShow,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Delete an item",
				Flags:   []cli.Flag{configFlag(), idFlag()},
				Action:  r.ContentDelete,
			},
			{
				Name:  "create",
				Usage: "Convert a PDF into a lesson or quiz",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "file",
						Usage:    "PDF to upload",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "subject",
						Usage:    "Subject, e.g. \"Mathématiques\"",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "grade",
						Usage:    "Grade, e.g. \"Grade 5\"",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "lesson or quiz",
						Value: "lesson",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save the generated content instead of printing it",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the generated HTML to a file",
					},
				},
				Action: r.ContentCreate,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for browsing content.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse your content in the terminal",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.TUI,
	}
}

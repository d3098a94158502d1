// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Write config.toml from the template and migrate the history database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.SetupDatabase,
	}
}

// runCommand attaches to the browser and keeps the player at the configured quality
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Attach to a running browser and reconcile playback quality",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "cdp-url",
				Usage: "DevTools endpoint of the browser (overrides browser.cdp_url)",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address for the config push channel (overrides [server])",
			},
			&cli.BoolFlag{
				Name:  "no-watch",
				Usage: "Do not reload the config file when it changes",
			},
		},
		Action: r.Run,
	}
}

// settingsCommand prints or edits the engine settings
func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "settings",
		Aliases: []string{"config"},
		Usage:   "Show or edit reconciliation settings",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the configured settings",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "live",
						Usage: "Query the running daemon instead of the file",
					},
				},
				Action: r.SettingsShow,
			},
			{
				Name:  "set",
				Usage: "Change settings, save them and push them to a running daemon",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "quality",
						Aliases: []string{"q"},
						Usage:   "Preferred quality label (see 'tubetune qualities')",
					},
					&cli.BoolFlag{
						Name:  "enabled",
						Usage: "Enable or disable reconciliation (--enabled=false)",
					},
					&cli.BoolFlag{
						Name:  "debug",
						Usage: "Enable or disable debug logging (--debug=false)",
					},
					&cli.IntFlag{
						Name:  "interval",
						Usage: "Milliseconds between attempts",
					},
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Attempts per video before giving up",
					},
				},
				Action: r.SettingsSet,
			},
			{
				Name:   "ui",
				Usage:  "Edit settings in an interactive panel",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SettingsUI,
			},
		},
	}
}

// historyCommand lists recorded reconciliation sessions
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded reconciliation sessions",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "video",
				Usage: "Only sessions for this video id",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of sessions to list",
				Value: 20,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: txt, csv, json, markdown",
				Value:   "txt",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Shorthand for --format json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.History,
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show one session and the manual overrides for its video",
				ArgsUsage: "<session-id>",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryShow,
			},
		},
	}
}

func qualitiesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "qualities",
		Usage:  "Print quality labels, player levels and fallback ranks",
		Action: r.Qualities,
	}
}

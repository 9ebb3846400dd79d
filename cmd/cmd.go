// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/nowplaying/internal/ui"
	"github.com/urfave/cli/v3"
)

const remoteEnv = "NOWPLAYING_URL"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func remoteFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "remote",
		Aliases: []string{"r"},
		Usage:   "Read from a deployed proxy at this base URL instead of Spotify",
		Sources: cli.EnvVars(remoteEnv),
	}
}

// serveCommand runs the proxy
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the now-playing HTTP proxy",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to bind, overrides HOST",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on, overrides PORT",
			},
		},
		Action: r.Serve,
	}
}

// nowCommand prints the current snapshot once
func nowCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "now",
		Usage: "Print what is playing right now",
		Flags: []cli.Flag{
			configFlag(),
			remoteFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json or markdown",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Shorthand for --format json",
			},
			&cli.BoolFlag{
				Name:    "open",
				Aliases: []string{"o"},
				Usage:   "Open the song in the browser",
			},
			&cli.StringFlag{
				Name:  "cover",
				Usage: "Save the album art to this file",
			},
		},
		Action: r.Now,
	}
}

// watchCommand launches the live terminal view
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"tui", "ui"},
		Usage:   "Live terminal view of what is playing",
		Flags: []cli.Flag{
			configFlag(),
			remoteFlag(),
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Time between polls",
				Value:   ui.DefaultInterval,
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the view owns the terminal",
				Value: "./tmp/nowplaying-watch.log",
			},
		},
		Action: r.Watch,
	}
}

// apiCommand handles direct calls to a deployed proxy
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to a deployed proxy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Usage:   "Proxy base URL",
				Sources: cli.EnvVars(remoteEnv),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the proxy, prints the response body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "origin",
						Usage: "Origin header to send, to check CORS",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:   "health",
				Usage:  "Check that the proxy is up (calls /health)",
				Action: r.APIHealth,
			},
		},
	}
}

// configCommand manages the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write an example config.toml",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration with secrets masked",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ConfigShow,
			},
		},
	}
}

// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// app builds the root command with global flags and every subcommand.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "soundbits",
		Usage:    "Create Spotify playlists and extract audio features",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistCommand, analyzeCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error); overrides log.level",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Disable the progress spinner",
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Write config.toml from the bundled example",
		Action: r.Setup,
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize with Spotify using OAuth2 and save the access token",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback",
				Value: 2 * time.Minute,
			},
		},
		Action: r.Auth,
	}
}

// playlistCommand handles Spotify playlist operations
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Spotify playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a playlist and add tracks to it",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "track",
						Aliases: []string{"t"},
						Usage:   "Track URI to add (repeatable); defaults to playlist.tracks",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Playlist name; defaults to playlist.name",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description; defaults to playlist.description",
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make the playlist public",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Delete the playlist again if adding tracks fails",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output JSON",
					},
				},
				Action: r.PlaylistCreate,
			},
		},
	}
}

func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		ArgsUsage: "<path>",
		Usage:     "Extract tempo, key, scale, danceability, energy and loudness from an audio file",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "path",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: text, json or csv",
				Value: "text",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Shorthand for --format json",
			},
			&cli.BoolFlag{
				Name:  "probe",
				Usage: "Also decode MP3 input natively and print duration, sample rate and RMS energy",
			},
		},
		Action: r.Analyze,
	}
}

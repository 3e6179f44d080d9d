package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/soundbits/internal/formatter"
	"github.com/desertthunder/soundbits/internal/models"
	"github.com/desertthunder/soundbits/internal/services"
	"github.com/desertthunder/soundbits/internal/shared"
	"github.com/desertthunder/soundbits/internal/ui"
	"github.com/urfave/cli/v3"
)

// PlaylistCreate creates a playlist from --track flags, or from the configured track list when none are given.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	refs := cmd.StringSlice("track")
	if len(refs) == 0 {
		refs = r.config.Playlist.Tracks
	}
	if len(refs) == 0 {
		return fmt.Errorf("%w: pass --track or set playlist.tracks in %s", shared.ErrMissingArgument, r.configPath)
	}

	creator, err := r.newCreator(r.creatorOptions(cmd))
	if err != nil {
		if errors.Is(err, shared.ErrMissingCredentials) {
			return fmt.Errorf("%w (run `soundbits auth` or set %s)", err, shared.EnvAccessToken)
		}
		return fmt.Errorf("failed to create playlist client: %w", err)
	}

	r.logger.Info("creating playlist", "service", creator.Name(), "tracks", len(refs))

	var playlist *models.Playlist
	err = r.spin(ctx, "Creating playlist", func(ctx context.Context) error {
		var createErr error
		playlist, createErr = creator.CreatePlaylist(ctx, refs)
		return createErr
	})
	if err != nil {
		if playlist != nil {
			r.logger.Warn("playlist was created but tracks were not added", "id", playlist.ID, "name", playlist.Name)
		}
		if errors.Is(err, shared.ErrTokenExpired) {
			r.writePlain("%s\n", ui.Warn("⚠ Access token rejected. Run `soundbits auth` to obtain a new one."))
		}
		r.logger.Error("playlist creation failed", "step", services.FailedStep(err))
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlist, true)
	}
	return r.writeBytes(formatter.PlaylistToText(playlist, len(refs)))
}

// creatorOptions merges playlist flags over the config file.
func (r *Runner) creatorOptions(cmd *cli.Command) services.Options {
	cfg := r.config

	name := cfg.Playlist.Name
	if v := cmd.String("name"); v != "" {
		name = v
	}
	description := cfg.Playlist.Description
	if v := cmd.String("description"); v != "" {
		description = v
	}

	return services.Options{
		BaseURL:           cfg.Spotify.BaseURL,
		Token:             cfg.Spotify.AccessToken,
		Name:              name,
		Description:       description,
		Public:            cfg.Playlist.Public || cmd.Bool("public"),
		RollbackOnFailure: cfg.Playlist.RollbackOnFailure || cmd.Bool("rollback"),
		RequestsPerSecond: cfg.Playlist.RequestsPerSecond,
		HTTPClient:        r.httpClient,
		Logger:            shared.WithLogger(r.logger, "service", "spotify"),
	}
}

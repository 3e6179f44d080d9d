package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/soundbits/internal/shared"
	"github.com/desertthunder/soundbits/internal/ui"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the embedded example, leaving an existing file untouched.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = "config.toml"
	}

	if shared.FileExists(path) {
		r.logger.Info("config file already exists", "path", path)
		r.writePlain("%s %s\n", ui.Warn("Config already exists:"), path)
		return nil
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	r.logger.Info("config file created", "path", path)

	if _, err := shared.LoadConfig(path); err != nil {
		return fmt.Errorf("created config is invalid: %w", err)
	}

	r.writePlain("%s %s\n\n", ui.Success("✓ Config written to"), path)
	r.writePlain("Next steps:\n")
	r.writePlain("1. Set spotify.client_id and spotify.client_secret (or %s / %s)\n", shared.EnvClientID, shared.EnvClientSecret)
	r.writePlain("2. Run `soundbits auth` to obtain an access token\n")
	r.writePlain("3. Run `soundbits playlist create` or `soundbits analyze <file>`\n")
	return nil
}

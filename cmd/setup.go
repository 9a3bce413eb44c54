package main

import (
	"context"

	"github.com/desertthunder/discojam/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a starter config.toml from the embedded example.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)

	r.writePlain("✓ Wrote %s\n", configPath)
	r.writePlain("Fill in your Spotify client id/secret and a session secret,\n")
	r.writePlain("or set SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET, and SESSION_SECRET.\n")

	return nil
}

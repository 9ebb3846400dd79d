package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the example configuration to the --config path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("Wrote %s. Credentials can stay in the environment or a .env file.\n", path)
}

// ConfigShow prints the effective configuration with credentials masked.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	kv := config.Redacted()
	for i := 0; i+1 < len(kv); i += 2 {
		if err := r.writePlain("%-22s %v\n", fmt.Sprint(kv[i]), kv[i+1]); err != nil {
			return err
		}
	}

	if err := config.Validate(); err != nil {
		r.logger.Warn("configuration is incomplete", "error", err)
	}
	return nil
}

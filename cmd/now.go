package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/nowplaying/internal/formatter"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/ui"
	"github.com/urfave/cli/v3"
)

// Now fetches one snapshot and prints it.
func (r *Runner) Now(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		format = formatter.FormatJSON
	}

	svc, err := r.source(cmd)
	if err != nil {
		return err
	}

	snapshot, err := svc.NowPlaying(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch now playing from %s: %w", svc.Name(), err)
	}

	data, err := formatter.Export(snapshot, format)
	if err != nil {
		return fmt.Errorf("failed to render snapshot: %w", err)
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if path := cmd.String("cover"); path != "" {
		if err := formatter.WriteCover(ctx, r.httpClient, snapshot, path); err != nil {
			return err
		}
		r.logger.Info("saved album art", "path", path)
	}

	if cmd.Bool("open") {
		if snapshot.SongURL == nil {
			return fmt.Errorf("%w: no song URL to open", shared.ErrInvalidInput)
		}
		if err := r.open(*snapshot.SongURL); err != nil {
			return fmt.Errorf("failed to open browser: %w", err)
		}
	}

	return nil
}

// Watch launches the live terminal view. Logs go to a file so they do not interfere with rendering.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	svc, err := r.source(cmd)
	if err != nil {
		return err
	}

	return ui.Run(ctx, svc, ui.Options{
		Interval: cmd.Duration("interval"),
		Open:     r.open,
	})
}

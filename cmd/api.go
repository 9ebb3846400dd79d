package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) api(cmd *cli.Command) *services.APIService {
	return services.NewAPIService(cmd.String("url"), r.httpClient)
}

// APIGet makes a direct GET request to the proxy
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}

	header := http.Header{}
	origin := cmd.String("origin")
	if origin != "" {
		header.Set("Origin", origin)
	}

	r.logger.Info("GET request", "path", path, "origin", origin)

	resp, err := r.api(cmd).GetWithHeaders(ctx, path, header)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if origin != "" {
		allowed := resp.Headers.Get("Access-Control-Allow-Origin")
		if allowed == "" {
			allowed = "<none>"
		}
		r.logger.Info("CORS", "origin", origin, "allow_origin", allowed)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, cmd.Bool("pretty"))
	}

	return r.writePlain("%s\n", resp.Body)
}

// APIHealth checks the proxy's health endpoint.
func (r *Runner) APIHealth(ctx context.Context, cmd *cli.Command) error {
	api := r.api(cmd)
	if err := api.Health(ctx); err != nil {
		return err
	}
	return r.writePlain("ok\n")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rhytm/internal/server"
	"github.com/desertthunder/rhytm/internal/shared"
)

// Serve runs the HTTP API until interrupted.
//
// With a sync remote configured, a connectivity probe runs alongside the server and
// replays the queue whenever the remote comes back.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library()
	if err != nil {
		return err
	}

	addr := r.config.Server
	if cmd.IsSet("host") {
		addr.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		addr.Port = int(cmd.Int("port"))
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if prober := r.prober(); prober != nil {
		go lib.WatchConnectivity(ctx, prober.Watch(ctx))
	}

	srv := server.New(addr.Addr(), lib, shared.WithLogger(r.logger, "component", "server"))

	if cmd.Bool("open") {
		host := addr.Host
		if host == "" || host == "0.0.0.0" {
			host = "localhost"
		}
		url := fmt.Sprintf("http://%s:%d/api/collections", host, addr.Port)
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("could not open browser", "url", url, "error", err)
		}
	}

	return srv.ListenAndServe(ctx)
}

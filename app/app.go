// Package app wires the relay controller to its frame source, serial link,
// journal and HTTP surface, and runs it headless or behind a Tk window.
package app

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/soocke/sputnik-relay/debug"
)

// startServices launches the HTTP server and the debug loggers on g. They
// stop when ctx is cancelled. A failing server is logged and left down; it
// never ends the mission.
func (c *Container) startServices(ctx context.Context, g *errgroup.Group) {
	if c.Server != nil {
		g.Go(func() error {
			if err := c.Server.Serve(ctx); err != nil {
				c.Logger.Error("status server failed, continuing without it", "addr", c.Config.HTTP.Addr, "error", err)
			}
			return nil
		})
	}
	if c.Config.Debug.Enabled {
		debug.Start(ctx, c.Config.Debug.LogInterval.Std(), c.Logger)
	}
}

// Run drives the controller until ctx is cancelled, Stop is called or a
// capture fails. Background services live until the loop exits. The
// container is closed before Run returns.
func Run(ctx context.Context, c *Container) error {
	svcCtx, cancel := context.WithCancel(ctx)
	var g errgroup.Group
	c.startServices(svcCtx, &g)
	err := c.Controller.Run(ctx)
	cancel()
	return errors.Join(err, g.Wait(), c.Close())
}

package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/soocke/sputnik-relay/debug"
	"github.com/soocke/sputnik-relay/domain/link"
	"github.com/soocke/sputnik-relay/domain/telemetry"
	"github.com/soocke/sputnik-relay/journal"
	errs "github.com/soocke/sputnik-relay/platform/errors"
	"github.com/soocke/sputnik-relay/server"
)

type groundOptions struct {
	HTTP     string
	Simulate bool
}

var groundOpts groundOptions

var groundCmd = &cobra.Command{
	Use:   "ground",
	Short: "Serve satellite telemetry over HTTP and WebSocket",
	Long: `Reads telemetry lines from the first serial port that opens (or simulates
them when none does) and serves the latest snapshot on /api/telemetry and
/ws/telemetry. When the journal is enabled, recent alerts are listed on
/api/alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGround(cmd)
	},
}

func init() {
	groundCmd.Flags().StringVar(&groundOpts.HTTP, "http", ":8080", "Listen address (overrides http.addr)")
	groundCmd.Flags().BoolVar(&groundOpts.Simulate, "simulate", false, "Skip the serial ports and simulate telemetry")
	rootCmd.AddCommand(groundCmd)
}

func groundReaderOptions(simulate bool) telemetry.ReaderOptions {
	opts := telemetry.DefaultReaderOptions()
	opts.Ports = cfg.Telemetry.Ports
	opts.Link.Baud = cfg.Telemetry.Baud
	opts.PollInterval = cfg.Telemetry.PollInterval.Std()
	opts.SimulateInterval = cfg.Telemetry.SimulateInterval.Std()
	if simulate {
		opts.Open = func([]string, link.Options, *slog.Logger) (link.Port, string, error) {
			return nil, "", errs.New(errs.KindTelemetry, "ground", "simulation requested")
		}
	}
	return opts
}

func runGround(cmd *cobra.Command) error {
	addr := cfg.HTTP.Addr
	if cmd.Flags().Changed("http") || addr == "" {
		addr = groundOpts.HTTP
	}

	cell := telemetry.NewCell()
	reader := telemetry.NewReader(cell, groundReaderOptions(groundOpts.Simulate), logger)

	srvOpts := server.Options{
		Addr:          addr,
		AllowOrigins:  cfg.HTTP.AllowOrigins,
		Debug:         cfg.Debug.Enabled,
		Telemetry:     cell,
		TelemetryMode: reader.Mode,
		Logger:        logger,
	}
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path, logger)
		if err != nil {
			logger.Warn("ground.journal", "path", cfg.Journal.Path, "error", err)
		} else {
			defer j.Close()
			srvOpts.Alerts = j
		}
	}
	srv := server.New(srvOpts)

	g, ctx := errgroup.WithContext(cmd.Context())
	if cfg.Debug.Enabled {
		debug.Start(ctx, cfg.Debug.LogInterval.Std(), logger)
	}
	g.Go(func() error { return reader.Run(ctx) })
	g.Go(func() error { return srv.Serve(ctx) })
	return g.Wait()
}

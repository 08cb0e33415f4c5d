package cmd

import (
	"github.com/spf13/cobra"

	"github.com/soocke/sputnik-relay/app"
)

type runOptions struct {
	UI     bool
	Source string
	Replay string
	Port   string
	HTTP   string
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the detection and relay loop",
	Long: `Reads frames from the configured source, detects oil-spill signatures and
relays alerts and images over the serial link. Without a link the loop keeps
detecting and logging. Press ESC in the window (or Ctrl+C) to end the mission.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyRunOverrides(cmd); err != nil {
			return err
		}
		c, err := app.BuildContainer(cfg, logger, app.Hooks{})
		if err != nil {
			return err
		}
		if cfg.UI.Enabled {
			return app.RunWindow(cmd.Context(), c, "Sputnik Relay", 860, 420)
		}
		return app.Run(cmd.Context(), c)
	},
}

// applyRunOverrides copies explicitly set flags over the loaded config and
// validates the result.
func applyRunOverrides(cmd *cobra.Command) error {
	f := cmd.Flags()
	if f.Changed("ui") {
		cfg.UI.Enabled = runOpts.UI
	}
	if f.Changed("source") {
		cfg.Camera.Source = runOpts.Source
	}
	if f.Changed("replay") {
		cfg.Camera.Source = "replay"
		cfg.Camera.ReplayDir = runOpts.Replay
	}
	if f.Changed("port") {
		cfg.Serial.Port = runOpts.Port
	}
	if f.Changed("http") {
		cfg.HTTP.Addr = runOpts.HTTP
	}
	return cfg.Validate()
}

func init() {
	runCmd.Flags().BoolVar(&runOpts.UI, "ui", false, "Show the diagnostics window")
	runCmd.Flags().StringVarP(&runOpts.Source, "source", "s", "", "Frame source: camera, screen or replay")
	runCmd.Flags().StringVarP(&runOpts.Replay, "replay", "r", "", "Replay still images from this directory")
	runCmd.Flags().StringVarP(&runOpts.Port, "port", "p", "", "Serial device of the relay link")
	runCmd.Flags().StringVar(&runOpts.HTTP, "http", "", "Status API listen address, e.g. :8080")
	rootCmd.AddCommand(runCmd)
}

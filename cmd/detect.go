package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/soocke/sputnik-relay/app"
	"github.com/soocke/sputnik-relay/domain/capture"
	"github.com/soocke/sputnik-relay/domain/spill"
)

var maskDir string

var detectCmd = &cobra.Command{
	Use:   "detect <image>...",
	Short: "Run spill detection on still images and print a report",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDetect(cmd, args)
	},
}

func init() {
	detectCmd.Flags().StringVarP(&maskDir, "mask-dir", "m", "", "Write each detection mask as <name>_mask.png into this directory")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, paths []string) error {
	det := spill.NewThresholdDetector(app.Thresholds(cfg.Detection))
	if maskDir != "" {
		if err := os.MkdirAll(maskDir, 0o755); err != nil {
			return fmt.Errorf("create mask dir: %w", err)
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FILE\tAREA RATIO\tSTATUS")
	fmt.Fprintln(w, "----\t----------\t------")
	failed := 0
	for _, p := range paths {
		img, err := imaging.Open(p, imaging.AutoOrientation(true))
		if err != nil {
			logger.Warn("detect.open", "path", p, "error", err)
			fmt.Fprintf(w, "%s\t-\tERROR\n", p)
			failed++
			continue
		}
		res := det.Detect(capture.Frame{Image: capture.ToRGBA(img)})
		status := "CLEAR"
		if res.Detected {
			status = "DETECTED"
		}
		fmt.Fprintf(w, "%s\t%.4f\t%s\n", p, res.AreaRatio, status)

		if maskDir != "" && res.Mask != nil {
			name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)) + "_mask.png"
			if err := imaging.Save(res.Mask, filepath.Join(maskDir, name)); err != nil {
				logger.Warn("detect.mask", "path", name, "error", err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed == len(paths) {
		return fmt.Errorf("no readable images among %d path(s)", len(paths))
	}
	return nil
}

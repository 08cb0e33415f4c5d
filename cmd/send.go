package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/soocke/sputnik-relay/app"
	"github.com/soocke/sputnik-relay/domain/codec"
	"github.com/soocke/sputnik-relay/domain/link"
	"github.com/soocke/sputnik-relay/domain/protocol"
)

type sendOptions struct {
	Port  string
	Out   string
	Quiet bool
}

var sendOpts sendOptions

var sendCmd = &cobra.Command{
	Use:   "send <image>",
	Short: "Encode one image and relay it over the serial link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSend(cmd, args[0])
	},
}

func init() {
	sendCmd.Flags().StringVarP(&sendOpts.Port, "port", "p", "", "Serial device (default from config)")
	sendCmd.Flags().StringVarP(&sendOpts.Out, "out", "o", "", "Write the wire lines to this file instead of the serial link")
	sendCmd.Flags().BoolVarP(&sendOpts.Quiet, "quiet", "q", false, "Hide the progress bar")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, path string) error {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	buf, err := codec.NewJPEG(cfg.Relay.ImageWidth, cfg.Relay.ImageHeight, cfg.Relay.JPEGQuality).Encode(img)
	if err != nil {
		return err
	}

	var w io.Writer
	if sendOpts.Out != "" {
		f, err := os.Create(sendOpts.Out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		opts := app.LinkOptions(cfg.Serial)
		if sendOpts.Port != "" {
			opts.Path = sendOpts.Port
		}
		port, err := link.Open(opts, logger)
		if err != nil {
			return err
		}
		defer port.Close()
		w = port
	}

	relay := app.ControlOptions(cfg.Relay)
	encOpts := []protocol.Option{
		protocol.WithChunkSize(relay.ChunkSize),
		protocol.WithPacing(relay.Pacing),
		protocol.WithLogger(logger),
	}
	var bar *progressbar.ProgressBar
	if !sendOpts.Quiet {
		encOpts = append(encOpts, protocol.WithProgress(func(written, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Relaying "+path),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
				)
			}
			_ = bar.Set(written)
		}))
	}

	tx, err := protocol.NewEncoder(w, encOpts...).SendImage(buf)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("relay aborted after %d of %d lines: %w", tx.Lines, tx.Chunks+2, err)
	}
	logger.Info("send.done", "path", path, "bytes", tx.Bytes, "chunks", tx.Chunks)
	fmt.Fprintf(cmd.OutOrStdout(), "sent %d bytes in %d chunks\n", tx.Bytes, tx.Chunks)
	return nil
}

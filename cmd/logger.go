package cmd

import (
	"io"
	"log/slog"
	"strings"

	errs "github.com/soocke/sputnik-relay/platform/errors"
)

// NewLogger returns a structured slog.Logger writing to w. format is "json"
// or "text"; level is one of debug, info, warn, error.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errs.Wrap(errs.KindConfig, "logger", "invalid log level "+level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, errs.New(errs.KindConfig, "logger", "unknown log format "+format)
	}
}

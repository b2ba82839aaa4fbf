// Package cliutil holds flag plumbing shared by the mixinform binaries.
package cliutil

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
)

// LogFlags are the logging flags every binary accepts.
type LogFlags struct {
	Format string
	Level  string
}

// AddFlags registers --log-format and --log-level on fs.
func (l *LogFlags) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&l.Format, "log-format", "text", "log output format: text or json")
	fs.StringVar(&l.Level, "log-level", "warn", "minimum log level: debug, info, warn or error")
}

// Logger builds a slog.Logger writing to w.
func (l LogFlags) Logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", l.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(strings.TrimSpace(l.Format)) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q: expected text or json", l.Format)
	}
}

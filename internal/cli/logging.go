// Package cli holds helpers shared by the bbopt commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
)

const (
	FormatCharm = "charm"
	FormatTint  = "tint"
	FormatJSON  = "json"
)

var formats = []string{FormatCharm, FormatTint, FormatJSON}

// Logging holds the persistent logging flags. Commands build their logger
// once they know the level their configuration asks for.
type Logging struct {
	Verbose bool
	Format  string
}

func (l *Logging) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&l.Verbose, "verbose", "v", false, "enable debug logging")
	fs.StringVar(&l.Format, "log-format", FormatCharm, "log format, one of "+strings.Join(formats, "|"))
}

// Validate rejects unknown formats before a command runs.
func (l *Logging) Validate() error {
	for _, f := range formats {
		if l.Format == f {
			return nil
		}
	}
	return fmt.Errorf("unknown log format %q, want one of %s", l.Format, strings.Join(formats, "|"))
}

// Logger writes to w at level, or at debug when --verbose is set.
func (l *Logging) Logger(w io.Writer, level slog.Level) *slog.Logger {
	if l.Verbose {
		level = slog.LevelDebug
	}
	switch l.Format {
	case FormatTint:
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05.00",
		}))
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           charmLevel(level),
	}))
}

func charmLevel(level slog.Level) charmlog.Level {
	switch {
	case level <= slog.LevelDebug:
		return charmlog.DebugLevel
	case level <= slog.LevelInfo:
		return charmlog.InfoLevel
	case level <= slog.LevelWarn:
		return charmlog.WarnLevel
	}
	return charmlog.ErrorLevel
}

// Package logging configures the process wide hlog logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	"github.com/yi-nology/mediahub/pkg/config"
)

// Setup applies the configured level and writes to stderr.
func Setup(cfg config.LogConfig) {
	SetupWithOutput(cfg, os.Stderr)
}

// SetupWithOutput applies the configured level and output.
func SetupWithOutput(cfg config.LogConfig, w io.Writer) {
	hlog.SetLevel(ParseLevel(cfg.Level))
	hlog.SetOutput(w)
}

// ParseLevel maps a config level to an hlog level; unknown values mean info.
func ParseLevel(level string) hlog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return hlog.LevelTrace
	case "debug":
		return hlog.LevelDebug
	case "warn", "warning":
		return hlog.LevelWarn
	case "error":
		return hlog.LevelError
	case "fatal":
		return hlog.LevelFatal
	default:
		return hlog.LevelInfo
	}
}

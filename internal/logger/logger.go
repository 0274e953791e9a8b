package logger

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/identity-leak/internal/config"
)

// levels maps accepted level names to hclog levels.
var levels = map[string]hclog.Level{
	"TRACE": hclog.Trace,
	"DEBUG": hclog.Debug,
	"INFO":  hclog.Info,
	"WARN":  hclog.Warn,
	"ERROR": hclog.Error,
}

// Options are the logger settings resolved for one component.
type Options struct {
	Component       string
	Level           hclog.Level
	JSON            bool
	DisableTime     bool
	IncludeLocation bool
	// Unknown holds a level name that could not be parsed, reported once the logger exists.
	Unknown string
}

// ResolveOptions reads the logger section of cfg for component. IDLEAK_LOG_LEVEL overrides
// the configured level.
func ResolveOptions(cfg *config.Config, component string) Options {
	opts := Options{
		Component:       component,
		Level:           hclog.Info,
		JSON:            config.GetBoolValue(cfg, "Logger.JSONFormat", false),
		DisableTime:     config.GetBoolValue(cfg, "Logger.DisableTime", true),
		IncludeLocation: config.GetBoolValue(cfg, "Logger.IncludeLocation", false),
	}

	name := os.Getenv(config.EnvLogLevel)
	if name == "" && cfg != nil {
		name = cfg.Logger.Level
	}
	if name = strings.ToUpper(strings.TrimSpace(name)); name != "" {
		if lvl, ok := levels[name]; ok {
			opts.Level = lvl
		} else {
			opts.Unknown = name
		}
	}
	return opts
}

// NewLogger returns the named logger of a component. Logs go to stderr, stdout carries
// command results.
func NewLogger(cfg *config.Config, component string) hclog.Logger {
	return New(ResolveOptions(cfg, component), os.Stderr)
}

// New builds a logger writing to output.
func New(opts Options, output io.Writer) hclog.Logger {
	l := hclog.New(&hclog.LoggerOptions{
		Name:            opts.Component,
		Level:           opts.Level,
		JSONFormat:      opts.JSON,
		DisableTime:     opts.DisableTime,
		IncludeLocation: opts.IncludeLocation,
		Output:          output,
	})
	if opts.Unknown != "" {
		l.Warn("unrecognized log level, using INFO", "level", opts.Unknown)
	}
	return l
}

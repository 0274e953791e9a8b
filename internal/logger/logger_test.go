package logger

import (
	"bytes"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"

	"github.com/scan-io-git/identity-leak/internal/config"
)

func TestResolveOptionsLevel(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		cfgLevel    string
		want        hclog.Level
		wantUnknown string
	}{
		{"default", "", "", hclog.Info, ""},
		{"from config", "", "debug", hclog.Debug, ""},
		{"env wins", "error", "debug", hclog.Error, ""},
		{"unknown falls back to info", "loud", "", hclog.Info, "LOUD"},
		{"trace", "", " TRACE ", hclog.Trace, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(config.EnvLogLevel, tt.env)
			cfg := &config.Config{Logger: config.Logger{Level: tt.cfgLevel}}
			opts := ResolveOptions(cfg, "core-test")
			assert.Equal(t, tt.want, opts.Level)
			assert.Equal(t, tt.wantUnknown, opts.Unknown)
			assert.Equal(t, "core-test", opts.Component)
		})
	}
}

func TestResolveOptionsNilConfig(t *testing.T) {
	t.Setenv(config.EnvLogLevel, "")
	opts := ResolveOptions(nil, "core-assess")
	assert.Equal(t, hclog.Info, opts.Level)
	assert.True(t, opts.DisableTime)
	assert.False(t, opts.JSON)
}

func TestNewJSON(t *testing.T) {
	t.Setenv(config.EnvLogLevel, "")
	on := true
	cfg := &config.Config{Logger: config.Logger{Level: "info", JSONFormat: &on}}

	var buf bytes.Buffer
	l := New(ResolveOptions(cfg, "core-test"), &buf)
	l.Debug("hidden")
	l.Info("visible", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"@module":"core-test"`)
	assert.Contains(t, out, `"key":"value"`)
}

func TestNewWarnsOnUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Component: "core-test", Level: hclog.Info, Unknown: "LOUD", DisableTime: true}, &buf)
	assert.Contains(t, buf.String(), "unrecognized log level")
	assert.Contains(t, buf.String(), "LOUD")
}

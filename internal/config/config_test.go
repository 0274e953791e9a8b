package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
logger:
  level: debug
  json_format: true
http_client:
  retry_count: 3
  timeout: 20s
  tls_client_config:
    verify: false
  proxy:
    host: proxy.local
    port: 3128
collectors:
  enabled: [github, reddit]
  concurrency: 2
  timeout: 30s
  github:
    base_url: https://ghe.example.com/api/v3/
    max_repos: 10
  probe:
    user_agent: test-agent
    templates:
      mastodon: https://mastodon.social/@%s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, GetBoolValue(cfg, "Logger.JSONFormat", false))
	assert.True(t, GetBoolValue(cfg, "Logger.DisableTime", true))
	assert.False(t, GetBoolValue(cfg.HTTPClient.TLSClientConfig, "Verify", true))
	assert.Equal(t, 20*time.Second, cfg.HTTPClient.Timeout)
	assert.Equal(t, 3128, cfg.HTTPClient.Proxy.Port)
	assert.Equal(t, []string{"github", "reddit"}, cfg.Collectors.Enabled)
	assert.Equal(t, 2, GetConcurrency(cfg))
	assert.Equal(t, 30*time.Second, GetCollectorTimeout(cfg))
	assert.Equal(t, "test-agent", GetUserAgent(cfg))

	templates := GetProbeTemplates(cfg)
	assert.Equal(t, "https://mastodon.social/@%s", templates["mastodon"])
	assert.Contains(t, templates, "reddit")

	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, "http://proxy.local", cfg.HTTPClient.Proxy.Host)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, DefaultConcurrency, GetConcurrency(cfg))
	assert.Equal(t, DefaultCollectorTimeout, GetCollectorTimeout(cfg))
	assert.Equal(t, DefaultUserAgent, GetUserAgent(nil))

	empty, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, empty)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = LoadConfig(t.TempDir())
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "logger: [unclosed"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative retry count", func(c *Config) { c.HTTPClient.RetryCount = -1 }, true},
		{"timeout too long", func(c *Config) { c.HTTPClient.Timeout = 5 * time.Minute }, true},
		{"bad proxy port", func(c *Config) { c.HTTPClient.Proxy = Proxy{Host: "proxy", Port: 70000} }, true},
		{"too much concurrency", func(c *Config) { c.Collectors.Concurrency = 1000 }, true},
		{"invalid github url", func(c *Config) { c.Collectors.Github.BaseURL = "not a url" }, true},
		{"negative max repos", func(c *Config) { c.Collectors.Github.MaxRepos = -5 }, true},
		{"empty collector name", func(c *Config) { c.Collectors.Enabled = []string{"github", ""} }, true},
		{"template without placeholder", func(c *Config) {
			c.Collectors.Probe.Templates = map[string]string{"x": "https://x.com/"}
		}, true},
		{"negative collector timeout", func(c *Config) { c.Collectors.Timeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.Error(t, ValidateConfig(nil))
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	path, explicit := ResolveConfigPath("custom.yml")
	assert.Equal(t, "custom.yml", path)
	assert.True(t, explicit)

	t.Setenv(EnvConfigPath, "/etc/idleak.yml")
	path, explicit = ResolveConfigPath("")
	assert.Equal(t, "/etc/idleak.yml", path)
	assert.True(t, explicit)
}

func TestUpdateConfigFromEnv(t *testing.T) {
	t.Setenv("IDLEAK_GITHUB_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "gh-fallback")
	t.Setenv("IDLEAK_GITLAB_TOKEN", "gl-primary")
	t.Setenv("GITLAB_TOKEN", "gl-fallback")

	cfg := &Config{}
	cfg.Collectors.Github.Token = "from-file"
	UpdateConfigFromEnv(cfg)

	assert.Equal(t, "gh-fallback", cfg.Collectors.Github.Token)
	assert.Equal(t, "gl-primary", cfg.Collectors.Gitlab.Token)
}

func TestSetThen(t *testing.T) {
	assert.Equal(t, 5, SetThen(0, 5))
	assert.Equal(t, 3, SetThen(3, 5))
	assert.Equal(t, "x", SetThen("", "x"))
	assert.Equal(t, time.Second, SetThen(time.Duration(0), time.Second))
}

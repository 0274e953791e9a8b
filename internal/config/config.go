package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config is the YAML configuration of idleak.
type Config struct {
	Logger     Logger     `yaml:"logger"`
	HTTPClient HTTPClient `yaml:"http_client"`
	Collectors Collectors `yaml:"collectors"`
}

// Logger holds logger settings.
type Logger struct {
	Level           string `yaml:"level"`
	DisableTime     *bool  `yaml:"disable_time"`
	JSONFormat      *bool  `yaml:"json_format"`
	IncludeLocation *bool  `yaml:"include_location"`
}

// HTTPClient holds settings shared by every HTTP based collector.
type HTTPClient struct {
	Debug            *bool           `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Collectors selects and tunes the data collectors.
type Collectors struct {
	Enabled     []string      `yaml:"enabled" validate:"dive,required"`
	Concurrency int           `yaml:"concurrency" validate:"min=0,max=64"`
	Timeout     time.Duration `yaml:"timeout"`

	Github  GithubCollector  `yaml:"github"`
	Gitlab  GitlabCollector  `yaml:"gitlab"`
	Probe   ProbeCollector   `yaml:"probe"`
	Commits CommitsCollector `yaml:"commits"`
}

type GithubCollector struct {
	BaseURL           string `yaml:"base_url" validate:"omitempty,url"`
	Token             string `yaml:"token"`
	MaxRepos          int    `yaml:"max_repos" validate:"min=0"`
	MaxCommits        int    `yaml:"max_commits" validate:"min=0"`
	MaxFollows        int    `yaml:"max_follows" validate:"min=0"`
	InactiveAfterDays int    `yaml:"inactive_after_days" validate:"min=0"`
}

type GitlabCollector struct {
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	Token   string `yaml:"token"`
}

// ProbeCollector configures the profile existence probes. Templates map a platform name
// to a URL containing one %s placeholder for the username.
type ProbeCollector struct {
	UserAgent string            `yaml:"user_agent"`
	Templates map[string]string `yaml:"templates" validate:"dive,required"`
}

type CommitsCollector struct {
	Repository string `yaml:"repository"`
	MaxCommits int    `yaml:"max_commits" validate:"min=0"`
}

// ValidateConfigPath checks that path points to a regular file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes the YAML file at configPath into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

// LoadConfig reads the configuration from configPath. An empty path yields the built-in defaults.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{}
	if configPath == "" {
		return cfg, nil
	}

	if err := LoadYAML(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
	}
	return cfg, nil
}

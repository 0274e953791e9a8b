package config

import (
	"crypto/tls"
	"time"
)

// BaseHTTPConfig holds common HTTP client configuration settings.
type BaseHTTPConfig struct {
	RetryCount       int           // Number of retries for failed requests
	RetryWaitTime    time.Duration // Wait time between retries
	RetryMaxWaitTime time.Duration // Maximum wait time for retries
	Timeout          time.Duration // Timeout for requests
	TLSClientConfig  *tls.Config   // TLS configuration
	Proxy            string        // Proxy address
}

// RestyHTTPClientConfig holds additional configuration settings for the Resty HTTP client.
type RestyHTTPClientConfig struct {
	BaseHTTPConfig
	Debug bool // Flag to enable Resty debug mode
}

// DefaultHTTPConfig returns a base configuration for HTTP clients with default values.
func DefaultHTTPConfig() BaseHTTPConfig {
	return BaseHTTPConfig{
		RetryCount:       2,
		RetryWaitTime:    1 * time.Second,
		RetryMaxWaitTime: 5 * time.Second,
		Timeout:          15 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: false,
		},
	}
}

// DefaultRestyConfig returns a default configuration for the Resty HTTP client, extending the base HTTP configuration.
func DefaultRestyConfig() RestyHTTPClientConfig {
	return RestyHTTPClientConfig{
		BaseHTTPConfig: DefaultHTTPConfig(),
		Debug:          false,
	}
}

// Collector defaults.
const (
	DefaultConcurrency       = 4
	DefaultCollectorTimeout  = 60 * time.Second
	DefaultMaxRepos          = 30
	DefaultMaxCommits        = 300
	DefaultMaxFollows        = 100
	DefaultInactiveAfterDays = 365
	DefaultUserAgent         = "idleak/1.0 (+self-assessment)"
	DefaultGithubBaseURL     = "https://api.github.com/"
	DefaultGitlabBaseURL     = "https://gitlab.com/api/v4"
)

// DefaultProbeTemplates are the profile URLs probed for a username.
func DefaultProbeTemplates() map[string]string {
	return map[string]string{
		"reddit":   "https://www.reddit.com/user/%s/about.json",
		"x":        "https://nitter.net/%s",
		"linkedin": "https://www.linkedin.com/in/%s",
		"devto":    "https://dev.to/api/users/by_username?url=%s",
	}
}

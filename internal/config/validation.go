package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateConfig checks if the global configurations have valid values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("YAML global config: http_client directive is invalid: %w", err)
	}
	if err := ValidateCollectorsConfig(&cfg.Collectors); err != nil {
		return fmt.Errorf("YAML global config: collectors directive is invalid: %w", err)
	}
	return nil
}

// ValidateCollectorsConfig checks the collectors section.
func ValidateCollectorsConfig(c *Collectors) error {
	if c == nil {
		return fmt.Errorf("collectors configuration is nil")
	}
	if err := validate.Struct(c); err != nil {
		return err
	}
	if err := validateDuration(c.Timeout, "timeout", 10*time.Minute); err != nil {
		return err
	}
	for name, tmpl := range c.Probe.Templates {
		if strings.Count(tmpl, "%s") != 1 {
			return fmt.Errorf("probe template %q must contain exactly one %%s placeholder", name)
		}
	}
	return nil
}

// ValidateHTTPConfig checks if the HTTP configurations have valid values.
func ValidateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"retry_max_wait_time", httpConfig.RetryMaxWaitTime},
		{"retry_wait_time", httpConfig.RetryWaitTime},
		{"timeout", httpConfig.Timeout},
	}
	for _, duration := range durations {
		if err := validateDuration(duration.d, duration.name, 100*time.Second); err != nil {
			return err
		}
	}

	if err := validateProxy(&httpConfig.Proxy); err != nil {
		return err
	}

	return nil
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %s: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%s duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

// validateProxy checks if the given Proxy settings are valid.
func validateProxy(proxy *Proxy) error {
	if proxy == nil {
		return fmt.Errorf("proxy configuration is nil")
	}

	// If host or port is not set, skip further validation
	if proxy.Host == "" || proxy.Port == 0 {
		return nil
	}

	if err := validateHost(&proxy.Host); err != nil {
		return err
	}

	return validatePort(proxy.Port)
}

// validateHost ensures the proxy host includes a scheme; adds "http" if missing.
func validateHost(host *string) error {
	if host == nil {
		return fmt.Errorf("host string pointer is nil")
	}

	if !strings.Contains(*host, "://") {
		*host = "http://" + *host
	}
	*host = strings.TrimRight(*host, "/")

	u, err := url.Parse(*host)
	if err != nil {
		return fmt.Errorf("invalid host URL: %w", err)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("invalid host URL: %q has no hostname", *host)
	}

	return nil
}

// validatePort checks if the port part of the proxy configuration is valid.
func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

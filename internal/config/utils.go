package config

import (
	"reflect"
	"strings"
	"time"
)

// GetBoolValue retrieves a boolean value from a nested struct based on a dot-separated path.
// It returns defaultValue if the field does not exist or is a nil pointer.
func GetBoolValue(config interface{}, fieldPath string, defaultValue bool) bool {
	if config == nil {
		return defaultValue
	}

	val := reflect.ValueOf(config)
	for _, field := range strings.Split(fieldPath, ".") {
		if val.Kind() == reflect.Ptr {
			if val.IsNil() {
				return defaultValue
			}
			val = val.Elem()
		}
		if val.Kind() != reflect.Struct {
			return defaultValue
		}

		val = val.FieldByName(field)
		if !val.IsValid() {
			return defaultValue
		}
	}

	if val.Kind() == reflect.Ptr && !val.IsNil() {
		return val.Elem().Bool()
	} else if val.Kind() == reflect.Bool {
		return val.Bool()
	}

	return defaultValue
}

// SetThen returns value when it is set, otherwise defaultValue.
func SetThen[T any](value T, defaultValue T) T {
	if reflect.ValueOf(&value).Elem().IsZero() {
		return defaultValue
	}
	return value
}

// GetConcurrency returns how many collectors may run at once.
func GetConcurrency(cfg *Config) int {
	if cfg == nil {
		return DefaultConcurrency
	}
	return SetThen(cfg.Collectors.Concurrency, DefaultConcurrency)
}

// GetCollectorTimeout returns the time budget of a single collector.
func GetCollectorTimeout(cfg *Config) time.Duration {
	if cfg == nil {
		return DefaultCollectorTimeout
	}
	return SetThen(cfg.Collectors.Timeout, DefaultCollectorTimeout)
}

// GetProbeTemplates returns the configured probe templates merged over the defaults.
func GetProbeTemplates(cfg *Config) map[string]string {
	templates := DefaultProbeTemplates()
	if cfg == nil {
		return templates
	}
	for name, tmpl := range cfg.Collectors.Probe.Templates {
		templates[strings.ToLower(name)] = tmpl
	}
	return templates
}

// GetUserAgent returns the User-Agent sent by HTTP collectors.
func GetUserAgent(cfg *Config) string {
	if cfg == nil {
		return DefaultUserAgent
	}
	return SetThen(cfg.Collectors.Probe.UserAgent, DefaultUserAgent)
}

package config

import (
	"os"
)

const (
	EnvConfigPath = "IDLEAK_CONFIG"
	EnvLogLevel   = "IDLEAK_LOG_LEVEL"

	defaultConfigFile = "config.yml"
)

// ResolveConfigPath picks the configuration file: the flag value, then IDLEAK_CONFIG, then
// config.yml in the working directory. explicit reports whether the user asked for the file,
// in which case a missing file is an error.
func ResolveConfigPath(flagValue string) (path string, explicit bool) {
	if flagValue != "" {
		return flagValue, true
	}
	if v := os.Getenv(EnvConfigPath); v != "" {
		return v, true
	}
	if ValidateConfigPath(defaultConfigFile) == nil {
		return defaultConfigFile, false
	}
	return "", false
}

// UpdateConfigFromEnv sets configuration values from environment variables, if they are set.
// Variables listed first win.
func UpdateConfigFromEnv(cfg *Config) {
	envVars := []struct {
		names []string
		value *string
	}{
		{[]string{"IDLEAK_GITHUB_TOKEN", "GITHUB_TOKEN"}, &cfg.Collectors.Github.Token},
		{[]string{"IDLEAK_GITLAB_TOKEN", "GITLAB_TOKEN"}, &cfg.Collectors.Gitlab.Token},
		{[]string{"IDLEAK_GITHUB_BASE_URL"}, &cfg.Collectors.Github.BaseURL},
		{[]string{"IDLEAK_GITLAB_BASE_URL"}, &cfg.Collectors.Gitlab.BaseURL},
		{[]string{"IDLEAK_COMMITS_REPOSITORY"}, &cfg.Collectors.Commits.Repository},
	}

	for _, env := range envVars {
		for _, name := range env.names {
			if v := os.Getenv(name); v != "" {
				*env.value = v
				break
			}
		}
	}
}

package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/identity-leak/cmd/assess"
	"github.com/scan-io-git/identity-leak/cmd/collectors"
	"github.com/scan-io-git/identity-leak/cmd/version"
	"github.com/scan-io-git/identity-leak/internal/config"
	"github.com/scan-io-git/identity-leak/internal/errors"
	"github.com/scan-io-git/identity-leak/internal/logger"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "idleak [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "idleak estimates how re-identifiable an online identity is.",
		Long: `idleak collects public identity signals about a username from code hosting platforms,
social sites and git history, links them into an identity graph and scores the
re-identification risk of the combined footprint.`,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to the YAML configuration file (default is config.yml when present).")
	rootCmd.AddCommand(assess.AssessCmd)
	rootCmd.AddCommand(collectors.CollectorsCmd)
	rootCmd.AddCommand(version.NewVersionCmd())
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return errors.ExitCode(err)
	}
	return errors.ExitOK
}

func initConfig(cmd *cobra.Command, _ []string) error {
	// .env is optional
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env file: %v\n", err)
	}

	AppConfig = &config.Config{}
	if path, explicit := config.ResolveConfigPath(cfgFile); path != "" || explicit {
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return errors.NewCommandError(nil, fmt.Errorf("initializing config file failed: %w", err), errors.ExitFailure)
		}
		AppConfig = cfg
	}
	config.UpdateConfigFromEnv(AppConfig)
	if err := config.ValidateConfig(AppConfig); err != nil {
		return errors.NewCommandError(nil, err, errors.ExitFailure)
	}

	assess.Init(AppConfig, logger.NewLogger(AppConfig, "core-assess"))
	collectors.Init(AppConfig, logger.NewLogger(AppConfig, "core-collectors"))
	version.Init(AppConfig)
	return nil
}

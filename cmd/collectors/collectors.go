package collectors

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/identity-leak/internal/config"
	"github.com/scan-io-git/identity-leak/internal/errors"
	"github.com/scan-io-git/identity-leak/internal/pipeline"
)

// Global variables for configuration and command arguments
var (
	AppConfig  *config.Config
	logger     hclog.Logger
	repository string
	jsonOutput bool

	exampleCollectorsUsage = `  # List the registered collectors and whether they run by default
  idleak collectors

  # Check that a repository enables the commits collector, as JSON
  idleak collectors --repo ~/src/project --json`
)

// CollectorsCmd represents the command for collectors command.
var CollectorsCmd = &cobra.Command{
	Use:                   "collectors [--repo PATH|URL] [--json]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleCollectorsUsage,
	Short:                 "List the registered collectors",
	RunE:                  runCollectorsCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
}

func runCollectorsCommand(cmd *cobra.Command, args []string) error {
	if err := validateCollectorsArgs(args); err != nil {
		logger.Error("invalid collectors arguments", "error", err)
		return errors.NewCommandError(nil, err, errors.ExitInvalidArgs)
	}

	entries := pipeline.Registry(AppConfig, pipeline.Options{Repository: repository}, nil)
	logger.Debug("collectors registered", "total", len(entries))
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), entries)
	}
	printTable(cmd.OutOrStdout(), entries)
	return nil
}

func printTable(w io.Writer, entries []pipeline.Entry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tENABLED\tREASON")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%t\t%s\n", e.Name, e.Enabled, e.Reason)
	}
	tw.Flush()
}

func init() {
	CollectorsCmd.Flags().StringVar(&repository, "repo", "", "Repository the commits collector would read.")
	CollectorsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the list as JSON.")
	CollectorsCmd.Flags().BoolP("help", "h", false, "Show help for the collectors command.")
}

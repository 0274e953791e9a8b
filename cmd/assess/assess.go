package assess

import (
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/identity-leak/internal/config"
	"github.com/scan-io-git/identity-leak/internal/errors"
	"github.com/scan-io-git/identity-leak/internal/pipeline"
)

// RunOptionsAssess holds the arguments of the assess command.
type RunOptionsAssess struct {
	Username    string   `json:"username,omitempty"`
	Collectors  []string `json:"collectors,omitempty"`
	InputFile   string   `json:"input_file,omitempty"`
	Repository  string   `json:"repository,omitempty"`
	GraphOutput string   `json:"graph_output,omitempty"`
	OutputPath  string   `json:"output_path,omitempty"`
	MetricsFile string   `json:"metrics_file,omitempty"`
	Verbose     bool     `json:"verbose,omitempty"`
	Temporal    bool     `json:"temporal,omitempty"`
	SelfAudit   bool     `json:"self_audit,omitempty"`
}

// Global variables for configuration and command arguments
var (
	AppConfig     *config.Config
	logger        hclog.Logger
	assessOptions RunOptionsAssess

	exampleAssessUsage = `  # Assess a username with every enabled collector and print the risk summary
  idleak assess alice

  # Restrict collectors and write the identity graph and the full report
  idleak assess -u alice --collectors github,reddit --graph-output graph.json -o report.json

  # Include the history of a local repository and print everything
  idleak assess alice --repo ~/src/project -v

  # Re-assess records captured earlier, without network access
  idleak assess --input records.json --temporal -o /tmp/reports/

  # Self-audit: banner on the console, report saved as alice_self_audit.json
  idleak assess alice --self-audit`
)

// AssessCmd represents the command for assess command.
var AssessCmd = &cobra.Command{
	Use:                   "assess [--username/-u USERNAME | USERNAME] [--collectors NAMES] [--input PATH] [--repo PATH|URL] [--graph-output PATH] [--output/-o PATH] [--temporal] [--self-audit] [--metrics-file PATH] [--verbose/-v]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleAssessUsage,
	Short:                 "Collect identity signals for a username and score its re-identification risk",
	RunE:                  runAssessCommand,
}

// Init initializes the global configuration variable and sets the long description for the AssessCmd command.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
	AssessCmd.Long = generateLongDescription(AppConfig)
}

func runAssessCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !hasFlags(cmd.Flags()) {
		if err := cmd.Help(); err != nil {
			return errors.NewCommandError(assessOptions, fmt.Errorf("failed to print help: %w", err), errors.ExitFailure)
		}
		return errors.NewCommandError(assessOptions, fmt.Errorf("invalid assess arguments: %w", errMissingUsername), errors.ExitInvalidArgs)
	}

	if err := validateAssessArgs(&assessOptions, args); err != nil {
		logger.Error("invalid assess arguments", "error", err)
		return errors.NewCommandError(assessOptions, fmt.Errorf("invalid assess arguments: %w", err), errors.ExitInvalidArgs)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	p := pipeline.New(AppConfig, logger)
	out, runErr := p.Run(ctx, pipeline.Options{
		Target:     assessOptions.Username,
		Collectors: assessOptions.Collectors,
		InputFile:  assessOptions.InputFile,
		Repository: assessOptions.Repository,
	})
	if out == nil {
		logger.Error("assessment failed", "error", runErr)
		code := errors.ExitFailure
		if isUsageError(runErr) {
			code = errors.ExitInvalidArgs
		}
		return errors.NewCommandError(assessOptions, fmt.Errorf("assessment failed: %w", runErr), code)
	}

	persistErr := writeOutputs(cmd.OutOrStdout(), out, &assessOptions)

	if stderrors.Is(runErr, pipeline.ErrAllCollectorsFailed) {
		logger.Error("no collector succeeded", "error", runErr)
		return errors.NewCommandError(out.Risk, runErr, errors.ExitCollectorsFail)
	}
	if persistErr != nil {
		logger.Error("failed to persist results", "error", persistErr)
		return errors.NewCommandError(out.Risk, persistErr, errors.ExitPersistenceFail)
	}

	logger.Info("assess command completed successfully", "risk", out.Risk.OverallRisk, "score", out.Risk.Score)
	return nil
}

func init() {
	AssessCmd.Flags().StringVarP(&assessOptions.Username, "username", "u", "", "Username to assess. May also be given as the positional argument.")
	AssessCmd.Flags().StringSliceVar(&assessOptions.Collectors, "collectors", nil, "Comma-separated collectors to run (default: every enabled collector).")
	AssessCmd.Flags().StringVar(&assessOptions.InputFile, "input", "", "JSON file with raw records or a previous report to assess offline.")
	AssessCmd.Flags().StringVar(&assessOptions.Repository, "repo", "", "Local path or remote URL of a git repository whose history the commits collector reads.")
	AssessCmd.Flags().StringVar(&assessOptions.GraphOutput, "graph-output", "", "Path to the file or directory where the identity graph is saved in node-link JSON.")
	AssessCmd.Flags().StringVarP(&assessOptions.OutputPath, "output", "o", "", "Path to the file or directory where the report is saved.")
	AssessCmd.Flags().StringVar(&assessOptions.MetricsFile, "metrics-file", "", "Path to a Prometheus textfile receiving run metrics.")
	AssessCmd.Flags().BoolVarP(&assessOptions.Verbose, "verbose", "v", false, "Print signals, graph and risk on the console.")
	AssessCmd.Flags().BoolVar(&assessOptions.Temporal, "temporal", false, "Add the observation window of the signals to the report.")
	AssessCmd.Flags().BoolVar(&assessOptions.SelfAudit, "self-audit", false, "Print a self-audit banner and save the report as <username>_self_audit.json unless --output is set.")
	AssessCmd.Flags().BoolP("help", "h", false, "Show help for the assess command.")
}

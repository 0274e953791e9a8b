package assess

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/scan-io-git/identity-leak/internal/config"
	"github.com/scan-io-git/identity-leak/internal/console"
	"github.com/scan-io-git/identity-leak/internal/files"
	"github.com/scan-io-git/identity-leak/internal/metrics"
	"github.com/scan-io-git/identity-leak/internal/pipeline"
	"github.com/scan-io-git/identity-leak/internal/report"
)

// hasFlags reports whether any flag was set on the command line.
func hasFlags(flags *pflag.FlagSet) bool {
	set := false
	flags.Visit(func(*pflag.Flag) { set = true })
	return set
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func isUsageError(err error) bool {
	return stderrors.Is(err, pipeline.ErrUnknownCollector) ||
		stderrors.Is(err, pipeline.ErrUnavailableCollector) ||
		stderrors.Is(err, pipeline.ErrNoCollectors)
}

// writeOutputs prints and saves the results of out. Every output is attempted; the
// returned error joins the failures.
func writeOutputs(w io.Writer, out *pipeline.Outcome, options *RunOptionsAssess) error {
	target := report.TargetName(out)
	var errs []error

	if options.GraphOutput != "" {
		path, err := files.WriteJSON(options.GraphOutput, target+"_graph.json", out.Graph.NodeLink())
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to write graph: %w", err))
		} else {
			logger.Info("graph saved to file", "path", path)
		}
	}

	rep := report.New(out, options.Temporal)
	reportPath := options.OutputPath
	if reportPath == "" && options.SelfAudit {
		reportPath = report.SelfAuditFile(target)
	}
	if reportPath != "" {
		path, err := files.WriteJSON(reportPath, target+"_report.json", rep)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to write report: %w", err))
		} else {
			logger.Info("report saved to file", "path", path, "run_id", rep.RunID)
		}
	}

	if options.MetricsFile != "" {
		if err := writeMetrics(options.MetricsFile, out); err != nil {
			errs = append(errs, err)
		} else {
			logger.Info("metrics saved to file", "path", options.MetricsFile)
		}
	}

	if options.SelfAudit {
		report.WriteSelfAudit(w, out.Risk)
	}
	if options.Verbose {
		console.Render(w, out)
	}
	if !options.SelfAudit && !options.Verbose && options.OutputPath == "" {
		if err := printJSON(w, out.Risk); err != nil {
			errs = append(errs, err)
		}
	}

	return stderrors.Join(errs...)
}

func writeMetrics(path string, out *pipeline.Outcome) error {
	path, err := files.ExpandPath(path)
	if err != nil {
		return fmt.Errorf("failed to expand metrics path %q: %w", path, err)
	}
	if err := files.CreateFolderIfNotExists(filepath.Dir(path)); err != nil {
		return err
	}
	rec := metrics.NewRecorder()
	rec.Observe(out)
	return rec.WriteTextfile(path)
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error serializing JSON result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// generateLongDescription generates the long description dynamically with the list of registered collectors.
func generateLongDescription(cfg *config.Config) string {
	return fmt.Sprintf(`Collect public identity signals about a username, link them into an identity graph
and score how re-identifiable the combined footprint is.

Registered collectors:
  %s`, strings.Join(pipeline.Names(pipeline.Registry(cfg, pipeline.Options{}, nil)), "\n  "))
}

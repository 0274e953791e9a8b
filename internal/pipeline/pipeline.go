package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/identity-leak/internal/collector"
	"github.com/scan-io-git/identity-leak/internal/config"
	"github.com/scan-io-git/identity-leak/pkg/graph"
	"github.com/scan-io-git/identity-leak/pkg/normalize"
	"github.com/scan-io-git/identity-leak/pkg/risk"
	"github.com/scan-io-git/identity-leak/pkg/signal"
)

var (
	ErrUnknownCollector     = stderrors.New("unknown collector")
	ErrUnavailableCollector = stderrors.New("collector unavailable")
	ErrNoCollectors         = stderrors.New("no collectors selected")
	ErrAllCollectorsFailed  = stderrors.New("every collector failed")
)

// Options are the per-run inputs that do not come from the configuration file.
type Options struct {
	Target     string
	Collectors []string
	InputFile  string
	Repository string
}

// Outcome holds everything one assessment produced.
type Outcome struct {
	Target   string
	Started  time.Time
	Results  []collector.Result
	Signals  []signal.Signal
	Skipped  int
	Graph    *graph.Graph
	Risk     risk.Summary
	Duration time.Duration
}

// Pipeline runs collection, normalization, graph building and risk scoring for one target.
type Pipeline struct {
	cfg    *config.Config
	logger hclog.Logger
	now    func() time.Time
}

func New(cfg *config.Config, logger hclog.Logger) *Pipeline {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Pipeline{cfg: cfg, logger: logger, now: time.Now}
}

// Run selects the collectors and assesses opts.Target. When every collector fails the
// partial outcome is returned together with ErrAllCollectorsFailed.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Outcome, error) {
	collectors, err := Select(Registry(p.cfg, opts, p.logger), opts.Collectors)
	if err != nil {
		return nil, err
	}
	return p.Assess(ctx, opts.Target, collectors)
}

// Assess runs the given collectors and fuses their records.
func (p *Pipeline) Assess(ctx context.Context, target string, collectors []collector.Collector) (*Outcome, error) {
	out := &Outcome{Target: target, Started: p.now().UTC()}

	runner := collector.NewRunner(config.GetConcurrency(p.cfg), config.GetCollectorTimeout(p.cfg), p.logger.Named("runner"))
	out.Results = runner.Run(ctx, target, collectors)

	norm := normalize.New(p.logger.Named("normalizer")).Normalize(collector.Collected(out.Results))
	out.Signals = norm.Signals
	out.Skipped = norm.Skipped

	out.Graph = graph.Build(out.Signals, target)
	out.Risk = risk.Aggregate(out.Signals, out.Graph)
	out.Duration = p.now().Sub(out.Started)

	p.logger.Info("assessment finished",
		"target", out.Graph.TargetID,
		"collectors", len(collectors),
		"signals", len(out.Signals),
		"skipped", out.Skipped,
		"nodes", len(out.Graph.Nodes),
		"edges", len(out.Graph.Edges),
		"risk", out.Risk.OverallRisk,
		"score", out.Risk.Score,
	)

	if collector.AllFailed(out.Results) {
		return out, fmt.Errorf("%w: %d collectors ran", ErrAllCollectorsFailed, len(out.Results))
	}
	return out, nil
}

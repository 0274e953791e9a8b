package collector

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/scan-io-git/identity-leak/internal/errors"
	"github.com/scan-io-git/identity-leak/pkg/signal"
)

// Launch statuses.
const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

// Result is the outcome of one collector run. A failed collector has a non-nil Err and
// contributes no records.
type Result struct {
	Collector string
	Records   []signal.Raw
	Err       error
	Duration  time.Duration
}

// Status returns StatusOK or StatusFailed.
func (r Result) Status() string {
	if r.Err != nil {
		return StatusFailed
	}
	return StatusOK
}

// Runner runs collectors concurrently. One collector failing never affects the others.
type Runner struct {
	concurrency int
	timeout     time.Duration
	logger      hclog.Logger
}

// NewRunner creates a Runner running at most concurrency collectors at once, each within timeout.
// Non-positive values disable the respective limit.
func NewRunner(concurrency int, timeout time.Duration, logger hclog.Logger) *Runner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Runner{concurrency: concurrency, timeout: timeout, logger: logger}
}

// Run executes every collector for target. Results are in the order of collectors.
func (r *Runner) Run(ctx context.Context, target string, collectors []Collector) []Result {
	r.logger.Info("collection starting", "target", target, "total", len(collectors), "goroutines", r.concurrency)

	results := make([]Result, len(collectors))
	g := new(errgroup.Group)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	for i, c := range collectors {
		i, c := i, c
		g.Go(func() error {
			results[i] = r.runOne(ctx, target, c)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Runner) runOne(ctx context.Context, target string, c Collector) (res Result) {
	res.Collector = c.Name()
	logger := r.logger.With("collector", res.Collector)
	start := time.Now()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			logger.Debug("collector panic", "stack", string(debug.Stack()))
			res.Records = nil
			res.Err = &errors.CollectorError{Collector: res.Collector, Err: fmt.Errorf("panic: %v", p)}
		}
		res.Duration = time.Since(start)
		if res.Err != nil {
			logger.Warn("collector failed", "error", res.Err, "duration", res.Duration)
			return
		}
		logger.Info("collector finished", "records", len(res.Records), "duration", res.Duration)
	}()

	logger.Debug("collector started")
	records, err := c.Collect(ctx, target)
	if err != nil {
		res.Err = &errors.CollectorError{Collector: res.Collector, Err: err}
		return res
	}
	res.Records = records
	return res
}

// AllFailed reports whether results is non-empty and every collector failed.
func AllFailed(results []Result) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if r.Err == nil {
			return false
		}
	}
	return true
}

// Collected concatenates the records of successful results in result order.
func Collected(results []Result) []signal.Raw {
	var out []signal.Raw
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Records...)
		}
	}
	return out
}

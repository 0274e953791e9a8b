package collector

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/identity-leak/internal/errors"
	"github.com/scan-io-git/identity-leak/pkg/signal"
)

type fakeCollector struct {
	name    string
	records []signal.Raw
	err     error
	panic   bool
	delay   time.Duration
	running *int32
	peak    *int32
}

func (f *fakeCollector) Name() string { return f.name }

func (f *fakeCollector) Collect(ctx context.Context, target string) ([]signal.Raw, error) {
	if f.running != nil {
		n := atomic.AddInt32(f.running, 1)
		defer atomic.AddInt32(f.running, -1)
		for {
			p := atomic.LoadInt32(f.peak)
			if n <= p || atomic.CompareAndSwapInt32(f.peak, p, n) {
				break
			}
		}
	}
	if f.panic {
		panic("boom")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.records, f.err
}

func TestRunnerIsolatesFailures(t *testing.T) {
	ok := &fakeCollector{name: "ok", records: []signal.Raw{{"signal_type": "USERNAME", "value": "alice"}}}
	failing := &fakeCollector{name: "failing", records: []signal.Raw{{"value": "ignored"}}, err: errors.ErrNotFound}
	panicking := &fakeCollector{name: "panicking", panic: true}

	results := NewRunner(2, time.Second, nil).Run(context.Background(), "alice", []Collector{ok, failing, panicking})
	require.Len(t, results, 3)

	assert.Equal(t, "ok", results[0].Collector)
	assert.Equal(t, StatusOK, results[0].Status())
	assert.Len(t, results[0].Records, 1)

	assert.Equal(t, "failing", results[1].Collector)
	assert.Equal(t, StatusFailed, results[1].Status())
	assert.True(t, stderrors.Is(results[1].Err, errors.ErrNotFound))

	var ce *errors.CollectorError
	require.True(t, stderrors.As(results[2].Err, &ce))
	assert.Equal(t, "panicking", ce.Collector)
	assert.Contains(t, ce.Error(), "panic: boom")

	assert.False(t, AllFailed(results))
	assert.Len(t, Collected(results), 1)
}

func TestRunnerTimeout(t *testing.T) {
	slow := &fakeCollector{name: "slow", delay: time.Minute}

	start := time.Now()
	results := NewRunner(1, 20*time.Millisecond, nil).Run(context.Background(), "alice", []Collector{slow})
	assert.Less(t, time.Since(start), 10*time.Second)

	require.Len(t, results, 1)
	assert.True(t, stderrors.Is(results[0].Err, context.DeadlineExceeded))
	assert.True(t, AllFailed(results))
	assert.Empty(t, Collected(results))
}

func TestRunnerBoundsConcurrency(t *testing.T) {
	var running, peak int32
	var collectors []Collector
	for i := 0; i < 6; i++ {
		collectors = append(collectors, &fakeCollector{name: "c", delay: 20 * time.Millisecond, running: &running, peak: &peak})
	}

	results := NewRunner(2, time.Second, nil).Run(context.Background(), "alice", collectors)
	assert.Len(t, results, 6)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestAllFailedEmpty(t *testing.T) {
	assert.False(t, AllFailed(nil))
}

func TestRecords(t *testing.T) {
	rs := NewRecords("GitHub")
	rs.Add(signal.KindUsername, "alice", High)
	rs.Add(signal.KindBio, "", Low)
	rs.Add(signal.KindFollowerCount, 12, Medium).Meta = map[string]any{"platform": "github"}
	rs.Add(signal.KindPost, "hello", nil).Evidence = "https://example.com/p/1"

	require.Equal(t, 3, rs.Len())
	raw := rs.Raw()
	assert.Equal(t, "USERNAME", raw[0]["signal_type"])
	assert.Equal(t, "alice", raw[0]["value"])
	assert.Equal(t, "HIGH", raw[0]["confidence"])
	assert.Equal(t, "GitHub", raw[0]["source"])
	assert.NotEmpty(t, raw[0]["collected_at"])
	assert.Equal(t, 12, raw[1]["value"])
	assert.Equal(t, map[string]any{"platform": "github"}, raw[1]["meta"])
	assert.NotContains(t, raw[2], "confidence")
	assert.Equal(t, "https://example.com/p/1", raw[2]["evidence"])
}

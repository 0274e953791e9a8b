package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scan-io-git/identity-leak/internal/pipeline"
	"github.com/scan-io-git/identity-leak/pkg/graph"
	"github.com/scan-io-git/identity-leak/pkg/risk"
	"github.com/scan-io-git/identity-leak/pkg/signal"
)

// CollectorRun summarizes one collector in the report.
type CollectorRun struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Records    int    `json:"records"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Temporal is the observation window of the signals. All fields are empty when no signal
// carries a timestamp.
type Temporal struct {
	EarliestSeen *time.Time `json:"earliest_seen,omitempty"`
	LatestSeen   *time.Time `json:"latest_seen,omitempty"`
	DurationDays *int       `json:"duration_days,omitempty"`
}

// Report is the JSON document written for one assessment.
type Report struct {
	RunID          string          `json:"run_id"`
	GeneratedAt    time.Time       `json:"generated_at"`
	Target         string          `json:"target"`
	Signals        []signal.Signal `json:"signals"`
	RiskSummary    risk.Summary    `json:"risk_summary"`
	SkippedRecords int             `json:"skipped_records"`
	Collectors     []CollectorRun  `json:"collectors"`
	TemporalData   *Temporal       `json:"temporal_data,omitempty"`
}

// New builds the report of out. Temporal data is included when temporal is set.
func New(out *pipeline.Outcome, temporal bool) *Report {
	r := &Report{
		RunID:          uuid.NewString(),
		GeneratedAt:    out.Started,
		Target:         TargetName(out),
		Signals:        out.Signals,
		RiskSummary:    out.Risk,
		SkippedRecords: out.Skipped,
		Collectors:     make([]CollectorRun, 0, len(out.Results)),
	}
	if r.Signals == nil {
		r.Signals = []signal.Signal{}
	}

	for _, res := range out.Results {
		run := CollectorRun{
			Name:       res.Collector,
			Status:     res.Status(),
			Records:    len(res.Records),
			DurationMS: res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			run.Error = res.Err.Error()
		}
		r.Collectors = append(r.Collectors, run)
	}

	if temporal {
		t := Window(out.Signals)
		r.TemporalData = &t
	}
	return r
}

// TargetName returns the assessed identifier without the graph node prefix.
func TargetName(out *pipeline.Outcome) string {
	if out.Target != "" {
		return out.Target
	}
	if out.Graph != nil {
		return strings.TrimPrefix(out.Graph.TargetID, graph.TargetPrefix)
	}
	return graph.PlaceholderTarget
}

// Window returns the earliest and latest observation time across signals.
func Window(signals []signal.Signal) Temporal {
	var earliest, latest time.Time
	for _, s := range signals {
		if s.ObservedAt == nil {
			continue
		}
		t := s.ObservedAt.UTC()
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
		if latest.IsZero() || t.After(latest) {
			latest = t
		}
	}
	if earliest.IsZero() {
		return Temporal{}
	}
	days := int(latest.Sub(earliest).Hours() / 24)
	return Temporal{EarliestSeen: &earliest, LatestSeen: &latest, DurationDays: &days}
}

// SelfAuditFile is the default output name of a self-audit.
func SelfAuditFile(target string) string {
	return target + "_self_audit.json"
}

// WriteSelfAudit prints the risk verdict and its drivers.
func WriteSelfAudit(w io.Writer, summary risk.Summary) {
	fmt.Fprintln(w, "=== SELF-AUDIT REPORT ===")
	fmt.Fprintf(w, "Overall re-identification risk: %s (score %.4g)\n", summary.OverallRisk, summary.Score)
	fmt.Fprintln(w, "Key drivers:")
	for _, d := range summary.Drivers {
		fmt.Fprintf(w, " - %s (score %.4g)\n", d.Description, d.Score)
	}
	fmt.Fprintln(w, "==========================")
}

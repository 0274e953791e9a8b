package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/scan-io-git/identity-leak/internal/pipeline"
)

const namespace = "idleak"

// Recorder holds the metrics of one assessment in its own registry.
type Recorder struct {
	registry *prometheus.Registry

	collectorRuns     *prometheus.CounterVec
	collectorDuration *prometheus.HistogramVec
	collectorRecords  *prometheus.GaugeVec
	signals           *prometheus.GaugeVec
	skipped           prometheus.Gauge
	graphNodes        prometheus.Gauge
	graphEdges        *prometheus.GaugeVec
	riskScore         prometheus.Gauge
	riskLevel         *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		collectorRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "runs_total",
			Help:      "Collector runs by final status",
		}, []string{"collector", "status"}),
		collectorDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "duration_seconds",
			Help:      "Collector run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"collector"}),
		collectorRecords: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "records",
			Help:      "Raw records returned by each collector",
		}, []string{"collector"}),
		signals: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "signals",
			Help:      "Normalized signals by kind",
		}, []string{"kind"}),
		skipped: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "skipped_records",
			Help:      "Raw records dropped by the normalizer",
		}),
		graphNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "nodes",
			Help:      "Nodes in the identity graph, target included",
		}),
		graphEdges: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "edges",
			Help:      "Edges in the identity graph by relation",
		}, []string{"relation"}),
		riskScore: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "score",
			Help:      "Aggregate re-identification risk score",
		}),
		riskLevel: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "level",
			Help:      "Set to 1 for the overall risk level of the assessment",
		}, []string{"level"}),
	}
}

// Observe records out.
func (r *Recorder) Observe(out *pipeline.Outcome) {
	for _, res := range out.Results {
		r.collectorRuns.WithLabelValues(res.Collector, res.Status()).Inc()
		r.collectorDuration.WithLabelValues(res.Collector).Observe(res.Duration.Seconds())
		r.collectorRecords.WithLabelValues(res.Collector).Set(float64(len(res.Records)))
	}
	for _, s := range out.Signals {
		r.signals.WithLabelValues(string(s.Kind)).Inc()
	}
	r.skipped.Set(float64(out.Skipped))

	if out.Graph != nil {
		r.graphNodes.Set(float64(len(out.Graph.Nodes)))
		for _, e := range out.Graph.Edges {
			r.graphEdges.WithLabelValues(string(e.Relation)).Inc()
		}
	}
	r.riskScore.Set(out.Risk.Score)
	if out.Risk.OverallRisk != "" {
		r.riskLevel.WithLabelValues(string(out.Risk.OverallRisk)).Set(1)
	}
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the metrics in the text exposition format, for the node exporter
// textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %q: %w", path, err)
	}
	return nil
}

package collector

import (
	"context"
	"time"

	"github.com/scan-io-git/identity-leak/pkg/signal"
)

// Collector gathers raw identity records about a target from one platform.
// Implementations must respect ctx cancellation.
type Collector interface {
	Name() string
	Collect(ctx context.Context, target string) ([]signal.Raw, error)
}

// Confidence labels emitted by collectors.
const (
	Low    = "LOW"
	Medium = "MEDIUM"
	High   = "HIGH"
)

// Record is a typed builder for a raw record in the shape the normalizer expects.
type Record struct {
	Kind       signal.Kind
	Value      any
	Confidence any
	Source     string
	Evidence   string
	ObservedAt time.Time
	Meta       map[string]any
}

// Raw converts r to a raw record. Zero fields are left out.
func (r Record) Raw() signal.Raw {
	raw := signal.Raw{
		"signal_type": string(r.Kind),
		"value":       r.Value,
	}
	if r.Confidence != nil {
		raw["confidence"] = r.Confidence
	}
	if r.Source != "" {
		raw["source"] = r.Source
	}
	if r.Evidence != "" {
		raw["evidence"] = r.Evidence
	}
	if !r.ObservedAt.IsZero() {
		raw["collected_at"] = r.ObservedAt.UTC().Format(time.RFC3339)
	}
	if len(r.Meta) > 0 {
		raw["meta"] = r.Meta
	}
	return raw
}

// Records accumulates raw records for one source.
type Records struct {
	Source string
	Now    time.Time
	recs   []*Record
}

// NewRecords returns an accumulator stamping every record with source and the current time.
func NewRecords(source string) *Records {
	return &Records{Source: source, Now: time.Now().UTC()}
}

// Add appends a record and returns it so callers can attach evidence or meta.
// Empty string values are not recorded; the returned record is then detached.
func (rs *Records) Add(kind signal.Kind, value any, confidence any) *Record {
	rec := &Record{Kind: kind, Value: value, Confidence: confidence, Source: rs.Source, ObservedAt: rs.Now}
	if s, ok := value.(string); ok && s == "" {
		return rec
	}
	rs.recs = append(rs.recs, rec)
	return rec
}

// Len returns the number of recorded entries.
func (rs *Records) Len() int {
	return len(rs.recs)
}

// Raw returns all records in insertion order.
func (rs *Records) Raw() []signal.Raw {
	out := make([]signal.Raw, 0, len(rs.recs))
	for _, rec := range rs.recs {
		out = append(out, rec.Raw())
	}
	return out
}

// Merge appends the records of other, keeping their own source.
func (rs *Records) Merge(other *Records) {
	rs.recs = append(rs.recs, other.recs...)
}

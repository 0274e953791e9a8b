package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/identity-leak/pkg/signal"
)

// Candidate keys, in resolution priority order.
var (
	kindKeys       = []string{"signal_type", "type", "kind"}
	valueKeys      = []string{"value", "username", "email", "image", "content"}
	sourceKeys     = []string{"source", "site", "platform"}
	observedAtKeys = []string{"observed_at", "collected_at", "first_seen", "timestamp"}
)

// impliedKinds gives the kind of a record whose value sits under a typed key
// and which carries no kind of its own.
var impliedKinds = map[string]signal.Kind{
	"username": signal.KindUsername,
	"email":    signal.KindEmail,
	"image":    signal.KindImage,
	"content":  signal.KindPost,
}

// classifications are values some collectors put under signal_type that
// describe certainty rather than a kind.
var classifications = map[string]bool{
	"FACT":      true,
	"INFERENCE": true,
}

var ordinalConfidence = map[string]float64{
	"LOW":    signal.ConfidenceLow,
	"MEDIUM": signal.ConfidenceMedium,
	"HIGH":   signal.ConfidenceHigh,
}

// Result is the outcome of one normalization pass.
type Result struct {
	Signals []signal.Signal
	// Skipped counts records dropped because no kind or value could be resolved.
	Skipped int
}

// Normalizer converts raw collector records into canonical signals.
type Normalizer struct {
	logger hclog.Logger
}

// New creates a Normalizer. A nil logger discards diagnostics.
func New(logger hclog.Logger) *Normalizer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Normalizer{logger: logger}
}

// Normalize is a shortcut for New(nil).Normalize(records).
func Normalize(records []signal.Raw) Result {
	return New(nil).Normalize(records)
}

// Normalize resolves, validates and deduplicates records. Output keeps the
// first-seen order of every (kind, value) key.
func (n *Normalizer) Normalize(records []signal.Raw) Result {
	result := Result{Signals: []signal.Signal{}}
	index := make(map[signal.Key]int)

	for i, rec := range records {
		s, reason := n.canonical(rec)
		if reason != "" {
			result.Skipped++
			n.logger.Debug("skipping raw record", "index", i, "reason", reason)
			continue
		}

		key := s.Key()
		pos, seen := index[key]
		if !seen {
			index[key] = len(result.Signals)
			result.Signals = append(result.Signals, s)
			continue
		}
		result.Signals[pos] = merge(result.Signals[pos], s)
	}

	if result.Skipped > 0 {
		n.logger.Warn("dropped malformed records", "skipped", result.Skipped, "total", len(records))
	}
	n.logger.Debug("normalization finished", "records", len(records), "signals", len(result.Signals))
	return result
}

// canonical builds a Signal from rec. A non-empty reason means the record must be skipped.
func (n *Normalizer) canonical(rec signal.Raw) (signal.Signal, string) {
	if rec == nil {
		return signal.Signal{}, "empty record"
	}

	value, valueKey := resolveValue(rec)
	if value == "" {
		return signal.Signal{}, "no value"
	}

	kind, classification := resolveKind(rec)
	if kind == "" {
		kind = impliedKinds[valueKey]
	}
	if kind == "" {
		return signal.Signal{}, "no kind"
	}

	s := signal.Signal{
		Kind:       kind,
		Value:      value,
		Confidence: resolveConfidence(rec["confidence"]),
		ObservedAt: resolveTime(rec),
		Evidence:   stringValue(rec["evidence"]),
		Meta:       resolveMeta(rec["meta"]),
	}
	if src := firstString(rec, sourceKeys); src != "" {
		s.Sources = []string{src}
	}
	if classification != "" {
		if s.Meta == nil {
			s.Meta = map[string]string{}
		}
		s.Meta["classification"] = classification
	}
	return s, ""
}

func resolveKind(rec signal.Raw) (signal.Kind, string) {
	var classification string
	for _, key := range kindKeys {
		raw := stringValue(rec[key])
		if raw == "" {
			continue
		}
		if upper := strings.ToUpper(raw); classifications[upper] {
			classification = upper
			continue
		}
		return signal.ParseKind(raw), classification
	}
	return "", classification
}

func resolveValue(rec signal.Raw) (string, string) {
	for _, key := range valueKeys {
		if v := stringValue(rec[key]); v != "" {
			return v, key
		}
	}
	return "", ""
}

// resolveConfidence accepts numbers, numeric strings and ordinal labels.
func resolveConfidence(raw any) float64 {
	switch v := raw.(type) {
	case nil:
		return signal.ConfidenceDefault
	case float64:
		return clamp(v)
	case float32:
		return clamp(float64(v))
	case int:
		return clamp(float64(v))
	case int64:
		return clamp(float64(v))
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return clamp(f)
		}
	case string:
		label := strings.ToUpper(strings.TrimSpace(v))
		if c, ok := ordinalConfidence[label]; ok {
			return c
		}
		if f, err := strconv.ParseFloat(label, 64); err == nil {
			return clamp(f)
		}
	}
	return signal.ConfidenceDefault
}

func clamp(c float64) float64 {
	if math.IsNaN(c) {
		return signal.ConfidenceDefault
	}
	return math.Max(0, math.Min(1, c))
}

func resolveTime(rec signal.Raw) *time.Time {
	for _, key := range observedAtKeys {
		var t time.Time
		switch v := rec[key].(type) {
		case time.Time:
			t = v
		case *time.Time:
			if v != nil {
				t = *v
			}
		case float64:
			sec, frac := math.Modf(v)
			t = time.Unix(int64(sec), int64(frac*1e9))
		case int64:
			t = time.Unix(v, 0)
		case string:
			parsed, err := dateparse.ParseIn(strings.TrimSpace(v), time.UTC)
			if err != nil {
				continue
			}
			t = parsed
		}
		if !t.IsZero() {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func resolveMeta(raw any) map[string]string {
	var out map[string]string
	switch m := raw.(type) {
	case map[string]string:
		for k, v := range m {
			if out == nil {
				out = make(map[string]string, len(m))
			}
			out[k] = v
		}
	case map[string]any:
		for k, v := range m {
			s := stringValue(v)
			if s == "" {
				continue
			}
			if out == nil {
				out = make(map[string]string, len(m))
			}
			out[k] = s
		}
	}
	return out
}

func firstString(rec signal.Raw, keys []string) string {
	for _, key := range keys {
		if s := stringValue(rec[key]); s != "" {
			return s
		}
	}
	return ""
}

// stringValue renders scalar payloads as text and structured payloads as compact JSON.
// Empty results mean "no value".
func stringValue(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		if len(v) == 0 {
			return ""
		}
	case map[string]any:
		if len(v) == 0 {
			return ""
		}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return string(data)
}

// merge folds a later observation of the same fact into the kept one.
func merge(kept, other signal.Signal) signal.Signal {
	winner, loser := kept, other
	if other.Confidence > kept.Confidence {
		winner, loser = other, kept
	}

	out := winner
	out.Sources = unionSources(kept.Sources, other.Sources)
	if out.Evidence == "" {
		out.Evidence = loser.Evidence
	}
	if out.ObservedAt == nil {
		out.ObservedAt = loser.ObservedAt
	}
	if len(loser.Meta) > 0 {
		meta := make(map[string]string, len(winner.Meta)+len(loser.Meta))
		for k, v := range loser.Meta {
			meta[k] = v
		}
		for k, v := range winner.Meta {
			meta[k] = v
		}
		out.Meta = meta
	}
	return out
}

func unionSources(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, src := range append(append([]string{}, a...), b...) {
		if seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
	}
	return out
}

package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/identity-leak/pkg/signal"
)

func TestNormalizeEmpty(t *testing.T) {
	res := Normalize(nil)
	assert.Empty(t, res.Signals)
	assert.NotNil(t, res.Signals)
	assert.Equal(t, 0, res.Skipped)

	res = Normalize([]signal.Raw{})
	assert.Empty(t, res.Signals)
}

func TestNormalizeDeduplicatesByKindAndValue(t *testing.T) {
	records := []signal.Raw{
		{"signal_type": "USERNAME", "value": "alice", "confidence": "MEDIUM", "source": "GitHub"},
		{"signal_type": "USERNAME", "value": "alice", "confidence": "HIGH", "source": "Reddit"},
		{"signal_type": "USERNAME", "value": "alice", "confidence": 0.2, "source": "GitHub"},
	}

	res := Normalize(records)
	require.Len(t, res.Signals, 1)

	s := res.Signals[0]
	assert.Equal(t, signal.KindUsername, s.Kind)
	assert.Equal(t, "alice", s.Value)
	assert.Equal(t, 0.9, s.Confidence)
	assert.Equal(t, []string{"GitHub", "Reddit"}, s.Sources)
}

func TestNormalizeConfidence(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want float64
	}{
		{"above range is clamped", 1.7, 1.0},
		{"below range is clamped", -0.3, 0.0},
		{"in range is kept", 0.42, 0.42},
		{"integer", 1, 1.0},
		{"high label", "HIGH", 0.9},
		{"medium label", "MEDIUM", 0.6},
		{"low label", "LOW", 0.3},
		{"lower case label", "high", 0.9},
		{"numeric string", "0.7", 0.7},
		{"unknown label", "VERY_HIGH", 0.5},
		{"missing", nil, 0.5},
		{"json number", json.Number("0.25"), 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Normalize([]signal.Raw{{"signal_type": "EMAIL", "value": "a@b.c", "confidence": tt.raw}})
			require.Len(t, res.Signals, 1)
			assert.InDelta(t, tt.want, res.Signals[0].Confidence, 1e-9)
		})
	}
}

func TestNormalizeOrdinalMappingIsKindIndependent(t *testing.T) {
	kinds := []string{"USERNAME", "EMAIL", "IMAGE", "POST", "REPO_SUMMARY", "UNKNOWN_THING"}
	for _, kind := range kinds {
		res := Normalize([]signal.Raw{
			{"signal_type": kind, "value": "h", "confidence": "HIGH"},
			{"signal_type": kind, "value": "m", "confidence": "MEDIUM"},
			{"signal_type": kind, "value": "l", "confidence": "LOW"},
		})
		require.Len(t, res.Signals, 3, kind)
		assert.Equal(t, 0.9, res.Signals[0].Confidence, kind)
		assert.Equal(t, 0.6, res.Signals[1].Confidence, kind)
		assert.Equal(t, 0.3, res.Signals[2].Confidence, kind)
	}
}

func TestNormalizeSkipsMalformedRecords(t *testing.T) {
	records := []signal.Raw{
		{"signal_type": "USERNAME", "value": "alice"},
		{"signal_type": "EMAIL"},
		{"signal_type": "EMAIL", "value": "alice@example.com"},
	}

	res := Normalize(records)
	assert.Len(t, res.Signals, 2)
	assert.Equal(t, 1, res.Skipped)
}

func TestNormalizeKeyResolution(t *testing.T) {
	records := []signal.Raw{
		{"type": "image", "value": "https://example.com/a.png"},
		{"username": "alice"},
		{"email": "alice@example.com"},
		{"content": "hello world", "evidence": "/r/golang/abc"},
		{"type": "username", "signal_type": "FACT", "value": "bob"},
		{"value": "no kind at all"},
		nil,
		{"signal_type": "BIO", "value": "   "},
	}

	res := Normalize(records)
	require.Len(t, res.Signals, 5)
	assert.Equal(t, 3, res.Skipped)

	assert.Equal(t, signal.KindImage, res.Signals[0].Kind)
	assert.Equal(t, signal.KindUsername, res.Signals[1].Kind)
	assert.Equal(t, signal.KindEmail, res.Signals[2].Kind)
	assert.Equal(t, signal.KindPost, res.Signals[3].Kind)
	assert.Equal(t, "/r/golang/abc", res.Signals[3].Evidence)
	assert.Equal(t, signal.KindUsername, res.Signals[4].Kind)
	assert.Equal(t, "FACT", res.Signals[4].Meta["classification"])
}

func TestNormalizeStructuredValuesAndMeta(t *testing.T) {
	records := []signal.Raw{
		{"signal_type": "CONTRIBUTIONS_YEAR", "value": "2023", "meta": map[string]any{"year": "2023", "count": float64(42)}},
		{"signal_type": "FOLLOWERS", "value": float64(12)},
		{"signal_type": "CONTRIBUTION_HOURLY_PATTERN", "value": map[string]any{"9": float64(3)}},
		{"signal_type": "CONTRIBUTIONS_YEARLY_DATES", "value": []any{}},
	}

	res := Normalize(records)
	require.Len(t, res.Signals, 3)
	assert.Equal(t, 1, res.Skipped)

	assert.Equal(t, map[string]string{"year": "2023", "count": "42"}, res.Signals[0].Meta)
	assert.Equal(t, signal.KindFollowerCount, res.Signals[1].Kind)
	assert.Equal(t, "12", res.Signals[1].Value)
	assert.Equal(t, `{"9":3}`, res.Signals[2].Value)
}

func TestNormalizeObservedAt(t *testing.T) {
	records := []signal.Raw{
		{"signal_type": "USERNAME", "value": "a", "collected_at": "2024-03-01T10:00:00Z"},
		{"signal_type": "USERNAME", "value": "b", "first_seen": "2024-03-01T10:00:00.123456"},
		{"signal_type": "USERNAME", "value": "c", "observed_at": float64(1700000000)},
		{"signal_type": "USERNAME", "value": "d", "collected_at": "not a date"},
	}

	res := Normalize(records)
	require.Len(t, res.Signals, 4)

	require.NotNil(t, res.Signals[0].ObservedAt)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), *res.Signals[0].ObservedAt)
	require.NotNil(t, res.Signals[1].ObservedAt)
	assert.Equal(t, 2024, res.Signals[1].ObservedAt.Year())
	require.NotNil(t, res.Signals[2].ObservedAt)
	assert.Equal(t, int64(1700000000), res.Signals[2].ObservedAt.Unix())
	assert.Nil(t, res.Signals[3].ObservedAt)
}

func TestNormalizeMergeKeepsProvenance(t *testing.T) {
	records := []signal.Raw{
		{"signal_type": "EMAIL", "value": "a@b.c", "confidence": "LOW", "source": "commits", "evidence": "commit author"},
		{"signal_type": "EMAIL", "value": "a@b.c", "confidence": "HIGH", "source": "GitHub"},
	}

	res := Normalize(records)
	require.Len(t, res.Signals, 1)
	assert.Equal(t, 0.9, res.Signals[0].Confidence)
	assert.Equal(t, []string{"commits", "GitHub"}, res.Signals[0].Sources)
	assert.Equal(t, "commit author", res.Signals[0].Evidence)
}

func TestNormalizeEndToEndScenario(t *testing.T) {
	records := []signal.Raw{
		{"signal_type": "USERNAME", "value": "alice", "confidence": "HIGH"},
		{"signal_type": "EMAIL", "value": "alice@example.com", "confidence": "HIGH"},
		{"type": "image", "value": "https://example.com/a.png", "confidence": 0.6},
	}

	res := Normalize(records)
	require.Len(t, res.Signals, 3)
	assert.Equal(t, 0.9, res.Signals[0].Confidence)
	assert.Equal(t, 0.9, res.Signals[1].Confidence)
	assert.Equal(t, 0.6, res.Signals[2].Confidence)
}

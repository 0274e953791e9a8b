package risk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/identity-leak/pkg/graph"
	"github.com/scan-io-git/identity-leak/pkg/normalize"
	"github.com/scan-io-git/identity-leak/pkg/signal"
)

func TestAggregateEmpty(t *testing.T) {
	for _, g := range []*graph.Graph{nil, graph.Build(nil, "")} {
		s := Aggregate(nil, g)
		assert.Equal(t, Low, s.OverallRisk)
		assert.Equal(t, 0.0, s.Score)
		assert.NotNil(t, s.Drivers)
		assert.Empty(t, s.Drivers)
	}
}

func TestAggregateEndToEndScenario(t *testing.T) {
	res := normalize.Normalize([]signal.Raw{
		{"signal_type": "USERNAME", "value": "alice", "confidence": "HIGH"},
		{"signal_type": "EMAIL", "value": "alice@example.com", "confidence": "HIGH"},
		{"type": "image", "value": "https://example.com/a.png", "confidence": 0.6},
	})

	s := Aggregate(res.Signals, nil)
	require.Len(t, s.Drivers, 3)

	assert.Equal(t, "USERNAME: alice", s.Drivers[0].Description)
	assert.InDelta(t, 0.81, s.Drivers[0].Score, 1e-9)
	assert.Equal(t, "EMAIL: alice@example.com", s.Drivers[1].Description)
	assert.InDelta(t, 0.72, s.Drivers[1].Score, 1e-9)
	assert.Equal(t, "IMAGE: https://example.com/a.png", s.Drivers[2].Description)
	assert.InDelta(t, 0.36, s.Drivers[2].Score, 1e-9)

	assert.InDelta(t, 1.89, s.Score, 1e-9)
	assert.Equal(t, Medium, s.OverallRisk)
}

func TestAggregateIsMonotonic(t *testing.T) {
	base := []signal.Signal{
		{Kind: signal.KindUsername, Value: "alice", Confidence: 0.9},
		{Kind: signal.KindBio, Value: "gopher", Confidence: 0.6},
	}
	extra := []signal.Signal{
		{Kind: signal.KindEmail, Value: "alice@example.com", Confidence: 0.3},
		{Kind: signal.KindFollower, Value: "bob", Confidence: 0.6},
		{Kind: "SOMETHING_NEW", Value: "x", Confidence: 0.5},
		{Kind: signal.KindUsername, Value: "alice", Confidence: 0.9},
	}

	for _, s := range extra {
		t.Run(string(s.Kind), func(t *testing.T) {
			before := Aggregate(base, nil).Score
			after := Aggregate(append(append([]signal.Signal{}, base...), s), nil).Score
			assert.GreaterOrEqual(t, after, before)

			withGraph := append(append([]signal.Signal{}, base...), s)
			assert.GreaterOrEqual(t,
				Aggregate(withGraph, graph.Build(withGraph, "alice")).Score,
				Aggregate(base, graph.Build(base, "alice")).Score)
		})
	}

	grown := append(append([]signal.Signal{}, base...), extra[0])
	assert.Greater(t, Aggregate(grown, nil).Score, Aggregate(base, nil).Score)
}

func TestAggregateCorroborationBonus(t *testing.T) {
	signals := []signal.Signal{
		{Kind: signal.KindUsername, Value: "alice", Confidence: 0.9},
		{Kind: signal.KindEmail, Value: "alice@example.com", Confidence: 0.9},
	}

	plain := Aggregate(signals, nil)
	boosted := Aggregate(signals, graph.Build(signals, "alice"))

	// one SHARED_VALUE edge between the two signals
	assert.InDelta(t, 0.81*1.1, boosted.Drivers[0].Score, 1e-4)
	assert.InDelta(t, 0.72*1.1, boosted.Drivers[1].Score, 1e-4)
	assert.Greater(t, boosted.Score, plain.Score)
}

func TestSignalScoreCapsCorroboration(t *testing.T) {
	s := signal.Signal{Kind: signal.KindEmail, Value: "a@b.c", Confidence: 1}

	assert.InDelta(t, 0.8, SignalScore(s, 0), 1e-9)
	assert.InDelta(t, 0.88, SignalScore(s, 1), 1e-9)
	assert.InDelta(t, 1.2, SignalScore(s, 5), 1e-9)
	assert.InDelta(t, 1.2, SignalScore(s, 50), 1e-9)
}

func TestAggregateDriversOrdering(t *testing.T) {
	s := Aggregate([]signal.Signal{
		{Kind: signal.KindBio, Value: "b", Confidence: 0.5},
		{Kind: signal.KindURL, Value: "a", Confidence: 0.5},
		{Kind: signal.KindBio, Value: "a", Confidence: 0.5},
		{Kind: signal.KindFollower, Value: "bob", Confidence: 0.9},
		{Kind: "MYSTERY", Value: "m", Confidence: 1},
	}, nil)

	var got []string
	for _, d := range s.Drivers {
		got = append(got, d.Description)
	}
	// FOLLOWER scores 0.045 and is below the driver threshold but still counts
	assert.Equal(t, []string{"MYSTERY: m", "BIO: a", "BIO: b", "URL: a"}, got)
	assert.InDelta(t, 0.2+0.15*3+0.045, s.Score, 1e-9)
	assert.Equal(t, Low, s.OverallRisk)
}

func TestBucket(t *testing.T) {
	tests := []struct {
		score float64
		want  Level
	}{
		{0, Low},
		{1.4999, Low},
		{1.5, Medium},
		{2.9999, Medium},
		{3.0, High},
		{42, High},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bucket(tt.score), "score %v", tt.score)
	}
}

func TestAggregateBucketsReportedScore(t *testing.T) {
	var signals []signal.Signal
	for i := 0; i < 15; i++ {
		signals = append(signals, signal.Signal{Kind: "CUSTOM", Value: fmt.Sprintf("value-%d", i), Confidence: 0.99999})
	}

	s := Aggregate(signals, nil)
	assert.Equal(t, 3.0, s.Score)
	assert.Equal(t, High, s.OverallRisk, "level follows the reported score")
}

func TestWeight(t *testing.T) {
	assert.Equal(t, 0.9, Weight(signal.KindUsername))
	assert.Equal(t, 0.6, Weight(signal.KindImage))
	assert.Equal(t, DefaultWeight, Weight("NOT_A_KIND"))
}

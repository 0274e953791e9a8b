package risk

import (
	"math"
	"sort"

	"github.com/scan-io-git/identity-leak/pkg/graph"
	"github.com/scan-io-git/identity-leak/pkg/signal"
)

// Level is the ordinal overall risk.
type Level string

const (
	Low    Level = "LOW"
	Medium Level = "MEDIUM"
	High   Level = "HIGH"
)

// Bucket thresholds for the aggregate score.
const (
	MediumThreshold = 1.5
	HighThreshold   = 3.0
)

// DefaultWeight applies to kinds without an entry in the weight table.
const DefaultWeight = 0.2

// MinDriverScore is the score a signal has to exceed to be listed as a driver.
const MinDriverScore = 0.05

// Corroboration bonus: every corroborating link adds CorroborationStep, counted up to CorroborationCap links.
const (
	CorroborationStep = 0.1
	CorroborationCap  = 5
)

// weights holds the identifying power of each kind.
var weights = map[signal.Kind]float64{
	signal.KindUsername:     0.9,
	signal.KindEmail:        0.8,
	signal.KindName:         0.7,
	signal.KindImage:        0.6,
	signal.KindPost:         0.5,
	signal.KindProfileLink:  0.5,
	signal.KindPostPlatform: 0.5,

	signal.KindProfilePlatform: 0.4,
	signal.KindLocation:        0.4,
	signal.KindCompany:         0.4,

	signal.KindBio:           0.3,
	signal.KindURL:           0.3,
	signal.KindPronouns:      0.3,
	signal.KindProfileReadme: 0.3,
	signal.KindTimezone:      0.3,
	signal.KindTimePattern:   0.3,
	signal.KindHourlyPattern: 0.3,

	signal.KindRepoSummary:     0.2,
	signal.KindRepoInactive:    0.2,
	signal.KindAssetSummary:    0.2,
	signal.KindLanguageProfile: 0.2,

	signal.KindMutual:    0.15,
	signal.KindFollower:  0.05,
	signal.KindFollowing: 0.05,

	signal.KindFollowerCount:      0.1,
	signal.KindFollowingCount:     0.1,
	signal.KindPublicRepos:        0.1,
	signal.KindContributionMetric: 0.1,
	signal.KindContributionYear:   0.1,
	signal.KindContributionTotal:  0.1,
	signal.KindContributionDates:  0.1,
}

// Weight returns the base weight of kind.
func Weight(kind signal.Kind) float64 {
	if w, ok := weights[kind]; ok {
		return w
	}
	return DefaultWeight
}

// Driver is one scored contribution to the overall risk.
type Driver struct {
	Description string      `json:"description"`
	Score       float64     `json:"score"`
	Kind        signal.Kind `json:"kind"`
	Value       string      `json:"value"`
}

// Summary is the result of an assessment.
type Summary struct {
	OverallRisk Level    `json:"overall_risk"`
	Score       float64  `json:"score"`
	Drivers     []Driver `json:"drivers"`
}

// Bucket maps an aggregate score to its level.
func Bucket(score float64) Level {
	switch {
	case score >= HighThreshold:
		return High
	case score >= MediumThreshold:
		return Medium
	default:
		return Low
	}
}

// SignalScore returns the contribution of s. corroboration is the number of graph links
// supporting it; pass 0 when no graph is available.
func SignalScore(s signal.Signal, corroboration int) float64 {
	score := Weight(s.Kind) * s.Confidence
	if corroboration > 0 {
		score *= 1 + CorroborationStep*float64(min(corroboration, CorroborationCap))
	}
	return score
}

// Aggregate scores signals. g is optional; when present, signals with corroborating links
// in the graph score higher. Duplicate keys are counted once, with their highest confidence.
func Aggregate(signals []signal.Signal, g *graph.Graph) Summary {
	best := make(map[signal.Key]signal.Signal, len(signals))
	for _, s := range signals {
		if cur, ok := best[s.Key()]; !ok || s.Confidence > cur.Confidence {
			best[s.Key()] = s
		}
	}

	type scored struct {
		key   signal.Key
		score float64
	}
	all := make([]scored, 0, len(best))
	for k, s := range best {
		corroboration := 0
		if g != nil {
			corroboration = g.Corroboration(k)
		}
		all = append(all, scored{key: k, score: SignalScore(s, corroboration)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].key.Less(all[j].key)
	})

	summary := Summary{Drivers: []Driver{}}
	total := 0.0
	for _, sc := range all {
		total += sc.score
		if sc.score <= MinDriverScore {
			continue
		}
		summary.Drivers = append(summary.Drivers, Driver{
			Description: string(sc.key.Kind) + ": " + sc.key.Value,
			Score:       round(sc.score),
			Kind:        sc.key.Kind,
			Value:       sc.key.Value,
		})
	}

	summary.Score = round(total)
	summary.OverallRisk = Bucket(summary.Score)
	return summary
}

func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

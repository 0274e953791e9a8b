package signal

import (
	"strings"
	"time"
)

// Kind is the category of a Signal.
type Kind string

const (
	KindUsername    Kind = "USERNAME"
	KindEmail       Kind = "EMAIL"
	KindImage       Kind = "IMAGE"
	KindName        Kind = "NAME"
	KindBio         Kind = "BIO"
	KindPost        Kind = "POST"
	KindURL         Kind = "URL"
	KindCompany     Kind = "COMPANY"
	KindLocation    Kind = "LOCATION"
	KindPronouns    Kind = "PRONOUNS"
	KindTimezone    Kind = "TIMEZONE"
	KindProfileLink Kind = "PROFILE_LINK"

	// Platform presence, usually probe results.
	KindProfilePlatform Kind = "PROFILE_PLATFORM"
	KindPostPlatform    Kind = "POST_PLATFORM"
	KindProfileReadme   Kind = "PROFILE_README"

	// Social relations.
	KindFollower  Kind = "FOLLOWER"
	KindFollowing Kind = "FOLLOWING"
	KindMutual    Kind = "MUTUAL"

	// Counters and aggregates.
	KindFollowerCount      Kind = "FOLLOWER_COUNT"
	KindFollowingCount     Kind = "FOLLOWING_COUNT"
	KindPublicRepos        Kind = "PUBLIC_REPOS"
	KindContributionMetric Kind = "CONTRIBUTION_METRIC"
	KindContributionYear   Kind = "CONTRIBUTIONS_YEAR"
	KindContributionTotal  Kind = "CONTRIBUTION_TOTAL"
	KindContributionDates  Kind = "CONTRIBUTIONS_YEARLY_DATES"
	KindTimePattern        Kind = "CONTRIBUTION_TIME_PATTERN"
	KindHourlyPattern      Kind = "CONTRIBUTION_HOURLY_PATTERN"
	KindLanguageProfile    Kind = "LANGUAGE_PROFILE"

	// Assets owned by the target.
	KindRepoSummary  Kind = "REPO_SUMMARY"
	KindRepoInactive Kind = "REPO_INACTIVE"
	KindAssetSummary Kind = "ASSET_SUMMARY"
)

// aliases maps kind names used by older collectors to canonical kinds.
var aliases = map[string]Kind{
	"FOLLOWERS":          KindFollowerCount,
	"FOLLOWER_USERNAME":  KindFollower,
	"FOLLOWER_RELATION":  KindFollower,
	"FOLLOWING_USERNAME": KindFollowing,
	"MUTUAL_CONNECTION":  KindMutual,
	"AUTHOR_NAME":        KindName,
	"AVATAR":             KindImage,
	"BLOG":               KindURL,
}

var known = map[Kind]bool{
	KindUsername: true, KindEmail: true, KindImage: true, KindName: true, KindBio: true,
	KindPost: true, KindURL: true, KindCompany: true, KindLocation: true, KindPronouns: true,
	KindTimezone: true, KindProfileLink: true, KindProfilePlatform: true, KindPostPlatform: true,
	KindProfileReadme: true, KindFollower: true, KindFollowing: true, KindMutual: true,
	KindFollowerCount: true, KindFollowingCount: true, KindPublicRepos: true,
	KindContributionMetric: true, KindContributionYear: true, KindContributionTotal: true,
	KindContributionDates: true, KindTimePattern: true, KindHourlyPattern: true,
	KindLanguageProfile: true, KindRepoSummary: true, KindRepoInactive: true, KindAssetSummary: true,
}

// ParseKind canonicalizes a raw kind name. Unknown names are kept upper-cased.
func ParseKind(raw string) Kind {
	name := strings.ToUpper(strings.TrimSpace(raw))
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	if k, ok := aliases[name]; ok {
		return k
	}
	return Kind(name)
}

// Known reports whether graph and risk logic have dedicated handling for k.
func (k Kind) Known() bool {
	return known[k]
}

// IsSocial reports whether k is a social-relation kind.
func (k Kind) IsSocial() bool {
	return k == KindFollower || k == KindFollowing || k == KindMutual
}

// IsPeriodic reports whether k is a per-period aggregate.
func (k Kind) IsPeriodic() bool {
	return k == KindContributionYear
}

// IsAsset reports whether k describes an asset owned by the target.
func (k Kind) IsAsset() bool {
	return k == KindRepoSummary || k == KindRepoInactive || k == KindAssetSummary
}

// Ordinal confidence labels and their canonical values.
const (
	ConfidenceLow     = 0.3
	ConfidenceMedium  = 0.6
	ConfidenceHigh    = 0.9
	ConfidenceDefault = 0.5
)

// Key is the deduplication identity of a Signal.
type Key struct {
	Kind  Kind
	Value string
}

// String renders the key as "KIND:value".
func (k Key) String() string {
	return string(k.Kind) + ":" + k.Value
}

// Less orders keys by kind, then value.
func (k Key) Less(o Key) bool {
	if k.Kind != o.Kind {
		return k.Kind < o.Kind
	}
	return k.Value < o.Value
}

// Signal is one canonical observation about the target identity.
// Signals are produced by the normalizer and treated as read-only afterwards.
type Signal struct {
	Kind       Kind              `json:"kind"`
	Value      string            `json:"value"`
	Confidence float64           `json:"confidence"`
	Sources    []string          `json:"sources,omitempty"`
	ObservedAt *time.Time        `json:"observed_at,omitempty"`
	Evidence   string            `json:"evidence,omitempty"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// Key returns the identity key of s.
func (s Signal) Key() Key {
	return Key{Kind: s.Kind, Value: s.Value}
}

// Source joins all provenance entries.
func (s Signal) Source() string {
	return strings.Join(s.Sources, ", ")
}

// Raw is one collector record before normalization. Key names and value
// types vary between collectors.
type Raw map[string]any

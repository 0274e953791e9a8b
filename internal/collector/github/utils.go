package github

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v47/github"
)

// tokenTransport authenticates every API request with a personal access token.
type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "token "+t.token)
	return t.base.RoundTrip(req)
}

var (
	linkPattern    = regexp.MustCompile(`https?://[^\s<>"'()\[\]]+`)
	pronounPattern = regexp.MustCompile(`(?i)pronouns?\s*[:\-]\s*([a-zA-Z/]+)`)
)

// linkPlatforms are hosts whose links in a README point to another identity of the owner.
var linkPlatforms = []string{"twitter.com", "x.com", "linkedin.com", "reddit.com", "gitlab.com", "dev.to", "mastodon", "stackoverflow.com"}

// ProfileLinks extracts distinct links to other platforms from README text, in order of appearance.
func ProfileLinks(text string) []string {
	seen := make(map[string]bool)
	var links []string
	for _, link := range linkPattern.FindAllString(text, -1) {
		link = strings.TrimRight(link, ".,;:!?*_")
		if seen[link] {
			continue
		}
		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		for _, platform := range linkPlatforms {
			if host == platform || strings.HasSuffix(host, "."+platform) || strings.HasPrefix(host, platform+".") {
				seen[link] = true
				links = append(links, link)
				break
			}
		}
	}
	return links
}

// Pronouns returns the pronouns declared in text, or "".
func Pronouns(text string) string {
	if m := pronounPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// LanguageProfile renders repository language shares, largest first, e.g. "Go 50%, Python 25%".
func LanguageProfile(counts map[string]int) string {
	total := 0
	langs := make([]string, 0, len(counts))
	for lang, n := range counts {
		langs = append(langs, lang)
		total += n
	}
	if total == 0 {
		return ""
	}
	sort.Slice(langs, func(i, j int) bool {
		if counts[langs[i]] != counts[langs[j]] {
			return counts[langs[i]] > counts[langs[j]]
		}
		return langs[i] < langs[j]
	})

	parts := make([]string, 0, len(langs))
	for _, lang := range langs {
		parts = append(parts, fmt.Sprintf("%s %d%%", lang, counts[lang]*100/total))
	}
	return strings.Join(parts, ", ")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format("2006-01-02")
}

// commitTime accepts the commit author date as returned by the client. Depending on the
// client release it is either a time.Time or a github.Timestamp.
func commitTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case github.Timestamp:
		return t.Time
	case *github.Timestamp:
		if t != nil {
			return t.Time
		}
	}
	return time.Time{}
}

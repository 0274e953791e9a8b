package github

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-github/v47/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/identity-leak/internal/config"
	"github.com/scan-io-git/identity-leak/internal/errors"
	"github.com/scan-io-git/identity-leak/pkg/normalize"
	"github.com/scan-io-git/identity-leak/pkg/signal"
)

const readmeText = `# Hi, I'm Alice
Pronouns: she/her
Find me on [Twitter](https://twitter.com/alice_codes) and https://www.linkedin.com/in/alice-smith.
Also https://example.com/blog and https://twitter.com/alice_codes again.
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}

	mux.HandleFunc("/users/alice", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token secret", r.Header.Get("Authorization"))
		writeJSON(w, `{
			"login": "alice", "name": "Alice Smith", "avatar_url": "https://avatars.example.com/u/1",
			"html_url": "https://github.com/alice", "bio": " Gopher ", "email": "alice@acme.io",
			"company": "Acme", "location": "Berlin", "blog": "https://alice.dev",
			"twitter_username": "alice_codes", "followers": 2, "following": 2, "public_repos": 3,
			"created_at": "2015-04-01T10:00:00Z"
		}`)
	})
	mux.HandleFunc("/users/alice/followers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"login": "bob"}, {"login": "carol"}]`)
	})
	mux.HandleFunc("/users/alice/following", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"login": "carol"}, {"login": "dave"}]`)
	})
	mux.HandleFunc("/repos/alice/alice/readme", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, fmt.Sprintf(`{"type": "file", "encoding": "base64", "content": %q,
			"html_url": "https://github.com/alice/alice/blob/main/README.md"}`,
			base64.StdEncoding.EncodeToString([]byte(readmeText))))
	})
	mux.HandleFunc("/users/alice/repos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[
			{"name": "dotfiles", "language": "Shell", "stargazers_count": 3, "pushed_at": "2020-01-01T00:00:00Z", "html_url": "https://github.com/alice/dotfiles"},
			{"name": "tool", "language": "Go", "stargazers_count": 10, "pushed_at": "2024-05-01T00:00:00Z"},
			{"name": "lib", "language": "Go", "stargazers_count": 1, "pushed_at": "2024-05-20T00:00:00Z"},
			{"name": "forked", "fork": true, "language": "C"}
		]`)
	})
	mux.HandleFunc("/repos/alice/tool/commits", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alice", r.URL.Query().Get("author"))
		writeJSON(w, `[
			{"commit": {"author": {"name": "Alice", "email": "alice@acme.io", "date": "2023-03-04T09:15:00Z"}}},
			{"commit": {"author": {"name": "Alice", "email": "123+alice@users.noreply.github.com", "date": "2024-03-05T22:00:00Z"}}}
		]`)
	})
	mux.HandleFunc("/repos/alice/lib/commits", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		writeJSON(w, `{"message": "Git Repository is empty."}`)
	})
	mux.HandleFunc("/repos/alice/dotfiles/commits", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[]`)
	})

	return httptest.NewServer(mux)
}

func newTestCollector(t *testing.T, srv *httptest.Server) *Collector {
	t.Helper()
	cfg := &config.Config{}
	cfg.Collectors.Github.BaseURL = srv.URL
	cfg.Collectors.Github.Token = "secret"

	c, err := New(cfg, nil)
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestCollect(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	raw, err := newTestCollector(t, srv).Collect(context.Background(), "alice")
	require.NoError(t, err)

	res := normalize.Normalize(raw)
	assert.Zero(t, res.Skipped)

	got := map[signal.Key]signal.Signal{}
	for _, s := range res.Signals {
		got[s.Key()] = s
	}
	has := func(kind signal.Kind, value string) signal.Signal {
		t.Helper()
		s, ok := got[signal.Key{Kind: kind, Value: value}]
		assert.True(t, ok, "missing %s:%s", kind, value)
		return s
	}

	assert.Equal(t, 0.9, has(signal.KindUsername, "alice").Confidence)
	assert.Equal(t, "2015-04-01", has(signal.KindUsername, "alice").Meta["account_created"])
	has(signal.KindName, "Alice Smith")
	has(signal.KindBio, "Gopher")
	has(signal.KindProfileLink, "https://twitter.com/alice_codes")
	has(signal.KindFollowerCount, "2")
	has(signal.KindPublicRepos, "3")

	has(signal.KindFollower, "bob")
	has(signal.KindMutual, "carol")
	has(signal.KindFollowing, "dave")
	_, oneWay := got[signal.Key{Kind: signal.KindFollower, Value: "carol"}]
	assert.False(t, oneWay, "mutual connections are not also followers")

	has(signal.KindProfileReadme, "https://github.com/alice/alice/blob/main/README.md")
	assert.Equal(t, []string{"GitHub README"}, has(signal.KindProfilePlatform, "https://twitter.com/alice_codes").Sources)
	has(signal.KindProfilePlatform, "https://www.linkedin.com/in/alice-smith")
	_, blog := got[signal.Key{Kind: signal.KindProfilePlatform, Value: "https://example.com/blog"}]
	assert.False(t, blog)
	has(signal.KindPronouns, "she/her")

	dotfiles := has(signal.KindRepoSummary, "dotfiles | Stars: 3 | Lang: Shell | Last Updated: 2020-01-01")
	assert.Equal(t, "dotfiles", dotfiles.Meta["repo"])
	inactive := has(signal.KindRepoInactive, "dotfiles inactive for 1613 days")
	assert.Equal(t, "dotfiles", inactive.Meta["repo"])
	_, forkSummary := got[signal.Key{Kind: signal.KindRepoSummary, Value: "forked | Stars: 0 | Lang: C | Last Updated: unknown"}]
	assert.False(t, forkSummary)
	has(signal.KindLanguageProfile, "Go 66%, Shell 33%")

	has(signal.KindContributionTotal, "2")
	has(signal.KindTimePattern, "Weekdays: 1, Weekends: 1")
	assert.Equal(t, "1", has(signal.KindContributionYear, "2023").Meta["count"])
	has(signal.KindContributionYear, "2024")

	email := has(signal.KindEmail, "alice@acme.io")
	assert.Equal(t, 0.9, email.Confidence, "profile email outranks commit email")
	assert.ElementsMatch(t, []string{"GitHub", "GitHub commits"}, email.Sources)
	assert.Equal(t, 0.3, has(signal.KindEmail, "123+alice@users.noreply.github.com").Confidence)
}

func TestCollectUnknownUser(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestCollector(t, srv).Collect(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestProfileLinks(t *testing.T) {
	links := ProfileLinks(readmeText + "\n[dev](https://dev.to/alice). https://mastodon.social/@alice")
	assert.Equal(t, []string{
		"https://twitter.com/alice_codes",
		"https://www.linkedin.com/in/alice-smith",
		"https://dev.to/alice",
		"https://mastodon.social/@alice",
	}, links)
	assert.Empty(t, ProfileLinks("nothing here https://inbox.com/x"))
}

func TestPronouns(t *testing.T) {
	assert.Equal(t, "they/them", Pronouns("PRONOUNS - they/them"))
	assert.Equal(t, "he/him", Pronouns("pronoun: he/him"))
	assert.Equal(t, "", Pronouns("no declaration"))
}

func TestLanguageProfile(t *testing.T) {
	assert.Equal(t, "Go 50%, Python 25%, Rust 25%", LanguageProfile(map[string]int{"Go": 2, "Rust": 1, "Python": 1}))
	assert.Equal(t, "", LanguageProfile(nil))
}

func TestCommitTime(t *testing.T) {
	ts := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, ts, commitTime(ts))
	assert.Equal(t, ts, commitTime(github.Timestamp{Time: ts}))
	assert.True(t, commitTime(nil).IsZero())
}

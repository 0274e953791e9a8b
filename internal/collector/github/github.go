package github

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v47/github"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/identity-leak/internal/collector"
	"github.com/scan-io-git/identity-leak/internal/config"
	"github.com/scan-io-git/identity-leak/internal/errors"
	"github.com/scan-io-git/identity-leak/internal/httpclient"
	"github.com/scan-io-git/identity-leak/pkg/signal"
)

const (
	Name        = "github"
	source      = "GitHub"
	readmeSrc   = "GitHub README"
	commitsSrc  = "GitHub commits"
	perPage     = 100
	dayDuration = 24 * time.Hour
)

// Collector reads the public profile, follow graph, profile README, repositories and
// commit activity of a GitHub account.
type Collector struct {
	client        *github.Client
	logger        hclog.Logger
	maxRepos      int
	maxCommits    int
	maxFollows    int
	inactiveAfter time.Duration
	now           func() time.Time
}

// New creates a GitHub collector from cfg.
func New(cfg *config.Config, logger hclog.Logger) (*Collector, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	gh := cfg.Collectors.Github

	httpClient := httpclient.NewHTTPClient(cfg)
	if gh.Token != "" {
		httpClient.Transport = &tokenTransport{token: gh.Token, base: httpClient.Transport}
	}
	client := github.NewClient(httpClient)
	client.UserAgent = config.GetUserAgent(cfg)

	baseURL := config.SetThen(gh.BaseURL, config.DefaultGithubBaseURL)
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid github base_url %q: %w", baseURL, err)
	}
	client.BaseURL = parsed

	return &Collector{
		client:        client,
		logger:        logger,
		maxRepos:      config.SetThen(gh.MaxRepos, config.DefaultMaxRepos),
		maxCommits:    config.SetThen(gh.MaxCommits, config.DefaultMaxCommits),
		maxFollows:    config.SetThen(gh.MaxFollows, config.DefaultMaxFollows),
		inactiveAfter: time.Duration(config.SetThen(gh.InactiveAfterDays, config.DefaultInactiveAfterDays)) * dayDuration,
		now:           time.Now,
	}, nil
}

func (c *Collector) Name() string { return Name }

// Collect fails only when the account itself cannot be read. Every other section is
// best effort and logged when unavailable.
func (c *Collector) Collect(ctx context.Context, username string) ([]signal.Raw, error) {
	user, _, err := c.client.Users.Get(ctx, username)
	if err != nil {
		return nil, classify(err)
	}

	rs := collector.NewRecords(source)
	c.profile(rs, user)

	login := user.GetLogin()
	if err := c.follows(ctx, rs, login); err != nil {
		c.logger.Warn("failed to read follow graph", "user", login, "error", err)
	}
	if err := c.readme(ctx, rs, login); err != nil {
		c.logger.Debug("no profile README", "user", login, "error", err)
	}

	repos, err := c.repositories(ctx, login)
	if err != nil {
		c.logger.Warn("failed to list repositories", "user", login, "error", err)
	}
	c.repoSignals(rs, repos)
	c.commitActivity(ctx, rs, login, repos)

	return rs.Raw(), nil
}

func (c *Collector) profile(rs *collector.Records, u *github.User) {
	fields := []struct {
		kind       signal.Kind
		value      string
		confidence string
	}{
		{signal.KindName, u.GetName(), collector.High},
		{signal.KindUsername, u.GetLogin(), collector.High},
		{signal.KindImage, u.GetAvatarURL(), collector.High},
		{signal.KindBio, strings.TrimSpace(u.GetBio()), collector.Medium},
		{signal.KindEmail, u.GetEmail(), collector.High},
		{signal.KindCompany, u.GetCompany(), collector.Medium},
		{signal.KindLocation, u.GetLocation(), collector.Medium},
		{signal.KindURL, u.GetBlog(), collector.Medium},
		{signal.KindProfileLink, u.GetHTMLURL(), collector.High},
	}
	for _, f := range fields {
		rec := rs.Add(f.kind, f.value, f.confidence)
		if f.kind == signal.KindUsername && !u.GetCreatedAt().IsZero() {
			rec.Meta = map[string]any{"account_created": u.GetCreatedAt().Format("2006-01-02")}
		}
	}
	if handle := u.GetTwitterUsername(); handle != "" {
		rs.Add(signal.KindProfileLink, "https://twitter.com/"+handle, collector.High).Evidence = "twitter_username"
	}

	rs.Add(signal.KindFollowerCount, strconv.Itoa(u.GetFollowers()), collector.High)
	rs.Add(signal.KindFollowingCount, strconv.Itoa(u.GetFollowing()), collector.High)
	rs.Add(signal.KindPublicRepos, strconv.Itoa(u.GetPublicRepos()), collector.High)
}

// follows splits the follow graph into one-way and mutual relations.
func (c *Collector) follows(ctx context.Context, rs *collector.Records, login string) error {
	followers, err := c.listUsers(ctx, login, c.client.Users.ListFollowers)
	if err != nil {
		return fmt.Errorf("followers: %w", err)
	}
	following, err := c.listUsers(ctx, login, c.client.Users.ListFollowing)
	if err != nil {
		return fmt.Errorf("following: %w", err)
	}

	for _, u := range sortedKeys(followers) {
		if following[u] {
			rs.Add(signal.KindMutual, u, collector.High)
		} else {
			rs.Add(signal.KindFollower, u, collector.Medium)
		}
	}
	for _, u := range sortedKeys(following) {
		if !followers[u] {
			rs.Add(signal.KindFollowing, u, collector.Medium)
		}
	}
	return nil
}

type listUsersFunc func(ctx context.Context, user string, opts *github.ListOptions) ([]*github.User, *github.Response, error)

func (c *Collector) listUsers(ctx context.Context, login string, list listUsersFunc) (map[string]bool, error) {
	users := make(map[string]bool)
	opts := &github.ListOptions{PerPage: perPage}
	for {
		page, resp, err := list(ctx, login, opts)
		if err != nil {
			return users, classify(err)
		}
		for _, u := range page {
			if u.GetLogin() != "" {
				users[u.GetLogin()] = true
			}
		}
		if resp == nil || resp.NextPage == 0 || len(users) >= c.maxFollows {
			return users, nil
		}
		opts.Page = resp.NextPage
	}
}

// readme inspects the special <login>/<login> profile repository.
func (c *Collector) readme(ctx context.Context, rs *collector.Records, login string) error {
	content, _, err := c.client.Repositories.GetReadme(ctx, login, login, nil)
	if err != nil {
		return classify(err)
	}
	text, err := content.GetContent()
	if err != nil {
		return fmt.Errorf("failed to decode README: %w", err)
	}

	rs.Add(signal.KindProfileReadme, content.GetHTMLURL(), collector.Medium)

	readmeRecords := collector.NewRecords(readmeSrc)
	readmeRecords.Now = rs.Now
	for _, link := range ProfileLinks(text) {
		readmeRecords.Add(signal.KindProfilePlatform, link, collector.Medium).Evidence = content.GetHTMLURL()
	}
	if p := Pronouns(text); p != "" {
		readmeRecords.Add(signal.KindPronouns, p, collector.Medium).Evidence = content.GetHTMLURL()
	}
	rs.Merge(readmeRecords)
	return nil
}

func (c *Collector) repositories(ctx context.Context, login string) ([]*github.Repository, error) {
	var repos []*github.Repository
	opts := &github.RepositoryListOptions{
		Type:        "owner",
		Sort:        "pushed",
		ListOptions: github.ListOptions{PerPage: min(perPage, c.maxRepos)},
	}
	for {
		page, resp, err := c.client.Repositories.List(ctx, login, opts)
		if err != nil {
			return repos, classify(err)
		}
		repos = append(repos, page...)
		if len(repos) >= c.maxRepos {
			return repos[:c.maxRepos], nil
		}
		if resp == nil || resp.NextPage == 0 {
			return repos, nil
		}
		opts.Page = resp.NextPage
	}
}

func (c *Collector) repoSignals(rs *collector.Records, repos []*github.Repository) {
	languages := make(map[string]int)
	now := c.now()

	for _, repo := range repos {
		if repo.GetFork() {
			continue
		}
		name := repo.GetName()
		lang := config.SetThen(repo.GetLanguage(), "Unknown")
		languages[lang]++

		pushed := repo.GetPushedAt().Time
		if pushed.IsZero() {
			pushed = repo.GetUpdatedAt().Time
		}
		summary := fmt.Sprintf("%s | Stars: %d | Lang: %s | Last Updated: %s",
			name, repo.GetStargazersCount(), lang, formatDate(pushed))
		rec := rs.Add(signal.KindRepoSummary, summary, collector.High)
		rec.Evidence = repo.GetHTMLURL()
		rec.Meta = map[string]any{"repo": name, "stars": repo.GetStargazersCount(), "language": lang}

		if !pushed.IsZero() && now.Sub(pushed) > c.inactiveAfter {
			days := int(now.Sub(pushed) / dayDuration)
			inactive := rs.Add(signal.KindRepoInactive, fmt.Sprintf("%s inactive for %d days", name, days), collector.Medium)
			inactive.Meta = map[string]any{"repo": name, "days": days}
		}
	}

	if profile := LanguageProfile(languages); profile != "" {
		rs.Add(signal.KindLanguageProfile, profile, collector.High)
	}
}

// commitActivity aggregates the dates of the user's own commits across repositories.
func (c *Collector) commitActivity(ctx context.Context, rs *collector.Records, login string, repos []*github.Repository) {
	activity := collector.NewActivity()
	emails := make(map[string]int)

	for _, repo := range repos {
		if activity.Total() >= c.maxCommits || ctx.Err() != nil {
			break
		}
		opts := &github.CommitsListOptions{
			Author:      login,
			ListOptions: github.ListOptions{PerPage: min(perPage, c.maxCommits-activity.Total())},
		}
		commits, _, err := c.client.Repositories.ListCommits(ctx, login, repo.GetName(), opts)
		if err != nil {
			c.logger.Debug("failed to list commits", "repo", repo.GetName(), "error", err)
			continue
		}
		for _, rc := range commits {
			author := rc.GetCommit().GetAuthor()
			activity.Add(commitTime(author.GetDate()))
			if email := author.GetEmail(); email != "" {
				emails[strings.ToLower(email)]++
			}
		}
	}

	commitRecords := collector.NewRecords(commitsSrc)
	commitRecords.Now = rs.Now
	activity.Emit(commitRecords)
	for _, email := range sortedKeys(emails) {
		commitRecords.Add(signal.KindEmail, email, collector.EmailConfidence(email)).Evidence = "commit author"
	}
	rs.Merge(commitRecords)
}

// classify maps go-github errors onto the collector sentinels.
func classify(err error) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if stderrors.As(err, &rateErr) || stderrors.As(err, &abuseErr) {
		return fmt.Errorf("%w: %v", errors.ErrRateLimited, err)
	}
	var respErr *github.ErrorResponse
	if stderrors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", errors.ErrNotFound, err)
	}
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package gitlab

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/xanzy/go-gitlab"

	"github.com/scan-io-git/identity-leak/internal/collector"
	"github.com/scan-io-git/identity-leak/internal/config"
	"github.com/scan-io-git/identity-leak/internal/errors"
	"github.com/scan-io-git/identity-leak/internal/httpclient"
	"github.com/scan-io-git/identity-leak/pkg/signal"
)

const (
	Name    = "gitlab"
	source  = "GitLab"
	perPage = 100
)

// Collector reads a public GitLab profile and the projects it owns.
type Collector struct {
	client        *gitlab.Client
	logger        hclog.Logger
	maxProjects   int
	inactiveAfter time.Duration
	now           func() time.Time
}

// New creates a GitLab collector. The token is optional for public profiles.
func New(cfg *config.Config, logger hclog.Logger) (*Collector, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	baseURL := config.SetThen(cfg.Collectors.Gitlab.BaseURL, config.DefaultGitlabBaseURL)

	client, err := gitlab.NewClient(cfg.Collectors.Gitlab.Token,
		gitlab.WithBaseURL(baseURL),
		gitlab.WithHTTPClient(httpclient.NewHTTPClient(cfg)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client: %w", err)
	}
	client.UserAgent = config.GetUserAgent(cfg)

	gh := cfg.Collectors.Github
	return &Collector{
		client:        client,
		logger:        logger,
		maxProjects:   config.SetThen(gh.MaxRepos, config.DefaultMaxRepos),
		inactiveAfter: time.Duration(config.SetThen(gh.InactiveAfterDays, config.DefaultInactiveAfterDays)) * 24 * time.Hour,
		now:           time.Now,
	}, nil
}

func (c *Collector) Name() string { return Name }

func (c *Collector) Collect(ctx context.Context, username string) ([]signal.Raw, error) {
	users, _, err := c.client.Users.ListUsers(&gitlab.ListUsersOptions{Username: &username}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: gitlab user %q", errors.ErrNotFound, username)
	}
	user := users[0]

	rs := collector.NewRecords(source)
	profile(rs, user)

	if err := c.projects(ctx, rs, user.ID); err != nil {
		c.logger.Warn("failed to list projects", "user", user.Username, "error", err)
	}
	return rs.Raw(), nil
}

func profile(rs *collector.Records, u *gitlab.User) {
	rec := rs.Add(signal.KindUsername, u.Username, collector.High)
	if u.CreatedAt != nil {
		rec.Meta = map[string]any{"account_created": u.CreatedAt.UTC().Format("2006-01-02")}
	}
	rs.Add(signal.KindName, u.Name, collector.High)
	rs.Add(signal.KindImage, u.AvatarURL, collector.High)
	rs.Add(signal.KindEmail, u.PublicEmail, collector.High)
	rs.Add(signal.KindBio, strings.TrimSpace(u.Bio), collector.Medium)
	rs.Add(signal.KindLocation, u.Location, collector.Medium)
	rs.Add(signal.KindCompany, u.Organization, collector.Medium)
	rs.Add(signal.KindURL, u.WebsiteURL, collector.Medium)
	rs.Add(signal.KindProfileLink, u.WebURL, collector.High)

	if u.Twitter != "" {
		rs.Add(signal.KindProfileLink, "https://twitter.com/"+strings.TrimPrefix(u.Twitter, "@"), collector.High).Evidence = "twitter"
	}
	if u.Linkedin != "" {
		rs.Add(signal.KindProfileLink, "https://www.linkedin.com/in/"+u.Linkedin, collector.High).Evidence = "linkedin"
	}
}

func (c *Collector) projects(ctx context.Context, rs *collector.Records, uid int) error {
	owned := true
	orderBy := "last_activity_at"
	opts := &gitlab.ListProjectsOptions{
		ListOptions: gitlab.ListOptions{PerPage: min(perPage, c.maxProjects)},
		Owned:       &owned,
		OrderBy:     &orderBy,
	}

	count := 0
	now := c.now()
	for {
		page, resp, err := c.client.Projects.ListUserProjects(uid, opts, gitlab.WithContext(ctx))
		if err != nil {
			return classify(err)
		}
		for _, p := range page {
			if p.ForkedFromProject != nil {
				continue
			}
			if count >= c.maxProjects {
				return nil
			}
			count++

			var updated time.Time
			if p.LastActivityAt != nil {
				updated = *p.LastActivityAt
			}
			date := "unknown"
			if !updated.IsZero() {
				date = updated.UTC().Format("2006-01-02")
			}
			summary := fmt.Sprintf("%s | Stars: %d | Lang: Unknown | Last Updated: %s", p.Path, p.StarCount, date)
			rec := rs.Add(signal.KindRepoSummary, summary, collector.High)
			rec.Evidence = p.WebURL
			rec.Meta = map[string]any{"repo": p.Path, "stars": p.StarCount}

			if !updated.IsZero() && now.Sub(updated) > c.inactiveAfter {
				days := int(now.Sub(updated).Hours() / 24)
				inactive := rs.Add(signal.KindRepoInactive, fmt.Sprintf("%s inactive for %d days", p.Path, days), collector.Medium)
				inactive.Meta = map[string]any{"repo": p.Path, "days": days}
			}
		}
		if resp == nil || resp.NextPage == 0 {
			return nil
		}
		opts.Page = resp.NextPage
	}
}

func classify(err error) error {
	var respErr *gitlab.ErrorResponse
	if stderrors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", errors.ErrNotFound, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", errors.ErrRateLimited, err)
		}
	}
	return err
}

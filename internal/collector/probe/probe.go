package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/identity-leak/internal/collector"
	"github.com/scan-io-git/identity-leak/internal/config"
	"github.com/scan-io-git/identity-leak/internal/errors"
	"github.com/scan-io-git/identity-leak/pkg/signal"
)

const (
	redditName     = "reddit"
	redditAbout    = "/about.json"
	redditPosts    = "/submitted.json"
	maxPosts       = 25
	postConfidence = 0.7
)

// Collector checks whether a profile page exists for the username on one platform.
type Collector struct {
	name     string
	template string
	source   string
	client   *resty.Client
	logger   hclog.Logger
}

// New creates a probe for the URL template, which holds one %s for the username.
func New(name, template string, client *resty.Client, logger hclog.Logger) *Collector {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Collector{
		name:     name,
		template: template,
		source:   sourceName(name),
		client:   client,
		logger:   logger,
	}
}

// FromConfig creates one probe per configured template, ordered by name.
func FromConfig(client *resty.Client, cfg *config.Config, logger hclog.Logger) []*Collector {
	templates := config.GetProbeTemplates(cfg)
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	probes := make([]*Collector, 0, len(names))
	for _, name := range names {
		probes = append(probes, New(name, templates[name], client, logger))
	}
	return probes
}

func (c *Collector) Name() string { return c.name }

// Collect fails with ErrNotFound when the platform has no such profile.
func (c *Collector) Collect(ctx context.Context, username string) ([]signal.Raw, error) {
	target := fmt.Sprintf(c.template, url.PathEscape(username))

	resp, err := c.client.R().SetContext(ctx).Get(target)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", target, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	rs := collector.NewRecords(c.source)
	rs.Add(signal.KindProfilePlatform, target, collector.Medium).Evidence = fmt.Sprintf("HTTP %d", resp.StatusCode())

	if c.name == redditName && strings.HasSuffix(c.template, redditAbout) {
		c.reddit(ctx, rs, resp.Body(), username)
	}
	return rs.Raw(), nil
}

func checkStatus(resp *resty.Response) error {
	switch code := resp.StatusCode(); {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return fmt.Errorf("%w: %s returned %d", errors.ErrNotFound, resp.Request.URL, code)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s returned %d", errors.ErrRateLimited, resp.Request.URL, code)
	default:
		return fmt.Errorf("unexpected status %d from %s", code, resp.Request.URL)
	}
}

type redditAboutResponse struct {
	Data struct {
		Name       string  `json:"name"`
		IconImg    string  `json:"icon_img"`
		CreatedUTC float64 `json:"created_utc"`
	} `json:"data"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Permalink  string  `json:"permalink"`
	Subreddit  string  `json:"subreddit"`
	CreatedUTC float64 `json:"created_utc"`
}

// reddit enriches a found profile with its avatar and recent submissions.
func (c *Collector) reddit(ctx context.Context, rs *collector.Records, about []byte, username string) {
	var info redditAboutResponse
	if err := json.Unmarshal(about, &info); err == nil {
		if icon := strings.SplitN(info.Data.IconImg, "?", 2)[0]; icon != "" {
			rs.Add(signal.KindImage, icon, collector.Medium)
		}
	}

	profileURL := strings.TrimSuffix(fmt.Sprintf(c.template, url.PathEscape(username)), redditAbout)
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("limit", fmt.Sprint(maxPosts)).
		Get(profileURL + redditPosts)
	if err == nil {
		err = checkStatus(resp)
	}
	if err != nil {
		c.logger.Debug("failed to read reddit submissions", "user", username, "error", err)
		return
	}

	var listing redditListing
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		c.logger.Debug("unexpected reddit listing", "user", username, "error", err)
		return
	}

	origin := originOf(profileURL)
	posts := 0
	for _, child := range listing.Data.Children {
		post := child.Data
		content := strings.TrimSpace(post.Title)
		if content == "" {
			content = strings.TrimSpace(post.Selftext)
		}
		if content == "" {
			continue
		}
		rec := rs.Add(signal.KindPost, content, postConfidence)
		if post.Permalink != "" {
			rec.Evidence = origin + post.Permalink
		}
		if post.CreatedUTC > 0 {
			rec.ObservedAt = time.Unix(int64(post.CreatedUTC), 0).UTC()
		}
		if post.Subreddit != "" {
			rec.Meta = map[string]any{"subreddit": post.Subreddit}
		}
		posts++
	}
	if posts > 0 {
		rs.Add(signal.KindPostPlatform, profileURL, collector.Medium).Meta = map[string]any{"posts": posts}
	}
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

var sourceNames = map[string]string{
	"reddit":   "Reddit",
	"x":        "X",
	"linkedin": "LinkedIn",
	"devto":    "DEV Community",
}

func sourceName(name string) string {
	if s, ok := sourceNames[name]; ok {
		return s
	}
	return name
}

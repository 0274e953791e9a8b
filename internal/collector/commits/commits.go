package commits

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gitsight/go-vcsurl"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/identity-leak/internal/collector"
	"github.com/scan-io-git/identity-leak/internal/config"
	"github.com/scan-io-git/identity-leak/internal/errors"
	"github.com/scan-io-git/identity-leak/pkg/signal"
)

const (
	Name   = "commits"
	source = "git history"
)

// Collector reads author metadata from the history of one git repository. The repository is
// either a local path or a remote URL, which is cloned into memory.
type Collector struct {
	repository  string
	maxCommits  int
	insecureTLS bool
	logger      hclog.Logger
}

// New creates a commits collector for cfg.Collectors.Commits.Repository.
func New(cfg *config.Config, logger hclog.Logger) *Collector {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	commits := cfg.Collectors.Commits
	return &Collector{
		repository:  commits.Repository,
		maxCommits:  config.SetThen(commits.MaxCommits, config.DefaultMaxCommits),
		insecureTLS: !config.GetBoolValue(cfg.HTTPClient.TLSClientConfig, "Verify", true),
		logger:      logger,
	}
}

func (c *Collector) Name() string { return Name }

type author struct {
	name    string
	commits int
}

func (c *Collector) Collect(ctx context.Context, target string) ([]signal.Raw, error) {
	if c.repository == "" {
		return nil, errors.ErrNoRepository
	}
	repo, err := c.open(ctx)
	if err != nil {
		return nil, err
	}

	iter, err := repo.Log(&git.LogOptions{Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("failed to read history of %s: %w", c.repository, err)
	}
	defer iter.Close()

	names := make(map[string]*author)
	emails := make(map[string]int)
	zones := make(map[string]int)
	activity := collector.NewActivity()

	seen := 0
	err = iter.ForEach(func(commit *object.Commit) error {
		if seen >= c.maxCommits {
			return storer.ErrStop
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		seen++

		sig := commit.Author
		if name := strings.TrimSpace(sig.Name); name != "" {
			key := strings.ToLower(name)
			if names[key] == nil {
				names[key] = &author{name: name}
			}
			names[key].commits++
		}
		if email := strings.ToLower(strings.TrimSpace(sig.Email)); email != "" {
			emails[email]++
		}
		zones[zoneLabel(sig.When)]++
		activity.Add(sig.When)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk history of %s: %w", c.repository, err)
	}
	c.logger.Debug("history read", "repository", c.repository, "commits", seen, "authors", len(names))

	rs := collector.NewRecords(source)
	evidence := c.repository

	authorKeys := make([]string, 0, len(names))
	for k := range names {
		authorKeys = append(authorKeys, k)
	}
	sort.Strings(authorKeys)
	for _, k := range authorKeys {
		a := names[k]
		if strings.EqualFold(a.name, target) {
			continue
		}
		confidence := collector.Low
		if a.commits > 1 {
			confidence = collector.High
		}
		rec := rs.Add(signal.KindName, a.name, confidence)
		rec.Evidence = evidence
		rec.Meta = map[string]any{"commits": a.commits}
	}

	for _, email := range sortedKeys(emails) {
		rec := rs.Add(signal.KindEmail, email, collector.EmailConfidence(email))
		rec.Evidence = evidence
		rec.Meta = map[string]any{"commits": emails[email]}
	}
	for _, zone := range sortedKeys(zones) {
		rs.Add(signal.KindTimezone, zone, collector.Medium).Meta = map[string]any{"commits": zones[zone]}
	}
	activity.Emit(rs)

	return rs.Raw(), nil
}

func (c *Collector) open(ctx context.Context) (*git.Repository, error) {
	if isRemote(c.repository) {
		info, err := vcsurl.Parse(c.repository)
		if err != nil {
			return nil, fmt.Errorf("failed to parse VCS URL %q: %w", c.repository, err)
		}
		c.logger.Debug("cloning repository into memory", "repository", info.FullName, "host", info.Host)
		repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, &git.CloneOptions{
			URL:             c.repository,
			InsecureSkipTLS: c.insecureTLS,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to clone %s: %w", c.repository, err)
		}
		return repo, nil
	}

	repo, err := git.PlainOpenWithOptions(c.repository, &git.PlainOpenOptions{DetectDotGit: true})
	if stderrors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s is not a git repository", errors.ErrNotFound, c.repository)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %s: %w", c.repository, err)
	}
	return repo, nil
}

func isRemote(repository string) bool {
	return strings.Contains(repository, "://") || strings.HasPrefix(repository, "git@")
}

// zoneLabel renders the UTC offset of t, e.g. "UTC+02:00".
func zoneLabel(t time.Time) string {
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, offset/3600, offset%3600/60)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

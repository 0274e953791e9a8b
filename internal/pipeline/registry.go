package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/identity-leak/internal/collector"
	"github.com/scan-io-git/identity-leak/internal/collector/commits"
	"github.com/scan-io-git/identity-leak/internal/collector/file"
	"github.com/scan-io-git/identity-leak/internal/collector/github"
	"github.com/scan-io-git/identity-leak/internal/collector/gitlab"
	"github.com/scan-io-git/identity-leak/internal/collector/probe"
	"github.com/scan-io-git/identity-leak/internal/config"
	"github.com/scan-io-git/identity-leak/internal/httpclient"
)

// Entry describes one collector known to the registry.
type Entry struct {
	Name    string
	Enabled bool
	// Reason explains why an entry is disabled.
	Reason string
	build  func() (collector.Collector, error)
}

// Build creates the collector.
func (e Entry) Build() (collector.Collector, error) {
	return e.build()
}

// Registry lists every collector in registration order. Enabled reflects what runs when no
// explicit selection is given.
func Registry(cfg *config.Config, opts Options, logger hclog.Logger) []Entry {
	if cfg == nil {
		cfg = &config.Config{}
	}
	named := func(name string) hclog.Logger {
		if logger == nil {
			return nil
		}
		return logger.Named("collector-" + name)
	}

	entries := []Entry{
		{Name: github.Name, build: func() (collector.Collector, error) { return github.New(cfg, named(github.Name)) }},
		{Name: gitlab.Name, build: func() (collector.Collector, error) { return gitlab.New(cfg, named(gitlab.Name)) }},
	}

	probeLogger := named("probe")
	client := httpclient.InitializeRestyClient(probeLogger, cfg)
	for _, p := range probe.FromConfig(client, cfg, probeLogger) {
		p := p
		entries = append(entries, Entry{Name: p.Name(), build: func() (collector.Collector, error) { return p, nil }})
	}

	commitsCfg := *cfg
	if opts.Repository != "" {
		commitsCfg.Collectors.Commits.Repository = opts.Repository
	}
	entries = append(entries, Entry{
		Name:  commits.Name,
		build: func() (collector.Collector, error) { return commits.New(&commitsCfg, named(commits.Name)), nil },
	})
	entries = append(entries, Entry{
		Name:  file.Name,
		build: func() (collector.Collector, error) { return file.New(opts.InputFile, named(file.Name)), nil },
	})

	enabled := make(map[string]bool, len(cfg.Collectors.Enabled))
	for _, name := range cfg.Collectors.Enabled {
		enabled[strings.ToLower(name)] = true
	}
	for i := range entries {
		e := &entries[i]
		switch {
		case e.Name == file.Name && opts.InputFile == "":
			e.Reason = "no input file given"
		case e.Name == commits.Name && commitsCfg.Collectors.Commits.Repository == "":
			e.Reason = "no repository configured"
		case opts.InputFile != "" && e.Name != file.Name:
			e.Reason = "offline run from input file"
		case len(enabled) > 0 && !enabled[e.Name] && e.Name != file.Name:
			e.Reason = "not listed in collectors.enabled"
		default:
			e.Enabled = true
		}
	}
	return entries
}

// Select builds the collectors to run. An empty selection runs every enabled entry.
// Explicitly selected collectors run even when disabled by default, except those
// missing their input.
func Select(entries []Entry, names []string) ([]collector.Collector, error) {
	byName := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}

	var chosen []Entry
	if len(names) == 0 {
		for _, e := range entries {
			if e.Enabled {
				chosen = append(chosen, e)
			}
		}
	} else {
		seen := make(map[string]bool)
		var unknown []string
		for _, raw := range names {
			name := strings.ToLower(strings.TrimSpace(raw))
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			e, ok := byName[name]
			if !ok {
				unknown = append(unknown, name)
				continue
			}
			if !e.Enabled && (e.Name == file.Name || e.Name == commits.Name) {
				return nil, fmt.Errorf("%w: %s: %s", ErrUnavailableCollector, e.Name, e.Reason)
			}
			chosen = append(chosen, e)
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return nil, fmt.Errorf("%w: %s (available: %s)", ErrUnknownCollector, strings.Join(unknown, ", "), strings.Join(Names(entries), ", "))
		}
	}

	if len(chosen) == 0 {
		return nil, ErrNoCollectors
	}

	collectors := make([]collector.Collector, 0, len(chosen))
	for _, e := range chosen {
		c, err := e.Build()
		if err != nil {
			return nil, fmt.Errorf("failed to create collector %s: %w", e.Name, err)
		}
		collectors = append(collectors, c)
	}
	return collectors, nil
}

// Names returns the entry names in registration order.
func Names(entries []Entry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

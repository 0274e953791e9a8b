package profileurl

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	vcsurl "github.com/gitsight/go-vcsurl"
)

// Platform is a service a profile URL can point to.
type Platform int

const (
	UnknownPlatform Platform = iota
	Github
	Gitlab
	Bitbucket
	X
	Reddit
	Linkedin
	DevTo
	StackOverflow
)

var platformNames = map[Platform]string{
	UnknownPlatform: "unknown",
	Github:          "github",
	Gitlab:          "gitlab",
	Bitbucket:       "bitbucket",
	X:               "x",
	Reddit:          "reddit",
	Linkedin:        "linkedin",
	DevTo:           "devto",
	StackOverflow:   "stackoverflow",
}

// String returns the lower-case platform name.
func (p Platform) String() string {
	return platformNames[p]
}

// ProfileURL is a parsed link to an account on a known platform.
type ProfileURL struct {
	Platform  Platform
	Handle    string // account name as it appears in the URL
	Project   string // repository name for links into a repository
	ParsedURL *url.URL
	Raw       string
}

var validSchemes = []string{"http", "https"}

var schemeless = regexp.MustCompile(`^[a-zA-Z0-9.-]+\.[a-z]{2,}(/|$)`)

// reserved path segments that never name an account.
var reserved = map[string]bool{
	"about": true, "explore": true, "features": true, "home": true, "login": true, "orgs": true,
	"search": true, "settings": true, "share": true, "topics": true, "i": true, "intent": true,
}

func isValidScheme(scheme string) bool {
	for _, s := range validSchemes {
		if s == scheme {
			return true
		}
	}
	return false
}

// determinePlatform determines the platform based on the hostname.
func determinePlatform(host string) Platform {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	host = strings.TrimPrefix(host, "m.")
	switch {
	case strings.Contains(host, "github"):
		return Github
	case strings.Contains(host, "gitlab"):
		return Gitlab
	case strings.Contains(host, "bitbucket"):
		return Bitbucket
	case host == "twitter.com" || host == "x.com" || strings.Contains(host, "nitter"):
		return X
	case strings.HasSuffix(host, "reddit.com"):
		return Reddit
	case strings.HasSuffix(host, "linkedin.com"):
		return Linkedin
	case host == "dev.to":
		return DevTo
	case strings.HasSuffix(host, "stackoverflow.com"):
		return StackOverflow
	default:
		return UnknownPlatform
	}
}

// getPathDirs splits the URL path into non-empty segments.
func getPathDirs(path string) []string {
	var dirs []string
	for _, dir := range strings.Split(path, "/") {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// Parse parses a profile link. URLs without a scheme are read as https.
// Links to known hosts without an account segment return an error.
func Parse(raw string) (*ProfileURL, error) {
	candidate := strings.TrimSpace(raw)
	if schemeless.MatchString(candidate) {
		candidate = "https://" + candidate
	}

	parsedURL, err := url.ParseRequestURI(candidate)
	if err != nil {
		return nil, err
	}
	if !isValidScheme(parsedURL.Scheme) {
		return nil, fmt.Errorf("invalid scheme: %q", raw)
	}

	p := &ProfileURL{
		Platform:  determinePlatform(parsedURL.Hostname()),
		ParsedURL: parsedURL,
		Raw:       raw,
	}
	dirs := getPathDirs(parsedURL.Path)

	switch p.Platform {
	case Github, Gitlab, Bitbucket:
		err = parseVCS(p, dirs)
	case Reddit:
		err = parsePrefixed(p, dirs, "user", "u")
	case Linkedin:
		err = parsePrefixed(p, dirs, "in")
	case StackOverflow:
		// https://stackoverflow.com/users/<id>/<display-name>
		if len(dirs) >= 3 && dirs[0] == "users" {
			p.Handle = dirs[2]
		} else {
			err = fmt.Errorf("invalid StackOverflow profile URL: %q", raw)
		}
	case X, DevTo:
		err = parseFirstSegment(p, dirs)
	default:
		err = fmt.Errorf("unknown profile host: %q", parsedURL.Hostname())
	}
	if err != nil {
		return nil, err
	}
	p.Handle = strings.TrimPrefix(p.Handle, "@")
	return p, nil
}

// parseVCS handles code hosting links. Repository links are resolved with
// go-vcsurl so that clone URLs and tree links reduce to the owner.
func parseVCS(p *ProfileURL, dirs []string) error {
	switch {
	case len(dirs) == 0:
		return fmt.Errorf("no account in URL: %q", p.Raw)
	case len(dirs) == 1:
		return parseFirstSegment(p, dirs)
	}

	info, err := vcsurl.Parse(p.ParsedURL.String())
	if err != nil || info.Username == "" {
		// Bitbucket server style or subgroup links: the first segment is still the owner.
		return parseFirstSegment(p, dirs)
	}
	p.Handle = info.Username
	p.Project = info.Name
	return nil
}

func parsePrefixed(p *ProfileURL, dirs []string, prefixes ...string) error {
	if len(dirs) >= 2 {
		for _, prefix := range prefixes {
			if dirs[0] == prefix {
				p.Handle = dirs[1]
				return nil
			}
		}
	}
	return fmt.Errorf("invalid %s profile URL: %q", p.Platform, p.Raw)
}

func parseFirstSegment(p *ProfileURL, dirs []string) error {
	if len(dirs) == 0 || reserved[strings.ToLower(dirs[0])] {
		return fmt.Errorf("no account in URL: %q", p.Raw)
	}
	p.Handle = dirs[0]
	return nil
}

// Handle returns the lower-cased account name a link points to, or "".
func Handle(raw string) string {
	p, err := Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(p.Handle)
}

// IsProfileLink reports whether raw links to an account on a known platform.
func IsProfileLink(raw string) bool {
	_, err := Parse(raw)
	return err == nil
}

package ol

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultUserAgent identifies this client to Open Library.
const DefaultUserAgent = "MyBooks/1.0 (+https://openlibrary.org/people/mekBot)"

type robotsRule struct {
	prefix string
	allow  bool
}

// RobotsRules holds the Allow/Disallow rules of the group that applies to us.
// The longest matching prefix wins; on a tie Allow wins.
type RobotsRules struct {
	rules []robotsRule
}

// Allowed reports whether path may be fetched. Nil rules allow everything.
func (r *RobotsRules) Allowed(path string) bool {
	if r == nil || len(r.rules) == 0 {
		return true
	}
	path = normalizePath(path)
	best := -1
	allowed := true
	for _, rule := range r.rules {
		if !strings.HasPrefix(path, rule.prefix) {
			continue
		}
		if n := len(rule.prefix); n > best || (n == best && rule.allow) {
			best = n
			allowed = rule.allow
		}
	}
	return allowed
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		return "/" + p
	}
	return p
}

// FetchRobots downloads robots.txt from the host of baseURL.
func FetchRobots(ctx context.Context, client *http.Client, baseURL string) ([]byte, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = "/robots.txt"
	u.RawQuery = ""
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: u.String()}
	}
	return io.ReadAll(resp.Body)
}

// ParseRobots returns the rules of the first group naming userAgent, or of the
// "*" group when no group names it. Consecutive User-agent lines share a group.
func ParseRobots(body []byte, userAgent string) *RobotsRules {
	product := strings.ToLower(strings.SplitN(userAgent, "/", 2)[0])

	var (
		named, wildcard  *RobotsRules
		current          []*RobotsRules
		lastWasUserAgent bool
	)
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		field, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		field = strings.ToLower(strings.TrimSpace(field))
		value = strings.TrimSpace(value)

		switch field {
		case "user-agent":
			if !lastWasUserAgent {
				current = nil
			}
			lastWasUserAgent = true
			agent := strings.ToLower(value)
			switch {
			case agent == "*" && wildcard == nil:
				wildcard = &RobotsRules{}
				current = append(current, wildcard)
			case agent != "*" && agent == product && named == nil:
				named = &RobotsRules{}
				current = append(current, named)
			}
		case "allow", "disallow":
			lastWasUserAgent = false
			if value == "" {
				continue
			}
			for _, group := range current {
				group.rules = append(group.rules, robotsRule{prefix: normalizePath(value), allow: field == "allow"})
			}
		default:
			lastWasUserAgent = false
		}
	}
	if named != nil {
		return named
	}
	if wildcard != nil {
		return wildcard
	}
	return &RobotsRules{}
}

// PathFromURL returns the path component of rawURL, or "/" when it has none.
func PathFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "/"
	}
	return normalizePath(u.Path)
}

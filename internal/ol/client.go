package ol

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"mybooks/internal/models"
)

const (
	// DefaultBaseURL is the public Open Library host.
	DefaultBaseURL = "https://openlibrary.org"
	// DefaultUser is the reading-log owner whose shelves are listed.
	DefaultUser = "mekBot"
	// DefaultPageSize is the limit used when the caller passes none.
	DefaultPageSize = 10
)

// StatusError is returned for non-2xx catalog responses.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// RateLimited reports whether the catalog answered 429.
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Client fetches reading-log pages from Open Library.
type Client struct {
	http          *http.Client
	baseURL       string
	user          string
	respectRobots bool
	log           zerolog.Logger

	robotsOnce sync.Once
	robots     *RobotsRules
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the transport used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithBaseURL points the client at another host (tests, mirrors).
func WithBaseURL(base string) Option {
	return func(cl *Client) { cl.baseURL = strings.TrimRight(base, "/") }
}

// WithUser selects whose reading log is listed.
func WithUser(user string) Option {
	return func(cl *Client) { cl.user = user }
}

// WithRobots makes the client honour the host's robots.txt.
func WithRobots(respect bool) Option {
	return func(cl *Client) { cl.respectRobots = respect }
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(cl *Client) { cl.log = log }
}

// NewClient builds a Client with Open Library defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:    http.DefaultClient,
		baseURL: DefaultBaseURL,
		user:    DefaultUser,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReadingLogURL builds the shelf URL for category. Non-positive limit and page
// fall back to DefaultPageSize and 1.
func ReadingLogURL(base, user string, category models.ListCategory, limit, page int) string {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("page", strconv.Itoa(page))
	return fmt.Sprintf("%s/people/%s/books/%s.json?%s",
		strings.TrimRight(base, "/"), url.PathEscape(user), string(category), q.Encode())
}

// FetchPage retrieves one page of category and maps it to a BookPage.
func (c *Client) FetchPage(ctx context.Context, category models.ListCategory, limit, page int) (models.BookPage, error) {
	if !category.Valid() {
		return models.BookPage{}, fmt.Errorf("unknown list category %q", category)
	}
	target := ReadingLogURL(c.baseURL, c.user, category, limit, page)

	if c.respectRobots {
		path := PathFromURL(target)
		if !c.loadRobots(ctx).Allowed(path) {
			return models.BookPage{}, fmt.Errorf("robots.txt disallows path %s", path)
		}
	}

	body, err := FetchJSONWithClient(ctx, c.http, target)
	if err != nil {
		return models.BookPage{}, err
	}
	result, err := ParseReadingLog(body)
	if err != nil {
		return models.BookPage{}, fmt.Errorf("decode %s: %w", category, err)
	}
	c.log.Debug().
		Str("category", string(category)).
		Int("page", page).
		Int("books", len(result.Books)).
		Int("total", result.TotalCount).
		Msg("catalog page fetched")
	return result, nil
}

// loadRobots fetches robots.txt once. A failed fetch allows every path.
func (c *Client) loadRobots(ctx context.Context) *RobotsRules {
	c.robotsOnce.Do(func() {
		body, err := FetchRobots(ctx, c.http, c.baseURL)
		if err != nil {
			c.log.Warn().Err(err).Msg("robots.txt fetch failed, allowing all paths")
			return
		}
		c.robots = ParseRobots(body, DefaultUserAgent)
	})
	return c.robots
}

// FetchJSONWithClient retrieves the raw JSON at url with the given HTTP client.
// Non-2xx responses yield a *StatusError.
func FetchJSONWithClient(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}
	return io.ReadAll(resp.Body)
}

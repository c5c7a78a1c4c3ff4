package ol

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseRobots_Allowed(t *testing.T) {
	body := `
User-agent: *
Disallow: /api
Disallow: /edit
Disallow: /search
Allow: /search/inside

User-agent: Googlebot
Crawl-delay: 10
Disallow: /people
`
	r := ParseRobots([]byte(body), DefaultUserAgent)

	for _, path := range []string{"/people/mekBot/books/want-to-read.json", "/works/OL1W.json", "/search/inside/x"} {
		if !r.Allowed(path) {
			t.Errorf("expected path %q to be allowed", path)
		}
	}
	for _, path := range []string{"/search", "/search.json", "/api/books", "/edit"} {
		if r.Allowed(path) {
			t.Errorf("expected path %q to be disallowed", path)
		}
	}
}

func TestParseRobots_NamedGroupWins(t *testing.T) {
	body := `
User-agent: *
Disallow: /

User-agent: MyBooks
Disallow: /admin
`
	r := ParseRobots([]byte(body), DefaultUserAgent)
	if !r.Allowed("/people/mekBot/books/already-read.json") {
		t.Error("named group should override the wildcard group")
	}
	if r.Allowed("/admin/x") {
		t.Error("expected /admin to be disallowed for the named group")
	}
}

func TestParseRobots_NilEmptyAllowed(t *testing.T) {
	var r *RobotsRules
	if !r.Allowed("/anything") {
		t.Error("nil rules should allow all")
	}
	empty := ParseRobots([]byte("User-agent: *\n"), DefaultUserAgent)
	if !empty.Allowed("/search") {
		t.Error("empty rule list should allow all")
	}
}

func TestPathFromURL(t *testing.T) {
	if got := PathFromURL("https://openlibrary.org/people/mekBot/books/want-to-read.json?limit=10"); got != "/people/mekBot/books/want-to-read.json" {
		t.Errorf("PathFromURL = %q", got)
	}
	if got := PathFromURL(""); got != "/" {
		t.Errorf("PathFromURL empty = %q", got)
	}
}

func TestFetchRobotsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := FetchRobots(context.Background(), server.Client(), server.URL)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
}

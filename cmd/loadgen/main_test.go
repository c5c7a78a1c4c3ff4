package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mybooks/internal/logger"
	"mybooks/internal/models"
)

// fakeAPI answers like the session api: every session has 25 books and each
// load_more_books intent advances it by one page.
type fakeAPI struct {
	mu       sync.Mutex
	pages    map[string]int
	intents  int
	deletes  int
	creates  int
	failOpen bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{pages: make(map[string]int)}
}

func (f *fakeAPI) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.Trim(req.URL.Path, "/")
	parts := strings.Split(path, "/")
	switch {
	case req.Method == http.MethodPost && path == "sessions":
		if f.failOpen {
			return respond(http.StatusServiceUnavailable, nil), nil
		}
		f.creates++
		id := "s" + string(rune('0'+f.creates))
		f.pages[id] = 1
		return respond(http.StatusCreated, f.payload(id)), nil
	case req.Method == http.MethodGet && len(parts) == 2:
		if _, ok := f.pages[parts[1]]; !ok {
			return respond(http.StatusNotFound, nil), nil
		}
		return respond(http.StatusOK, f.payload(parts[1])), nil
	case req.Method == http.MethodPost && len(parts) == 3 && parts[2] == "intents":
		f.intents++
		f.pages[parts[1]]++
		return respond(http.StatusAccepted, f.payload(parts[1])), nil
	case req.Method == http.MethodDelete && len(parts) == 2:
		f.deletes++
		return respond(http.StatusNoContent, nil), nil
	}
	return respond(http.StatusNotFound, nil), nil
}

func (f *fakeAPI) payload(id string) any {
	p := f.pages[id]
	return sessionPayload{ID: id, State: models.ListState{
		Books:       make([]models.Book, min(p*10, 25)),
		CurrentPage: p,
		TotalCount:  25,
		HasMoreData: p*10 < 25,
	}}
}

func respond(status int, payload any) *http.Response {
	body := io.NopCloser(strings.NewReader(""))
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = io.NopCloser(strings.NewReader(string(data)))
	}
	return &http.Response{StatusCode: status, Body: body, Header: make(http.Header)}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
		pages   int
	}{
		{"valid", write("valid.json", `{"categories":["want-to-read","already_read"],"pages":3}`), false, 3},
		{"default pages", write("nopages.json", `{"categories":["currently-reading"]}`), false, 1},
		{"missing", filepath.Join(dir, "missing.json"), true, 0},
		{"empty categories", write("empty.json", `{"categories":[]}`), true, 0},
		{"unknown category", write("unknown.json", `{"categories":["wishlist"]}`), true, 0},
		{"invalid json", write("bad.json", `{not json`), true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("loadConfig() err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && cfg.Pages != tt.pages {
				t.Errorf("Pages = %d, want %d", cfg.Pages, tt.pages)
			}
			if tt.name == "empty categories" && err != errNoCategories {
				t.Errorf("empty categories: err = %v, want errNoCategories", err)
			}
		})
	}
}

func TestBrowsePagesUntilLimit(t *testing.T) {
	api := newFakeAPI()
	client := &http.Client{Transport: api}
	base, _ := url.Parse("http://api.test")

	browse(client, base, 0, "want-to-read", 2, logger.Nop())

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.intents != 1 {
		t.Errorf("intents = %d, want 1", api.intents)
	}
	if api.deletes != 1 {
		t.Errorf("deletes = %d, want 1", api.deletes)
	}
}

func TestBrowseStopsAtEndOfShelf(t *testing.T) {
	api := newFakeAPI()
	client := &http.Client{Transport: api}
	base, _ := url.Parse("http://api.test")

	browse(client, base, 0, "already-read", 10, logger.Nop())

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.intents != 2 {
		t.Errorf("intents = %d, want 2", api.intents)
	}
}

func TestBrowseOpenFailure(t *testing.T) {
	api := newFakeAPI()
	api.failOpen = true
	client := &http.Client{Transport: api}
	base, _ := url.Parse("http://api.test")

	browse(client, base, 0, "want-to-read", 1, logger.Nop()) // should not panic

	if api.deletes != 0 {
		t.Errorf("deletes = %d, want 0", api.deletes)
	}
}

func TestRun(t *testing.T) {
	api := newFakeAPI()
	client := &http.Client{Transport: api}
	path := writeConfig(t, `{"categories":["want-to-read","currently-reading","already-read"]}`)

	if err := run(path, "http://api.test", client, logger.Nop()); err != nil {
		t.Fatalf("run() err = %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.creates != 3 || api.deletes != 3 {
		t.Errorf("creates = %d deletes = %d, want 3 and 3", api.creates, api.deletes)
	}
}

func TestRun_badConfigPath(t *testing.T) {
	if err := run("/nonexistent/config.json", "http://localhost:8080", nil, logger.Nop()); err == nil {
		t.Fatal("run() expected error for missing config")
	}
}

func TestRun_invalidAPIBase(t *testing.T) {
	path := writeConfig(t, `{"categories":["want-to-read"]}`)
	if err := run(path, "://invalid", nil, logger.Nop()); err == nil {
		t.Fatal("run() expected error for invalid api base")
	}
}

func TestWaitSettledGivesUp(t *testing.T) {
	prevInterval, prevAttempts := pollInterval, pollAttempts
	pollInterval, pollAttempts = time.Millisecond, 3
	t.Cleanup(func() { pollInterval, pollAttempts = prevInterval, prevAttempts })

	loading := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, sessionPayload{ID: "s", State: models.ListState{IsLoading: true}}), nil
	})
	base, _ := url.Parse("http://api.test")
	if _, err := waitSettled(&http.Client{Transport: loading}, base, "s"); err != errNotSettled {
		t.Fatalf("waitSettled() err = %v, want errNotSettled", err)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

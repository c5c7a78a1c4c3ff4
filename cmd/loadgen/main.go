package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mybooks/internal/logger"
	"mybooks/internal/models"
)

// Config lists the shelves to open sessions for.
type Config struct {
	Categories []string `json:"categories"`
	Pages      int      `json:"pages"`
}

var (
	errNoCategories = errors.New("config has no categories")
	errNotSettled   = errors.New("session did not settle")
)

// pollInterval and pollAttempts bound how long one page may take.
var (
	pollInterval = 200 * time.Millisecond
	pollAttempts = 150
)

func main() {
	configPath := flag.String("config", "sessions.json", "Path to JSON config file with categories")
	apiBase := flag.String("api", "http://localhost:30080", "API base URL (nodePort when hitting Kind from host; e.g. http://localhost:30080)")
	flag.Parse()

	log := logger.New(logger.Config{Level: "info", Format: logger.FormatConsole})
	if err := run(*configPath, *apiBase, nil, log); err != nil {
		log.Fatal().Err(err).Msg("loadgen failed")
	}
}

// run loads config from configPath and opens one session per category
// concurrently, paging each through cfg.Pages pages.
// If client is nil, a default HTTP client (30s timeout) is used.
func run(configPath, apiBase string, client *http.Client, log zerolog.Logger) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	baseURL, err := url.Parse(apiBase)
	if err != nil {
		return err
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	var wg sync.WaitGroup
	for i, category := range cfg.Categories {
		wg.Add(1)
		go func(idx int, c string) {
			defer wg.Done()
			browse(client, baseURL, idx, c, cfg.Pages, log)
		}(i, category)
	}
	wg.Wait()
	log.Info().Int("sessions", len(cfg.Categories)).Msg("load generation finished")
	return nil
}

// loadConfig reads and parses the JSON config file.
func loadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if len(cfg.Categories) == 0 {
		return cfg, errNoCategories
	}
	for _, c := range cfg.Categories {
		if _, err := models.ParseListCategory(c); err != nil {
			return cfg, err
		}
	}
	if cfg.Pages < 1 {
		cfg.Pages = 1
	}
	return cfg, nil
}

type sessionPayload struct {
	ID    string           `json:"id"`
	State models.ListState `json:"state"`
}

func browse(client *http.Client, base *url.URL, idx int, category string, pages int, log zerolog.Logger) {
	l := log.With().Int("idx", idx).Str("category", category).Logger()

	sess, err := openSession(client, base, category)
	if err != nil {
		l.Error().Err(err).Msg("open session failed")
		return
	}
	l = l.With().Str("session_id", sess.ID).Logger()
	defer closeSession(client, base, sess.ID, l)

	for {
		state, err := waitSettled(client, base, sess.ID)
		if err != nil {
			l.Error().Err(err).Msg("session failed")
			return
		}
		if state.Error != nil {
			l.Warn().Str("error", *state.Error).Msg("load failed")
			return
		}
		l.Info().Int("page", state.CurrentPage).Int("books", len(state.Books)).Int("total", state.TotalCount).Msg("page loaded")
		if state.CurrentPage >= pages || !state.HasMoreData {
			return
		}
		if err := postIntent(client, base, sess.ID, "load_more_books"); err != nil {
			l.Error().Err(err).Msg("load more failed")
			return
		}
	}
}

func endpoint(base *url.URL, path string) string {
	u := *base
	u.Path = path
	return u.String()
}

func openSession(client *http.Client, base *url.URL, category string) (sessionPayload, error) {
	body, _ := json.Marshal(map[string]string{"category": category})
	resp, err := client.Post(endpoint(base, "/sessions"), "application/json", bytes.NewReader(body))
	if err != nil {
		return sessionPayload{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return sessionPayload{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var out sessionPayload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return sessionPayload{}, err
	}
	return out, nil
}

func getSession(client *http.Client, base *url.URL, id string) (sessionPayload, error) {
	resp, err := client.Get(endpoint(base, "/sessions/"+id))
	if err != nil {
		return sessionPayload{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return sessionPayload{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var out sessionPayload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return sessionPayload{}, err
	}
	return out, nil
}

func waitSettled(client *http.Client, base *url.URL, id string) (models.ListState, error) {
	for i := 0; i < pollAttempts; i++ {
		sess, err := getSession(client, base, id)
		if err != nil {
			return models.ListState{}, err
		}
		if !sess.State.IsLoading && !sess.State.IsLoadingMore {
			return sess.State, nil
		}
		time.Sleep(pollInterval)
	}
	return models.ListState{}, errNotSettled
}

func postIntent(client *http.Client, base *url.URL, id, intent string) error {
	body, _ := json.Marshal(map[string]string{"type": intent})
	resp, err := client.Post(endpoint(base, "/sessions/"+id+"/intents"), "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func closeSession(client *http.Client, base *url.URL, id string, log zerolog.Logger) {
	req, err := http.NewRequest(http.MethodDelete, endpoint(base, "/sessions/"+id), nil)
	if err != nil {
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("close session failed")
		return
	}
	resp.Body.Close()
}

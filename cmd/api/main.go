package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"mybooks/internal/app"
	"mybooks/internal/bookdetail"
	"mybooks/internal/config"
	"mybooks/internal/logger"
	"mybooks/internal/models"
	"mybooks/internal/mvi"
	"mybooks/internal/usecase"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	boot := logger.New(logger.Config{Level: "info", Format: logger.FormatConsole})
	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: logger.ParseFormat(cfg.Logging.Format),
	})

	stack, err := app.Build(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build catalog stack")
	}
	defer func() {
		if err := stack.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close catalog stack")
		}
	}()

	srv := newServer(usecase.NewSet(stack.Catalog), stack.Publisher, stack.Metrics, logger.Component(log, "api"))
	defer srv.closeAll()

	httpServer := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.API.Addr).Msg("api listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("api server failed")
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logger.HTTPMiddleware(s.log))

	r.Post("/sessions", s.handleCreateSession)
	r.Get("/sessions/{id}", s.handleGetSession)
	r.Post("/sessions/{id}/intents", s.handleIntent)
	r.Delete("/sessions/{id}", s.handleDeleteSession)
	r.Get("/books/*", s.handleBookDetails)
	r.Get("/metrics", s.handleMetrics)
	return r
}

type createSessionRequest struct {
	Category string `json:"category"`
}

type sessionResponse struct {
	ID    string           `json:"id"`
	State models.ListState `json:"state"`
}

// handleCreateSession opens a list screen session and triggers its first load.
//
// Method: POST
// Path:   /sessions
// Example:
//
//	curl -X POST -d '{"category":"already-read"}' "http://localhost:8080/sessions"
func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
	}

	category := models.WantToRead
	if req.Category != "" {
		parsed, err := models.ParseListCategory(req.Category)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		category = parsed
	}

	sess, err := s.openSession(r.Context(), uuid.NewString(), category)
	if err != nil {
		http.Error(w, "failed to open session", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, sessionResponse{ID: sess.id, State: sess.list.State()}, http.StatusCreated)
}

// handleGetSession returns the current list state.
//
// Method: GET
// Path:   /sessions/{id}
func (s *server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, sessionResponse{ID: sess.id, State: sess.list.State()}, http.StatusOK)
}

// handleIntent posts one intent onto the session's owner loop. The types
// screen_visible and screen_hidden drive the list's Start and Stop.
//
// Method: POST
// Path:   /sessions/{id}/intents
// Example:
//
//	curl -X POST -d '{"type":"load_more_books"}' "http://localhost:8080/sessions/$ID/intents"
func (s *server) handleIntent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	var err error
	switch req.Type {
	case "screen_visible", "screen_hidden":
		err = sess.setVisible(r.Context(), req.Type == "screen_visible")
	default:
		intent, perr := req.toIntent(sess.list.State())
		if perr != nil {
			http.Error(w, perr.Error(), http.StatusBadRequest)
			return
		}
		err = sess.dispatch(r.Context(), intent)
	}
	if err != nil {
		http.Error(w, "session closed", http.StatusGone)
		return
	}
	writeJSON(w, sessionResponse{ID: sess.id, State: sess.list.State()}, http.StatusAccepted)
}

// handleDeleteSession closes a session and cancels its in-flight fetch.
//
// Method: DELETE
// Path:   /sessions/{id}
func (s *server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.closeSession(chi.URLParam(r, "id")) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBookDetails resolves a book the way the detail screen does.
//
// Method: GET
// Path:   /books/{id}
// Example:
//
//	curl "http://localhost:8080/books/works/OL45883W"
func (s *server) handleBookDetails(w http.ResponseWriter, r *http.Request) {
	id := bookIDFromPath(chi.URLParam(r, "*"))
	if id == "" {
		http.Error(w, "missing book id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.lookupTimeout)
	defer cancel()

	state, err := s.lookupBook(ctx, id)
	if err != nil {
		http.Error(w, "lookup timed out", http.StatusGatewayTimeout)
		return
	}
	switch {
	case state.Book != nil:
		writeJSON(w, state.Book, http.StatusOK)
	case state.NotFound:
		http.Error(w, state.ErrorMessage(), http.StatusNotFound)
	default:
		http.Error(w, state.ErrorMessage(), http.StatusBadGateway)
	}
}

// handleMetrics exposes a minimal Prometheus-compatible endpoint.
//
// Method: GET
// Path:   /metrics
func (s *server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	_, _ = s.metrics.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// bookIDFromPath maps "works/OL1W" to the catalog key "/works/OL1W" and
// leaves synthesized keys untouched.
func bookIDFromPath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	if strings.Contains(p, "/") {
		return "/" + p
	}
	return p
}

func (s *server) lookupBook(ctx context.Context, id string) (models.DetailState, error) {
	loop := mvi.NewLoop(4)
	loopCtx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() { _ = loop.Run(loopCtx) }()

	detail := bookdetail.New(id, s.useCases.WantToRead, s.background, loop,
		bookdetail.WithLogger(s.log),
	)
	notes, _ := detail.Notifications()
	go s.forward("", notes)
	defer func() { _ = loop.Do(context.Background(), detail.Close) }()

	var states <-chan models.DetailState
	if err := loop.Do(ctx, func() {
		states, _ = detail.Subscribe()
		detail.Dispatch(bookdetail.LoadBookDetails{})
	}); err != nil {
		return models.DetailState{}, err
	}

	for {
		select {
		case <-ctx.Done():
			return models.DetailState{}, ctx.Err()
		case st, ok := <-states:
			if !ok {
				return models.DetailState{}, context.Canceled
			}
			if !st.IsLoading && (st.Book != nil || st.Error != nil) {
				return st, nil
			}
		}
	}
}

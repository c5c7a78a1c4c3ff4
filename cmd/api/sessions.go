package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mybooks/internal/booklist"
	"mybooks/internal/kafka"
	"mybooks/internal/metrics"
	"mybooks/internal/models"
	"mybooks/internal/mvi"
	"mybooks/internal/usecase"
)

const (
	defaultLookupTimeout  = 30 * time.Second
	publishTimeout        = 5 * time.Second
	sessionLoopBufferSize = 64
)

type server struct {
	useCases   usecase.Set
	publisher  kafka.NotificationPublisher
	metrics    *metrics.Registry
	log        zerolog.Logger
	background mvi.Executor

	lookupTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

func newServer(useCases usecase.Set, publisher kafka.NotificationPublisher, reg *metrics.Registry, log zerolog.Logger) *server {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &server{
		useCases:      useCases,
		publisher:     publisher,
		metrics:       reg,
		log:           log,
		background:    mvi.Goroutine,
		lookupTimeout: defaultLookupTimeout,
		sessions:      make(map[string]*session),
	}
}

// session is one headless list screen. Its reducer is confined to loop.
type session struct {
	id   string
	loop *mvi.Loop
	stop context.CancelFunc
	list *booklist.Reducer
}

func (s *session) dispatch(ctx context.Context, intent booklist.Intent) error {
	return s.loop.Do(ctx, func() { s.list.Dispatch(intent) })
}

// setVisible forwards screen visibility to the list: shown resumes an empty
// list, hidden cancels the in-flight fetch.
func (s *session) setVisible(ctx context.Context, visible bool) error {
	if visible {
		return s.loop.Do(ctx, s.list.Start)
	}
	return s.loop.Do(ctx, s.list.Stop)
}

func (s *session) close() {
	_ = s.loop.Do(context.Background(), s.list.Close)
	s.stop()
}

func (s *server) openSession(ctx context.Context, id string, category models.ListCategory) (*session, error) {
	loop := mvi.NewLoop(sessionLoopBufferSize)
	loopCtx, stop := context.WithCancel(context.Background())
	go func() { _ = loop.Run(loopCtx) }()

	list := booklist.New(s.useCases, s.background, loop,
		booklist.WithSessionID(id),
		booklist.WithLogger(s.log.With().Str("session_id", id).Logger()),
	)
	notes, _ := list.Notifications()
	go s.forward(id, notes)

	sess := &session{id: id, loop: loop, stop: stop, list: list}
	err := loop.Do(ctx, func() {
		list.Dispatch(booklist.ChangeCategory{Category: category})
		list.Dispatch(booklist.TriggerInitialLoadIfNeeded{})
	})
	if err != nil {
		sess.close()
		return nil, err
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	s.metrics.AddSessions(1)
	s.log.Info().Str("session_id", id).Str("category", string(category)).Msg("session opened")
	return sess, nil
}

func (s *server) session(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *server) closeSession(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return false
	}
	sess.close()
	s.metrics.AddSessions(-1)
	s.log.Info().Str("session_id", id).Msg("session closed")
	return true
}

func (s *server) closeAll() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.closeSession(id)
	}
}

// forward drains one reducer's notifications until the reducer closes.
func (s *server) forward(sessionID string, notes <-chan models.Notification) {
	for n := range notes {
		metrics.Inc(&s.metrics.Notifications)
		s.log.Warn().
			Str("session_id", sessionID).
			Str("screen", n.Screen).
			Str("kind", string(n.Kind)).
			Msg(n.Message)
		if s.publisher == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := s.publisher.PublishNotification(ctx, n); err != nil {
			s.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to publish notification")
		}
		cancel()
	}
}

type intentRequest struct {
	Type     string `json:"type"`
	Category string `json:"category,omitempty"`
	BookID   string `json:"book_id,omitempty"`
}

var errUnknownBook = errors.New("book is not in the current list")

func (req intentRequest) toIntent(state models.ListState) (booklist.Intent, error) {
	switch req.Type {
	case "load_books":
		return booklist.LoadBooks{}, nil
	case "load_more_books":
		return booklist.LoadMoreBooks{}, nil
	case "change_category":
		category, err := models.ParseListCategory(req.Category)
		if err != nil {
			return nil, err
		}
		return booklist.ChangeCategory{Category: category}, nil
	case "select_book":
		for _, b := range state.Books {
			if b.ID == req.BookID {
				return booklist.SelectBook{Book: b}, nil
			}
		}
		return nil, fmt.Errorf("%w: %q", errUnknownBook, req.BookID)
	case "clear_selected_book":
		return booklist.ClearSelectedBook{}, nil
	case "trigger_initial_load":
		return booklist.TriggerInitialLoadIfNeeded{}, nil
	default:
		return nil, fmt.Errorf("unknown intent type %q", req.Type)
	}
}

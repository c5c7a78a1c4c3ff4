// Package bookdetail resolves one book for the detail screen.
//
// There is no lookup-by-id endpoint, so the reducer fetches the first
// LookupLimit entries of the want-to-read shelf and scans them. Books outside
// that window, or on another shelf, do not resolve.
package bookdetail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"mybooks/internal/models"
	"mybooks/internal/mvi"
	"mybooks/internal/usecase"
)

// LookupLimit is the size of the want-to-read window that is scanned.
const LookupLimit = 100

// Screen names the detail screen in notifications.
const Screen = "book_detail"

// ErrBookNotFound is returned when the id is not in the scanned window.
var ErrBookNotFound = errors.New("book not found")

// Intent is an action submitted to the detail reducer.
type Intent interface {
	intentName() string
}

// LoadBookDetails starts the lookup.
type LoadBookDetails struct{}

// RetryLoadingBookDetails re-issues the lookup after a failure.
type RetryLoadingBookDetails struct{}

func (LoadBookDetails) intentName() string         { return "load_book_details" }
func (RetryLoadingBookDetails) intentName() string { return "retry_loading_book_details" }

// Find returns the first book in books whose id is id.
func Find(books []models.Book, id string) (models.Book, error) {
	for _, b := range books {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Book{}, fmt.Errorf("%w with ID: %s", ErrBookNotFound, id)
}

// Reducer is the single writer of a models.DetailState. Like the list
// reducer it is confined to its observe executor.
type Reducer struct {
	bookID     string
	wantToRead usecase.Fetcher
	background mvi.Executor
	observe    mvi.Executor
	log        zerolog.Logger
	sessionID  string
	now        func() time.Time

	state         *mvi.StateCell[models.DetailState]
	notifications *mvi.Notifications[models.Notification]

	generation uint64
	cancel     context.CancelFunc
	closed     bool
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Reducer) { r.log = log.With().Str("component", "bookdetail").Logger() }
}

// WithSessionID tags notifications with the owning session.
func WithSessionID(id string) Option {
	return func(r *Reducer) { r.sessionID = id }
}

// WithClock overrides the notification timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Reducer) { r.now = now }
}

// New builds a reducer for bookID.
func New(bookID string, wantToRead usecase.Fetcher, background, observe mvi.Executor, opts ...Option) *Reducer {
	r := &Reducer{
		bookID:        bookID,
		wantToRead:    wantToRead,
		background:    background,
		observe:       observe,
		log:           zerolog.Nop(),
		now:           time.Now,
		state:         mvi.NewStateCell(models.DetailState{}),
		notifications: mvi.NewNotifications[models.Notification](mvi.DefaultNotificationBuffer),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BookID returns the id this reducer resolves.
func (r *Reducer) BookID() string {
	return r.bookID
}

// State returns the current state.
func (r *Reducer) State() models.DetailState {
	return r.state.Get()
}

// Subscribe streams state snapshots, starting with the current one.
func (r *Reducer) Subscribe() (<-chan models.DetailState, func()) {
	return r.state.Subscribe()
}

// Notifications streams one-shot notifications emitted after the call.
func (r *Reducer) Notifications() (<-chan models.Notification, func()) {
	return r.notifications.Subscribe()
}

// Dispatch handles one intent. Both intents restart the lookup.
func (r *Reducer) Dispatch(intent Intent) {
	if r.closed {
		return
	}
	r.log.Debug().Str("intent", intent.intentName()).Str("book_id", r.bookID).Msg("intent received")

	switch intent.(type) {
	case LoadBookDetails, RetryLoadingBookDetails:
		r.load()
	}
}

// Close cancels the outstanding lookup and ends the session.
func (r *Reducer) Close() {
	if r.closed {
		return
	}
	r.cancelInFlight()
	r.closed = true
	r.state.Close()
	r.notifications.Close()
}

func (r *Reducer) load() {
	r.cancelInFlight()
	r.state.Update(func(s models.DetailState) models.DetailState {
		s.IsLoading = true
		s.Error = nil
		s.NotFound = false
		return s
	})

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	gen := r.generation
	fetcher := r.wantToRead

	r.background.Execute(func() {
		result, err := fetcher.Execute(ctx, LookupLimit, 1)
		r.observe.Execute(func() {
			cancel()
			r.complete(gen, result, err)
		})
	})
}

func (r *Reducer) complete(gen uint64, result models.BookPage, err error) {
	if r.closed || gen != r.generation {
		r.log.Debug().Uint64("generation", gen).Msg("stale result discarded")
		return
	}
	if err != nil {
		r.fail(err)
		return
	}
	book, err := Find(result.Books, r.bookID)
	if err != nil {
		r.fail(err)
		return
	}
	r.state.Update(func(s models.DetailState) models.DetailState {
		s.Book = &book
		s.IsLoading = false
		s.Error = nil
		return s
	})
}

func (r *Reducer) fail(err error) {
	msg := err.Error()
	if msg == "" {
		msg = "Unknown error"
	}
	r.log.Warn().Err(err).Str("book_id", r.bookID).Msg("book lookup failed")
	notFound := errors.Is(err, ErrBookNotFound)
	r.state.Update(func(s models.DetailState) models.DetailState {
		s.Error = &msg
		s.IsLoading = false
		s.NotFound = notFound
		return s
	})
	r.notifications.Emit(models.Notification{
		SessionID: r.sessionID,
		Screen:    Screen,
		Kind:      models.NotificationShowError,
		Message:   msg,
		CreatedAt: r.now().UTC(),
	})
}

func (r *Reducer) cancelInFlight() {
	r.generation++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// Package booklist owns the state of the book list screen: pagination,
// category switching and the single in-flight fetch of a session.
//
// A Reducer is confined to its observe executor. Dispatch, Start, Stop and
// Close must be called from that context; fetch results are delivered back
// onto it, so no locking is needed around the reducer's own fields.
package booklist

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"mybooks/internal/models"
	"mybooks/internal/mvi"
	"mybooks/internal/usecase"
)

// PageSize is the limit of every list request.
const PageSize = 10

// Screen names the list screen in notifications.
const Screen = "book_list"

// Reducer is the single writer of a models.ListState.
type Reducer struct {
	useCases   usecase.Set
	background mvi.Executor
	observe    mvi.Executor
	log        zerolog.Logger
	sessionID  string
	now        func() time.Time

	state         *mvi.StateCell[models.ListState]
	notifications *mvi.Notifications[models.Notification]

	generation uint64
	cancel     context.CancelFunc
	closed     bool
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Reducer) { r.log = log.With().Str("component", "booklist").Logger() }
}

// WithSessionID tags notifications with the owning session.
func WithSessionID(id string) Option {
	return func(r *Reducer) { r.sessionID = id }
}

// WithClock overrides the notification timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Reducer) { r.now = now }
}

// New builds a reducer. Fetches run on background and their results are
// applied on observe.
func New(useCases usecase.Set, background, observe mvi.Executor, opts ...Option) *Reducer {
	r := &Reducer{
		useCases:      useCases,
		background:    background,
		observe:       observe,
		log:           zerolog.Nop(),
		now:           time.Now,
		state:         mvi.NewStateCell(models.NewListState()),
		notifications: mvi.NewNotifications[models.Notification](mvi.DefaultNotificationBuffer),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns a snapshot of the current state.
func (r *Reducer) State() models.ListState {
	return r.state.Get().Clone()
}

// Subscribe streams state snapshots, starting with the current one.
func (r *Reducer) Subscribe() (<-chan models.ListState, func()) {
	return r.state.Subscribe()
}

// Notifications streams one-shot notifications emitted after the call.
func (r *Reducer) Notifications() (<-chan models.Notification, func()) {
	return r.notifications.Subscribe()
}

// Dispatch handles one intent.
func (r *Reducer) Dispatch(intent Intent) {
	if r.closed {
		return
	}
	r.log.Debug().Str("intent", intent.intentName()).Msg("intent received")

	switch in := intent.(type) {
	case LoadBooks:
		r.loadBooks()
	case LoadMoreBooks:
		r.loadMoreBooks()
	case ChangeCategory:
		r.changeCategory(in.Category)
	case SelectBook:
		book := in.Book
		r.update(func(s models.ListState) models.ListState {
			s.SelectedBook = &book
			return s
		})
	case ClearSelectedBook:
		r.update(func(s models.ListState) models.ListState {
			s.SelectedBook = nil
			return s
		})
	case TriggerInitialLoadIfNeeded:
		if r.state.Get().HasLoadedOnce {
			r.log.Debug().Msg("initial load already done")
			return
		}
		r.update(func(s models.ListState) models.ListState {
			s.HasLoadedOnce = true
			return s
		})
		r.loadBooks()
	}
}

// Start is called when the screen becomes visible. It loads the current
// category if nothing is shown and nothing is loading.
func (r *Reducer) Start() {
	if r.closed {
		return
	}
	s := r.state.Get()
	if len(s.Books) == 0 && !s.IsLoading {
		r.loadBooks()
	}
}

// Stop is called when the screen is hidden. The in-flight fetch is cancelled
// and its loading flag cleared.
func (r *Reducer) Stop() {
	if r.closed {
		return
	}
	r.cancelInFlight()
	r.update(func(s models.ListState) models.ListState {
		s.IsLoading = false
		s.IsLoadingMore = false
		return s
	})
}

// Close ends the session. Later intents are ignored.
func (r *Reducer) Close() {
	if r.closed {
		return
	}
	r.cancelInFlight()
	r.closed = true
	r.state.Close()
	r.notifications.Close()
}

func (r *Reducer) loadBooks() {
	r.cancelInFlight()
	s := r.update(func(s models.ListState) models.ListState {
		s.IsLoading = true
		s.IsLoadingMore = false
		s.Error = nil
		s.Books = []models.Book{}
		s.CurrentPage = 1
		s.HasMoreData = true
		return s
	})
	r.fetch(s.Category, 1, false)
}

func (r *Reducer) loadMoreBooks() {
	s := r.state.Get()
	if s.IsLoading || s.IsLoadingMore || !s.HasMoreData {
		r.log.Debug().
			Bool("is_loading", s.IsLoading).
			Bool("is_loading_more", s.IsLoadingMore).
			Bool("has_more_data", s.HasMoreData).
			Msg("load more ignored")
		return
	}
	s = r.update(func(s models.ListState) models.ListState {
		s.IsLoadingMore = true
		return s
	})
	r.fetch(s.Category, s.CurrentPage+1, true)
}

func (r *Reducer) changeCategory(category models.ListCategory) {
	if !category.Valid() {
		r.log.Warn().Str("category", string(category)).Msg("unknown category ignored")
		return
	}
	if category == r.state.Get().Category {
		return
	}
	r.cancelInFlight()
	r.update(func(s models.ListState) models.ListState {
		s.Category = category
		s.Books = []models.Book{}
		s.CurrentPage = 1
		s.HasMoreData = true
		s.TotalCount = 0
		s.Error = nil
		s.IsLoading = true
		s.IsLoadingMore = false
		s.HasLoadedOnce = true
		return s
	})
	r.fetch(category, 1, false)
}

func (r *Reducer) fetch(category models.ListCategory, page int, more bool) {
	fetcher, err := r.useCases.ForCategory(category)
	if err != nil {
		r.fail(err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	if r.cancel != nil {
		r.cancel()
	}
	r.cancel = cancel
	gen := r.generation

	r.log.Debug().
		Str("category", string(category)).
		Int("page", page).
		Uint64("generation", gen).
		Msg("fetch issued")

	r.background.Execute(func() {
		result, err := fetcher.Execute(ctx, PageSize, page)
		r.observe.Execute(func() {
			cancel()
			r.complete(gen, page, more, result, err)
		})
	})
}

func (r *Reducer) complete(gen uint64, page int, more bool, result models.BookPage, err error) {
	if r.closed || gen != r.generation {
		r.log.Debug().
			Uint64("generation", gen).
			Uint64("current", r.generation).
			Msg("stale result discarded")
		return
	}
	if err != nil {
		r.fail(err)
		return
	}

	r.update(func(s models.ListState) models.ListState {
		if more {
			books := make([]models.Book, 0, len(s.Books)+len(result.Books))
			books = append(books, s.Books...)
			s.Books = append(books, result.Books...)
		} else {
			s.Books = append([]models.Book{}, result.Books...)
		}
		s.TotalCount = result.TotalCount
		s.CurrentPage = page
		s.HasMoreData = page*PageSize < result.TotalCount
		s.IsLoading = false
		s.IsLoadingMore = false
		return s
	})
}

func (r *Reducer) fail(err error) {
	msg := err.Error()
	if msg == "" {
		msg = "Unknown error"
	}
	r.log.Warn().Err(err).Msg("book list fetch failed")
	r.update(func(s models.ListState) models.ListState {
		s.Error = &msg
		s.IsLoading = false
		s.IsLoadingMore = false
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

// cancelInFlight makes any outstanding result stale.
func (r *Reducer) cancelInFlight() {
	r.generation++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Reducer) update(fn func(models.ListState) models.ListState) models.ListState {
	return r.state.Update(fn)
}

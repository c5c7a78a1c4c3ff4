package bookdetail_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mybooks/internal/bookdetail"
	"mybooks/internal/models"
	"mybooks/internal/mvi"
	"mybooks/mocks"
)

func shelf(ids ...string) models.BookPage {
	out := models.BookPage{TotalCount: len(ids)}
	for _, id := range ids {
		out.Books = append(out.Books, models.Book{ID: id, Title: "Title " + id, Authors: []string{}})
	}
	return out
}

func newReducer(t *testing.T, id string) (*bookdetail.Reducer, *mocks.MockFetcher, *mvi.Queue, *mvi.Queue) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	fetcher := mocks.NewMockFetcher(ctrl)
	bg, ui := &mvi.Queue{}, &mvi.Queue{}
	r := bookdetail.New(id, fetcher, bg, ui, bookdetail.WithSessionID("s-1"))
	t.Cleanup(r.Close)
	return r, fetcher, bg, ui
}

func settle(bg, ui *mvi.Queue) {
	for bg.Drain()+ui.Drain() > 0 {
	}
}

func TestLoadBookDetailsFound(t *testing.T) {
	r, fetcher, bg, ui := newReducer(t, "/works/OL2W")
	fetcher.EXPECT().Execute(gomock.Any(), bookdetail.LookupLimit, 1).Return(shelf("/works/OL1W", "/works/OL2W"), nil)

	r.Dispatch(bookdetail.LoadBookDetails{})
	assert.True(t, r.State().IsLoading)
	settle(bg, ui)

	s := r.State()
	require.NotNil(t, s.Book)
	assert.Equal(t, "/works/OL2W", s.Book.ID)
	assert.False(t, s.IsLoading)
	assert.Nil(t, s.Error)
}

func TestLoadBookDetailsNotFound(t *testing.T) {
	r, fetcher, bg, ui := newReducer(t, "/works/OL9W")
	fetcher.EXPECT().Execute(gomock.Any(), bookdetail.LookupLimit, 1).Return(shelf("/works/OL1W"), nil)

	notes, cancel := r.Notifications()
	defer cancel()

	r.Dispatch(bookdetail.LoadBookDetails{})
	settle(bg, ui)

	s := r.State()
	assert.Nil(t, s.Book)
	assert.False(t, s.IsLoading)
	assert.Equal(t, "book not found with ID: /works/OL9W", s.ErrorMessage())
	assert.True(t, s.NotFound)

	n := <-notes
	assert.Equal(t, models.NotificationShowError, n.Kind)
	assert.Equal(t, bookdetail.Screen, n.Screen)
	assert.Equal(t, "s-1", n.SessionID)
	assert.Equal(t, s.ErrorMessage(), n.Message)
}

func TestRetryAfterNetworkFailure(t *testing.T) {
	r, fetcher, bg, ui := newReducer(t, "/works/OL1W")
	gomock.InOrder(
		fetcher.EXPECT().Execute(gomock.Any(), bookdetail.LookupLimit, 1).Return(models.BookPage{}, errors.New("offline")),
		fetcher.EXPECT().Execute(gomock.Any(), bookdetail.LookupLimit, 1).Return(shelf("/works/OL1W"), nil),
	)

	r.Dispatch(bookdetail.LoadBookDetails{})
	settle(bg, ui)
	assert.Equal(t, "offline", r.State().ErrorMessage())
	assert.False(t, r.State().NotFound)

	r.Dispatch(bookdetail.RetryLoadingBookDetails{})
	s := r.State()
	assert.True(t, s.IsLoading)
	assert.Nil(t, s.Error)

	settle(bg, ui)
	require.NotNil(t, r.State().Book)
	assert.Nil(t, r.State().Error)
}

func TestRetryDiscardsEarlierLookup(t *testing.T) {
	r, fetcher, bg, ui := newReducer(t, "/works/OL1W")
	var first context.Context
	gomock.InOrder(
		fetcher.EXPECT().Execute(gomock.Any(), bookdetail.LookupLimit, 1).
			DoAndReturn(func(ctx context.Context, _, _ int) (models.BookPage, error) {
				first = ctx
				return models.BookPage{}, errors.New("late failure")
			}),
		fetcher.EXPECT().Execute(gomock.Any(), bookdetail.LookupLimit, 1).Return(shelf("/works/OL1W"), nil),
	)

	r.Dispatch(bookdetail.LoadBookDetails{})
	r.Dispatch(bookdetail.RetryLoadingBookDetails{})
	settle(bg, ui)

	s := r.State()
	require.NotNil(t, s.Book)
	assert.Nil(t, s.Error)
	assert.ErrorIs(t, first.Err(), context.Canceled)
}

func TestCloseCancelsLookup(t *testing.T) {
	r, fetcher, bg, ui := newReducer(t, "/works/OL1W")
	fetcher.EXPECT().Execute(gomock.Any(), bookdetail.LookupLimit, 1).
		DoAndReturn(func(ctx context.Context, _, _ int) (models.BookPage, error) {
			return models.BookPage{}, ctx.Err()
		})

	r.Dispatch(bookdetail.LoadBookDetails{})
	r.Close()
	settle(bg, ui)

	assert.Nil(t, r.State().Error)
	r.Dispatch(bookdetail.LoadBookDetails{})
	assert.Zero(t, bg.Len())
}

func TestFindReturnsFirstMatch(t *testing.T) {
	books := []models.Book{{ID: "a", Title: "first"}, {ID: "a", Title: "second"}}
	got, err := bookdetail.Find(books, "a")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)

	_, err = bookdetail.Find(books, "b")
	assert.ErrorIs(t, err, bookdetail.ErrBookNotFound)
}

package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mybooks/internal/catalog"
	"mybooks/internal/logger"
	"mybooks/internal/metrics"
	"mybooks/internal/models"
	"mybooks/internal/ol"
	"mybooks/mocks"
)

const testScope = "openlibrary.org/mekBot"

func samplePage() models.BookPage {
	return models.BookPage{
		Books:      []models.Book{{ID: "/works/OL1W", Title: "Dune", Authors: []string{"Frank Herbert"}}},
		TotalCount: 42,
	}
}

func TestCachedHitSkipsClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	next := mocks.NewMockClient(ctrl)
	cache := mocks.NewMockPageCache(ctrl)
	reg := metrics.NewRegistry()
	c := catalog.Cached(next, cache, testScope, reg, logger.Nop())

	cache.EXPECT().GetPage(gomock.Any(), "openlibrary.org/mekBot:want-to-read:10:1").Return(samplePage(), true, nil)

	got, err := c.FetchPage(context.Background(), models.WantToRead, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, samplePage(), got)
	assert.EqualValues(t, 1, reg.CacheHits)
}

func TestCachedMissStoresSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	next := mocks.NewMockClient(ctrl)
	cache := mocks.NewMockPageCache(ctrl)
	reg := metrics.NewRegistry()
	c := catalog.Cached(next, cache, testScope, reg, logger.Nop())

	gomock.InOrder(
		cache.EXPECT().GetPage(gomock.Any(), "openlibrary.org/mekBot:already-read:10:2").Return(models.BookPage{}, false, nil),
		next.EXPECT().FetchPage(gomock.Any(), models.AlreadyRead, 10, 2).Return(samplePage(), nil),
		cache.EXPECT().SetPage(gomock.Any(), "openlibrary.org/mekBot:already-read:10:2", samplePage()).Return(nil),
	)

	got, err := c.FetchPage(context.Background(), models.AlreadyRead, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 42, got.TotalCount)
	assert.EqualValues(t, 1, reg.CacheMisses)
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	next := mocks.NewMockClient(ctrl)
	cache := mocks.NewMockPageCache(ctrl)
	c := catalog.Cached(next, cache, testScope, nil, logger.Nop())

	cache.EXPECT().GetPage(gomock.Any(), gomock.Any()).Return(models.BookPage{}, false, nil)
	next.EXPECT().FetchPage(gomock.Any(), models.WantToRead, 10, 1).Return(models.BookPage{}, errors.New("boom"))

	_, err := c.FetchPage(context.Background(), models.WantToRead, 10, 1)
	require.EqualError(t, err, "boom")
}

func TestCachedIgnoresCacheErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	next := mocks.NewMockClient(ctrl)
	cache := mocks.NewMockPageCache(ctrl)
	c := catalog.Cached(next, cache, testScope, nil, logger.Nop())

	cache.EXPECT().GetPage(gomock.Any(), gomock.Any()).Return(models.BookPage{}, false, errors.New("redis down"))
	next.EXPECT().FetchPage(gomock.Any(), models.CurrentlyReading, 10, 1).Return(samplePage(), nil)
	cache.EXPECT().SetPage(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	got, err := c.FetchPage(context.Background(), models.CurrentlyReading, 10, 1)
	require.NoError(t, err)
	assert.Len(t, got.Books, 1)
}

func TestInstrumentedCountsRateLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	next := mocks.NewMockClient(ctrl)
	reg := metrics.NewRegistry()
	c := catalog.Instrumented(next, reg)

	limited := &ol.StatusError{StatusCode: http.StatusTooManyRequests, URL: "https://openlibrary.org/x"}
	next.EXPECT().FetchPage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.BookPage{}, fmt.Errorf("fetch: %w", limited))

	_, err := c.FetchPage(context.Background(), models.WantToRead, 10, 1)
	require.Error(t, err)
	assert.EqualValues(t, 1, reg.FetchErrors)
	assert.EqualValues(t, 1, reg.RateLimitHits)
}

func TestInstrumentedIgnoresCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	next := mocks.NewMockClient(ctrl)
	reg := metrics.NewRegistry()
	c := catalog.Instrumented(next, reg)

	next.EXPECT().FetchPage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.BookPage{}, context.Canceled)

	_, err := c.FetchPage(context.Background(), models.WantToRead, 10, 1)
	require.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, reg.FetchErrors)
}

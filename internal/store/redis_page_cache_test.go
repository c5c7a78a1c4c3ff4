package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/redis/go-redis/v9"

	"mybooks/internal/models"
	"mybooks/internal/store"
	"mybooks/mocks"
)

func TestPageKey(t *testing.T) {
	scope := store.Scope("https://openlibrary.org/", "mekBot")
	if scope != "openlibrary.org/mekBot" {
		t.Fatalf("unexpected scope: %s", scope)
	}
	if got := store.PageKey(scope, models.AlreadyRead, 10, 3); got != "openlibrary.org/mekBot:already-read:10:3" {
		t.Fatalf("unexpected key: %s", got)
	}
}

func TestPageKeySeparatesUsersAndHosts(t *testing.T) {
	keys := map[string]bool{}
	for _, scope := range []string{
		store.Scope("https://openlibrary.org", "mekBot"),
		store.Scope("https://openlibrary.org", "someoneElse"),
		store.Scope("http://mirror.local:8080", "mekBot"),
	} {
		keys[store.PageKey(scope, models.WantToRead, 10, 1)] = true
	}
	if len(keys) != 3 {
		t.Fatalf("expected 3 distinct keys, got %v", keys)
	}
}

func TestRedisPageCacheSetPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	kv := mocks.NewMockKV(ctrl)
	cache := store.NewRedisPageCacheWithKV(kv, "mybooks:page:", time.Minute)
	page := models.BookPage{Books: []models.Book{{ID: "/works/OL1W", Title: "One", Authors: []string{}}}, TotalCount: 5}

	kv.EXPECT().
		Set(gomock.Any(), "mybooks:page:openlibrary.org/mekBot:want-to-read:10:1", gomock.Any(), time.Minute).
		DoAndReturn(func(_ context.Context, _ string, value interface{}, _ time.Duration) *redis.StatusCmd {
			var got models.BookPage
			if err := json.Unmarshal(value.([]byte), &got); err != nil {
				t.Fatalf("failed to decode payload: %v", err)
			}
			if got.TotalCount != 5 || len(got.Books) != 1 || got.Books[0].ID != "/works/OL1W" {
				t.Fatalf("unexpected payload: %+v", got)
			}
			return redis.NewStatusResult("OK", nil)
		})

	if err := cache.SetPage(context.Background(), store.PageKey(store.Scope("https://openlibrary.org", "mekBot"), models.WantToRead, 10, 1), page); err != nil {
		t.Fatalf("SetPage returned error: %v", err)
	}
}

func TestRedisPageCacheGetPageHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	kv := mocks.NewMockKV(ctrl)
	cache := store.NewRedisPageCacheWithKV(kv, "p:", time.Minute)

	kv.EXPECT().Get(gomock.Any(), "p:k").
		Return(redis.NewStringResult(`{"books":[{"id":"/works/OL2W","title":"Two","authors":["A"]}],"total_count":12}`, nil))

	page, ok, err := cache.GetPage(context.Background(), "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if page.TotalCount != 12 || page.Books[0].Title != "Two" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestRedisPageCacheGetPageMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	kv := mocks.NewMockKV(ctrl)
	cache := store.NewRedisPageCacheWithKV(kv, "p:", time.Minute)
	kv.EXPECT().Get(gomock.Any(), "p:k").Return(redis.NewStringResult("", redis.Nil))

	_, ok, err := cache.GetPage(context.Background(), "k")
	if err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestRedisPageCacheGetPageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	kv := mocks.NewMockKV(ctrl)
	cache := store.NewRedisPageCacheWithKV(kv, "p:", time.Minute)
	kv.EXPECT().Get(gomock.Any(), "p:k").Return(redis.NewStringResult("", errors.New("connection refused")))

	if _, _, err := cache.GetPage(context.Background(), "k"); err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Package catalog is the seam between the reducers and the remote reading-log
// service. The decorators here add caching and latency accounting around any
// Client.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"mybooks/internal/metrics"
	"mybooks/internal/models"
	"mybooks/internal/ol"
	"mybooks/internal/store"
)

//go:generate mockgen -destination=../../mocks/catalog_client.go -package=mocks mybooks/internal/catalog Client

// Client fetches one page of a category listing.
type Client interface {
	FetchPage(ctx context.Context, category models.ListCategory, limit, page int) (models.BookPage, error)
}

var _ Client = (*ol.Client)(nil)

type cached struct {
	next  Client
	cache store.PageCache
	scope string
	reg   *metrics.Registry
	log   zerolog.Logger
}

// Cached wraps next with a read-through page cache. Keys are prefixed with
// scope (see store.Scope). Cache failures are logged and the request falls
// through to next.
func Cached(next Client, cache store.PageCache, scope string, reg *metrics.Registry, log zerolog.Logger) Client {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &cached{next: next, cache: cache, scope: scope, reg: reg, log: log}
}

func (c *cached) FetchPage(ctx context.Context, category models.ListCategory, limit, page int) (models.BookPage, error) {
	key := store.PageKey(c.scope, category, limit, page)
	hit, ok, err := c.cache.GetPage(ctx, key)
	switch {
	case err != nil:
		c.log.Warn().Err(err).Str("key", key).Msg("page cache read failed")
	case ok:
		metrics.Inc(&c.reg.CacheHits)
		return hit, nil
	default:
		metrics.Inc(&c.reg.CacheMisses)
	}

	result, err := c.next.FetchPage(ctx, category, limit, page)
	if err != nil {
		return models.BookPage{}, err
	}
	if err := c.cache.SetPage(ctx, key, result); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("page cache write failed")
	}
	return result, nil
}

type instrumented struct {
	next Client
	reg  *metrics.Registry
	now  func() time.Time
}

// Instrumented records fetch latency, failures and rate limiting in reg.
func Instrumented(next Client, reg *metrics.Registry) Client {
	return &instrumented{next: next, reg: reg, now: time.Now}
}

func (c *instrumented) FetchPage(ctx context.Context, category models.ListCategory, limit, page int) (models.BookPage, error) {
	start := c.now()
	result, err := c.next.FetchPage(ctx, category, limit, page)
	c.reg.FetchLatency.Observe(c.now().Sub(start))
	if err == nil || errors.Is(err, context.Canceled) {
		return result, err
	}
	metrics.Inc(&c.reg.FetchErrors)
	var statusErr *ol.StatusError
	if errors.As(err, &statusErr) && statusErr.RateLimited() {
		metrics.Inc(&c.reg.RateLimitHits)
	}
	return result, err
}

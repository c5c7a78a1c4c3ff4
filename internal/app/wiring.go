// Package app builds the shared catalog stack from configuration.
package app

import (
	"errors"

	"github.com/rs/zerolog"

	"mybooks/internal/catalog"
	"mybooks/internal/config"
	"mybooks/internal/kafka"
	"mybooks/internal/logger"
	"mybooks/internal/metrics"
	"mybooks/internal/ol"
	"mybooks/internal/store"
)

// Stack is the wired catalog plus whatever needs closing on shutdown.
type Stack struct {
	Catalog   catalog.Client
	Publisher kafka.NotificationPublisher
	Metrics   *metrics.Registry

	closers []func() error
}

// Build wires the Open Library client, the optional Redis page cache and the
// optional Kafka notification producer.
func Build(cfg *config.Config, log zerolog.Logger) (*Stack, error) {
	httpClient, err := ol.NewHTTPClient(ol.HTTPConfig{
		ConnectTimeout:  cfg.Catalog.ConnectTimeout,
		ResponseTimeout: cfg.Catalog.ResponseTimeout,
		TotalTimeout:    cfg.Catalog.TotalTimeout,
		ProxyURL:        cfg.Catalog.ProxyURL,
	})
	if err != nil {
		return nil, err
	}

	s := &Stack{Metrics: metrics.NewRegistry()}

	var client catalog.Client = ol.NewClient(
		ol.WithHTTPClient(httpClient),
		ol.WithBaseURL(cfg.Catalog.BaseURL),
		ol.WithUser(cfg.Catalog.User),
		ol.WithRobots(cfg.Catalog.RespectRobots),
		ol.WithLogger(logger.Component(log, "ol")),
	)
	client = catalog.Instrumented(client, s.Metrics)

	if cfg.CacheEnabled() {
		cache := store.NewRedisPageCache(cfg.Cache.RedisAddr, cfg.Cache.Prefix, cfg.Cache.TTL)
		s.closers = append(s.closers, cache.Close)
		client = catalog.Cached(client, cache, store.Scope(cfg.Catalog.BaseURL, cfg.Catalog.User), s.Metrics, logger.Component(log, "page_cache"))
		log.Info().Str("redis", cfg.Cache.RedisAddr).Dur("ttl", cfg.Cache.TTL).Msg("page cache enabled")
	}
	s.Catalog = client

	if cfg.NotificationsEnabled() {
		prod := kafka.NewProducer(cfg.Notifications.KafkaBroker, cfg.Notifications.Topic)
		s.closers = append(s.closers, prod.Close)
		s.Publisher = prod
		log.Info().
			Str("broker", cfg.Notifications.KafkaBroker).
			Str("topic", cfg.Notifications.Topic).
			Msg("notification publishing enabled")
	}

	return s, nil
}

// Close releases the cache and producer connections.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

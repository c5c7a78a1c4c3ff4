package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"mybooks/internal/models"
)

//go:generate mockgen -destination=../../mocks/page_cache.go -package=mocks mybooks/internal/store PageCache

// PageCache stores catalog pages keyed by PageKey.
type PageCache interface {
	GetPage(ctx context.Context, key string) (models.BookPage, bool, error)
	SetPage(ctx context.Context, key string, page models.BookPage) error
}

// Scope names whose shelves a key belongs to, as host/user. Deployments that
// list different users or catalogs never share entries.
func Scope(baseURL, user string) string {
	host := strings.TrimRight(baseURL, "/")
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return host + "/" + user
}

// PageKey identifies one catalog request within scope.
func PageKey(scope string, category models.ListCategory, limit, page int) string {
	return fmt.Sprintf("%s:%s:%d:%d", scope, category, limit, page)
}

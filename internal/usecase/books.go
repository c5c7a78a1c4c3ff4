// Package usecase holds the per-shelf fetch operations the reducers call.
package usecase

import (
	"context"
	"fmt"

	"mybooks/internal/catalog"
	"mybooks/internal/models"
)

//go:generate mockgen -destination=../../mocks/fetcher.go -package=mocks mybooks/internal/usecase Fetcher

// Fetcher fetches one page of a fixed shelf.
type Fetcher interface {
	Execute(ctx context.Context, limit, page int) (models.BookPage, error)
}

type getBooks struct {
	client   catalog.Client
	category models.ListCategory
}

func (g getBooks) Execute(ctx context.Context, limit, page int) (models.BookPage, error) {
	return g.client.FetchPage(ctx, g.category, limit, page)
}

// GetWantToReadBooks lists the want-to-read shelf.
func GetWantToReadBooks(client catalog.Client) Fetcher {
	return getBooks{client: client, category: models.WantToRead}
}

// GetCurrentlyReadingBooks lists the currently-reading shelf.
func GetCurrentlyReadingBooks(client catalog.Client) Fetcher {
	return getBooks{client: client, category: models.CurrentlyReading}
}

// GetAlreadyReadBooks lists the already-read shelf.
func GetAlreadyReadBooks(client catalog.Client) Fetcher {
	return getBooks{client: client, category: models.AlreadyRead}
}

// Set bundles one Fetcher per category.
type Set struct {
	WantToRead       Fetcher
	CurrentlyReading Fetcher
	AlreadyRead      Fetcher
}

// NewSet builds the three use cases over one client.
func NewSet(client catalog.Client) Set {
	return Set{
		WantToRead:       GetWantToReadBooks(client),
		CurrentlyReading: GetCurrentlyReadingBooks(client),
		AlreadyRead:      GetAlreadyReadBooks(client),
	}
}

// ForCategory returns the use case for category.
func (s Set) ForCategory(category models.ListCategory) (Fetcher, error) {
	var f Fetcher
	switch category {
	case models.WantToRead:
		f = s.WantToRead
	case models.CurrentlyReading:
		f = s.CurrentlyReading
	case models.AlreadyRead:
		f = s.AlreadyRead
	default:
		return nil, fmt.Errorf("unknown list category %q", category)
	}
	if f == nil {
		return nil, fmt.Errorf("no use case wired for %s", category)
	}
	return f, nil
}

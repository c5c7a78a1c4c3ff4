package ol

import (
	"encoding/json"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"mybooks/internal/models"
)

// UnknownKeyPrefix starts every synthesized book id.
const UnknownKeyPrefix = "unknown_key_"

// ParseReadingLog maps a reading-log shelf payload to a BookPage. Entries
// without a work are dropped; TotalCount is always the reported numFound.
func ParseReadingLog(body []byte) (models.BookPage, error) {
	type entry struct {
		Work          json.RawMessage `json:"work"`
		LoggedEdition *string         `json:"logged_edition"`
		LoggedDate    *string         `json:"logged_date"`
	}
	type shelf struct {
		Page     *int    `json:"page"`
		NumFound *int    `json:"numFound"`
		Entries  []entry `json:"reading_log_entries"`
	}

	var payload shelf
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.BookPage{}, err
	}

	page := models.BookPage{Books: make([]models.Book, 0, len(payload.Entries))}
	if payload.NumFound != nil && *payload.NumFound > 0 {
		page.TotalCount = *payload.NumFound
	}
	for _, e := range payload.Entries {
		book, ok, err := parseWork(e.Work)
		if err != nil {
			return models.BookPage{}, err
		}
		if ok {
			page.Books = append(page.Books, book)
		}
	}
	return page, nil
}

func parseWork(raw json.RawMessage) (models.Book, bool, error) {
	type work struct {
		Key              *string  `json:"key"`
		Title            *string  `json:"title"`
		CoverID          *int64   `json:"cover_id"`
		Subjects         []string `json:"subjects"`
		AuthorKeys       []string `json:"author_keys"`
		AuthorNames      []string `json:"author_names"`
		FirstPublishYear *int     `json:"first_publish_year"`
	}

	if len(raw) == 0 || string(raw) == "null" {
		return models.Book{}, false, nil
	}
	var w work
	if err := json.Unmarshal(raw, &w); err != nil {
		return models.Book{}, false, err
	}

	book := models.Book{
		ID:      fallbackKey(w.Key, raw),
		Authors: []string{},
		CoverID: w.CoverID,
	}
	if w.Title != nil {
		book.Title = *w.Title
	}
	if w.AuthorNames != nil {
		book.Authors = w.AuthorNames
	}
	if w.FirstPublishYear != nil {
		book.FirstPublishedYear = strconv.Itoa(*w.FirstPublishYear)
	}
	return book, true, nil
}

// fallbackKey returns key when set, otherwise a stable id derived from the raw work.
func fallbackKey(key *string, raw []byte) string {
	if key != nil && *key != "" {
		return *key
	}
	return UnknownKeyPrefix + strconv.FormatUint(xxhash.Sum64(raw), 10)
}

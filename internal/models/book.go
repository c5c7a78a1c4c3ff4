package models

// Book is a single reading-log work as shown on the list and detail screens.
type Book struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Authors            []string `json:"authors"`
	FirstPublishedYear string   `json:"first_published_year,omitempty"`
	CoverID            *int64   `json:"cover_id,omitempty"`
}

// HasCover reports whether the catalog supplied a cover reference.
func (b Book) HasCover() bool {
	return b.CoverID != nil
}

package models

// BookPage is one page of a category listing. TotalCount is the number of
// matches reported by the catalog for the whole category, not len(Books).
type BookPage struct {
	Books      []Book `json:"books"`
	TotalCount int    `json:"total_count"`
}

package booklist

import "mybooks/internal/models"

// Intent is an action submitted to the list reducer.
type Intent interface {
	intentName() string
}

// LoadBooks restarts the current category from page 1.
type LoadBooks struct{}

// LoadMoreBooks fetches the next page of the current category.
type LoadMoreBooks struct{}

// ChangeCategory switches the active category.
type ChangeCategory struct {
	Category models.ListCategory
}

// SelectBook marks a book for the detail screen.
type SelectBook struct {
	Book models.Book
}

// ClearSelectedBook drops the selection.
type ClearSelectedBook struct{}

// TriggerInitialLoadIfNeeded loads once per session.
type TriggerInitialLoadIfNeeded struct{}

func (LoadBooks) intentName() string                  { return "load_books" }
func (LoadMoreBooks) intentName() string              { return "load_more_books" }
func (ChangeCategory) intentName() string             { return "change_category" }
func (SelectBook) intentName() string                 { return "select_book" }
func (ClearSelectedBook) intentName() string          { return "clear_selected_book" }
func (TriggerInitialLoadIfNeeded) intentName() string { return "trigger_initial_load" }

package models

// ListState is the observable state of the book list screen.
type ListState struct {
	Books         []Book       `json:"books"`
	Category      ListCategory `json:"category"`
	IsLoading     bool         `json:"is_loading"`
	IsLoadingMore bool         `json:"is_loading_more"`
	Error         *string      `json:"error,omitempty"`
	CurrentPage   int          `json:"current_page"`
	HasMoreData   bool         `json:"has_more_data"`
	TotalCount    int          `json:"total_count"`
	SelectedBook  *Book        `json:"selected_book,omitempty"`
	HasLoadedOnce bool         `json:"has_loaded_once"`
}

// NewListState returns the state a fresh list screen session starts with.
func NewListState() ListState {
	return ListState{
		Books:       []Book{},
		Category:    WantToRead,
		CurrentPage: 1,
		HasMoreData: true,
	}
}

// ErrorMessage returns the error text or "" when there is none.
func (s ListState) ErrorMessage() string {
	if s.Error == nil {
		return ""
	}
	return *s.Error
}

// Clone returns a copy whose slices and pointers do not alias s.
func (s ListState) Clone() ListState {
	out := s
	out.Books = append([]Book(nil), s.Books...)
	if out.Books == nil {
		out.Books = []Book{}
	}
	if s.Error != nil {
		msg := *s.Error
		out.Error = &msg
	}
	if s.SelectedBook != nil {
		b := *s.SelectedBook
		out.SelectedBook = &b
	}
	return out
}

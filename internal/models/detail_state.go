package models

// DetailState is the observable state of the book detail screen.
type DetailState struct {
	Book      *Book   `json:"book,omitempty"`
	IsLoading bool    `json:"is_loading"`
	Error     *string `json:"error,omitempty"`
	NotFound  bool    `json:"not_found,omitempty"` // lookup finished without a match
}

// ErrorMessage returns the error text or "" when there is none.
func (s DetailState) ErrorMessage() string {
	if s.Error == nil {
		return ""
	}
	return *s.Error
}

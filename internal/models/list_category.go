package models

import "fmt"

// ListCategory is one of the fixed reading-status shelves.
type ListCategory string

const (
	WantToRead       ListCategory = "want-to-read"
	CurrentlyReading ListCategory = "currently-reading"
	AlreadyRead      ListCategory = "already-read"
)

// Categories lists every category in display order.
var Categories = []ListCategory{WantToRead, CurrentlyReading, AlreadyRead}

// Valid reports whether c is one of the known categories.
func (c ListCategory) Valid() bool {
	switch c {
	case WantToRead, CurrentlyReading, AlreadyRead:
		return true
	default:
		return false
	}
}

// DisplayName returns the human readable shelf name.
func (c ListCategory) DisplayName() string {
	switch c {
	case WantToRead:
		return "Want to Read"
	case CurrentlyReading:
		return "Currently Reading"
	case AlreadyRead:
		return "Already Read"
	default:
		return string(c)
	}
}

// ParseListCategory accepts the path slug form (want-to-read) as well as the
// underscore form (want_to_read).
func ParseListCategory(value string) (ListCategory, error) {
	for _, c := range Categories {
		if value == string(c) || value == underscored(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown list category %q", value)
}

func underscored(c ListCategory) string {
	out := []byte(c)
	for i := range out {
		if out[i] == '-' {
			out[i] = '_'
		}
	}
	return string(out)
}

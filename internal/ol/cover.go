package ol

import (
	"fmt"
	"strings"
)

// DefaultCoverHost serves Open Library cover images.
const DefaultCoverHost = "https://covers.openlibrary.org"

// CoverSize is the size tier appended to a cover URL.
type CoverSize string

const (
	CoverLarge  CoverSize = "L"
	CoverMedium CoverSize = "M"
)

// ParseCoverSize accepts L/M or large/medium.
func ParseCoverSize(value string) (CoverSize, error) {
	switch strings.ToLower(value) {
	case "l", "large":
		return CoverLarge, nil
	case "m", "medium":
		return CoverMedium, nil
	default:
		return "", fmt.Errorf("unknown cover size %q", value)
	}
}

// CoverURL renders {host}/b/id/{ref}-{size}.jpg. A nil ref is rendered as the
// literal "null"; callers that want a placeholder must check Book.HasCover.
func CoverURL(host string, ref *int64, size CoverSize) string {
	id := "null"
	if ref != nil {
		id = fmt.Sprintf("%d", *ref)
	}
	return fmt.Sprintf("%s/b/id/%s-%s.jpg", strings.TrimRight(host, "/"), id, size)
}

package evidence

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/linesmerrill/court-session-api/registry"
)

// Extractor turns an uploaded file into searchable text
type Extractor interface {
	Supports(mimeType string) bool
	Extract(mimeType string, data []byte) (string, error)
}

// PlainText extracts text/* and JSON uploads. PDF and image text extraction
// are left to an external Extractor.
type PlainText struct{}

// Supports implements Extractor
func (PlainText) Supports(mimeType string) bool {
	base, _, _ := strings.Cut(mimeType, ";")
	base = strings.TrimSpace(base)
	return strings.HasPrefix(base, "text/") || base == "application/json"
}

// Extract implements Extractor
func (p PlainText) Extract(mimeType string, data []byte) (string, error) {
	if !p.Supports(mimeType) {
		return "", fmt.Errorf("%w: no text extractor for %s", registry.ErrValidation, mimeType)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: file is not valid UTF-8 text", registry.ErrValidation)
	}
	return string(data), nil
}

package evidence

import (
	"strings"
	"unicode"
)

// Chunking used for every indexed document
const (
	ChunkSize    = 1000
	ChunkOverlap = 200
)

// Chunk splits text into windows of at most size runes, each sharing overlap
// runes with the previous one. A window prefers to end on whitespace when one
// falls in its last quarter.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = ChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	runes := []rune(strings.TrimSpace(text))
	var chunks []string
	for start := 0; start < len(runes); {
		end := min(start+size, len(runes))
		if end < len(runes) {
			for cut := end; cut > end-size/4; cut-- {
				if unicode.IsSpace(runes[cut-1]) {
					end = cut
					break
				}
			}
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
		start = max(end-overlap, start+1)
	}
	return chunks
}

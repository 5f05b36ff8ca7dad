// Package ingest turns raw source documents into embedded, persisted
// knowledge chunks. Splitting is windowed with configurable size and
// overlap; chunk keys are derived from the source identity plus index so
// re-ingesting an unchanged source is idempotent.
package ingest

import (
	"fmt"
	"strings"
)

// SplitText splits text into windows of at most size runes, with
// consecutive windows sharing overlap runes. Windowing is rune-based so
// multi-byte characters are never cut in half. Whitespace-only windows
// are dropped; the final window may be shorter than size.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}

		if chunk := string(runes[start:end]); strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}
		start = end - overlap
	}

	return chunks
}

// keySeparator splits a chunk key into source identity and chunk index.
// Sources containing it are rejected at ingestion time so the mapping
// stays unambiguous.
const keySeparator = "#"

// ChunkKey derives the stable key for the index-th chunk of a source.
// The same source and index always map to the same key.
func ChunkKey(source string, index int) string {
	return fmt.Sprintf("%s%s%d", source, keySeparator, index)
}

// Package chunk splits raw document text into overlapping, word-boundary
// respecting chunks. Chunks are the unit of retrieval: each one is embedded
// and stored independently, and overlap between consecutive chunks keeps
// sentences that straddle a boundary retrievable from either side.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// Default chunking parameters, tuned for documentation-style prose.
const (
	// DefaultSize is the maximum number of bytes per chunk.
	DefaultSize = 512
	// DefaultOverlap is the number of bytes shared between consecutive chunks.
	DefaultOverlap = 50
)

// Split divides text into overlapping chunks of at most size bytes.
//
// Text no longer than size is returned as a single trimmed chunk. Otherwise
// each window is backed off to the last whitespace boundary inside it (when
// one exists past the window start) so words are never split mid-token; a
// window with no whitespace is cut at a rune boundary instead, so chunks are
// always valid UTF-8. Chunks are trimmed of surrounding whitespace and empty
// results dropped.
//
// The start position advances to end-overlap after each window; if that
// would not move forward (overlap >= window width) it is forced to end, so
// Split terminates for any non-negative size/overlap combination.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}

	if len(text) <= size {
		if c := strings.TrimSpace(text); c != "" {
			return []string{c}
		}
		return nil
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + size
		if end > len(text) {
			end = len(text)
		} else {
			// Back off to the last whitespace strictly after start to
			// avoid cutting a word in half. Without any whitespace (CJK
			// prose, long tokens) back off to a rune boundary instead so
			// a multi-byte rune is never sliced.
			if ws := strings.LastIndexAny(text[start:end], " \t\n\r"); ws > 0 {
				end = start + ws
			} else {
				e := end
				for e > start && !utf8.RuneStart(text[e]) {
					e--
				}
				if e > start {
					end = e
				}
			}
		}

		if c := strings.TrimSpace(text[start:end]); c != "" {
			chunks = append(chunks, c)
		}

		next := end - overlap
		if next <= start {
			// Overlap swallowed the whole window; force forward progress.
			next = end
		}
		// The byte-based overlap step can land inside a multi-byte rune.
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}

	return chunks
}

package ai

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxChunkLen  = 1000
	DefaultChunkOverlap = 200
)

// Chunk splits text into ordered fragments of at most maxLen bytes, with
// roughly overlap bytes shared between consecutive fragments so context is
// not lost at the seams. Cut points prefer paragraph breaks, then sentence
// ends, then spaces; a run of maxLen bytes without any of those is cut hard
// on a rune boundary. The result is finite and deterministic.
func Chunk(text string, maxLen, overlap int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxChunkLen
	}
	if overlap < 0 || overlap >= maxLen {
		overlap = maxLen / 5
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		remain := len(text) - start
		if remain <= maxLen {
			frag := strings.TrimSpace(text[start:])
			if frag != "" {
				chunks = append(chunks, frag)
			}
			break
		}
		end := start + cutPoint(text[start:start+maxLen])
		frag := strings.TrimSpace(text[start:end])
		if frag != "" {
			chunks = append(chunks, frag)
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		// overlap must begin on a rune boundary
		for next > start && next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}
	return chunks
}

// cutPoint returns the byte offset to cut a window at, scanning backwards
// for a natural boundary. Boundaries in the first half of the window are
// ignored to keep fragments from degenerating.
func cutPoint(window string) int {
	min := len(window) / 2

	if idx := strings.LastIndex(window, "\n\n"); idx > min {
		return idx
	}
	best := -1
	for _, sep := range []string{". ", "! ", "? ", ".\n", "!\n", "?\n"} {
		if idx := strings.LastIndex(window, sep); idx > min && idx+len(sep) > best {
			best = idx + len(sep)
		}
	}
	if best > 0 {
		return best
	}
	if idx := strings.LastIndexByte(window, '\n'); idx > min {
		return idx
	}
	if idx := strings.LastIndexByte(window, ' '); idx > min {
		return idx
	}
	// no boundary at all: hard cut on a rune edge
	end := len(window)
	for end > 0 && !utf8.RuneStart(window[end-1]) {
		end--
	}
	if end > 0 && window[end-1] >= utf8.RuneSelf && !utf8.ValidString(window[end-1:]) {
		// the last rune is truncated by the window edge, drop it
		end--
	}
	if end <= 0 {
		end = len(window)
	}
	return end
}

package service

import (
	"regexp"
	"strings"
)

// ChunkConfig controls how document text is segmented before embedding.
type ChunkConfig struct {
	MaxChars int
	Overlap  int
}

// DefaultChunkConfig provides the segmentation used for document ingestion.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars: 1400,
		Overlap:  200,
	}
}

var (
	inlineSpaceRun = regexp.MustCompile("[\t\v\f\u00a0]+")
	blankLineRun   = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText canonicalizes line endings and whitespace runs and trims the result.
func NormalizeText(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = inlineSpaceRun.ReplaceAllString(s, " ")
	s = blankLineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// SplitIntoChunks normalizes raw and cuts it into windows of at most
// chunkSize runes, preferring to end a window just after its last paragraph
// break. Consecutive windows share up to overlap runes. Text that fits in one
// window is returned as a single chunk, even when empty.
func SplitIntoChunks(raw string, chunkSize, overlap int) []string {
	text := []rune(NormalizeText(raw))
	if chunkSize <= 0 {
		chunkSize = DefaultChunkConfig().MaxChars
	}
	if len(text) <= chunkSize {
		return []string{string(text)}
	}

	spans := splitSpans(text, chunkSize, overlap)
	chunks := make([]string, 0, len(spans))
	for _, sp := range spans {
		chunk := strings.TrimSpace(string(text[sp.start:sp.end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

type span struct {
	start, end int
}

// splitSpans returns the rune windows SplitIntoChunks trims into chunks.
// Every window starts strictly after the previous one, so the loop ends.
func splitSpans(text []rune, chunkSize, overlap int) []span {
	if overlap < 0 {
		overlap = 0
	}
	n := len(text)
	spans := make([]span, 0, n/chunkSize+2)
	start := 0
	for start < n {
		end := start + chunkSize
		if end > n {
			end = n
		}
		if end < n {
			if idx := lastParagraphBreak(text[start:end]); idx >= 0 {
				end = start + idx + 2
			}
		}
		spans = append(spans, span{start: start, end: end})
		if end >= n {
			break
		}

		nextStart := end - overlap
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}
	return spans
}

func lastParagraphBreak(window []rune) int {
	for i := len(window) - 2; i >= 0; i-- {
		if window[i] == '\n' && window[i+1] == '\n' {
			return i
		}
	}
	return -1
}

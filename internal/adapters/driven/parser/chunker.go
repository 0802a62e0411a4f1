package parser

import (
	"regexp"
	"strings"
)

// Chunking defaults, in approximate whitespace tokens.
const (
	defaultChunkSize = 400
	defaultOverlap   = 100
)

var sentenceEndRe = regexp.MustCompile(`[.!?]\s+`)

// ChunkConfig tunes sentence chunking for the parsers that split free
// text. Zero values fall back to the package defaults.
type ChunkConfig struct {
	Size    int
	Overlap int
}

func (c ChunkConfig) withDefaults() ChunkConfig {
	if c.Size <= 0 {
		c.Size = defaultChunkSize
	}
	if c.Overlap <= 0 {
		c.Overlap = defaultOverlap
	}
	return c
}

// chunkText splits text into overlapping segments of roughly chunkSize
// tokens. Splitting happens on sentence boundaries; the tail sentences
// of each chunk are carried into the next one up to the overlap budget.
func chunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if overlap < 0 {
		overlap = defaultOverlap
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, sentence := range sentences {
		sentenceLen := countTokens(sentence)

		if currentLen+sentenceLen > chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))

			// Carry trailing sentences forward for continuity.
			var carried []string
			carriedLen := 0
			for i := len(current) - 1; i >= 0; i-- {
				sLen := countTokens(current[i])
				if carriedLen+sLen > overlap {
					break
				}
				carried = append([]string{current[i]}, carried...)
				carriedLen += sLen
			}
			current = carried
			currentLen = carriedLen
		}

		current = append(current, sentence)
		currentLen += sentenceLen
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// splitSentences splits on sentence-ending punctuation followed by
// whitespace. Text with no boundaries comes back as one sentence.
func splitSentences(text string) []string {
	var sentences []string
	lastEnd := 0

	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		sentence := strings.TrimSpace(text[lastEnd:loc[1]])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		lastEnd = loc[1]
	}

	if lastEnd < len(text) {
		if remaining := strings.TrimSpace(text[lastEnd:]); remaining != "" {
			sentences = append(sentences, remaining)
		}
	}

	if len(sentences) == 0 && strings.TrimSpace(text) != "" {
		sentences = append(sentences, strings.TrimSpace(text))
	}
	return sentences
}

// countTokens approximates token count by splitting on whitespace.
func countTokens(text string) int {
	return len(strings.Fields(text))
}

// tableRowText formats a table row as "Header: value | Header: value".
// Cells without a value are omitted.
func tableRowText(headers, cells []string) string {
	parts := make([]string, 0, len(cells))
	for i, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if i < len(headers) && strings.TrimSpace(headers[i]) != "" {
			parts = append(parts, strings.TrimSpace(headers[i])+": "+cell)
		} else {
			parts = append(parts, cell)
		}
	}
	return strings.Join(parts, " | ")
}

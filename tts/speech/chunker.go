// Package speech drives the platform's native text-to-speech engine,
// splitting text into sentence-sized utterances played strictly in order.
package speech

import "strings"

// sentenceTerminals are the characters that end a chunk.
const sentenceTerminals = ".!?"

// SplitChunks splits text into sentence-like chunks on terminal
// punctuation, keeping the punctuation with its chunk. Text without
// sentence punctuation falls back to whitespace tokens, and if that
// produces nothing the whole trimmed string is a single chunk. Empty
// input yields no chunks.
func SplitChunks(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	if strings.ContainsAny(trimmed, sentenceTerminals) {
		if chunks := splitSentences(trimmed); len(chunks) > 0 {
			return chunks
		}
	}
	if fields := strings.Fields(trimmed); len(fields) > 0 {
		return fields
	}
	return []string{trimmed}
}

// splitSentences cuts after each run of terminal punctuation, so mixed
// runs like "?!" or "..." stay with their sentence.
func splitSentences(text string) []string {
	var chunks []string
	var b strings.Builder
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		b.WriteRune(runes[i])
		if !strings.ContainsRune(sentenceTerminals, runes[i]) {
			continue
		}
		for i+1 < len(runes) && strings.ContainsRune(sentenceTerminals, runes[i+1]) {
			i++
			b.WriteRune(runes[i])
		}
		if chunk := strings.TrimSpace(b.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		b.Reset()
	}
	if rest := strings.TrimSpace(b.String()); rest != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}

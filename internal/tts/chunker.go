package tts

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultChunkCharLimit bounds the text submitted in one synthesis call.
	DefaultChunkCharLimit = 2000

	// Candidates shorter than this that end with a period are treated as
	// abbreviations rather than sentence ends and merged forward.
	minSentenceLen = 10
)

// SplitChunks splits text into ordered chunks of at most limit characters,
// preferring sentence boundaries. A single sentence longer than the limit is
// force-sliced into limit-sized windows. Whitespace-only candidates are
// dropped; chunk order follows text order.
func SplitChunks(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultChunkCharLimit
	}
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	sentences := mergeShortCandidates(splitSentences(text))

	var chunks []string
	var current strings.Builder
	currentLen := 0
	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, sentence := range sentences {
		sentenceLen := utf8.RuneCountInString(sentence)
		if sentenceLen > limit {
			flush()
			chunks = append(chunks, sliceWindows(sentence, limit)...)
			continue
		}
		needed := sentenceLen
		if currentLen > 0 {
			needed++ // joining space
		}
		if currentLen+needed > limit {
			flush()
			needed = sentenceLen
		}
		if currentLen > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
		currentLen += needed
	}
	flush()

	return chunks
}

// splitSentences breaks text after '.', '!' or '?' only when the punctuation
// is followed by whitespace and an uppercase letter. Conservative on purpose:
// "e.g. something" or "3.14" never split, "Dr. Smith" is handled by the
// short-candidate merge afterwards.
func splitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0

	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
		default:
			continue
		}
		next := i + 1
		for next < len(runes) && unicode.IsSpace(runes[next]) {
			next++
		}
		if next == i+1 || next >= len(runes) || !unicode.IsUpper(runes[next]) {
			continue
		}
		if candidate := strings.TrimSpace(string(runes[start : i+1])); candidate != "" {
			sentences = append(sentences, candidate)
		}
		start = next
		i = next - 1
	}

	if start < len(runes) {
		if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
			sentences = append(sentences, tail)
		}
	}
	return sentences
}

// mergeShortCandidates joins a suspiciously short period-terminated candidate
// with its successor, undoing splits caused by abbreviations.
func mergeShortCandidates(candidates []string) []string {
	var out []string
	for i := 0; i < len(candidates); i++ {
		current := candidates[i]
		for utf8.RuneCountInString(current) < minSentenceLen &&
			strings.HasSuffix(current, ".") && i+1 < len(candidates) {
			i++
			current = current + " " + candidates[i]
		}
		out = append(out, current)
	}
	return out
}

// sliceWindows cuts an oversized sentence into fixed-size rune windows. Word
// boundaries are not respected in this overflow path.
func sliceWindows(sentence string, limit int) []string {
	runes := []rune(sentence)
	out := make([]string, 0, (len(runes)+limit-1)/limit)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

package chunker

import (
	"regexp"
	"strings"
)

// TokenSplitter splits text into overlapping token windows, preferring to cut
// at sentence boundaries. Tokens are whitespace-delimited words, which tracks
// model tokenizers closely enough for sizing embedding input.
type TokenSplitter struct {
	chunkSize    int
	chunkOverlap int
	sentenceRe   *regexp.Regexp
}

// NewTokenSplitter creates a splitter with the given window and overlap,
// both measured in tokens. Overlap is clamped below the window size.
func NewTokenSplitter(chunkSize, chunkOverlap int) *TokenSplitter {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &TokenSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		sentenceRe:   regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?]+)`),
	}
}

// Split is a pure function of the input text and the splitter parameters.
// Text that fits in a single window yields exactly one whitespace-normalized
// chunk. Longer text is packed sentence by sentence; consecutive chunks share
// roughly chunkOverlap tokens.
func (s *TokenSplitter) Split(text string) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}
	if len(strings.Fields(normalized)) <= s.chunkSize {
		return []string{normalized}
	}

	sentences := s.sentences(normalized)

	var chunks []string
	var window []string // sentences in the current chunk
	tokens := 0
	for i := 0; i < len(sentences); i++ {
		n := tokenCount(sentences[i])
		if tokens+n > s.chunkSize && len(window) > 0 {
			chunks = append(chunks, strings.Join(window, " "))
			window, tokens = s.carryOverlap(window)
		}
		window = append(window, sentences[i])
		tokens += n
	}
	if len(window) > 0 {
		chunks = append(chunks, strings.Join(window, " "))
	}
	return chunks
}

// sentences splits on sentence terminators; a sentence longer than the window
// is hard-split by tokens so packing always makes progress.
func (s *TokenSplitter) sentences(text string) []string {
	found := s.sentenceRe.FindAllString(text, -1)
	if len(found) == 0 {
		found = []string{text}
	} else if consumed := len(strings.Join(found, "")); consumed < len(text) {
		if tail := strings.TrimSpace(text[consumed:]); tail != "" {
			found = append(found, tail)
		}
	}
	var out []string
	for _, sent := range found {
		sent = strings.TrimSpace(sent)
		if sent == "" {
			continue
		}
		words := strings.Fields(sent)
		for len(words) > s.chunkSize {
			out = append(out, strings.Join(words[:s.chunkSize], " "))
			words = words[s.chunkSize:]
		}
		if len(words) > 0 {
			out = append(out, strings.Join(words, " "))
		}
	}
	return out
}

// carryOverlap keeps the trailing sentences of the finished chunk, up to the
// configured overlap budget, as the start of the next chunk.
func (s *TokenSplitter) carryOverlap(window []string) ([]string, int) {
	var kept []string
	tokens := 0
	for i := len(window) - 1; i >= 0; i-- {
		n := tokenCount(window[i])
		if tokens+n > s.chunkOverlap {
			break
		}
		kept = append([]string{window[i]}, kept...)
		tokens += n
	}
	return kept, tokens
}

func tokenCount(text string) int {
	return len(strings.Fields(text))
}

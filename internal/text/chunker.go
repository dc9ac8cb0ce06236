package text

import (
	"regexp"
	"strings"
)

// Splitter turns extracted document text into ordered chunk strings.
// Implementations are deterministic for identical input.
type Splitter interface {
	Split(text string) []string
}

// SentenceSplitter accumulates whole sentences into chunks of at most
// MaxChunkSize characters. Sentences end at terminal punctuation followed
// by whitespace. A sentence longer than MaxChunkSize is packed greedily on
// word boundaries instead; only a single word longer than the limit is ever
// emitted oversized.
type SentenceSplitter struct {
	MaxChunkSize int
}

func NewSentenceSplitter(maxChunkSize int) *SentenceSplitter {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	return &SentenceSplitter{MaxChunkSize: maxChunkSize}
}

var sentenceEndRe = regexp.MustCompile(`[.!?]+\s+`)

// splitSentences cuts text after each terminal-punctuation run that is
// followed by whitespace, keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[last:loc[1]])
		if s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if last < len(text) {
		if s := strings.TrimSpace(text[last:]); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func (s *SentenceSplitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
	}

	appendPiece := func(piece string) {
		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(piece)
	}

	for _, sentence := range splitSentences(text) {
		if buf.Len() > 0 && buf.Len()+1+len(sentence) > s.MaxChunkSize {
			flush()
		}

		if len(sentence) > s.MaxChunkSize {
			// Oversized sentence: pack word by word.
			for _, word := range strings.Fields(sentence) {
				if buf.Len() > 0 && buf.Len()+1+len(word) > s.MaxChunkSize {
					flush()
				}
				appendPiece(word)
			}
			continue
		}

		appendPiece(sentence)
	}

	flush()
	return chunks
}

// charsPerToken is the same rough estimate the embedding side uses; good
// enough for sizing chunks, not for billing.
const charsPerToken = 4

// TokenSplitConfig sizes the overlapping splitter. Overlap re-embeds spans
// across chunk boundaries to keep semantic continuity.
type TokenSplitConfig struct {
	TargetTokens  int // soft budget per chunk
	OverlapTokens int // tokens repeated from the previous chunk
	MinChunkChars int // chunks shorter than this are merged forward
	MaxChunkChars int // hard ceiling regardless of token estimate
}

func DefaultTokenSplitConfig() TokenSplitConfig {
	return TokenSplitConfig{
		TargetTokens:  500,
		OverlapTokens: 50,
		MinChunkChars: 50,
		MaxChunkChars: 10000,
	}
}

// TokenSplitter packs whitespace-delimited words into chunks of roughly
// TargetTokens tokens, stepping back OverlapTokens between chunks.
type TokenSplitter struct {
	cfg TokenSplitConfig
}

func NewTokenSplitter(cfg TokenSplitConfig) *TokenSplitter {
	if cfg.TargetTokens <= 0 {
		cfg.TargetTokens = 500
	}
	if cfg.OverlapTokens < 0 {
		cfg.OverlapTokens = 0
	}
	if cfg.OverlapTokens >= cfg.TargetTokens {
		cfg.OverlapTokens = cfg.TargetTokens / 2
	}
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = 10000
	}
	return &TokenSplitter{cfg: cfg}
}

func (t *TokenSplitter) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	budget := t.cfg.TargetTokens * charsPerToken
	if budget > t.cfg.MaxChunkChars {
		budget = t.cfg.MaxChunkChars
	}
	overlapChars := t.cfg.OverlapTokens * charsPerToken

	var chunks []string
	start := 0
	for start < len(words) {
		var size int
		end := start
		for end < len(words) {
			wordLen := len(words[end])
			if size > 0 {
				wordLen++ // joining space
			}
			if size+wordLen > budget && size > 0 {
				break
			}
			size += wordLen
			end++
		}

		chunk := strings.Join(words[start:end], " ")
		if len(chunk) >= t.cfg.MinChunkChars || end == len(words) {
			chunks = append(chunks, chunk)
		}

		if end == len(words) {
			break
		}

		// Step back far enough to repeat roughly OverlapTokens of text.
		next := end
		back := 0
		for next > start+1 && back < overlapChars {
			next--
			back += len(words[next]) + 1
		}
		start = next
	}

	return chunks
}

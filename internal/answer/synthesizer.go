// Package answer turns retrieved chunks into a grounded natural-language
// answer, scores it, and picks the single best-matching source document.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docai/internal/retrieval"
)

const (
	// NoInfoMessage is returned without a model call when retrieval found
	// nothing in the requested scope.
	NoInfoMessage = "Sorry, no relevant information could be found."

	// FailedMessage substitutes for any completion failure. The pipeline
	// favors always producing a response over surfacing model errors.
	FailedMessage = "An error occurred while generating the answer."
)

// Completer is the language-model completion capability.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteStream(ctx context.Context, prompt string) (<-chan string, <-chan error)
}

type Synthesizer struct {
	chat    Completer
	timeout time.Duration
}

func NewSynthesizer(chat Completer, timeout time.Duration) *Synthesizer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Synthesizer{chat: chat, timeout: timeout}
}

// Synthesize produces the full answer text in one call. An empty retrieval
// short-circuits to NoInfoMessage; completion errors become FailedMessage.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, chunks []retrieval.RetrievedChunk, documentName string) string {
	if len(chunks) == 0 {
		return NoInfoMessage
	}

	prompt := BuildPrompt(query, BuildContext(chunks), documentName)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.chat.Complete(callCtx, prompt)
	if err != nil {
		slog.ErrorContext(ctx, "answer generation failed", "error", err)
		return FailedMessage
	}
	return text
}

// SynthesizeStream emits answer fragments on the returned channel, which
// closes when the answer completes, fails, or ctx is cancelled. A failure
// before any fragment was emitted yields FailedMessage as the sole fragment;
// a mid-stream failure ends the stream without corrupting emitted output.
func (s *Synthesizer) SynthesizeStream(ctx context.Context, query string, chunks []retrieval.RetrievedChunk, documentName string) <-chan string {
	out := make(chan string, 1)

	if len(chunks) == 0 {
		out <- NoInfoMessage
		close(out)
		return out
	}

	prompt := BuildPrompt(query, BuildContext(chunks), documentName)

	go func() {
		defer close(out)

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		fragments, errc := s.chat.CompleteStream(callCtx, prompt)
		emitted := false
		for fragment := range fragments {
			select {
			case out <- fragment:
				emitted = true
			case <-ctx.Done():
				return
			}
		}
		if err := <-errc; err != nil {
			slog.ErrorContext(ctx, "streaming answer generation failed", "error", err, "emitted", emitted)
			if !emitted {
				select {
				case out <- FailedMessage:
				case <-ctx.Done():
				}
			}
		}
	}()

	return out
}

// BuildContext assembles the grounding context with per-chunk labels so the
// model can cite which document a statement came from.
func BuildContext(chunks []retrieval.RetrievedChunk) string {
	var b strings.Builder
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "Document %d:\n", i+1)
		fmt.Fprintf(&b, "File: %s\n", chunk.FileName)
		fmt.Fprintf(&b, "Content: %s\n\n", chunk.Content)
	}
	return b.String()
}

// BuildPrompt embeds the verbatim query, the context, and grounding
// instructions. A non-empty documentName pins the answer to that document.
func BuildPrompt(query, context, documentName string) string {
	if documentName != "" {
		return fmt.Sprintf(`Answer the user's question based on the content of the document '%s'.

Question: %s

Document content:
%s
Instructions:
1. Answer only from the content of this document.
2. Do not guess at information the document does not contain.
3. State clearly when the document cannot answer the question.
4. Be as specific and accurate as possible.

Answer:`, documentName, query, context)
	}

	return fmt.Sprintf(`Answer the user's question based on the following document excerpts.

Question: %s

Relevant document excerpts:
%s
Instructions:
1. Answer only from the provided excerpts.
2. Do not guess at information the excerpts do not contain.
3. State clearly when the excerpts cannot answer the question.
4. Be as specific and accurate as possible.
5. When several documents contribute, combine them into one answer.

Answer:`, query, context)
}

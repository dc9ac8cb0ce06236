package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docai/internal/retrieval"
)

// DocumentRef identifies the single best-matching source document.
type DocumentRef struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
}

const previewLength = 200

// Disambiguator selects one representative document when retrieved chunks
// span several sources.
type Disambiguator struct {
	chat    Completer
	timeout time.Duration
}

func NewDisambiguator(chat Completer, timeout time.Duration) *Disambiguator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Disambiguator{chat: chat, timeout: timeout}
}

// PickPrimaryDocument returns nil when chunks is empty, the shared document
// when all chunks agree (no model call), and otherwise asks the completion
// capability to vote between candidates. A vote outside the candidate set
// falls back to the top-ranked chunk's document; the result is always one of
// the retrieved candidates, never an invented name.
func (d *Disambiguator) PickPrimaryDocument(ctx context.Context, query string, chunks []retrieval.RetrievedChunk) *DocumentRef {
	if len(chunks) == 0 {
		return nil
	}

	// candidates in rank order, one entry per document
	var candidates []DocumentRef
	previews := make(map[string]string)
	for _, chunk := range chunks {
		if _, seen := previews[chunk.DocumentID]; seen {
			continue
		}
		candidates = append(candidates, DocumentRef{DocumentID: chunk.DocumentID, FileName: chunk.FileName})
		previews[chunk.DocumentID] = truncate(chunk.Content, previewLength)
	}

	if len(candidates) == 1 {
		return &candidates[0]
	}

	top := candidates[0]

	choice, err := d.vote(ctx, query, candidates, previews)
	if err != nil {
		slog.WarnContext(ctx, "document disambiguation vote failed, using top hit", "error", err)
		return &top
	}

	for i := range candidates {
		if namesMatch(candidates[i].FileName, choice) {
			return &candidates[i]
		}
	}

	slog.WarnContext(ctx, "disambiguation vote named an unknown document, using top hit",
		"choice", choice, "top", top.FileName)
	return &top
}

func (d *Disambiguator) vote(ctx context.Context, query string, candidates []DocumentRef, previews map[string]string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "A user asked: %q\n\n", query)
	b.WriteString("The question matched excerpts from several documents:\n\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s: %s\n", c.FileName, previews[c.DocumentID])
	}
	b.WriteString("\nReply with only the file name of the single document most relevant to the question, exactly as written above.")

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	choice, err := d.chat.Complete(callCtx, b.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(choice), nil
}

func namesMatch(candidate, choice string) bool {
	candidate = strings.ToLower(strings.TrimSpace(candidate))
	choice = strings.ToLower(strings.TrimSpace(choice))
	return candidate == choice || (choice != "" && strings.Contains(choice, candidate))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

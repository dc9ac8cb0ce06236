package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docai/features/category"
	"docai/features/document"
	"docai/internal/answer"
	"docai/internal/retrieval"
)

type stubCompleter struct {
	response string
	err      error
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubCompleter) CompleteStream(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, 1)
	errc := make(chan error, 1)
	if s.err != nil {
		errc <- s.err
	} else {
		out <- s.response
		errc <- nil
	}
	close(out)
	return out, errc
}

type stubRetriever struct {
	chunks   []retrieval.RetrievedChunk
	err      error
	gotScope retrieval.Scope
	gotTopK  int
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, scope retrieval.Scope, topK int) ([]retrieval.RetrievedChunk, error) {
	s.gotScope = scope
	s.gotTopK = topK
	return s.chunks, s.err
}

type stubCategories struct {
	ids map[string][]string
}

func (s *stubCategories) DescendantIDs(ctx context.Context, id string) ([]string, error) {
	if ids, ok := s.ids[id]; ok {
		return ids, nil
	}
	return nil, category.ErrNotFound
}

type stubDocuments struct {
	docs map[string]*document.Document
}

func (s *stubDocuments) Get(ctx context.Context, id string) (*document.Document, error) {
	if d, ok := s.docs[id]; ok {
		return d, nil
	}
	return nil, document.ErrNotFound
}

func fixtureChunks() []retrieval.RetrievedChunk {
	return []retrieval.RetrievedChunk{
		{DocumentID: "doc-a", FileName: "handbook.pdf", ChunkIndex: 0, Content: strings.Repeat("Vacation allowance is 25 days. ", 10)},
		{DocumentID: "doc-a", FileName: "handbook.pdf", ChunkIndex: 4, Content: "Carry-over needs approval."},
	}
}

func newSearchService(chat answer.Completer, r *stubRetriever) *Service {
	return NewService(
		r,
		answer.NewSynthesizer(chat, time.Second),
		answer.NewDisambiguator(chat, time.Second),
		&stubCategories{ids: map[string][]string{"cat-1": {"cat-1", "cat-2"}}},
		&stubDocuments{docs: map[string]*document.Document{"doc-a": {ID: "doc-a", FileName: "handbook.pdf"}}},
		5,
	)
}

func TestAnswerInCategory(t *testing.T) {
	t.Run("Full Response", func(t *testing.T) {
		r := &stubRetriever{chunks: fixtureChunks()}
		svc := newSearchService(&stubCompleter{response: strings.Repeat("25 days of vacation. ", 10)}, r)

		resp, err := svc.AnswerInCategory(context.Background(), "cat-1", "How many vacation days?", 0)
		require.NoError(t, err)

		assert.Equal(t, "How many vacation days?", resp.Query)
		assert.Equal(t, 2, resp.TotalChunks)
		assert.Greater(t, resp.Confidence, 0.0)
		assert.Equal(t, "handbook.pdf", resp.DocumentName)
		require.Len(t, resp.Sources, 2)
		assert.LessOrEqual(t, len([]rune(resp.Sources[0].Content)), sourcePreviewLength+3)

		// Scope carries the pre-resolved subtree ids.
		assert.Equal(t, retrieval.ScopeCategory, r.gotScope.Kind)
		assert.Equal(t, []string{"cat-1", "cat-2"}, r.gotScope.CategoryIDs)
		assert.Equal(t, 5, r.gotTopK, "zero topK falls back to the configured default")
	})

	t.Run("Explicit TopK Overrides Default", func(t *testing.T) {
		r := &stubRetriever{chunks: fixtureChunks()}
		svc := newSearchService(&stubCompleter{response: "x"}, r)

		_, err := svc.AnswerInCategory(context.Background(), "cat-1", "q", 12)
		require.NoError(t, err)
		assert.Equal(t, 12, r.gotTopK)
	})

	t.Run("Unknown Category", func(t *testing.T) {
		svc := newSearchService(&stubCompleter{response: "x"}, &stubRetriever{})

		_, err := svc.AnswerInCategory(context.Background(), "missing", "q", 0)
		assert.ErrorIs(t, err, category.ErrNotFound)
	})

	t.Run("No Hits Yields Fallback With Zero Confidence", func(t *testing.T) {
		svc := newSearchService(&stubCompleter{response: "unused"}, &stubRetriever{})

		resp, err := svc.AnswerInCategory(context.Background(), "cat-1", "q", 0)
		require.NoError(t, err)
		assert.Equal(t, answer.NoInfoMessage, resp.Answer)
		assert.Equal(t, 0.0, resp.Confidence)
		assert.Empty(t, resp.Sources)
		assert.Empty(t, resp.DocumentName)
	})

	t.Run("Model Failure Yields Fallback With Zero Confidence", func(t *testing.T) {
		svc := newSearchService(&stubCompleter{err: errors.New("model down")}, &stubRetriever{chunks: fixtureChunks()})

		resp, err := svc.AnswerInCategory(context.Background(), "cat-1", "q", 0)
		require.NoError(t, err)
		assert.Equal(t, answer.FailedMessage, resp.Answer)
		assert.Equal(t, 0.0, resp.Confidence)
		assert.Equal(t, 2, resp.TotalChunks, "sources still reported with the fallback answer")
	})

	t.Run("Retrieval Failure Propagates", func(t *testing.T) {
		svc := newSearchService(&stubCompleter{response: "x"}, &stubRetriever{err: errors.New("index down")})

		_, err := svc.AnswerInCategory(context.Background(), "cat-1", "q", 0)
		assert.Error(t, err)
	})
}

func TestAnswerInDocument(t *testing.T) {
	t.Run("Pinned To Document", func(t *testing.T) {
		r := &stubRetriever{chunks: fixtureChunks()}
		svc := newSearchService(&stubCompleter{response: strings.Repeat("Long grounded answer. ", 10)}, r)

		resp, err := svc.AnswerInDocument(context.Background(), "doc-a", "q", 0)
		require.NoError(t, err)
		assert.Equal(t, "handbook.pdf", resp.DocumentName)
		assert.Equal(t, retrieval.ScopeDocument, r.gotScope.Kind)
		assert.Equal(t, "doc-a", r.gotScope.DocumentID)
	})

	t.Run("Unknown Document", func(t *testing.T) {
		svc := newSearchService(&stubCompleter{response: "x"}, &stubRetriever{})

		_, err := svc.AnswerInDocument(context.Background(), "missing", "q", 0)
		assert.ErrorIs(t, err, document.ErrNotFound)
	})
}

func TestStreamAnswer(t *testing.T) {
	collect := func(ch <-chan string) string {
		var b strings.Builder
		for f := range ch {
			b.WriteString(f)
		}
		return b.String()
	}

	t.Run("Streams Fragments", func(t *testing.T) {
		svc := newSearchService(&stubCompleter{response: "streamed answer"}, &stubRetriever{chunks: fixtureChunks()})

		stream, err := svc.StreamAnswerInDocument(context.Background(), "doc-a", "q", 0)
		require.NoError(t, err)
		assert.Equal(t, "streamed answer", collect(stream))
	})

	t.Run("Empty Scope Streams NoInfo", func(t *testing.T) {
		svc := newSearchService(&stubCompleter{response: "unused"}, &stubRetriever{})

		stream, err := svc.StreamAnswerInCategory(context.Background(), "cat-1", "q", 0)
		require.NoError(t, err)
		assert.Equal(t, answer.NoInfoMessage, collect(stream))
	})

	t.Run("Unknown Scope Fails Before Streaming", func(t *testing.T) {
		svc := newSearchService(&stubCompleter{response: "x"}, &stubRetriever{})

		_, err := svc.StreamAnswerInCategory(context.Background(), "missing", "q", 0)
		assert.ErrorIs(t, err, category.ErrNotFound)
	})
}

func TestSourceTruncation(t *testing.T) {
	long := strings.Repeat("α", sourcePreviewLength+50)
	svc := newSearchService(&stubCompleter{response: strings.Repeat("answer ", 30)}, &stubRetriever{chunks: []retrieval.RetrievedChunk{
		{DocumentID: "doc-a", FileName: "handbook.pdf", Content: long},
	}})

	resp, err := svc.AnswerInCategory(context.Background(), "cat-1", "q", 0)
	require.NoError(t, err)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, sourcePreviewLength+3, len([]rune(resp.Sources[0].Content)))
	assert.True(t, strings.HasSuffix(resp.Sources[0].Content, "..."))
}

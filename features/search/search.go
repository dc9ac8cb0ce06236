package search

import (
	"context"
	"log/slog"

	"docai/features/document"
	"docai/internal/answer"
	"docai/internal/retrieval"
)

const sourcePreviewLength = 200

type SourceInfo struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
	ChunkIndex int    `json:"chunk_index"`
	Content    string `json:"content"`
}

type SearchResponse struct {
	Query        string       `json:"query"`
	Answer       string       `json:"answer"`
	Sources      []SourceInfo `json:"sources"`
	Confidence   float64      `json:"confidence"`
	TotalChunks  int          `json:"total_chunks"`
	DocumentName string       `json:"document_name,omitempty"`
}

type Retriever interface {
	Retrieve(ctx context.Context, query string, scope retrieval.Scope, topK int) ([]retrieval.RetrievedChunk, error)
}

// SubtreeResolver expands a category id into itself plus all descendants.
type SubtreeResolver interface {
	DescendantIDs(ctx context.Context, id string) ([]string, error)
}

type DocumentResolver interface {
	Get(ctx context.Context, id string) (*document.Document, error)
}

type Service struct {
	retriever     Retriever
	synthesizer   *answer.Synthesizer
	disambiguator *answer.Disambiguator
	categories    SubtreeResolver
	documents     DocumentResolver
	topK          int
}

func NewService(r Retriever, s *answer.Synthesizer, d *answer.Disambiguator, categories SubtreeResolver, documents DocumentResolver, topK int) *Service {
	return &Service{
		retriever:     r,
		synthesizer:   s,
		disambiguator: d,
		categories:    categories,
		documents:     documents,
		topK:          topK,
	}
}

// AnswerInCategory answers a question against everything stored in a
// category subtree. When the hits span several documents the disambiguator
// names the primary one in the response. topK <= 0 means the configured
// default.
func (s *Service) AnswerInCategory(ctx context.Context, categoryID, query string, topK int) (*SearchResponse, error) {
	chunks, err := s.retrieveCategory(ctx, categoryID, query, topK)
	if err != nil {
		return nil, err
	}

	answerText := s.synthesizer.Synthesize(ctx, query, chunks, "")

	resp := s.buildResponse(query, answerText, chunks)
	if primary := s.disambiguator.PickPrimaryDocument(ctx, query, chunks); primary != nil {
		resp.DocumentName = primary.FileName
	}
	return resp, nil
}

// AnswerInDocument answers a question against a single document, with the
// prompt pinned to that document's name.
func (s *Service) AnswerInDocument(ctx context.Context, documentID, query string, topK int) (*SearchResponse, error) {
	doc, chunks, err := s.retrieveDocument(ctx, documentID, query, topK)
	if err != nil {
		return nil, err
	}

	answerText := s.synthesizer.Synthesize(ctx, query, chunks, doc.FileName)

	resp := s.buildResponse(query, answerText, chunks)
	resp.DocumentName = doc.FileName
	return resp, nil
}

// StreamAnswerInCategory is the streaming variant of AnswerInCategory.
// Errors before the first fragment surface as a returned error; after that
// the stream simply ends.
func (s *Service) StreamAnswerInCategory(ctx context.Context, categoryID, query string, topK int) (<-chan string, error) {
	chunks, err := s.retrieveCategory(ctx, categoryID, query, topK)
	if err != nil {
		return nil, err
	}
	return s.synthesizer.SynthesizeStream(ctx, query, chunks, ""), nil
}

func (s *Service) StreamAnswerInDocument(ctx context.Context, documentID, query string, topK int) (<-chan string, error) {
	doc, chunks, err := s.retrieveDocument(ctx, documentID, query, topK)
	if err != nil {
		return nil, err
	}
	return s.synthesizer.SynthesizeStream(ctx, query, chunks, doc.FileName), nil
}

func (s *Service) retrieveCategory(ctx context.Context, categoryID, query string, topK int) ([]retrieval.RetrievedChunk, error) {
	ids, err := s.categories.DescendantIDs(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	chunks, err := s.retriever.Retrieve(ctx, query, retrieval.CategoryScope(ids...), s.effectiveTopK(topK))
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "category search retrieved chunks",
		"category_id", categoryID, "num_chunks", len(chunks))
	return chunks, nil
}

func (s *Service) retrieveDocument(ctx context.Context, documentID, query string, topK int) (*document.Document, []retrieval.RetrievedChunk, error) {
	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}

	chunks, err := s.retriever.Retrieve(ctx, query, retrieval.DocumentScope(documentID), s.effectiveTopK(topK))
	if err != nil {
		return nil, nil, err
	}
	slog.InfoContext(ctx, "document search retrieved chunks",
		"document_id", documentID, "num_chunks", len(chunks))
	return doc, chunks, nil
}

func (s *Service) effectiveTopK(topK int) int {
	if topK <= 0 {
		return s.topK
	}
	return topK
}

func (s *Service) buildResponse(query, answerText string, chunks []retrieval.RetrievedChunk) *SearchResponse {
	sources := make([]SourceInfo, 0, len(chunks))
	for _, c := range chunks {
		sources = append(sources, SourceInfo{
			DocumentID: c.DocumentID,
			FileName:   c.FileName,
			ChunkIndex: c.ChunkIndex,
			Content:    truncate(c.Content, sourcePreviewLength),
		})
	}

	return &SearchResponse{
		Query:       query,
		Answer:      answerText,
		Sources:     sources,
		Confidence:  answer.Confidence(len(chunks), answerText),
		TotalChunks: len(chunks),
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"docai/internal/middleware"
)

// Service embeds a query with the same model used at ingestion time and asks
// the vector index for the top-K nearest chunks in the given scope. An empty
// scope is a normal state and yields an empty result, not an error.
type Service struct {
	embedder Embedder
	index    VectorIndex
	logger   *QueryLogger
}

func NewService(e Embedder, idx VectorIndex, l *QueryLogger) *Service {
	return &Service{embedder: e, index: idx, logger: l}
}

func (s *Service) Retrieve(ctx context.Context, query string, scope Scope, topK int) ([]RetrievedChunk, error) {
	if topK <= 0 {
		topK = 5
	}

	start := time.Now()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var chunks []RetrievedChunk
	switch scope.Kind {
	case ScopeCategory:
		chunks, err = s.index.NearestByCategory(ctx, vec, scope.CategoryIDs, topK)
	case ScopeDocument:
		chunks, err = s.index.NearestByDocument(ctx, vec, scope.DocumentID, topK)
	default:
		return nil, fmt.Errorf("unknown scope kind %d", scope.Kind)
	}
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Query:         query,
			NumResults:    len(chunks),
			Duration:      time.Since(start),
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
	}

	slog.DebugContext(ctx, "retrieval finished", "num_results", len(chunks), "top_k", topK)
	return chunks, nil
}

package weaviate

import (
	"context"
	"fmt"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"docai/internal/ingest"
	"docai/internal/retrieval"
	"docai/internal/vector"
)

// Store implements the vector index against Weaviate's DocumentChunk class.
// Both scoped query paths use the class's cosine distance; see
// vector.DistanceMetric.
type Store struct {
	client    *weaviate.Client
	dimension int
}

func NewStore(client *weaviate.Client, dimension int) *Store {
	return &Store{client: client, dimension: dimension}
}

func (s *Store) Insert(ctx context.Context, chunk ingest.Chunk) error {
	if len(chunk.Vector) != s.dimension {
		return fmt.Errorf("%w: got %d, index expects %d", vector.ErrDimensionMismatch, len(chunk.Vector), s.dimension)
	}

	_, err := s.client.Data().Creator().
		WithClassName(vector.ClassName).
		WithProperties(map[string]interface{}{
			"content":      chunk.Content,
			"documentId":   chunk.DocumentID,
			"chunkIndex":   chunk.ChunkIndex,
			"fileName":     chunk.Metadata.FileName,
			"categoryId":   chunk.Metadata.CategoryID,
			"categoryName": chunk.Metadata.CategoryName,
			"contentType":  chunk.Metadata.ContentType,
			"fileSize":     chunk.Metadata.FileSize,
			"uploadedAt":   chunk.Metadata.UploadedAt,
			"createdAt":    chunk.CreatedAt.Format(time.RFC3339),
			"updatedAt":    chunk.UpdatedAt.Format(time.RFC3339),
		}).
		WithVector(chunk.Vector).
		Do(ctx)
	return err
}

// DeleteByDocument removes every chunk of a document. Deleting a document
// with no chunks is a no-op, not an error.
func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassName).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"documentId"}).
			WithOperator(filters.Equal).
			WithValueString(documentID)).
		Do(ctx)
	return err
}

func (s *Store) NearestByCategory(ctx context.Context, queryVector []float32, categoryIDs []string, k int) ([]retrieval.RetrievedChunk, error) {
	where := filters.Where().
		WithPath([]string{"categoryId"}).
		WithOperator(filters.ContainsAny).
		WithValueString(categoryIDs...)
	return s.nearest(ctx, queryVector, where, k)
}

func (s *Store) NearestByDocument(ctx context.Context, queryVector []float32, documentID string, k int) ([]retrieval.RetrievedChunk, error) {
	where := filters.Where().
		WithPath([]string{"documentId"}).
		WithOperator(filters.Equal).
		WithValueString(documentID)
	return s.nearest(ctx, queryVector, where, k)
}

func (s *Store) nearest(ctx context.Context, queryVector []float32, where *filters.WhereBuilder, k int) ([]retrieval.RetrievedChunk, error) {
	if len(queryVector) != s.dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d", vector.ErrDimensionMismatch, len(queryVector), s.dimension)
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(queryVector)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "documentId"},
		{Name: "chunkIndex"},
		{Name: "fileName"},
		{Name: "categoryId"},
		{Name: "categoryName"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithNearVector(nearVector).
		WithWhere(where).
		WithLimit(k).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var results []retrieval.RetrievedChunk
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return results, nil
	}
	raw, ok := data[vector.ClassName].([]interface{})
	if !ok {
		return results, nil
	}

	for _, c := range raw {
		props, ok := c.(map[string]interface{})
		if !ok {
			continue
		}

		var chunk retrieval.RetrievedChunk
		if content, ok := props["content"].(string); ok {
			chunk.Content = content
		}
		if id, ok := props["documentId"].(string); ok {
			chunk.DocumentID = id
		}
		if idx, ok := props["chunkIndex"].(float64); ok {
			chunk.ChunkIndex = int(idx)
		}
		if name, ok := props["fileName"].(string); ok {
			chunk.FileName = name
		}
		if id, ok := props["categoryId"].(string); ok {
			chunk.CategoryID = id
		}
		if name, ok := props["categoryName"].(string); ok {
			chunk.CategoryName = name
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if distance, ok := additional["distance"].(float64); ok {
				chunk.Distance = float32(distance)
			}
		}

		results = append(results, chunk)
	}

	return results, nil
}

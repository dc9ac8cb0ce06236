package vector

import (
	"context"
	"errors"

	"github.com/weaviate/weaviate/entities/models"
)

// ClassName is the Weaviate class holding one object per document chunk.
const ClassName = "DocumentChunk"

// DistanceMetric backs BOTH query paths (category-scoped and
// document-scoped). Cosine was chosen deliberately: the two paths must be
// rank-consistent with each other, and cosine is robust to non-normalized
// embedding magnitudes.
const DistanceMetric = "cosine"

// ErrDimensionMismatch signals a query or insert vector whose length differs
// from the deployment-wide embedding dimension. This is a configuration
// error (mixed embedding model versions), never recoverable per request.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// SchemaClient defines the Weaviate schema operations the bootstrap needs.
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

// EnsureSchema creates the DocumentChunk class if missing, or adds any
// missing properties to an existing one.
func EnsureSchema(ctx context.Context, client SchemaClient) error {
	properties := []*models.Property{
		{Name: "content", DataType: []string{"text"}},
		{Name: "documentId", DataType: []string{"string"}}, // exact match
		{Name: "chunkIndex", DataType: []string{"int"}},
		{Name: "fileName", DataType: []string{"text"}},
		{Name: "categoryId", DataType: []string{"string"}}, // exact match
		{Name: "categoryName", DataType: []string{"text"}},
		{Name: "contentType", DataType: []string{"string"}},
		{Name: "fileSize", DataType: []string{"int"}},
		{Name: "uploadedAt", DataType: []string{"text"}},
		{Name: "createdAt", DataType: []string{"text"}},
		{Name: "updatedAt", DataType: []string{"text"}},
	}

	exists, err := client.ClassExists(ctx, ClassName)
	if err != nil {
		return err
	}

	if !exists {
		class := &models.Class{
			Class:       ClassName,
			Description: "An embedded chunk of an uploaded document",
			Vectorizer:  "none",
			VectorIndexConfig: map[string]interface{}{
				"distance": DistanceMetric,
			},
			Properties: properties,
		}
		return client.CreateClass(ctx, class)
	}

	class, err := client.GetClass(ctx, ClassName)
	if err != nil {
		return err
	}

	existing := make(map[string]bool)
	for _, p := range class.Properties {
		existing[p.Name] = true
	}

	for _, p := range properties {
		if !existing[p.Name] {
			if err := client.AddProperty(ctx, ClassName, p); err != nil {
				return err
			}
		}
	}

	return nil
}

package retrieval

import "context"

// RetrievedChunk is one nearest-neighbor hit. Results are ordered by
// ascending vector distance; the slice position is the rank.
type RetrievedChunk struct {
	DocumentID   string  `json:"document_id"`
	ChunkIndex   int     `json:"chunk_index"`
	Content      string  `json:"content"`
	FileName     string  `json:"file_name"`
	CategoryID   string  `json:"category_id,omitempty"`
	CategoryName string  `json:"category_name,omitempty"`
	Distance     float32 `json:"distance"`
}

type ScopeKind int

const (
	ScopeCategory ScopeKind = iota
	ScopeDocument
)

// Scope restricts a search to one category subtree or one document.
// Category scoping carries pre-resolved descendant ids; the vector index
// never walks the tree itself.
type Scope struct {
	Kind        ScopeKind
	CategoryIDs []string
	DocumentID  string
}

func CategoryScope(ids ...string) Scope {
	return Scope{Kind: ScopeCategory, CategoryIDs: ids}
}

func DocumentScope(id string) Scope {
	return Scope{Kind: ScopeDocument, DocumentID: id}
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorIndex interface {
	NearestByCategory(ctx context.Context, vector []float32, categoryIDs []string, k int) ([]RetrievedChunk, error)
	NearestByDocument(ctx context.Context, vector []float32, documentID string, k int) ([]RetrievedChunk, error)
}

package semantic

import "github.com/AutoSceneAI/autoscene-mvp/engine/domain"

// Named vector spaces of the asset collection. Both are populated at ingest;
// the retrieval path queries only the description space (the category space
// is kept representable for forward compatibility).
const (
	VectorDescription = "text_description"
	VectorCategory    = "text_category"
)

// EmbeddingDims is the dimension of both vector spaces (bge-small class
// embedding models).
const EmbeddingDims = 384

// SearchResult is a single similarity hit with its decoded asset payload.
type SearchResult struct {
	ID    string             `json:"id"`
	Score float32            `json:"score"`
	Asset domain.AssetRecord `json:"asset"`
}

// VectorRecord is a single multi-vector point to store in Qdrant.
type VectorRecord struct {
	ID      string
	Vectors map[string][]float32 // keyed by vector space name
	Payload map[string]any
}

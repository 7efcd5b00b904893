package contract

import (
	"context"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/entity"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredKnowledgeDocument wraps a document with its cosine similarity to
// the query vector, already joined back to the parent document.
type ScoredKnowledgeDocument struct {
	Document   *entity.KnowledgeDocument
	Chunk      string
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type KnowledgeRepository interface {
	Create(ctx context.Context, doc *entity.KnowledgeDocument) error
	Update(ctx context.Context, doc *entity.KnowledgeDocument) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeDocument, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeDocument, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	CreateEmbedding(ctx context.Context, embedding *entity.KnowledgeEmbedding) error
	CreateEmbeddingBulk(ctx context.Context, embeddings []*entity.KnowledgeEmbedding) error
	DeleteEmbeddingsByDocumentId(ctx context.Context, documentId uuid.UUID) error

	// SearchSimilarWithScore runs a pgvector cosine nearest-neighbor search
	// over embedding chunks, filtered by threshold and document specs.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64, specs ...specification.Specification) ([]*ScoredKnowledgeDocument, error)
}

package implementation

import (
	"context"
	"strings"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/entity"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/repository/contract"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/repository/specification"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/retrieval"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/store"
)

// KnowledgeSearcher adapts the knowledge repository to the retrieval
// engine's search contract: ILIKE keyword containment for the lexical leg
// and pgvector nearest-neighbor for the vector leg.
type KnowledgeSearcher struct {
	repo contract.KnowledgeRepository
}

func NewKnowledgeSearcher(repo contract.KnowledgeRepository) *KnowledgeSearcher {
	return &KnowledgeSearcher{repo: repo}
}

const (
	lexicalBaseScore    = 0.4
	lexicalCoverageSpan = 0.5
)

func (s *KnowledgeSearcher) Lexical(ctx context.Context, keywords []string, rawQuery string, f retrieval.Filters, limit int) ([]store.Candidate, error) {
	specs := filterSpecs(f)
	if len(keywords) > 0 {
		specs = append(specs, specification.KeywordSearch{Keywords: keywords})
	} else {
		specs = append(specs, specification.ContentSearch{Query: rawQuery})
	}
	specs = append(specs, specification.Pagination{Limit: limit})

	docs, err := s.repo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	candidates := make([]store.Candidate, 0, len(docs))
	for _, doc := range docs {
		candidates = append(candidates, store.Candidate{
			ID:              doc.Id.String(),
			Title:           doc.Title,
			Content:         doc.Content,
			Category:        doc.Category,
			DocumentType:    doc.DocumentType,
			SimilarityScore: lexicalScore(doc, keywords),
		})
	}
	return candidates, nil
}

func (s *KnowledgeSearcher) Vector(ctx context.Context, vector []float32, f retrieval.Filters, limit int, threshold float64) ([]store.Candidate, error) {
	scored, err := s.repo.SearchSimilarWithScore(ctx, vector, limit, threshold, filterSpecs(f)...)
	if err != nil {
		return nil, err
	}

	candidates := make([]store.Candidate, 0, len(scored))
	for _, sc := range scored {
		if sc.Document == nil {
			continue
		}
		content := sc.Chunk
		if content == "" {
			content = sc.Document.Content
		}
		candidates = append(candidates, store.Candidate{
			ID:              sc.Document.Id.String(),
			Title:           sc.Document.Title,
			Content:         content,
			Category:        sc.Document.Category,
			DocumentType:    sc.Document.DocumentType,
			SimilarityScore: sc.Similarity,
		})
	}
	return candidates, nil
}

// lexicalScore grades a keyword hit by coverage: the more query keywords a
// document contains, the closer to 0.9 it scores. A document returned by
// the ILIKE search matched at least one keyword, so the floor is 0.4.
func lexicalScore(doc *entity.KnowledgeDocument, keywords []string) float64 {
	if len(keywords) == 0 {
		return lexicalBaseScore
	}
	haystack := strings.ToLower(doc.Title + " " + doc.Content)
	hits := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
			hits++
		}
	}
	coverage := float64(hits) / float64(len(keywords))
	return lexicalBaseScore + lexicalCoverageSpan*coverage
}

func filterSpecs(f retrieval.Filters) []specification.Specification {
	var specs []specification.Specification
	if f.DocumentType != "" {
		specs = append(specs, specification.ByDocumentType{DocumentType: f.DocumentType})
	}
	if f.Category != "" {
		specs = append(specs, specification.ByCategory{Category: f.Category})
	}
	if f.Course != "" {
		specs = append(specs, specification.ByCourse{Course: f.Course})
	}
	if f.Campus != "" {
		specs = append(specs, specification.ByCampus{Campus: f.Campus})
	}
	if f.Status != "" {
		specs = append(specs, specification.ByStatus{Status: f.Status})
	}
	return specs
}

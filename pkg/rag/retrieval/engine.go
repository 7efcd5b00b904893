package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/pkg/logger"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/cache"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/embedding"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/store"
)

// Filters scope a retrieval to a slice of the corpus. Course/Campus/Status
// come from the caller's structured context; only these fields participate
// in the cache key, free-text incidental content never does.
type Filters struct {
	DocumentType string
	Category     string
	Course       string
	Campus       string
	Status       string
}

// Searcher is the data-store collaborator: keyword containment over
// title/content and nearest-neighbor search over the same corpus.
type Searcher interface {
	Lexical(ctx context.Context, keywords []string, rawQuery string, f Filters, limit int) ([]store.Candidate, error)
	Vector(ctx context.Context, vector []float32, f Filters, limit int, threshold float64) ([]store.Candidate, error)
}

// Config encapsulates retrieval parameters.
type Config struct {
	TopK          int
	MinSimilarity float64
	Lambda        float64       // MMR relevance/diversity trade-off
	HelperTimeout time.Duration // embedding-call budget
	CacheTTL      time.Duration // short: underlying data changes
	PoolSize      int           // candidates fetched per source before ranking
}

// DefaultConfig returns default retrieval parameters.
func DefaultConfig() Config {
	return Config{
		TopK:          5,
		MinSimilarity: 0.35,
		Lambda:        0.7,
		HelperTimeout: 1500 * time.Millisecond,
		CacheTTL:      5 * time.Minute,
		PoolSize:      20,
	}
}

// Engine runs hybrid candidate generation, content-level deduplication and
// MMR diversification. Failure policy: an embedding timeout or an empty
// corpus yields an empty ranked list, never an error; callers answer
// without citations.
type Engine struct {
	embedder embedding.EmbeddingProvider
	searcher Searcher
	results  *cache.Tiered
	log      logger.ILogger
	cfg      Config
}

func NewEngine(embedder embedding.EmbeddingProvider, searcher Searcher, results *cache.Tiered, log logger.ILogger, cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg = DefaultConfig()
	}
	return &Engine{
		embedder: embedder,
		searcher: searcher,
		results:  results,
		log:      log,
		cfg:      cfg,
	}
}

// Retrieve returns up to k ranked candidates for queryText. k <= 0 falls
// back to the configured TopK.
func (e *Engine) Retrieve(ctx context.Context, queryText string, f Filters, k int) []store.RankedCandidate {
	if k <= 0 {
		k = e.cfg.TopK
	}

	key := e.cacheKey(queryText, f)
	if cached, ok := e.results.GetBytes(ctx, key); ok {
		var ranked []store.RankedCandidate
		if err := json.Unmarshal(cached, &ranked); err == nil {
			return ranked
		}
	}

	pool := e.gatherCandidates(ctx, queryText, f)
	if len(pool) == 0 {
		return []store.RankedCandidate{}
	}

	deduped := DeduplicateByContent(pool)
	diverse := Diversify(deduped, k, e.cfg.Lambda)

	ranked := make([]store.RankedCandidate, len(diverse))
	for i, c := range diverse {
		ranked[i] = store.RankedCandidate{Candidate: c, Rank: i + 1}
	}

	// Never write partial data for a cancelled request.
	if ctx.Err() == nil {
		if payload, err := json.Marshal(ranked); err == nil {
			e.results.SetBytes(ctx, key, payload)
		}
	}
	return ranked
}

func (e *Engine) gatherCandidates(ctx context.Context, queryText string, f Filters) []store.Candidate {
	var pool []store.Candidate

	keywords := Tokenize(queryText)
	lexical, err := e.searcher.Lexical(ctx, keywords, queryText, f, e.cfg.PoolSize)
	if err != nil {
		e.log.Warn("retrieval", "lexical search failed", map[string]interface{}{"error": err.Error()})
	} else {
		pool = append(pool, lexical...)
	}

	if vec := e.embedQuery(ctx, queryText); vec != nil {
		vector, err := e.searcher.Vector(ctx, vec, f, e.cfg.PoolSize, e.cfg.MinSimilarity)
		if err != nil {
			e.log.Warn("retrieval", "vector search failed", map[string]interface{}{"error": err.Error()})
		} else {
			pool = append(pool, vector...)
		}
	}

	// Threshold applies to the union: lexical hits carry scores too.
	filtered := pool[:0]
	for _, c := range pool {
		if c.SimilarityScore >= e.cfg.MinSimilarity {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// embedQuery obtains the query vector under the helper budget. On timeout
// or error it returns nil and retrieval degrades to lexical-only.
func (e *Engine) embedQuery(ctx context.Context, queryText string) []float32 {
	if e.embedder == nil {
		return nil
	}
	embedCtx, cancel := context.WithTimeout(ctx, e.cfg.HelperTimeout)
	defer cancel()

	res, err := e.embedder.Generate(embedCtx, queryText, "RETRIEVAL_QUERY")
	if err != nil {
		e.log.Warn("retrieval", "embedding unavailable, lexical-only retrieval", map[string]interface{}{"error": err.Error()})
		return nil
	}
	if res == nil || len(res.Embedding.Values) == 0 {
		return nil
	}
	return res.Embedding.Values
}

func (e *Engine) cacheKey(queryText string, f Filters) string {
	return cache.Key("retrieval", map[string]string{
		"q":             strings.Join(Tokenize(queryText), " "),
		"document_type": f.DocumentType,
		"category":      f.Category,
		"course":        f.Course,
		"campus":        f.Campus,
		"status":        f.Status,
	})
}

// DeduplicateByContent collapses candidates whose content hashes to the
// same digest, keeping the highest-scoring instance per duplicate group.
// Content identity, not id identity, is the key: two differently-titled
// records with identical body text collapse to one.
func DeduplicateByContent(candidates []store.Candidate) []store.Candidate {
	best := make(map[string]int) // digest -> index into out
	var out []store.Candidate

	for _, c := range candidates {
		sum := sha256.Sum256([]byte(c.Content))
		digest := hex.EncodeToString(sum[:])
		if i, seen := best[digest]; seen {
			if c.SimilarityScore > out[i].SimilarityScore {
				out[i] = c
			}
			continue
		}
		best[digest] = len(out)
		out = append(out, c)
	}
	return out
}

// Tokenize splits a query on whitespace, lowercased. Used both for lexical
// keyword matching and for normalizing the cached query representation.
func Tokenize(queryText string) []string {
	return strings.Fields(strings.ToLower(queryText))
}

// String implements a debug representation for Filters.
func (f Filters) String() string {
	return fmt.Sprintf("type=%s category=%s course=%s campus=%s status=%s",
		f.DocumentType, f.Category, f.Course, f.Campus, f.Status)
}

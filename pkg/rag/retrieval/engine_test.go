package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/pkg/logger"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/cache"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/embedding"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/store"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: f.vec},
	}, nil
}

type fakeSearcher struct {
	lexical     []store.Candidate
	vector      []store.Candidate
	lexicalErr  error
	vectorCalls int
}

func (f *fakeSearcher) Lexical(ctx context.Context, keywords []string, raw string, fl Filters, limit int) ([]store.Candidate, error) {
	return f.lexical, f.lexicalErr
}

func (f *fakeSearcher) Vector(ctx context.Context, vec []float32, fl Filters, limit int, threshold float64) ([]store.Candidate, error) {
	f.vectorCalls++
	return f.vector, nil
}

func newTestEngine(emb *fakeEmbedder, s *fakeSearcher) *Engine {
	tier := cache.NewTiered(cache.New(32, time.Minute), nil, time.Minute)
	return NewEngine(emb, s, tier, logger.Nop(), DefaultConfig())
}

func cand(id, content, category string, score float64) store.Candidate {
	return store.Candidate{
		ID: id, Title: "t-" + id, Content: content,
		Category: category, SimilarityScore: score,
	}
}

func TestDeduplicateByContent(t *testing.T) {
	in := []store.Candidate{
		cand("a", "same body", "fees", 0.9),
		cand("b", "same body", "fees", 0.88),
		cand("c", "same body", "fees", 0.84),
		cand("d", "different body", "fees", 0.86),
	}
	out := DeduplicateByContent(in)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2 (one per distinct content string)", len(out))
	}
	if out[0].SimilarityScore != 0.9 {
		t.Errorf("survivor score = %v, want the group maximum 0.9", out[0].SimilarityScore)
	}
	if out[1].SimilarityScore != 0.86 {
		t.Errorf("distinct candidate score = %v, want 0.86", out[1].SimilarityScore)
	}
}

func TestDeduplicateKeepsMaxRegardlessOfOrder(t *testing.T) {
	in := []store.Candidate{
		cand("a", "same body", "fees", 0.5),
		cand("b", "same body", "fees", 0.95),
	}
	out := DeduplicateByContent(in)
	if len(out) != 1 || out[0].ID != "b" {
		t.Errorf("got %+v, want only the 0.95 instance", out)
	}
}

func TestDiversifyRepresentsMultipleCategories(t *testing.T) {
	// Three near-identical high scorers in one category should not crowd
	// out the two distinct lower scorers.
	in := []store.Candidate{
		cand("a", "tuition fees payment schedule for september intake", "fees", 0.95),
		cand("b", "tuition fees payment schedule for september intake students", "fees", 0.94),
		cand("c", "tuition fees payment schedule for september intake cohort", "fees", 0.93),
		cand("d", "campus accommodation options and halls of residence", "housing", 0.80),
		cand("e", "visa requirements for international applicants", "visas", 0.78),
	}
	out := Diversify(in, 3, 0.7)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	categories := make(map[string]bool)
	for _, c := range out {
		categories[c.Category] = true
	}
	if len(categories) < 2 {
		t.Errorf("selection dominated by one category: %+v", out)
	}
	if out[0].ID != "a" {
		t.Errorf("first pick must be the top raw scorer, got %s", out[0].ID)
	}
}

func TestDiversifyStopsAtExhaustion(t *testing.T) {
	in := []store.Candidate{cand("a", "only one", "x", 0.5)}
	out := Diversify(in, 5, 0.7)
	if len(out) != 1 {
		t.Errorf("len = %d, want 1", len(out))
	}
}

func TestDiversifyDeterministicForIdenticalInput(t *testing.T) {
	in := []store.Candidate{
		cand("a", "alpha beta gamma", "x", 0.9),
		cand("b", "delta epsilon zeta", "y", 0.9),
		cand("c", "eta theta iota", "z", 0.8),
	}
	first := Diversify(in, 2, 0.7)
	second := Diversify(in, 2, 0.7)
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("non-deterministic selection: %v vs %v", first, second)
		}
	}
}

func TestRetrieveEmptyOnEmbeddingFailure(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("deadline exceeded")}
	s := &fakeSearcher{}
	e := newTestEngine(emb, s)

	got := e.Retrieve(context.Background(), "open day dates", Filters{}, 3)
	if got == nil {
		t.Fatal("must return an empty list, not nil")
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
	if s.vectorCalls != 0 {
		t.Error("vector search must be skipped when embedding fails")
	}
}

func TestRetrieveLexicalOnlyDegradation(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("timeout")}
	s := &fakeSearcher{
		lexical: []store.Candidate{cand("a", "open day schedule", "events", 0.7)},
	}
	e := newTestEngine(emb, s)

	got := e.Retrieve(context.Background(), "open day", Filters{}, 3)
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("lexical hits must survive embedding failure: %+v", got)
	}
	if got[0].Rank != 1 {
		t.Errorf("rank = %d, want 1", got[0].Rank)
	}
}

func TestRetrieveAppliesMinimumSimilarity(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{0.1, 0.2}}
	s := &fakeSearcher{
		lexical: []store.Candidate{cand("low", "weak match", "x", 0.1)},
		vector:  []store.Candidate{cand("high", "strong match", "x", 0.8)},
	}
	e := newTestEngine(emb, s)

	got := e.Retrieve(context.Background(), "query", Filters{}, 5)
	if len(got) != 1 || got[0].ID != "high" {
		t.Errorf("below-threshold candidates must be dropped: %+v", got)
	}
}

func TestRetrieveCachesRankedResults(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{0.1}}
	s := &fakeSearcher{
		vector: []store.Candidate{cand("a", "body", "x", 0.9)},
	}
	e := newTestEngine(emb, s)

	ctx := context.Background()
	first := e.Retrieve(ctx, "fees", Filters{Course: "cs"}, 3)
	second := e.Retrieve(ctx, "fees", Filters{Course: "cs"}, 3)

	if s.vectorCalls != 1 {
		t.Errorf("second call should be served from cache, vector calls = %d", s.vectorCalls)
	}
	if len(first) != len(second) || first[0].ID != second[0].ID {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}
}

func TestRetrieveCancelledRequestDoesNotCache(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{0.1}}
	s := &fakeSearcher{
		vector: []store.Candidate{cand("a", "body", "x", 0.9)},
	}
	e := newTestEngine(emb, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.Retrieve(ctx, "fees", Filters{}, 3)

	// A fresh request must hit the searcher again.
	e.Retrieve(context.Background(), "fees", Filters{}, 3)
	if s.vectorCalls != 2 {
		t.Errorf("cancelled request must not populate the cache, vector calls = %d", s.vectorCalls)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("  When Are  OPEN Days ")
	want := []string{"when", "are", "open", "days"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

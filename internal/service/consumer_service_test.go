package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/entity"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/pkg/logger"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/repository/contract"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/repository/specification"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKnowledgeRepo struct {
	docs       map[uuid.UUID]*entity.KnowledgeDocument
	embeddings map[uuid.UUID][]*entity.KnowledgeEmbedding
	deletes    int
}

func newFakeKnowledgeRepo(docs ...*entity.KnowledgeDocument) *fakeKnowledgeRepo {
	r := &fakeKnowledgeRepo{
		docs:       map[uuid.UUID]*entity.KnowledgeDocument{},
		embeddings: map[uuid.UUID][]*entity.KnowledgeEmbedding{},
	}
	for _, d := range docs {
		r.docs[d.Id] = d
	}
	return r
}

func (r *fakeKnowledgeRepo) Create(ctx context.Context, doc *entity.KnowledgeDocument) error {
	r.docs[doc.Id] = doc
	return nil
}

func (r *fakeKnowledgeRepo) Update(ctx context.Context, doc *entity.KnowledgeDocument) error {
	r.docs[doc.Id] = doc
	return nil
}

func (r *fakeKnowledgeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.docs, id)
	return nil
}

func (r *fakeKnowledgeRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeDocument, error) {
	for _, s := range specs {
		if byID, ok := s.(specification.ByID); ok {
			return r.docs[byID.ID], nil
		}
	}
	return nil, nil
}

func (r *fakeKnowledgeRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeDocument, error) {
	var out []*entity.KnowledgeDocument
	for _, d := range r.docs {
		out = append(out, d)
	}
	return out, nil
}

func (r *fakeKnowledgeRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.docs)), nil
}

func (r *fakeKnowledgeRepo) CreateEmbedding(ctx context.Context, emb *entity.KnowledgeEmbedding) error {
	r.embeddings[emb.DocumentId] = append(r.embeddings[emb.DocumentId], emb)
	return nil
}

func (r *fakeKnowledgeRepo) CreateEmbeddingBulk(ctx context.Context, embs []*entity.KnowledgeEmbedding) error {
	for _, e := range embs {
		r.embeddings[e.DocumentId] = append(r.embeddings[e.DocumentId], e)
	}
	return nil
}

func (r *fakeKnowledgeRepo) DeleteEmbeddingsByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.deletes++
	delete(r.embeddings, documentId)
	return nil
}

func (r *fakeKnowledgeRepo) SearchSimilarWithScore(ctx context.Context, emb []float32, limit int, threshold float64, specs ...specification.Specification) ([]*contract.ScoredKnowledgeDocument, error) {
	return nil, nil
}

type stubEmbedder struct {
	calls int
	err   error
}

func (s *stubEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

func ingestMessage(t *testing.T, docId uuid.UUID) *message.Message {
	t.Helper()
	payload, err := json.Marshal(PublishIngestMessage{DocumentId: docId})
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func TestIngestSkipsWhenEmbeddingDisabled(t *testing.T) {
	doc := &entity.KnowledgeDocument{
		Id:      uuid.New(),
		Title:   "Tuition fees 2026",
		Content: "Home undergraduate tuition is £9,250 per year.",
	}
	repo := newFakeKnowledgeRepo(doc)

	cs := &consumerService{
		repo:              repo,
		embeddingProvider: nil,
		log:               logger.Nop(),
	}

	msg := ingestMessage(t, doc.Id)
	cs.processMessage(context.Background(), msg)

	select {
	case <-msg.Acked():
	default:
		t.Fatal("message with no embedding provider must be acked, not retried")
	}
	assert.Empty(t, repo.embeddings[doc.Id], "no vectors should be written without a provider")
	assert.Zero(t, repo.deletes, "existing vectors must not be cleared without a provider")
}

func TestIngestMalformedPayloadAcked(t *testing.T) {
	cs := &consumerService{
		repo: newFakeKnowledgeRepo(),
		log:  logger.Nop(),
	}

	msg := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	cs.processMessage(context.Background(), msg)

	select {
	case <-msg.Acked():
	default:
		t.Fatal("malformed payloads must be acked so they never loop")
	}
}

func TestIngestReplacesEmbeddings(t *testing.T) {
	doc := &entity.KnowledgeDocument{
		Id:       uuid.New(),
		Title:    "Accommodation guide",
		Category: "accommodation",
		Content:  "Halls of residence are allocated on a first come first served basis.",
	}
	repo := newFakeKnowledgeRepo(doc)
	embedder := &stubEmbedder{}

	cs := &consumerService{
		repo:              repo,
		embeddingProvider: embedder,
		log:               logger.Nop(),
	}

	msg := ingestMessage(t, doc.Id)
	cs.processMessage(context.Background(), msg)

	select {
	case <-msg.Acked():
	default:
		t.Fatal("successful ingest must ack")
	}
	require.NotEmpty(t, repo.embeddings[doc.Id])
	assert.Equal(t, 1, repo.deletes, "previous revision's chunks must be cleared first")
	assert.Equal(t, embedder.calls, len(repo.embeddings[doc.Id]))
	for i, e := range repo.embeddings[doc.Id] {
		assert.Equal(t, i, e.ChunkIndex)
		assert.Equal(t, doc.Id, e.DocumentId)
	}
}

func TestIngestEmbeddingErrorNacked(t *testing.T) {
	doc := &entity.KnowledgeDocument{Id: uuid.New(), Title: "Open day", Content: "Campus tours run hourly."}
	repo := newFakeKnowledgeRepo(doc)

	cs := &consumerService{
		repo:              repo,
		embeddingProvider: &stubEmbedder{err: fmt.Errorf("upstream unavailable")},
		log:               logger.Nop(),
	}

	msg := ingestMessage(t, doc.Id)
	cs.processMessage(context.Background(), msg)

	select {
	case <-msg.Nacked():
	default:
		t.Fatal("a transient embedding failure must nack for redelivery")
	}
	assert.Empty(t, repo.embeddings[doc.Id])
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/entity"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/pkg/logger"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/repository/contract"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/repository/specification"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/embedding"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// IConsumerService drains the ingestion topic: for each enqueued document
// it chunks the content, generates embeddings and replaces the stored
// vectors in one pass.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	repo              contract.KnowledgeRepository
	embeddingProvider embedding.EmbeddingProvider
	log               logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	repo contract.KnowledgeRepository,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		repo:              repo,
		embeddingProvider: embeddingProvider,
		log:               log,
	}
}

// Chunking parameters: 1500 chars is roughly 375 tokens, comfortably
// inside the embedding model's context; 200 chars of overlap preserves
// continuity at chunk boundaries.
const (
	ingestChunkSize    = 1500
	ingestChunkOverlap = 200
)

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload PublishIngestMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("ingest", "failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // malformed payloads never become retriable
		return
	}

	if cs.embeddingProvider == nil {
		// Lexical-only deployment: the document stays searchable through
		// keyword matching, so the event is consumed, not retried.
		cs.log.Warn("ingest", "embedding provider disabled, skipping document", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
		})
		msg.Ack()
		return
	}

	cs.log.Info("ingest", "processing document", map[string]interface{}{"document_id": payload.DocumentId.String()})

	doc, err := cs.repo.FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		cs.log.Error("ingest", "failed to load document", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}
	if doc == nil {
		// Deleted between enqueue and processing.
		msg.Ack()
		return
	}

	content := fmt.Sprintf("Title: %s\nCategory: %s\nDocument Type: %s\n\n%s",
		doc.Title, doc.Category, doc.DocumentType, doc.Content)

	chunks := utils.SplitText(content, ingestChunkSize, ingestChunkOverlap)

	var newEmbeddings []*entity.KnowledgeEmbedding
	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(ctx, chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			cs.log.Error("ingest", "embedding generation failed", map[string]interface{}{
				"document_id": payload.DocumentId.String(),
				"chunk":       i,
				"error":       err.Error(),
			})
			msg.Nack()
			return
		}

		newEmbeddings = append(newEmbeddings, &entity.KnowledgeEmbedding{
			Id:             uuid.New(),
			Document:       chunk,
			EmbeddingValue: res.Embedding.Values,
			DocumentId:     doc.Id,
			ChunkIndex:     i,
			CreatedAt:      time.Now(),
		})
	}

	// Replace, not append: stale chunks from the previous revision must go.
	if err := cs.repo.DeleteEmbeddingsByDocumentId(ctx, doc.Id); err != nil {
		cs.log.Error("ingest", "failed to clear previous embeddings", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}
	if err := cs.repo.CreateEmbeddingBulk(ctx, newEmbeddings); err != nil {
		cs.log.Error("ingest", "failed to store embeddings", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	cs.log.Info("ingest", "document embedded", map[string]interface{}{
		"document_id": payload.DocumentId.String(),
		"chunks":      len(chunks),
	})
	msg.Ack()
}

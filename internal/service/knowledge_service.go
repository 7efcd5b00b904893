package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/dto"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/entity"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/pkg/logger"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/repository/contract"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/repository/specification"

	"github.com/google/uuid"
)

// PublishIngestMessage is the bus payload that asks the consumer to chunk
// and embed one knowledge document.
type PublishIngestMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}

// IKnowledgeService manages the retrieval corpus. Writes enqueue an
// embedding pass so the vector index follows the document content.
type IKnowledgeService interface {
	Create(ctx context.Context, orgID uuid.UUID, req *dto.CreateKnowledgeRequest) (*dto.KnowledgeDocumentResponse, error)
	List(ctx context.Context, category, documentType string, limit, offset int) (*dto.ListKnowledgeResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type knowledgeService struct {
	repo             contract.KnowledgeRepository
	publisherService IPublisherService
	log              logger.ILogger
}

func NewKnowledgeService(repo contract.KnowledgeRepository, publisherService IPublisherService, log logger.ILogger) IKnowledgeService {
	return &knowledgeService{
		repo:             repo,
		publisherService: publisherService,
		log:              log,
	}
}

func (s *knowledgeService) Create(ctx context.Context, orgID uuid.UUID, req *dto.CreateKnowledgeRequest) (*dto.KnowledgeDocumentResponse, error) {
	doc := entity.KnowledgeDocument{
		Id:           uuid.New(),
		Title:        req.Title,
		Content:      req.Content,
		Category:     req.Category,
		DocumentType: req.DocumentType,
		Course:       req.Course,
		Campus:       req.Campus,
		Status:       req.Status,
		OrgId:        orgID,
		Metadata:     req.Metadata,
		CreatedAt:    time.Now(),
	}

	if err := s.repo.Create(ctx, &doc); err != nil {
		return nil, err
	}

	msgPayload := PublishIngestMessage{DocumentId: doc.Id}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	return toKnowledgeResponse(&doc), nil
}

func (s *knowledgeService) List(ctx context.Context, category, documentType string, limit, offset int) (*dto.ListKnowledgeResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	var specs []specification.Specification
	if category != "" {
		specs = append(specs, specification.ByCategory{Category: category})
	}
	if documentType != "" {
		specs = append(specs, specification.ByDocumentType{DocumentType: documentType})
	}

	total, err := s.repo.Count(ctx, specs...)
	if err != nil {
		return nil, err
	}

	specs = append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	docs, err := s.repo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	out := make([]dto.KnowledgeDocumentResponse, len(docs))
	for i, doc := range docs {
		out[i] = *toKnowledgeResponse(doc)
	}
	return &dto.ListKnowledgeResponse{Documents: out, Total: total}, nil
}

func (s *knowledgeService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteEmbeddingsByDocumentId(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func toKnowledgeResponse(doc *entity.KnowledgeDocument) *dto.KnowledgeDocumentResponse {
	return &dto.KnowledgeDocumentResponse{
		Id:           doc.Id,
		Title:        doc.Title,
		Category:     doc.Category,
		DocumentType: doc.DocumentType,
		Course:       doc.Course,
		Campus:       doc.Campus,
		Status:       doc.Status,
		CreatedAt:    doc.CreatedAt,
	}
}

package service

import (
	"context"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/dto"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/pkg/logger"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/response"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/retrieval"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/ratelimit"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/store"
)

// IRAGService answers free-standing knowledge queries: retrieval plus a
// grounded composition, without conversational state.
type IRAGService interface {
	Query(ctx context.Context, userID, orgID string, req *dto.RAGQueryRequest) (*dto.RAGQueryResponse, error)
}

type ragService struct {
	limiter  *ratelimit.Limiter
	engine   *retrieval.Engine
	composer *response.Composer
	log      logger.ILogger
}

func NewRAGService(limiter *ratelimit.Limiter, engine *retrieval.Engine, composer *response.Composer, log logger.ILogger) IRAGService {
	return &ragService{
		limiter:  limiter,
		engine:   engine,
		composer: composer,
		log:      log,
	}
}

func (s *ragService) Query(ctx context.Context, userID, orgID string, req *dto.RAGQueryRequest) (*dto.RAGQueryResponse, error) {
	if !s.limiter.Admit(userID, orgID) {
		return nil, ratelimit.ErrRateLimited
	}

	filters := retrieval.Filters{
		DocumentType: req.DocumentType,
		Category:     req.Category,
		Course:       req.Course,
		Campus:       req.Campus,
		Status:       req.Status,
	}

	ranked := s.engine.Retrieve(ctx, req.Query, filters, req.TopK)

	answer := s.composer.Compose(ctx, store.KindConversational, map[string]string{}, ranked, "", nil)

	return &dto.RAGQueryResponse{
		AnswerMarkdown: answer,
		Sources:        sourcesDTO(ranked),
	}, nil
}

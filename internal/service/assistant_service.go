package service

import (
	"context"
	"strings"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/config"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/dto"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/pkg/logger"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/repository/memory"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/actions"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/history"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/intent"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/response"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/retrieval"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/ratelimit"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/store"
)

// IAssistantService is the query router: one entry point that classifies
// the request, retrieves grounding material and composes the reply.
type IAssistantService interface {
	Route(ctx context.Context, userID, orgID string, req *dto.RouterRequest) (*dto.RouterResponse, error)
}

type assistantService struct {
	limiter  *ratelimit.Limiter
	buffer   *history.Buffer
	resolver *intent.Resolver
	engine   *retrieval.Engine
	composer *response.Composer
	sessions *memory.SessionRepository
	log      logger.ILogger
	aiCfg    *config.AIConfig
}

func NewAssistantService(
	limiter *ratelimit.Limiter,
	buffer *history.Buffer,
	resolver *intent.Resolver,
	engine *retrieval.Engine,
	composer *response.Composer,
	sessions *memory.SessionRepository,
	log logger.ILogger,
	aiCfg *config.AIConfig,
) IAssistantService {
	return &assistantService{
		limiter:  limiter,
		buffer:   buffer,
		resolver: resolver,
		engine:   engine,
		composer: composer,
		sessions: sessions,
		log:      log,
		aiCfg:    aiCfg,
	}
}

const (
	condensedMaxTurns = 6
	condensedMaxChars = 1200

	// Below this confidence an ambiguous follow-up inherits the prior
	// turn's intent instead of dropping to general search.
	continuityConfidence = 0.5
)

func (s *assistantService) Route(ctx context.Context, userID, orgID string, req *dto.RouterRequest) (*dto.RouterResponse, error) {
	if !s.limiter.Admit(userID, orgID) {
		return nil, ratelimit.ErrRateLimited
	}

	sessionID := req.SessionId
	if sessionID == "" {
		sessionID = userID
	}

	prior, hasPrior := s.sessions.Get(sessionID)

	s.buffer.Append(sessionID, "user", req.Query)
	conversation := s.buffer.Condensed(sessionID, condensedMaxTurns, condensedMaxChars)

	classification := s.resolver.Resolve(ctx, req.Query, conversation)
	if hasPrior && classification.Confidence < continuityConfidence &&
		intent.Known(prior.LastIntent) && prior.LastIntent != intent.IntentGeneralSearch {
		classification.Intent = prior.LastIntent
		if classification.Meta == nil {
			classification.Meta = map[string]string{}
		}
		classification.Meta["source"] = "continuity"
	}

	s.log.Info("assistant", "query routed", map[string]interface{}{
		"intent":     classification.Intent,
		"confidence": classification.Confidence,
		"session_id": sessionID,
	})

	if s.wantsModal(classification, req.UICapabilities) {
		// The booking flow moves into structured UI; continuity state is
		// dropped so the next text query starts unbiased.
		s.sessions.Delete(sessionID)
		return s.modalResponse(classification, req), nil
	}

	filters := filtersFromContext(req.Context, classification)
	ranked := s.engine.Retrieve(ctx, req.Query, filters, 0)

	facts := response.FilterFacts(req.Context)
	contract := contractFromContext(req.Context)
	if contract == nil && hasPrior && response.ValidMode(prior.ContractMode) {
		// A contract stays in force for the session until replaced.
		contract = &response.Contract{Mode: prior.ContractMode}
	}

	answer := s.composer.Compose(ctx, store.KindConversational, facts, ranked, conversation, contract)
	s.buffer.Append(sessionID, "assistant", answer)
	s.saveSession(sessionID, userID, orgID, classification.Intent, contract)

	return &dto.RouterResponse{
		Kind:           store.KindConversational,
		AnswerMarkdown: answer,
		Actions:        s.actionsFor(classification, req),
		Sources:        sourcesDTO(ranked),
		Intent:         classification.Intent,
		Confidence:     classification.Confidence,
	}, nil
}

// wantsModal gates structured UI takeover behind the feature flag, the
// client's declared capabilities and a confidently classified booking
// intent. Anything ambiguous falls through to a conversational answer.
func (s *assistantService) wantsModal(c store.Classification, capabilities []string) bool {
	if !s.aiCfg.ModalEnabled {
		return false
	}
	if c.Intent != intent.IntentMeetingBooking || c.Confidence < 0.5 {
		return false
	}
	for _, capability := range capabilities {
		if strings.EqualFold(capability, "modal") {
			return true
		}
	}
	return false
}

func (s *assistantService) modalResponse(c store.Classification, req *dto.RouterRequest) *dto.RouterResponse {
	hints := []actions.Hint{
		{Label: "Schedule meeting", Action: "open_meeting_scheduler"},
		{Label: "Call instead", Action: "open_call_console"},
	}
	return &dto.RouterResponse{
		Kind: store.KindModal,
		Modal: &dto.ModalDTO{
			Type:  "meeting_scheduler",
			Title: "Book a meeting",
			Props: map[string]interface{}{
				"time_range": c.Meta["time_range"],
			},
		},
		Actions:    actionsDTO(actions.NormalizeAll(hints)),
		Intent:     c.Intent,
		Confidence: c.Confidence,
	}
}

func (s *assistantService) actionsFor(c store.Classification, req *dto.RouterRequest) []dto.ActionDTO {
	var hints []actions.Hint
	switch c.Intent {
	case intent.IntentMeetingBooking:
		hints = append(hints, actions.Hint{Label: "Schedule meeting", Action: "open_meeting_scheduler"})
	case intent.IntentAppStatus:
		hints = append(hints, actions.Hint{Label: "View profile", Action: "view_profile"})
	default:
		hints = append(hints, actions.Hint{Label: "Compose email", Action: "open_email_composer"})
	}
	hints = append(hints, actions.Hint{Label: "Call", Action: "open_call_console"})
	return actionsDTO(actions.NormalizeAll(hints))
}

func (s *assistantService) saveSession(sessionID, userID, orgID, lastIntent string, contract *response.Contract) {
	session := &store.Session{
		ID:         sessionID,
		UserID:     userID,
		OrgID:      orgID,
		LastIntent: lastIntent,
	}
	if contract != nil {
		session.ContractMode = contract.Mode
	}
	s.sessions.Save(session)
}

// filtersFromContext maps the structured caller context and the intent
// meta onto retrieval filters. Free text never becomes a filter.
func filtersFromContext(ctx map[string]interface{}, c store.Classification) retrieval.Filters {
	f := retrieval.Filters{
		DocumentType: stringField(ctx, "document_type"),
		Category:     stringField(ctx, "category"),
		Course:       stringField(ctx, "course"),
		Campus:       stringField(ctx, "campus"),
		Status:       stringField(ctx, "status"),
	}
	if f.Category == "" {
		switch c.Intent {
		case intent.IntentFeesFunding:
			f.Category = "fees"
		case intent.IntentAccommodation:
			f.Category = "accommodation"
		}
	}
	return f
}

func contractFromContext(ctx map[string]interface{}) *response.Contract {
	raw, ok := ctx["contract"].(map[string]interface{})
	if !ok {
		return nil
	}
	mode := stringField(raw, "mode")
	if !response.ValidMode(mode) {
		return nil
	}
	contract := &response.Contract{
		Mode:     mode,
		Course:   stringField(raw, "course"),
		Context:  stringField(raw, "context"),
		Audience: stringField(raw, "audience"),
	}
	if musts, ok := raw["must"].([]interface{}); ok {
		for _, m := range musts {
			if s, ok := m.(string); ok && s != "" {
				contract.Must = append(contract.Must, s)
			}
		}
	}
	return contract
}

func stringField(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func actionsDTO(specs []store.ActionSpec) []dto.ActionDTO {
	out := make([]dto.ActionDTO, len(specs))
	for i, a := range specs {
		out[i] = dto.ActionDTO{Label: a.Label, Action: a.Action}
	}
	return out
}

func sourcesDTO(ranked []store.RankedCandidate) []dto.SourceDTO {
	out := make([]dto.SourceDTO, len(ranked))
	for i, r := range ranked {
		out[i] = dto.SourceDTO{Id: r.ID, Title: r.Title, Rank: r.Rank}
	}
	return out
}

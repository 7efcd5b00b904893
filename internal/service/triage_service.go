package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/dto"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/entity"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/pkg/logger"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/repository/contract"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/cache"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/events"
	pktNats "github.com/Lbridge2222/bridge-fullstack-sub002/pkg/nats"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/actions"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/ratelimit"
)

// ITriageService scores a batch of leads for follow-up priority. Scoring
// is deterministic; results are cached per lead revision and re-scored
// only when the lead record changes.
type ITriageService interface {
	Triage(ctx context.Context, userID, orgID string, req *dto.TriageRequest) (*dto.TriageResponse, error)
}

type triageService struct {
	limiter        *ratelimit.Limiter
	leads          contract.LeadRepository
	results        *cache.Store
	eventPublisher *pktNats.Publisher
	log            logger.ILogger
	now            func() time.Time
}

func NewTriageService(
	limiter *ratelimit.Limiter,
	leads contract.LeadRepository,
	results *cache.Store,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) ITriageService {
	return &triageService{
		limiter:        limiter,
		leads:          leads,
		results:        results,
		eventPublisher: eventPublisher,
		log:            log,
		now:            time.Now,
	}
}

const (
	bandHot  = "hot"
	bandWarm = "warm"
	bandCold = "cold"
)

func (s *triageService) Triage(ctx context.Context, userID, orgID string, req *dto.TriageRequest) (*dto.TriageResponse, error) {
	if !s.limiter.Admit(userID, orgID) {
		return nil, ratelimit.ErrRateLimited
	}

	leads, err := s.leads.FindByIds(ctx, req.LeadIds)
	if err != nil {
		return nil, err
	}

	results := make([]dto.TriagedLeadDTO, 0, len(leads))
	for _, lead := range leads {
		scored := s.scoreCached(lead)
		results = append(results, scored)
	}

	s.publish(ctx, orgID, results)

	return &dto.TriageResponse{Results: results}, nil
}

// scoreCached memoizes per lead revision: the key includes the update
// timestamp, so a changed lead record naturally misses and re-scores.
func (s *triageService) scoreCached(lead *entity.Lead) dto.TriagedLeadDTO {
	revision := lead.CreatedAt.Format(time.RFC3339)
	if lead.UpdatedAt != nil {
		revision = lead.UpdatedAt.Format(time.RFC3339)
	}
	key := cache.Key("triage", map[string]string{
		"lead":     lead.Id.String(),
		"revision": revision,
	})

	if v, ok := s.results.Get(key); ok {
		if scored, ok := v.(dto.TriagedLeadDTO); ok {
			return scored
		}
	}

	scored := s.score(lead)
	s.results.Set(key, scored)
	return scored
}

func (s *triageService) score(lead *entity.Lead) dto.TriagedLeadDTO {
	score := 0.0
	var reasons []string

	switch lead.Stage {
	case "offer_made":
		score += 80
		reasons = append(reasons, "offer already made")
	case "interview":
		score += 70
		reasons = append(reasons, "interview stage")
	case "applied":
		score += 60
		reasons = append(reasons, "application submitted")
	case "enquiry":
		score += 40
		reasons = append(reasons, "early-stage enquiry")
	default:
		score += 30
	}

	if lead.LastTouch != nil {
		age := s.now().Sub(*lead.LastTouch)
		switch {
		case age <= 7*24*time.Hour:
			score += 10
			reasons = append(reasons, "contacted within the last week")
		case age > 90*24*time.Hour:
			score -= 15
			reasons = append(reasons, "no contact for over 90 days")
		}
	} else {
		score -= 10
		reasons = append(reasons, "never contacted")
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	band := bandCold
	switch {
	case score >= 70:
		band = bandHot
	case score >= 45:
		band = bandWarm
	}

	return dto.TriagedLeadDTO{
		LeadId:  lead.Id,
		Name:    lead.Name,
		Score:   score,
		Band:    band,
		Reasons: reasons,
		Actions: actionsDTO(actions.NormalizeAll(bandHints(band))),
	}
}

func bandHints(band string) []actions.Hint {
	switch band {
	case bandHot:
		return []actions.Hint{
			{Label: "Call now", Action: "open_call_console"},
			{Label: "View profile", Action: "view_profile"},
		}
	case bandWarm:
		return []actions.Hint{
			{Label: "Send follow-up", Action: "open_email_composer"},
			{Label: "Schedule meeting", Action: "open_meeting_scheduler"},
		}
	default:
		return []actions.Hint{
			{Label: "Send nurture email", Action: "open_email_composer"},
		}
	}
}

// publish emits the scored batch; nil-safe when NATS is not configured.
func (s *triageService) publish(ctx context.Context, orgID string, results []dto.TriagedLeadDTO) {
	if s.eventPublisher == nil {
		return
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return
	}

	evt := events.BaseEvent{
		Type: "lead.triaged",
		Data: map[string]interface{}{
			"org_id":  orgID,
			"count":   len(results),
			"results": json.RawMessage(payload),
		},
		OccurredAt: s.now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.log.Warn("triage", fmt.Sprintf("failed to publish triage events: %v", err), nil)
	}
}
